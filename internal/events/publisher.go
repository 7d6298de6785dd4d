package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	// StreamName is the assistant journal stream.
	StreamName = "ASSISTANT"

	// SubjectPrefix prefixes all journal subjects.
	SubjectPrefix = "assistant"
)

// Journal subjects. Anonymized mappings and raw utterances are never
// published; only committed domain facts are.
const (
	SubjectBookingCreated   = SubjectPrefix + ".booking.created"
	SubjectBookingCancelled = SubjectPrefix + ".booking.cancelled"
	SubjectTaskCreated      = SubjectPrefix + ".task.created"
	SubjectTaskProgress     = SubjectPrefix + ".task.progress"
	SubjectMediaAnalyzed    = SubjectPrefix + ".media.analyzed"
)

// Publisher appends domain events to the journal.
type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
}

// Noop discards events. Used when no broker is configured and in tests.
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }

// JetStreamPublisher publishes journal events to the ASSISTANT stream.
type JetStreamPublisher struct {
	client *Client
}

// NewJetStreamPublisher ensures the journal stream exists and returns a
// publisher bound to it.
func NewJetStreamPublisher(ctx context.Context, client *Client) (*JetStreamPublisher, error) {
	js := client.JetStream()

	if _, err := js.Stream(ctx, StreamName); err != nil {
		_, err = js.CreateStream(ctx, jetstream.StreamConfig{
			Name:        StreamName,
			Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
			Retention:   jetstream.LimitsPolicy,
			MaxAge:      365 * 24 * time.Hour,
			Storage:     jetstream.FileStorage,
			Replicas:    1,
			Compression: jetstream.S2Compression,
			Description: "Assistant booking, task and media events",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create stream: %w", err)
		}
	}

	return &JetStreamPublisher{client: client}, nil
}

// Publish appends one event to the journal.
func (p *JetStreamPublisher) Publish(ctx context.Context, subject string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.client.JetStream().Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

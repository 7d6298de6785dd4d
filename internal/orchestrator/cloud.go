package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/pkg/metrics"
)

const (
	escalationMaxRetries      = 2
	escalationInitialInterval = time.Second
)

// canEscalate checks the remote policy gates: deployment flag, configured
// client, and per-request consent. Any missing gate degrades silently to
// local-only resolution.
func (o *Orchestrator) canEscalate(allowRemote bool) bool {
	return o.remoteEnabled && o.remote != nil && allowRemote
}

// escalate sends an anonymized utterance to the remote provider, retrying
// transient failures with exponential backoff. The anonymization mapping
// never leaves the process; identifying fields in the returned intent are
// restored locally.
func (o *Orchestrator) escalate(ctx context.Context, text string, prev *model.Intent) (*model.Intent, error) {
	redacted, mapping := o.gate.Anonymize(text)
	o.logger.Debug("escalating to remote provider",
		zap.String("provider", o.remote.Name()),
		zap.Int("redactions", len(mapping)),
	)

	// Fixed 1s then 2s delays between the three attempts.
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = escalationInitialInterval
	policy.Multiplier = 2
	policy.RandomizationFactor = 0

	var intent *model.Intent
	operation := func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, o.remoteTimeout)
		defer cancel()

		start := time.Now()
		resolved, err := o.resolver.ResolveWith(attemptCtx, o.remote, redacted, prev)
		if err != nil {
			return err
		}
		metrics.RemoteLatency.WithLabelValues(o.remote.Name()).Observe(time.Since(start).Seconds())
		intent = resolved
		return nil
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(policy, escalationMaxRetries), ctx))
	if err != nil {
		metrics.RecordEscalation("failure")
		return nil, fmt.Errorf("%w: %v", model.ErrRemoteUnavailable, err)
	}
	metrics.RecordEscalation("success")

	// The remote provider only ever saw placeholders, so the intent it
	// produced may carry them in free-text fields.
	intent.Title = o.gate.Deanonymize(intent.Title, mapping)
	intent.Description = o.gate.Deanonymize(intent.Description, mapping)
	for i, attendee := range intent.Attendees {
		intent.Attendees[i] = o.gate.Deanonymize(attendee, mapping)
	}
	return intent, nil
}

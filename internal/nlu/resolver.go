// Package nlu resolves user utterances into structured intents. The local
// model is tried first; a keyword fallback guarantees resolution never
// fails outright.
package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/localfirst-ai/hybrid-assistant/internal/llm"
	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
	"github.com/localfirst-ai/hybrid-assistant/pkg/metrics"
)

const (
	confidenceParsed  = 0.8
	confidenceKeyword = 0.5
	confidenceUnmatch = 0.3
	localMaxTokens    = 512
	promptTemperature = 0.1
)

const systemPrompt = `You are an intent parser for a personal assistant. Reply with a single JSON object and nothing else:
{"intent": "check_availability" | "book_appointment" | "create_task" | "cancel_appointment" | "unknown",
 "datetime": "YYYY-MM-DDTHH:MM:SS" or null,
 "duration_minutes": integer or 0,
 "title": string,
 "description": string,
 "due_date": "YYYY-MM-DDTHH:MM:SS" or null,
 "attendees": [string],
 "appointment_id": integer or 0}
Omit fields you cannot fill. Never invent dates.`

// Resolver turns text into intents. A nil client is valid and sends every
// utterance straight to the keyword fallback.
type Resolver struct {
	client llm.Client
	logger *logger.Logger
}

// NewResolver creates a resolver backed by the given local model client.
func NewResolver(client llm.Client, log *logger.Logger) *Resolver {
	return &Resolver{client: client, logger: log}
}

// ResolveLocal resolves text on-box. It never fails: model errors and
// unparseable output degrade to the keyword fallback.
func (r *Resolver) ResolveLocal(ctx context.Context, text string, prev *model.Intent) *model.Intent {
	if r.client == nil {
		return r.fallback(text)
	}

	raw, err := r.complete(ctx, r.client, text, prev)
	if err != nil {
		r.logger.Warn("local model unavailable, using keyword fallback", zap.Error(err))
		return r.fallback(text)
	}

	intent, err := parseIntent(raw)
	if err != nil {
		r.logger.Warn("local model output unparseable, using keyword fallback",
			zap.Error(err),
			zap.Int("output_len", len(raw)))
		return r.fallback(text)
	}

	intent.Confidence = confidenceParsed
	intent.Source = model.SourceLocal
	metrics.RecordIntent(string(intent.Type), string(intent.Source))
	return intent
}

// ResolveWith resolves text through an explicit client, typically the
// remote escalation provider. Unlike ResolveLocal it surfaces failures so
// the caller can retry or degrade.
func (r *Resolver) ResolveWith(ctx context.Context, client llm.Client, text string, prev *model.Intent) (*model.Intent, error) {
	raw, err := r.complete(ctx, client, text, prev)
	if err != nil {
		return nil, err
	}

	intent, err := parseIntent(raw)
	if err != nil {
		return nil, fmt.Errorf("parse %s output: %w", client.Name(), err)
	}

	intent.Confidence = confidenceParsed
	intent.Source = model.SourceRemote
	metrics.RecordIntent(string(intent.Type), string(intent.Source))
	return intent, nil
}

func (r *Resolver) complete(ctx context.Context, client llm.Client, text string, prev *model.Intent) (string, error) {
	user := fmt.Sprintf("Today is %s.\nUtterance: %s", time.Now().Format("Monday, January 2, 2006"), text)
	if prev != nil {
		if encoded, err := json.Marshal(prev); err == nil {
			user = fmt.Sprintf("%s\nPrevious intent: %s", user, encoded)
		}
	}

	resp, err := client.Complete(ctx, &llm.CompletionRequest{
		Messages: []llm.ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		MaxTokens:   localMaxTokens,
		Temperature: promptTemperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// fallback is the keyword matcher of last resort. Matches carry 0.5
// confidence, everything else 0.3 with an unknown intent.
func (r *Resolver) fallback(text string) *model.Intent {
	lowered := strings.ToLower(text)

	intent := &model.Intent{
		Type:       model.IntentUnknown,
		Confidence: confidenceUnmatch,
		Source:     model.SourceFallback,
	}

	switch {
	case containsAny(lowered, "available", "availability", "free"):
		intent.Type = model.IntentCheckAvailability
		intent.Confidence = confidenceKeyword
	case containsAny(lowered, "book", "schedule", "appointment"):
		intent.Type = model.IntentBookAppointment
		intent.Confidence = confidenceKeyword
	case containsAny(lowered, "task", "todo", "remind"):
		intent.Type = model.IntentCreateTask
		intent.Confidence = confidenceKeyword
		intent.Title = strings.TrimSpace(text)
	case containsAny(lowered, "cancel"):
		intent.Type = model.IntentCancelAppointment
		intent.Confidence = confidenceKeyword
	}

	metrics.RecordIntent(string(intent.Type), string(intent.Source))
	return intent
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Package orchestrator runs the dispatch loop: resolve an utterance into
// an intent, optionally escalate to a remote model, execute against the
// local stores, and reply.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/localfirst-ai/hybrid-assistant/internal/calendar"
	"github.com/localfirst-ai/hybrid-assistant/internal/llm"
	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/internal/nlu"
	"github.com/localfirst-ai/hybrid-assistant/internal/privacy"
	"github.com/localfirst-ai/hybrid-assistant/internal/session"
	"github.com/localfirst-ai/hybrid-assistant/internal/speech"
	"github.com/localfirst-ai/hybrid-assistant/internal/task"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
)

const (
	// confidenceThreshold gates remote escalation: at or above it the
	// local resolution is trusted as-is.
	confidenceThreshold = 0.7

	// defaultDurationMinutes applies when an intent names a time but no
	// duration.
	defaultDurationMinutes = 60
)

const (
	replyNeedDatetime   = "I need a date and time to check availability."
	replyMissingDetails = "I didn't get all the details. Please provide more information."
	replyUnknown        = "I'm not sure how to help with that. Can you rephrase?"
	replyCancelled      = "Appointment cancelled."
	replyCancelNotFound = "I couldn't find that appointment."

	slotTimeFormat = "January 02 at 03:04 PM"
)

// Orchestrator wires the resolver, stores, and collaborators together.
// The remote client and speech service are optional; a nil value disables
// that path and everything else keeps working locally.
type Orchestrator struct {
	resolver *nlu.Resolver
	engine   *calendar.Engine
	tasks    *task.Store
	sessions *session.Store
	gate     *privacy.Gate

	remote        llm.Client
	remoteEnabled bool
	remoteTimeout time.Duration

	speech speech.Service
	logger *logger.Logger
}

// Options carries the optional collaborators and escalation policy.
type Options struct {
	Remote        llm.Client
	RemoteEnabled bool
	RemoteTimeout time.Duration
	Speech        speech.Service
}

// New creates an orchestrator.
func New(resolver *nlu.Resolver, engine *calendar.Engine, tasks *task.Store, sessions *session.Store, gate *privacy.Gate, opts Options, log *logger.Logger) *Orchestrator {
	if gate == nil {
		gate = privacy.NewGate()
	}
	if opts.RemoteTimeout <= 0 {
		opts.RemoteTimeout = 15 * time.Second
	}
	return &Orchestrator{
		resolver:      resolver,
		engine:        engine,
		tasks:         tasks,
		sessions:      sessions,
		gate:          gate,
		remote:        opts.Remote,
		remoteEnabled: opts.RemoteEnabled,
		remoteTimeout: opts.RemoteTimeout,
		speech:        opts.Speech,
		logger:        log,
	}
}

// ResolveAndExecute runs one conversational turn. Local resolution never
// fails; low-confidence intents may be escalated to the remote provider
// when policy, deployment flag, and per-request consent all allow it.
// Execution outcomes are successes; only infrastructure failures produce
// Success=false.
func (o *Orchestrator) ResolveAndExecute(ctx context.Context, text, sessionID string, allowRemote bool) model.DispatchResult {
	var prev *model.Intent
	if sessionID != "" {
		prev = o.sessions.Get(sessionID).LastIntent
	}

	intent := o.resolver.ResolveLocal(ctx, text, prev)

	if intent.Confidence < confidenceThreshold && o.canEscalate(allowRemote) {
		if escalated, err := o.escalate(ctx, text, prev); err == nil {
			intent = escalated
		} else {
			o.logger.Warn("remote escalation failed, keeping local resolution",
				zap.Error(err),
				zap.String("intent", string(intent.Type)),
			)
		}
	}

	response, err := o.execute(ctx, intent)
	if err != nil {
		o.logger.Error("intent execution failed",
			zap.String("intent", string(intent.Type)),
			zap.Error(err),
		)
		return model.DispatchResult{
			Success: false,
			Intent:  intent,
			Error:   err.Error(),
		}
	}

	if sessionID != "" {
		o.sessions.Update(sessionID, intent, response)
	}

	return model.DispatchResult{
		Success:  true,
		Response: response,
		Intent:   intent,
	}
}

// ProcessVoice transcribes audio, dispatches the transcript, and renders
// the reply as speech. Synthesis is best-effort: a reply without audio is
// still a reply.
func (o *Orchestrator) ProcessVoice(ctx context.Context, audio []byte, sessionID string, allowRemote bool) (model.DispatchResult, []byte) {
	if o.speech == nil {
		return model.DispatchResult{
			Success: false,
			Error:   "speech service is not configured",
		}, nil
	}

	transcript, err := o.speech.Transcribe(ctx, audio)
	if err != nil {
		o.logger.Warn("transcription failed", zap.Error(err))
		transcript = ""
	}
	if transcript == "" {
		return model.DispatchResult{Success: false, Error: "Transcription failed"}, nil
	}

	result := o.ResolveAndExecute(ctx, transcript, sessionID, allowRemote)
	if !result.Success || result.Response == "" {
		return result, nil
	}

	spoken, err := o.speech.Synthesize(ctx, result.Response)
	if err != nil {
		o.logger.Warn("speech synthesis failed", zap.Error(err))
		return result, nil
	}
	return result, spoken
}

// execute maps a resolved intent onto the stores and produces the user
// reply. Storage failures surface as errors; everything else is a reply.
func (o *Orchestrator) execute(ctx context.Context, intent *model.Intent) (string, error) {
	switch intent.Type {
	case model.IntentCheckAvailability:
		return o.checkAvailability(ctx, intent)
	case model.IntentBookAppointment:
		return o.bookAppointment(ctx, intent)
	case model.IntentCreateTask:
		return o.createTask(ctx, intent)
	case model.IntentCancelAppointment:
		return o.cancelAppointment(ctx, intent)
	default:
		return replyUnknown, nil
	}
}

func (o *Orchestrator) checkAvailability(ctx context.Context, intent *model.Intent) (string, error) {
	if intent.Datetime == nil {
		return replyNeedDatetime, nil
	}

	res, err := o.engine.CheckAvailability(ctx, *intent.Datetime, durationOrDefault(intent))
	if err != nil {
		if errors.Is(err, model.ErrInvalidInterval) {
			return replyNeedDatetime, nil
		}
		return "", err
	}

	if res.Available {
		return fmt.Sprintf("Yes, %s is available. Would you like to book it?", intent.Datetime.Format(slotTimeFormat)), nil
	}
	if len(res.Suggestions) > 0 {
		return fmt.Sprintf("That time is not available. How about %s?", res.Suggestions[0].Start.Format(slotTimeFormat)), nil
	}
	return "Sorry, no availability around that time.", nil
}

func (o *Orchestrator) bookAppointment(ctx context.Context, intent *model.Intent) (string, error) {
	if intent.Datetime == nil {
		return replyMissingDetails, nil
	}

	res, err := o.engine.Book(ctx, intent.Title, *intent.Datetime, durationOrDefault(intent), intent.Attendees, calendar.BookingMeta{
		Description: intent.Description,
	})
	if err != nil {
		if errors.Is(err, model.ErrInvalidInterval) {
			return replyMissingDetails, nil
		}
		return "", err
	}

	if !res.Success && len(res.Conflicts) > 0 {
		return fmt.Sprintf("%s: it conflicts with %q.", res.Message, res.Conflicts[0].Title), nil
	}
	return res.Message, nil
}

func (o *Orchestrator) createTask(ctx context.Context, intent *model.Intent) (string, error) {
	if intent.Title == "" {
		return replyMissingDetails, nil
	}

	created, err := o.tasks.Create(ctx, intent.Title, intent.Description, intent.DueDate)
	if err != nil {
		if model.IsStorageError(err) {
			return "", err
		}
		return replyMissingDetails, nil
	}
	return fmt.Sprintf("Task created with ID %d.", created.ID), nil
}

func (o *Orchestrator) cancelAppointment(ctx context.Context, intent *model.Intent) (string, error) {
	if intent.AppointmentID == 0 {
		return replyMissingDetails, nil
	}

	if err := o.engine.Cancel(ctx, intent.AppointmentID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return replyCancelNotFound, nil
		}
		return "", err
	}
	return replyCancelled, nil
}

func durationOrDefault(intent *model.Intent) int {
	if intent.DurationMinutes > 0 {
		return intent.DurationMinutes
	}
	return defaultDurationMinutes
}

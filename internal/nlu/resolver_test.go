package nlu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/localfirst-ai/hybrid-assistant/internal/llm"
	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
)

type scriptedClient struct {
	content string
	err     error
	calls   int
}

func (c *scriptedClient) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &llm.CompletionResponse{Content: c.content}, nil
}

func (c *scriptedClient) Name() string { return "scripted" }

func TestResolveLocalParsesStructuredOutput(t *testing.T) {
	client := &scriptedClient{content: `Here you go:
{"intent": "book_appointment", "datetime": "2025-03-01T15:00:00", "duration_minutes": 60, "title": "Standup"}`}
	r := NewResolver(client, logger.NewNop())

	intent := r.ResolveLocal(context.Background(), "book a standup tomorrow at 3pm", nil)

	assert.Equal(t, model.IntentBookAppointment, intent.Type)
	assert.Equal(t, 0.8, intent.Confidence)
	assert.Equal(t, model.SourceLocal, intent.Source)
	assert.Equal(t, "Standup", intent.Title)
	assert.Equal(t, 60, intent.DurationMinutes)
	require.NotNil(t, intent.Datetime)
	assert.Equal(t, time.Date(2025, 3, 1, 15, 0, 0, 0, time.UTC), intent.Datetime.UTC())
}

func TestResolveLocalModelErrorFallsBack(t *testing.T) {
	client := &scriptedClient{err: errors.New("connection refused")}
	r := NewResolver(client, logger.NewNop())

	intent := r.ResolveLocal(context.Background(), "am I free Friday afternoon?", nil)

	assert.Equal(t, model.IntentCheckAvailability, intent.Type)
	assert.Equal(t, 0.5, intent.Confidence)
	assert.Equal(t, model.SourceFallback, intent.Source)
}

func TestResolveLocalUnparseableOutputFallsBack(t *testing.T) {
	client := &scriptedClient{content: "I'd be happy to help you schedule that!"}
	r := NewResolver(client, logger.NewNop())

	intent := r.ResolveLocal(context.Background(), "schedule a call with dana", nil)

	assert.Equal(t, model.IntentBookAppointment, intent.Type)
	assert.Equal(t, 0.5, intent.Confidence)
	assert.Equal(t, model.SourceFallback, intent.Source)
}

func TestResolveLocalNilClientUsesFallback(t *testing.T) {
	r := NewResolver(nil, logger.NewNop())

	intent := r.ResolveLocal(context.Background(), "add a todo to buy milk", nil)

	assert.Equal(t, model.IntentCreateTask, intent.Type)
	assert.Equal(t, "add a todo to buy milk", intent.Title)
	assert.Equal(t, 0.5, intent.Confidence)
}

func TestFallbackUnmatchedIsUnknown(t *testing.T) {
	r := NewResolver(nil, logger.NewNop())

	intent := r.ResolveLocal(context.Background(), "what is the weather like", nil)

	assert.Equal(t, model.IntentUnknown, intent.Type)
	assert.Equal(t, 0.3, intent.Confidence)
	assert.Equal(t, model.SourceFallback, intent.Source)
}

func TestResolveWithSurfacesFailures(t *testing.T) {
	r := NewResolver(nil, logger.NewNop())

	_, err := r.ResolveWith(context.Background(), &scriptedClient{err: errors.New("503")}, "book it", nil)
	assert.Error(t, err)

	_, err = r.ResolveWith(context.Background(), &scriptedClient{content: "no json here"}, "book it", nil)
	assert.Error(t, err)
}

func TestResolveWithTagsRemoteSource(t *testing.T) {
	client := &scriptedClient{content: `{"intent": "check_availability", "datetime": "2025-03-01T15:00:00"}`}
	r := NewResolver(nil, logger.NewNop())

	intent, err := r.ResolveWith(context.Background(), client, "is [NAME_0] free at 3?", nil)
	require.NoError(t, err)
	assert.Equal(t, model.SourceRemote, intent.Source)
	assert.Equal(t, 0.8, intent.Confidence)
}

func TestFirstJSONObject(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		want  string
		fails bool
	}{
		{name: "bare object", in: `{"a":1}`, want: `{"a":1}`},
		{name: "prose wrapped", in: "Sure!\n```json\n{\"a\": {\"b\": 2}}\n```", want: `{"a": {"b": 2}}`},
		{name: "braces in strings", in: `{"a": "{not a} brace"}`, want: `{"a": "{not a} brace"}`},
		{name: "escaped quote", in: `{"a": "say \"hi\" {ok}"}`, want: `{"a": "say \"hi\" {ok}"}`},
		{name: "no object", in: "plain text", fails: true},
		{name: "unterminated", in: `{"a": 1`, fails: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := firstJSONObject(tc.in)
			if tc.fails {
				assert.ErrorIs(t, err, errNoJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseDatetimeLayouts(t *testing.T) {
	for _, in := range []string{
		"2025-03-01T15:00:00Z",
		"2025-03-01T15:00:00",
		"2025-03-01 15:00",
	} {
		ts := parseDatetime(in)
		require.NotNil(t, ts, in)
		assert.Equal(t, 15, ts.Hour(), in)
	}

	assert.Nil(t, parseDatetime(""))
	assert.Nil(t, parseDatetime("null"))
	assert.Nil(t, parseDatetime("next tuesday"))

	date := parseDatetime("2025-03-01")
	require.NotNil(t, date)
	assert.Equal(t, 0, date.Hour())
}

func TestPreviousIntentIsForwarded(t *testing.T) {
	client := &scriptedClient{content: `{"intent": "book_appointment", "datetime": "2025-03-01T16:00:00"}`}
	r := NewResolver(client, logger.NewNop())

	prev := &model.Intent{Type: model.IntentCheckAvailability}
	intent := r.ResolveLocal(context.Background(), "yes, book it", prev)

	assert.Equal(t, 1, client.calls)
	assert.Equal(t, model.IntentBookAppointment, intent.Type)
}

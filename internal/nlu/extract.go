package nlu

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/localfirst-ai/hybrid-assistant/internal/model"
)

var errNoJSON = errors.New("no JSON object in model output")

// firstJSONObject returns the first balanced top-level JSON object in s.
// Models wrap their answers in prose and code fences often enough that a
// plain json.Unmarshal on the raw output is useless.
func firstJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", errNoJSON
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", errNoJSON
}

// UnmarshalFirstObject decodes the first balanced JSON object in raw into
// v. Shared by every consumer that reads structured answers out of chatty
// model output.
func UnmarshalFirstObject(raw string, v any) error {
	obj, err := firstJSONObject(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(obj), v)
}

// intentPayload is the wire shape the prompt asks the model for. Datetime
// fields arrive as bare local timestamps without a zone, so they cannot be
// unmarshalled into time.Time directly.
type intentPayload struct {
	Intent          string   `json:"intent"`
	Datetime        string   `json:"datetime"`
	DurationMinutes int      `json:"duration_minutes"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	DueDate         string   `json:"due_date"`
	Attendees       []string `json:"attendees"`
	AppointmentID   int64    `json:"appointment_id"`
}

var datetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func parseDatetime(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return nil
	}
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}

func parseIntentType(s string) (model.IntentType, bool) {
	switch model.IntentType(strings.TrimSpace(strings.ToLower(s))) {
	case model.IntentCheckAvailability:
		return model.IntentCheckAvailability, true
	case model.IntentBookAppointment:
		return model.IntentBookAppointment, true
	case model.IntentCreateTask:
		return model.IntentCreateTask, true
	case model.IntentCancelAppointment:
		return model.IntentCancelAppointment, true
	case model.IntentUnknown:
		return model.IntentUnknown, true
	}
	return model.IntentUnknown, false
}

// parseIntent extracts a structured intent from raw model output. It
// returns an error whenever the output holds no usable JSON object or the
// object names no known intent; callers fall back to keyword matching.
func parseIntent(raw string) (*model.Intent, error) {
	obj, err := firstJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var payload intentPayload
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return nil, err
	}

	intentType, ok := parseIntentType(payload.Intent)
	if !ok {
		return nil, errors.New("model output names no known intent")
	}

	return &model.Intent{
		Type:            intentType,
		Datetime:        parseDatetime(payload.Datetime),
		DurationMinutes: payload.DurationMinutes,
		Title:           payload.Title,
		Description:     payload.Description,
		DueDate:         parseDatetime(payload.DueDate),
		Attendees:       payload.Attendees,
		AppointmentID:   payload.AppointmentID,
	}, nil
}

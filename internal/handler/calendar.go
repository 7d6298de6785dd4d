package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/localfirst-ai/hybrid-assistant/internal/calendar"
	"github.com/localfirst-ai/hybrid-assistant/internal/middleware"
	"github.com/localfirst-ai/hybrid-assistant/internal/model"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
)

// CalendarHandler handles availability and appointment endpoints.
type CalendarHandler struct {
	engine *calendar.Engine
	logger *logger.Logger
}

// NewCalendarHandler creates a new calendar handler.
func NewCalendarHandler(engine *calendar.Engine, log *logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		engine: engine,
		logger: log,
	}
}

// Availability handles GET /api/v1/calendar/availability
func (h *CalendarHandler) Availability(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be an RFC 3339 timestamp")
		return
	}

	duration := 60
	if raw := r.URL.Query().Get("duration_minutes"); raw != "" {
		duration, err = strconv.Atoi(raw)
		if err != nil || duration <= 0 {
			writeError(w, http.StatusBadRequest, "duration_minutes must be a positive integer")
			return
		}
	}

	res, err := h.engine.CheckAvailability(r.Context(), start, duration)
	if err != nil {
		if errors.Is(err, model.ErrInvalidInterval) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "availability check failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// BookRequest is the request body for creating an appointment.
type BookRequest struct {
	Title           string   `json:"title"`
	Start           string   `json:"start"`
	DurationMinutes int      `json:"duration_minutes"`
	Attendees       []string `json:"attendees,omitempty"`
	Description     string   `json:"description,omitempty"`
	SourceCallID    string   `json:"source_call_id,omitempty"`
}

// Book handles POST /api/v1/calendar/appointments
func (h *CalendarHandler) Book(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateTitle(req.Title); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be an RFC 3339 timestamp")
		return
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 60
	}

	res, err := h.engine.Book(r.Context(), req.Title, start, req.DurationMinutes, req.Attendees, calendar.BookingMeta{
		Description:  req.Description,
		SourceCallID: req.SourceCallID,
	})
	if err != nil {
		if errors.Is(err, model.ErrInvalidInterval) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "booking failed")
		return
	}

	if !res.Success {
		writeJSON(w, http.StatusConflict, res)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// Cancel handles DELETE /api/v1/calendar/appointments/{id}
func (h *CalendarHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid appointment ID")
		return
	}

	if err := h.engine.Cancel(r.Context(), id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			writeError(w, http.StatusNotFound, "appointment not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "cancellation failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Windows handles GET /api/v1/calendar/windows
func (h *CalendarHandler) Windows(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"windows": h.engine.Windows(),
	})
}

package handler

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"

	"github.com/localfirst-ai/hybrid-assistant/internal/middleware"
	"github.com/localfirst-ai/hybrid-assistant/internal/orchestrator"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
)

const maxAudioBytes = 16 << 20 // 16MB upload cap

// AssistantHandler handles conversational endpoints.
type AssistantHandler struct {
	orch   *orchestrator.Orchestrator
	logger *logger.Logger
}

// NewAssistantHandler creates a new assistant handler.
func NewAssistantHandler(orch *orchestrator.Orchestrator, log *logger.Logger) *AssistantHandler {
	return &AssistantHandler{
		orch:   orch,
		logger: log,
	}
}

// TextRequest is the request body for a text turn.
type TextRequest struct {
	Text        string `json:"text"`
	SessionID   string `json:"session_id,omitempty"`
	AllowRemote bool   `json:"allow_remote,omitempty"`
}

// Text handles POST /api/v1/assistant/text
func (h *AssistantHandler) Text(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateUtterance(req.Text); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateSessionID(req.SessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Per-request opt-in counts only when the token carries standing consent.
	allowRemote := req.AllowRemote && middleware.HasRemoteConsent(r.Context())

	result := h.orch.ResolveAndExecute(r.Context(), req.Text, req.SessionID, allowRemote)
	if !result.Success {
		writeJSON(w, http.StatusInternalServerError, result)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// VoiceResponse is the reply to a voice turn. Audio is base64-encoded
// synthesized speech, omitted when synthesis was unavailable.
type VoiceResponse struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Audio    string `json:"audio,omitempty"`
}

// Voice handles POST /api/v1/assistant/voice
func (h *AssistantHandler) Voice(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio")
		return
	}
	if len(audio) == 0 {
		writeError(w, http.StatusBadRequest, "audio file is empty")
		return
	}

	sessionID := r.FormValue("session_id")
	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	allowRemote := r.FormValue("allow_remote") == "true" && middleware.HasRemoteConsent(r.Context())

	result, spoken := h.orch.ProcessVoice(r.Context(), audio, sessionID, allowRemote)

	resp := VoiceResponse{
		Success:  result.Success,
		Response: result.Response,
		Error:    result.Error,
	}
	if len(spoken) > 0 {
		resp.Audio = base64.StdEncoding.EncodeToString(spoken)
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, resp)
}

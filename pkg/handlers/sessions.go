package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/velora-hq/explorer-engine/pkg/apperrors"
	"github.com/velora-hq/explorer-engine/pkg/explorer"
	"github.com/velora-hq/explorer-engine/pkg/querybuilder"
	"github.com/velora-hq/explorer-engine/pkg/websession"
)

// DeleteSessionResponse for delete result.
type DeleteSessionResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SessionsHandler handles exploration session lifecycle and command
// dispatch.
type SessionsHandler struct {
	service explorer.Service
	logger  *zap.Logger
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(service explorer.Service, logger *zap.Logger) *SessionsHandler {
	return &SessionsHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the sessions handler's routes on the given mux.
func (h *SessionsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{pid}/sessions", h.Create)

	// "current" resolves through the browser cookie, so it must be
	// registered before the {sid} wildcard would swallow it.
	mux.HandleFunc("GET /api/sessions/current", h.Current)
	mux.HandleFunc("GET /api/sessions/{sid}", h.Get)
	mux.HandleFunc("DELETE /api/sessions/{sid}", h.Delete)
	mux.HandleFunc("POST /api/sessions/{sid}/commands", h.ApplyCommand)
	mux.HandleFunc("POST /api/sessions/{sid}/execute", h.Execute)
}

// Create handles POST /api/projects/{pid}/sessions
func (h *SessionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	view := h.service.CreateSession(projectID)

	if err := websession.Remember(w, r, view.ID, projectID); err != nil {
		// Continuity is best-effort; the session itself is fine.
		h.logger.Warn("Failed to set session cookie", zap.Error(err))
	}

	h.logger.Info("Created exploration session",
		zap.String("project_id", projectID),
		zap.String("session_id", view.ID))

	response := ApiResponse{Success: true, Data: view}
	if err := WriteJSON(w, http.StatusCreated, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Current handles GET /api/sessions/current
//
// Resolves the browser's remembered session. A stale cookie pointing at
// a swept session is cleared and reported as not found.
func (h *SessionsHandler) Current(w http.ResponseWriter, r *http.Request) {
	sessionID := websession.Current(r)
	if sessionID == "" {
		if err := ErrorResponse(w, http.StatusNotFound, "no_session", "No session remembered for this browser"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	view, err := h.service.Session(sessionID)
	if err != nil {
		if err := websession.Forget(w, r); err != nil {
			h.logger.Warn("Failed to clear session cookie", zap.Error(err))
		}
		if err := ErrorResponse(w, http.StatusNotFound, "session_not_found", "Session expired"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{Success: true, Data: view}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Get handles GET /api/sessions/{sid}
func (h *SessionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := ParseSessionID(w, r, h.logger)
	if !ok {
		return
	}

	view, err := h.service.Session(sessionID)
	if err != nil {
		if err := ErrorResponse(w, http.StatusNotFound, "session_not_found", "Session not found"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{Success: true, Data: view}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/sessions/{sid}
func (h *SessionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := ParseSessionID(w, r, h.logger)
	if !ok {
		return
	}

	h.service.DeleteSession(sessionID)

	if websession.Current(r) == sessionID {
		if err := websession.Forget(w, r); err != nil {
			h.logger.Warn("Failed to clear session cookie", zap.Error(err))
		}
	}

	data := DeleteSessionResponse{
		Success: true,
		Message: "Session deleted successfully",
	}

	response := ApiResponse{Success: true, Data: data}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ApplyCommand handles POST /api/sessions/{sid}/commands
func (h *SessionsHandler) ApplyCommand(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := ParseSessionID(w, r, h.logger)
	if !ok {
		return
	}

	var cmd querybuilder.Command
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if cmd.Op == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_op", "Command op is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	view, err := h.service.ApplyCommand(sessionID, cmd)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "session_not_found", "Session not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		if errors.Is(err, apperrors.ErrUnknownCommand) {
			if err := ErrorResponse(w, http.StatusBadRequest, "unknown_command", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to apply command",
			zap.String("session_id", sessionID),
			zap.String("op", string(cmd.Op)),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to apply command"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{Success: true, Data: view}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Execute handles POST /api/sessions/{sid}/execute
//
// Expected execution failures (nothing selected yet, a rejected filter
// value, an upstream error, a stale response) come back as a 200 with
// success=false so the builder UI can show them inline.
func (h *SessionsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := ParseSessionID(w, r, h.logger)
	if !ok {
		return
	}

	var req explorer.ExecuteRequest
	// Body is optional for execute
	_ = json.NewDecoder(r.Body).Decode(&req)

	exec, err := h.service.Execute(r.Context(), sessionID, req)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "session_not_found", "Session not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}

		h.logger.Info("Session execution failed",
			zap.String("session_id", sessionID),
			zap.Error(err))

		response := ApiResponse{
			Success: false,
			Error:   err.Error(),
		}
		if err := WriteJSON(w, http.StatusOK, response); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{Success: true, Data: exec}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

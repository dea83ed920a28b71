package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/velora-hq/explorer-engine/pkg/explorer"
)

// AskRequest for POST ask body.
type AskRequest struct {
	Question string `json:"question"`
}

// AskHandler forwards natural-language questions to the data plane.
type AskHandler struct {
	service explorer.Service
	logger  *zap.Logger
}

// NewAskHandler creates a new ask handler.
func NewAskHandler(service explorer.Service, logger *zap.Logger) *AskHandler {
	return &AskHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the ask handler's routes on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{pid}/ask", h.Ask)
}

// Ask handles POST /api/projects/{pid}/ask
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.Question == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_question", "Question is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	answer, err := h.service.Ask(r.Context(), projectID, req.Question)
	if err != nil {
		// The data plane owns question understanding; a question it
		// cannot answer is an expected outcome.
		h.logger.Info("Question failed",
			zap.String("project_id", projectID),
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

	response := ApiResponse{Success: true, Data: answer}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/velora-hq/explorer-engine/pkg/explorer"
	"github.com/velora-hq/explorer-engine/pkg/models"
)

// TestSpecRequest for POST test body.
type TestSpecRequest struct {
	Spec  models.QuerySpec `json:"spec"`
	Chart models.ChartType `json:"chart,omitempty"`
}

// RunSQLRequest for POST run body.
type RunSQLRequest struct {
	SQL   string           `json:"sql"`
	Chart models.ChartType `json:"chart,omitempty"`
}

// QueriesHandler handles stateless query execution: trying out a spec
// without a session, and running ad-hoc SQL.
type QueriesHandler struct {
	service explorer.Service
	logger  *zap.Logger
}

// NewQueriesHandler creates a new queries handler.
func NewQueriesHandler(service explorer.Service, logger *zap.Logger) *QueriesHandler {
	return &QueriesHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the queries handler's routes on the given mux.
func (h *QueriesHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/projects/{pid}/queries"

	mux.HandleFunc("POST "+base+"/test", h.Test)
	mux.HandleFunc("POST "+base+"/run", h.Run)
}

// Test handles POST /api/projects/{pid}/queries/test
//
// Compiles and runs a caller-supplied spec without creating a session.
// Compile and execution failures come back as a 200 with success=false,
// like a connection test: the caller asked "does this work", and "no"
// is a valid answer.
func (h *QueriesHandler) Test(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req TestSpecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	exec, err := h.service.RunSpec(r.Context(), projectID, req.Spec, req.Chart)
	if err != nil {
		h.logger.Info("Spec test failed",
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

	response := ApiResponse{Success: true, Data: exec}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Run handles POST /api/projects/{pid}/queries/run
func (h *QueriesHandler) Run(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req RunSQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if req.SQL == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_sql", "SQL query is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	exec, err := h.service.RunSQL(r.Context(), projectID, req.SQL, req.Chart)
	if err != nil {
		// Validation and execution failures alike are expected outcomes
		// of ad-hoc SQL; report them inline.
		h.logger.Info("Ad-hoc query failed",
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

	response := ApiResponse{Success: true, Data: exec}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

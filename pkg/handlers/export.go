package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/velora-hq/explorer-engine/pkg/explorer"
)

// ExportRequest for POST export body.
type ExportRequest struct {
	SQL    string `json:"sql"`
	Format string `json:"format,omitempty"`
}

// ExportHandler streams export downloads from the data plane.
type ExportHandler struct {
	service explorer.Service
	logger  *zap.Logger
}

// NewExportHandler creates a new export handler.
func NewExportHandler(service explorer.Service, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the export handler's routes on the given mux.
func (h *ExportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects/{pid}/export", h.Export)
}

// Export handles POST /api/projects/{pid}/export
//
// On success the response is the file stream itself, not an
// ApiResponse envelope.
func (h *ExportHandler) Export(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	var req ExportRequest
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

	result, err := h.service.Export(r.Context(), projectID, req.SQL, req.Format)
	if err != nil {
		// The statement was screened before leaving the engine, so a
		// failure here is either a rejected statement or an upstream
		// error. Both abort before any bytes were streamed.
		h.logger.Warn("Export failed",
			zap.String("project_id", projectID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusBadRequest, "export_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	defer result.Body.Close()

	contentType := result.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(result.Filename))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, result.Body); err != nil {
		// Headers are gone; all we can do is log the broken stream.
		h.logger.Error("Failed to stream export",
			zap.String("project_id", projectID),
			zap.Error(err))
	}
}

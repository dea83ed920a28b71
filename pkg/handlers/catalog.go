package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/velora-hq/explorer-engine/pkg/apperrors"
	"github.com/velora-hq/explorer-engine/pkg/explorer"
)

// CatalogHandler serves the catalog views of a project.
type CatalogHandler struct {
	service explorer.Service
	logger  *zap.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(service explorer.Service, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the catalog handler's routes on the given mux.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/projects/{pid}/catalog"

	mux.HandleFunc("GET "+base, h.Get)
	mux.HandleFunc("POST "+base+"/refresh", h.Refresh)
	mux.HandleFunc("GET "+base+"/search", h.Search)
	mux.HandleFunc("GET "+base+"/tables/{table}", h.Describe)
}

// Get handles GET /api/projects/{pid}/catalog
//
// The first request for a project triggers the catalog load; until it
// finishes, subsequent requests see the loading state. A failed load is
// reported through the view's state, not as an HTTP error.
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	view, err := h.service.Catalog(r.Context(), projectID)
	if err != nil {
		h.logger.Error("Failed to get catalog",
			zap.String("project_id", projectID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to get catalog"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{Success: true, Data: view}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Refresh handles POST /api/projects/{pid}/catalog/refresh
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	view, err := h.service.RefreshCatalog(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, apperrors.ErrCatalogLoading) {
			// A load is already in flight; report the current view so the
			// client can keep polling.
			response := ApiResponse{
				Success: false,
				Data:    view,
				Error:   err.Error(),
			}
			if err := WriteJSON(w, http.StatusOK, response); err != nil {
				h.logger.Error("Failed to write response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to refresh catalog",
			zap.String("project_id", projectID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to refresh catalog"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{Success: true, Data: view}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Search handles GET /api/projects/{pid}/catalog/search?q=...
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	query := r.URL.Query().Get("q")

	view, err := h.service.SearchCatalog(r.Context(), projectID, query)
	if err != nil {
		h.logger.Error("Failed to search catalog",
			zap.String("project_id", projectID),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to search catalog"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{Success: true, Data: view}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Describe handles GET /api/projects/{pid}/catalog/tables/{table}
func (h *CatalogHandler) Describe(w http.ResponseWriter, r *http.Request) {
	projectID, ok := ParseProjectID(w, r, h.logger)
	if !ok {
		return
	}

	tableName, ok := ParseTableName(w, r, h.logger)
	if !ok {
		return
	}

	table, err := h.service.DescribeTable(r.Context(), projectID, tableName)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "table_not_found", "Table not found in catalog"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to describe table",
			zap.String("project_id", projectID),
			zap.String("table", tableName),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to describe table"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	response := ApiResponse{Success: true, Data: table}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

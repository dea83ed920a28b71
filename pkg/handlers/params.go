package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ParseProjectID extracts the project ID from the request path. Project
// IDs are opaque data-plane identifiers, so only presence is checked.
// Returns the ID and true on success, or "" and false after writing an
// error response.
// Expects path parameter: pid
func ParseProjectID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	projectID := r.PathValue("pid")
	if projectID == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_project_id", "Project ID is required"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return projectID, true
}

// ParseSessionID extracts and validates the session ID from the request
// path. Session IDs are UUIDs minted by the engine.
// Expects path parameter: sid
func ParseSessionID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	sessionID := r.PathValue("sid")
	if _, err := uuid.Parse(sessionID); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_session_id", "Invalid session ID format"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return sessionID, true
}

// ParseTableName extracts the qualified table name from the request
// path. Qualified names carry dots, never slashes, so a single path
// segment holds them.
// Expects path parameter: table
func ParseTableName(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	table := r.PathValue("table")
	if table == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_table", "Table name is required"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return table, true
}

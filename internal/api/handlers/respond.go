package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/wonny/tradelens/backend/internal/auth"
	"github.com/wonny/tradelens/backend/pkg/apperr"
	"github.com/wonny/tradelens/backend/pkg/logger"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	writeJSON(w, logger.FromContext(r.Context()), status, data)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, ErrorResponse{Error: message})
}

// writeJSON encodes before writing the header so an unencodable body becomes a 500
func writeJSON(w http.ResponseWriter, log *logger.Logger, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		log.WithError(err).WithField("status", status).Error("Failed to encode response")
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Error: "Internal server error"})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body = append(body, '\n')
	if _, err := w.Write(body); err != nil {
		log.WithError(err).Debug("Failed to write response")
	}
}

// respondAppError writes err using its kind's status
// Internal causes are logged, never sent; anything that is not an
// *apperr.Error is answered with fallback.
func respondAppError(w http.ResponseWriter, log *logger.Logger, err error, fallback string) {
	appErr, ok := apperr.As(err)
	if !ok {
		log.WithError(err).Error(fallback)
		writeJSON(w, log, http.StatusInternalServerError, ErrorResponse{Error: fallback})
		return
	}

	status := appErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.WithError(err).WithField("kind", appErr.Kind.String()).Error(appErr.Message)
		writeJSON(w, log, status, ErrorResponse{Error: appErr.Message})
		return
	}
	writeJSON(w, log, status, ErrorResponse{Error: appErr.Message, Details: appErr.Details})
}

// userID returns the caller resolved by the auth middleware
func userID(r *http.Request) (string, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok || id.UserID == "" {
		return "", false
	}
	return id.UserID, true
}

// requireUser writes a 401 when the request carries no identity
func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	uid, ok := userID(r)
	if !ok {
		respondError(w, r, http.StatusUnauthorized, auth.MsgNoToken)
	}
	return uid, ok
}

// internal/controller/response.go
package controller

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	appErrors "github.com/unclebandit/crowdfund-backend/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps err onto its HTTP status and an {"error": message} body.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := appErrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": appErrors.PublicMessage(err)})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

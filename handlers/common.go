package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/umakantv/go-utils/errs"
	logger "github.com/umakantv/go-utils/logger"
	"go.uber.org/zap"
)

// logRequest logs msg with the route name, method and path of r, plus the
// session id and subject when the request is authenticated.
func logRequest(r *http.Request, level string, message string, fields ...zap.Field) {
	routeName := ""
	if route := mux.CurrentRoute(r); route != nil {
		routeName = route.GetName()
	}

	allFields := append([]zap.Field{
		zap.String("route", routeName),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}, fields...)
	if claims, ok := ClaimsFromContext(r.Context()); ok {
		allFields = append(allFields, zap.String("session_id", claims.ID))
	}
	if subject, ok := SubjectFromContext(r.Context()); ok {
		if subject.IsAdministrative() {
			allFields = append(allFields, zap.String("subject", "admin"))
		} else {
			allFields = append(allFields, zap.Int64("user_id", subject.UserID))
		}
	}

	switch level {
	case "info":
		logger.Info(message, allFields...)
	case "error":
		logger.Error(message, allFields...)
	case "debug":
		logger.Debug(message, allFields...)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errs.NewValidationError(message))
}

func unauthorized(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnauthorized, errs.NewAuthenticationError(message))
}

func internalError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusInternalServerError, errs.NewInternalServerError(message))
}

// Package httpserver contains HTTP handlers and middleware.
//
// It exposes the conversation, interview, and guidance endpoints and keeps a
// clear separation between HTTP concerns and the conversation engine.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hamdani2020/EdAgent-sub002/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, _ *http.Request, err error, details interface{}) {
	code := http.StatusInternalServerError
	codeStr := "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		code = http.StatusBadRequest
		codeStr = "INVALID_INPUT"
	case errors.Is(err, domain.ErrNotFound):
		code = http.StatusNotFound
		codeStr = "NOT_FOUND"
	case errors.Is(err, domain.ErrSessionConflict):
		code = http.StatusConflict
		codeStr = "SESSION_CONFLICT"
	case errors.Is(err, domain.ErrAIUnavailable):
		code = http.StatusServiceUnavailable
		codeStr = "AI_UNAVAILABLE"
	case errors.Is(err, domain.ErrMalformedAIOutput):
		code = http.StatusServiceUnavailable
		codeStr = "AI_OUTPUT_INVALID"
	case errors.Is(err, domain.ErrPersistence):
		code = http.StatusServiceUnavailable
		codeStr = "PERSISTENCE"
	}
	writeJSON(w, code, errorEnvelope{Error: apiError{Code: codeStr, Message: err.Error(), Details: details}})
}

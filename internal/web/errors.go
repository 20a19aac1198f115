package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/appsize/internal/android"
	"github.com/JonMunkholm/appsize/internal/apperr"
	"github.com/JonMunkholm/appsize/internal/logging"
	"github.com/JonMunkholm/appsize/internal/policy"
	"github.com/JonMunkholm/appsize/internal/service"
)

var errEmptyUpload = errors.New("empty upload")

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status of an evaluation error.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, policy.ErrInvalidArgument),
		errors.Is(err, android.ErrMissingColumn),
		errors.Is(err, errEmptyUpload):
		return http.StatusBadRequest
	case strings.HasPrefix(apperr.Map(err).Code, "CSV"):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// respondError logs the technical error and returns the mapped user message,
// as JSON for /api routes and plain text elsewhere.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := apperr.Map(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if !strings.HasPrefix(r.URL.Path, "/api/") {
		http.Error(w, msg.Message+" ("+msg.Code+")", status)
		return
	}
	writeJSON(w, r, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

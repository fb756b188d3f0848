package http

import (
	"errors"
	"net/http"

	"farmledger/internal/core"
	applog "farmledger/internal/log"
)

const (
	messageNotFound     = "Expense not found"
	messageFarmNotFound = "Farm not found"
	messageUserNotFound = "User not found"
)

// writeError maps err onto the JSON error payload. fallback is the message
// sent for unexpected failures, whose details are only logged.
func writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var (
		ve *core.ValidationError
		ae *core.AuthError
		pe *core.PersistenceError
	)
	switch {
	case errors.As(err, &ve):
		BadRequestError(ve.Message, ve.Fields...).Write(w)
	case errors.As(err, &ae):
		UnauthorizedError(ae.Message).Write(w)
	case errors.Is(err, core.ErrFarmNotFound):
		NotFoundError(messageFarmNotFound).Write(w)
	case errors.Is(err, core.ErrUserNotFound):
		NotFoundError(messageUserNotFound).Write(w)
	case errors.Is(err, core.ErrNotFound):
		NotFoundError(messageNotFound).Write(w)
	default:
		errorType := applog.ErrorTypeInternal
		if errors.As(err, &pe) {
			errorType = applog.ErrorTypeDatabase
		}
		logger := applog.FromContext(r.Context())
		logger.ErrorContext(r.Context(), fallback,
			applog.FieldError, err,
			applog.FieldErrorType, errorType,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		InternalServerError(fallback).Write(w)
	}
}

// writeAuthError is the callback handed to the auth middleware.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, err, "Authentication failed")
}

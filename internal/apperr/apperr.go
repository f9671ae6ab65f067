// Package apperr defines the error conditions callers are expected to act on.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrAuthenticationRequired means no usable credential exists; the user must re-consent
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrAuthorizationFailed means the provider rejected an authorization code
	ErrAuthorizationFailed = errors.New("authorization failed")

	// ErrRemoteFetch means the mail gateway failed mid-call
	ErrRemoteFetch = errors.New("remote fetch failed")

	// ErrInvalidDomain means a sender address or domain could not be parsed
	ErrInvalidDomain = errors.New("invalid email domain")

	// ErrAIProviderUnavailable means the AI provider could not be constructed
	ErrAIProviderUnavailable = errors.New("ai provider unavailable")

	// ErrAIProviderCall means a single AI call failed
	ErrAIProviderCall = errors.New("ai provider call failed")

	// ErrSessionNotFound means the session is absent or expired
	ErrSessionNotFound = errors.New("session not found")

	// ErrInvalidRequest means the caller supplied unusable input
	ErrInvalidRequest = errors.New("invalid request")

	// ErrMessageNotFound means the mail gateway has no message with the given id
	ErrMessageNotFound = errors.New("message not found")
)

// Status maps an error to the HTTP status code the front controller should return
func Status(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrAuthenticationRequired), errors.Is(err, ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, ErrAuthorizationFailed), errors.Is(err, ErrInvalidDomain), errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrMessageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAIProviderUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrRemoteFetch), errors.Is(err, ErrAIProviderCall):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

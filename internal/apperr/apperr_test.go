package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"auth required", fmt.Errorf("load token: %w", ErrAuthenticationRequired), http.StatusUnauthorized},
		{"session", ErrSessionNotFound, http.StatusUnauthorized},
		{"authorization", fmt.Errorf("exchange: %w", ErrAuthorizationFailed), http.StatusBadRequest},
		{"domain", ErrInvalidDomain, http.StatusBadRequest},
		{"request", ErrInvalidRequest, http.StatusBadRequest},
		{"message", fmt.Errorf("get: %w", ErrMessageNotFound), http.StatusNotFound},
		{"ai unavailable", ErrAIProviderUnavailable, http.StatusServiceUnavailable},
		{"remote", fmt.Errorf("list: %w", ErrRemoteFetch), http.StatusBadGateway},
		{"ai call", ErrAIProviderCall, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

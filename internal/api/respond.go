package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mixelka/inboxlens/internal/apperr"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// fail writes err as {"detail": ...}. Unclassified errors are not echoed to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	detail := err.Error()

	logger := requestLogger(r)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
		if status == http.StatusInternalServerError {
			detail = "Internal server error"
		}
	} else {
		logger.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	s.respondJSON(w, status, errorResponse{Detail: detail})
}

// decode reads a JSON body into v
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body too large", apperr.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: invalid JSON: %v", apperr.ErrInvalidRequest, err)
	}
	return nil
}

package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"orderdesk/merge"
	"orderdesk/repository"
	"orderdesk/service"
	"orderdesk/session"
	"orderdesk/tabs"
)

// errorBody is the JSON error shape returned by every endpoint
type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, op string, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ %s: Error encoding response: %v", op, err)
	}
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	var submitErr *session.SubmitError
	switch {
	case errors.Is(err, tabs.ErrTabNotFound),
		errors.Is(err, merge.ErrOrderNotFound),
		errors.Is(err, session.ErrLineNotFound),
		errors.Is(err, repository.ErrSnapshotNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrValidation),
		errors.Is(err, tabs.ErrInvalidTab),
		errors.Is(err, tabs.ErrNoSession):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrReadOnly),
		errors.Is(err, session.ErrSubmitting):
		return http.StatusConflict
	case errors.Is(err, service.ErrReadOnlyTransport):
		return http.StatusNotImplemented
	case errors.As(err, &submitErr), errors.Is(err, service.ErrRemote):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	log.Printf("❌ %s: %v", op, err)
	writeJSON(w, op, status, errorBody{Error: err.Error()})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", session.ErrValidation, err)
	}
	return nil
}

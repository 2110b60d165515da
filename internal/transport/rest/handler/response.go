package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"surveyassist/internal/cache"
	"surveyassist/internal/flow"
	"surveyassist/internal/model"
	"surveyassist/internal/service"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error    string          `json:"error"`
	Reason   string          `json:"reason,omitempty"`
	Expected string          `json:"expected,omitempty"`
	Question *model.Question `json:"question,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps service and flow errors onto HTTP statuses
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var invalid *flow.InvalidAnswerError
	var oos *flow.OutOfSequenceError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:    flow.ErrInvalidAnswer.Error(),
			Reason:   invalid.Reason,
			Question: invalid.Question,
		})
	case errors.As(err, &oos):
		writeJSON(w, http.StatusConflict, ErrorResponse{
			Error:    flow.ErrOutOfSequence.Error(),
			Expected: oos.Expected,
		})
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, service.ErrResultNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, cache.ErrLockTimeout):
		writeError(w, http.StatusLocked, err.Error())
	case errors.Is(err, service.ErrResultsDisabled):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xela07ax/fraudwatch-console/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError отдает оператору текст из domain.UserMessage и код по типу отказа.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: domain.UserMessage(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidVerdict), errors.Is(err, domain.ErrPageOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotSelected), errors.Is(err, domain.ErrNotPending),
		errors.Is(err, domain.ErrUploadInProgress), errors.Is(err, domain.ErrStaleResponse):
		return http.StatusConflict
	case errors.Is(err, domain.ErrProcessingTimeout), errors.Is(err, domain.ErrPollTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrUploadFailed), errors.Is(err, domain.ErrReviewSubmitFailed),
		errors.Is(err, domain.ErrNetwork), errors.Is(err, domain.ErrBadStatus):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

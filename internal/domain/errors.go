package domain

import (
	"errors"
	"fmt"
)

// Таксономия отказов ядра. Компоненты оборачивают их через %w, граница сессии превращает в текст.
var (
	ErrNetwork            = errors.New("network error")
	ErrBadStatus          = errors.New("backend returned non-OK status")
	ErrUploadFailed       = errors.New("upload failed")
	ErrPollTimeout        = errors.New("polling exceeded maximum attempts")
	ErrProcessingTimeout  = errors.New("batch processing timed out")
	ErrReviewSubmitFailed = errors.New("failed to submit review")

	ErrPageOutOfRange = errors.New("page out of range")
	ErrStaleResponse  = errors.New("stale response discarded")
	ErrInvalidVerdict = errors.New("invalid verdict")
	ErrNotSelected    = errors.New("no transaction selected")
	ErrNotPending     = errors.New("transaction is not pending review")

	ErrUploadInProgress = errors.New("another upload is in progress")
)

// UserMessage переводит ошибку в сообщение для оператора.
// Тип отказа определяется через errors.Is, поэтому порядок проверок важен:
// ProcessingTimeout оборачивает PollTimeout и должен распознаваться первым.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUploadFailed):
		return fmt.Sprintf("Failed to process file: %v", err)
	case errors.Is(err, ErrProcessingTimeout):
		return "Failed to process file: results did not appear in time, previous data is still shown"
	case errors.Is(err, ErrPollTimeout):
		return "Backend did not publish fresh data in time"
	case errors.Is(err, ErrReviewSubmitFailed):
		return fmt.Sprintf("Failed to submit review, try again: %v", err)
	case errors.Is(err, ErrPageOutOfRange):
		return "Requested page does not exist"
	case errors.Is(err, ErrInvalidVerdict):
		return "Verdict must be 0 (legitimate) or 1 (fraudulent)"
	case errors.Is(err, ErrNotPending):
		return "Transaction is no longer waiting for review"
	case errors.Is(err, ErrUploadInProgress):
		return "Wait for the current file to finish processing"
	case errors.Is(err, ErrNotSelected):
		return "Select a transaction to review first"
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrBadStatus):
		return fmt.Sprintf("Failed to fetch data: %v", err)
	default:
		return fmt.Sprintf("Unknown error: %v", err)
	}
}

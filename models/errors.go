package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeBrowserLaunch = "BROWSER_LAUNCH_FAILED"
	ErrCodeTimeout       = "WAIT_TIMEOUT"
	ErrCodeAuthFailed    = "AUTH_FAILED"
	ErrCodeNavigation    = "NAVIGATION_FAILED"
	ErrCodeNoTrends      = "NO_TRENDS"
	ErrCodeIPLookup      = "IP_LOOKUP_FAILED"
	ErrCodeStorage       = "STORAGE_FAILED"
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeBusy          = "BUSY"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// TrendError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type TrendError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *TrendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *TrendError) Unwrap() error {
	return e.Err
}

// NewTrendError creates a new TrendError.
func NewTrendError(code, message string, err error) *TrendError {
	return &TrendError{Code: code, Message: message, Err: err}
}

// Describe renders the message shown to API clients. The wrapped cause is
// included because the caller has no other way to see which selector or
// driver call failed.
func (e *TrendError) Describe() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

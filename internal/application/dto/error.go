package dto

import "time"

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// ErrorCode represents standard error codes.
type ErrorCode string

const (
	// ErrorCodeInvalidRequest indicates that the request contains invalid parameters or data.
	ErrorCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrorCodeNoChallenges indicates that no challenge could be served.
	ErrorCodeNoChallenges ErrorCode = "NO_CHALLENGES"
	// ErrorCodeInternalError indicates an unexpected internal server error occurred.
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	// ErrorCodeServiceUnavailable indicates that the service is temporarily unavailable.
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// NewErrorResponse creates a new error response.
func NewErrorResponse(code ErrorCode, message string) ErrorResponse {
	return ErrorResponse{
		Error:     string(code),
		Message:   message,
		Timestamp: time.Now(),
	}
}

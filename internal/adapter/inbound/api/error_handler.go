// Package api serves challenges to the consuming typing-exercise application over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"

	"snippetcorpus/internal/application/common/slogger"
	"snippetcorpus/internal/application/dto"
	"snippetcorpus/internal/domain/errors/domain"
)

// ErrorHandler defines methods for handling HTTP errors.
type ErrorHandler interface {
	HandleValidationError(w http.ResponseWriter, r *http.Request, err error)
	HandleServiceError(w http.ResponseWriter, r *http.Request, err error)
}

// ErrorHandlingConfig defines how one class of error is answered.
type ErrorHandlingConfig struct {
	LogMessage      string
	ErrorType       string
	HTTPStatus      int
	ErrorCode       dto.ErrorCode
	ResponseMessage string
	UseDetailedMsg  bool
}

type errorMapping struct {
	target error
	config ErrorHandlingConfig
}

// DefaultErrorHandler implements ErrorHandler with standard HTTP error responses.
type DefaultErrorHandler struct {
	mappings []errorMapping
}

// NewDefaultErrorHandler creates a new DefaultErrorHandler with predefined error configurations.
func NewDefaultErrorHandler() ErrorHandler {
	return &DefaultErrorHandler{mappings: []errorMapping{
		{domain.ErrNoChallenges, ErrorHandlingConfig{
			LogMessage:     "No challenges available",
			ErrorType:      "no_challenges",
			HTTPStatus:     http.StatusNotFound,
			ErrorCode:      dto.ErrorCodeNoChallenges,
			UseDetailedMsg: true,
		}},
		{domain.ErrInvalidProjectName, ErrorHandlingConfig{
			LogMessage:     "Invalid project name",
			ErrorType:      "validation",
			HTTPStatus:     http.StatusBadRequest,
			ErrorCode:      dto.ErrorCodeInvalidRequest,
			UseDetailedMsg: true,
		}},
		{domain.ErrInvalidInput, ErrorHandlingConfig{
			LogMessage:     "Invalid input",
			ErrorType:      "validation",
			HTTPStatus:     http.StatusBadRequest,
			ErrorCode:      dto.ErrorCodeInvalidRequest,
			UseDetailedMsg: true,
		}},
		{context.DeadlineExceeded, ErrorHandlingConfig{
			LogMessage:      "Request timed out",
			ErrorType:       "timeout",
			HTTPStatus:      http.StatusServiceUnavailable,
			ErrorCode:       dto.ErrorCodeServiceUnavailable,
			ResponseMessage: "The request timed out",
		}},
	}}
}

func (h *DefaultErrorHandler) logError(r *http.Request, message, errorType string, err error) {
	slogger.Error(r.Context(), message, slogger.Fields{
		"error": err.Error(),
		"path":  r.URL.Path,
		"type":  errorType,
	})
}

func (h *DefaultErrorHandler) handleErrorWithConfig(w http.ResponseWriter, r *http.Request, err error, config ErrorHandlingConfig) {
	h.logError(r, config.LogMessage, config.ErrorType, err)

	message := config.ResponseMessage
	if config.UseDetailedMsg {
		message = err.Error()
	}
	h.writeErrorResponse(w, r, config.HTTPStatus, dto.NewErrorResponse(config.ErrorCode, message))
}

// HandleValidationError answers 400 Bad Request.
func (h *DefaultErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	h.logError(r, "Validation error occurred", "validation", err)
	h.writeErrorResponse(w, r, http.StatusBadRequest, dto.NewErrorResponse(dto.ErrorCodeInvalidRequest, err.Error()))
}

// HandleServiceError maps service errors to HTTP status codes. No-content errors keep their
// message so clients can tell an unknown language from an empty corpus.
func (h *DefaultErrorHandler) HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, m := range h.mappings {
		if errors.Is(err, m.target) {
			h.handleErrorWithConfig(w, r, err, m.config)
			return
		}
	}

	h.handleErrorWithConfig(w, r, err, ErrorHandlingConfig{
		LogMessage:      "Internal server error",
		ErrorType:       "internal",
		HTTPStatus:      http.StatusInternalServerError,
		ErrorCode:       dto.ErrorCodeInternalError,
		ResponseMessage: "An internal error occurred",
	})
}

func (h *DefaultErrorHandler) writeErrorResponse(w http.ResponseWriter, r *http.Request, statusCode int, response dto.ErrorResponse) {
	if correlationID := r.Header.Get(CorrelationIDHeader); correlationID != "" {
		w.Header().Set(CorrelationIDHeader, correlationID)
	}

	if err := WriteJSON(w, statusCode, response); err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("Internal Server Error"))
	}
}

package client

import (
	"encoding/json"
	"io"
	"time"
)

// Response is the JSON envelope of every client command output. Data and Error are
// mutually exclusive.
type Response struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *Error      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Error is the error part of a Response.
type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// WriteSuccess writes a success envelope around data.
func WriteSuccess(w io.Writer, data interface{}) error {
	return json.NewEncoder(w).Encode(Response{Success: true, Data: data, Timestamp: time.Now()})
}

// WriteError writes an error envelope.
func WriteError(w io.Writer, code, message string, details interface{}) error {
	return json.NewEncoder(w).Encode(Response{
		Success:   false,
		Error:     &Error{Code: code, Message: message, Details: details},
		Timestamp: time.Now(),
	})
}

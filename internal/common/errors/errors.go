// Package errors provides standardized error handling for the conversation
// and search pipeline. Every failure mode here has a defined degraded
// behavior; none of them may terminate a conversation.
package errors

import (
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Oracle (language model) errors
	ErrCodeOracleShape      ErrorCode = "ORACLE_SHAPE_ERROR"
	ErrCodeOracleTransport  ErrorCode = "ORACLE_TRANSPORT_ERROR"
	ErrCodeOracleTimeout    ErrorCode = "ORACLE_TIMEOUT"
	ErrCodeOracleAPIFailure ErrorCode = "ORACLE_API_FAILURE"

	// Directory (subsidy API) errors
	ErrCodeDirectoryQueryFailed ErrorCode = "DIRECTORY_QUERY_FAILED"
	ErrCodeDirectoryTimeout     ErrorCode = "DIRECTORY_TIMEOUT"
	ErrCodeDetailFetchFailed    ErrorCode = "DETAIL_FETCH_FAILED"
	ErrCodeSearchFailed         ErrorCode = "SEARCH_FAILED"

	// Persistence errors
	ErrCodeSessionLoadFailed ErrorCode = "SESSION_LOAD_FAILED"
	ErrCodeSessionSaveFailed ErrorCode = "SESSION_SAVE_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is supports errors.Is matching on the code.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ==========================
// 2. Error Constructors
// ==========================

// NewOracleShapeError marks a completion that could not be parsed into the
// expected JSON payload. Always recovered locally with a fallback.
func NewOracleShapeError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleShape,
		Message:   "Oracle response did not match the expected shape",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOracleTransportError wraps a failed completion call.
func NewOracleTransportError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOracleTransport,
		Message:   "Oracle completion call failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDirectoryQueryError wraps a failed list query for one strategy.
func NewDirectoryQueryError(strategy string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDirectoryQueryFailed,
		Message:   "Subsidy directory query failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"strategy": strategy},
		Timestamp: time.Now().UTC(),
	}
}

// NewDetailFetchError wraps a failed per-record detail lookup.
func NewDetailFetchError(id string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDetailFetchFailed,
		Message:   "Subsidy detail fetch failed",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"subsidyId": id},
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchFailedError is returned only when every strategy failed at the
// transport level. An empty result set is not an error.
func NewSearchFailedError(strategies int) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchFailed,
		Message:   "All search strategies failed",
		Details:   fmt.Sprintf("%d strategies attempted", strategies),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionSaveError wraps a persistence failure. The session degrades to
// in-memory only; the conversation continues.
func NewSessionSaveError(sessionID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionSaveFailed,
		Message:   "Session persistence failed",
		Details:   err.Error(),
		Retryable: true,
		Metadata:  map[string]interface{}{"sessionId": sessionID},
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeThreadNotFound    ErrorCode = "THREAD_NOT_FOUND"
	ErrCodeContextLoadFailed ErrorCode = "CONTEXT_LOAD_FAILED"
	ErrCodeCacheUnavailable  ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeTraceWriteFailed              ErrorCode = "TRACE_WRITE_FAILED"

	ErrCodeProviderUnavailable      ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrCodeProviderTimeout          ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeAllProvidersFailed       ErrorCode = "ALL_PROVIDERS_FAILED"
	ErrCodeResponseGenerationFailed ErrorCode = "RESPONSE_GENERATION_FAILED"

	ErrCodeJobValidationFailed  ErrorCode = "JOB_VALIDATION_FAILED"
	ErrCodeHostContactNotFound  ErrorCode = "HOST_CONTACT_NOT_FOUND"
	ErrCodeNotificationSendFail ErrorCode = "NOTIFICATION_SEND_FAILED"
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

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	if e.ErrorVariables != nil {
		for k, v := range e.ErrorVariables {
			vars[k] = v
		}
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Database query timeout",
		Details:   fmt.Sprintf("queryType: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewThreadNotFoundError creates a non-retryable missing thread error.
func NewThreadNotFoundError(threadID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeThreadNotFound,
		Message:   "Message thread not found",
		Details:   fmt.Sprintf("threadId: %s", threadID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewContextLoadFailedError creates a retryable context assembly error.
func NewContextLoadFailedError(threadID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeContextLoadFailed,
		Message:   "Failed to load conversation context",
		Details:   fmt.Sprintf("threadId: %s, error: %s", threadID, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheUnavailableError creates a retryable cache error. The context store
// degrades to Postgres when this fires, so it rarely surfaces to a job.
func NewCacheUnavailableError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeCacheUnavailable,
		Message:   "Context cache unavailable",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewElasticsearchConnectionFailedError creates a retryable Elasticsearch connection error.
func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeElasticsearchConnectionFailed,
		Message:   "Elasticsearch connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTraceWriteFailedError creates a non-retryable trace persistence error.
// Traces are best-effort; the caller logs and moves on.
func NewTraceWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTraceWriteFailed,
		Message:   "Response trace write failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderUnavailableError creates a retryable provider error.
func NewProviderUnavailableError(providerName string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderUnavailable,
		Message:   fmt.Sprintf("AI provider '%s' unavailable", providerName),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewProviderTimeoutError creates a retryable provider timeout error.
func NewProviderTimeoutError(providerName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProviderTimeout,
		Message:   fmt.Sprintf("AI provider '%s' timed out", providerName),
		Details:   "generation call exceeded timeout threshold",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAllProvidersFailedError creates a retryable error for when the fallback
// chain is exhausted.
func NewAllProvidersFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeAllProvidersFailed,
		Message:   "All AI providers failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewResponseGenerationFailedError creates a retryable generation pipeline error.
func NewResponseGenerationFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeResponseGenerationFailed,
		Message:   "Response generation pipeline error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewJobValidationFailedError creates a non-retryable job input error.
func NewJobValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobValidationFailed,
		Message:   "Job variable validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewHostContactNotFoundError creates a non-retryable missing contact error.
func NewHostContactNotFoundError(threadID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeHostContactNotFound,
		Message:   "No host contact found for thread",
		Details:   fmt.Sprintf("threadId: %s", threadID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFail,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return &StandardError{
		Code:      "BUSINESS_RULE_VIOLATION",
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewExternalServiceError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "EXTERNAL_SERVICE_ERROR",
		Message:   fmt.Sprintf("External service '%s' error", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      "TIMEOUT_ERROR",
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      "RESOURCE_NOT_FOUND",
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes. The codes
// are identical on both sides so BPMN boundary events can match on them
// directly.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeThreadNotFound:                "THREAD_NOT_FOUND",
	ErrCodeContextLoadFailed:             "CONTEXT_LOAD_FAILED",
	ErrCodeCacheUnavailable:              "CACHE_UNAVAILABLE",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeTraceWriteFailed:              "TRACE_WRITE_FAILED",
	ErrCodeProviderUnavailable:           "PROVIDER_UNAVAILABLE",
	ErrCodeProviderTimeout:               "PROVIDER_TIMEOUT",
	ErrCodeAllProvidersFailed:            "ALL_PROVIDERS_FAILED",
	ErrCodeResponseGenerationFailed:      "RESPONSE_GENERATION_FAILED",
	ErrCodeJobValidationFailed:           "JOB_VALIDATION_FAILED",
	ErrCodeHostContactNotFound:           "HOST_CONTACT_NOT_FOUND",
	ErrCodeNotificationSendFail:          "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns the recommended retry count for an error code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeContextLoadFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeNotificationSendFail,
		ErrCodeResponseGenerationFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout,
		ErrCodeProviderTimeout,
		ErrCodeProviderUnavailable:
		return 2 // Partial retry for timeouts

	case ErrCodeAllProvidersFailed,
		ErrCodeCacheUnavailable:
		return 1

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code) // Fallback
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "TRACE"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION") || strings.Contains(codeStr, "CONTACT"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "PROVIDER") || strings.Contains(codeStr, "GENERATION"):
		return "AI"
	case strings.Contains(codeStr, "THREAD") || strings.Contains(codeStr, "CONTEXT"):
		return "CONTEXT"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

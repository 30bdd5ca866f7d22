// Package errors provides the structured error type shared by workers and the
// HTTP API, and its conversion to BPMN errors for Zeebe.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Admission scoring
const (
	ErrCodeInvalidProfile         ErrorCode = "INVALID_PROFILE"
	ErrCodeInvalidWeightSet       ErrorCode = "INVALID_WEIGHT_SET"
	ErrCodeProgramNotFound        ErrorCode = "PROGRAM_NOT_FOUND"
	ErrCodeProfileNotFound        ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeRequirementsLoadFailed ErrorCode = "REQUIREMENTS_LOAD_FAILED"
	ErrCodeRecipientNotFound      ErrorCode = "RECIPIENT_NOT_FOUND"
	ErrCodeRateLimitExceeded      ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeCacheUnavailable       ErrorCode = "CACHE_UNAVAILABLE"
)

// Data access and delivery
const (
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeInvalidQueryType         ErrorCode = "INVALID_QUERY_TYPE"

	ErrCodeElasticsearchConnectionFailed ErrorCode = "ELASTICSEARCH_CONNECTION_FAILED"
	ErrCodeSearchQueryFailed             ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeSearchTimeout                 ErrorCode = "SEARCH_TIMEOUT"
	ErrCodeIndexNotFound                 ErrorCode = "INDEX_NOT_FOUND"
	ErrCodeInvalidFilterFormat           ErrorCode = "INVALID_FILTER_FORMAT"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerTimeout     ErrorCode = "BROKER_TIMEOUT"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is a structured application error.
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

// WithMetadata sets a metadata key and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// As extracts a *StandardError from err's chain.
func As(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// BPMNError is an error thrown to the Zeebe workflow engine.
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

// ToErrorVariables returns the variables attached to a failed or thrown job.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidProfileError reports a request that failed boundary validation.
// fields lists the offending field names.
func NewInvalidProfileError(details string, fields []string) *StandardError {
	return newError(ErrCodeInvalidProfile, "Invalid request data", details, false).
		WithMetadata("fields", fields)
}

func NewInvalidWeightSetError(name string) *StandardError {
	return newError(ErrCodeInvalidWeightSet, "Unknown weight set", fmt.Sprintf("weightSet: %s", name), false)
}

func NewProgramNotFoundError(programID int64) *StandardError {
	return newError(ErrCodeProgramNotFound, "Program not found", fmt.Sprintf("programId: %d", programID), false)
}

func NewProfileNotFoundError(userID string) *StandardError {
	return newError(ErrCodeProfileNotFound, "Student profile not found", fmt.Sprintf("userId: %s", userID), false)
}

func NewRecipientNotFoundError(userID string) *StandardError {
	return newError(ErrCodeRecipientNotFound, "Report recipient not found", fmt.Sprintf("userId: %s", userID), false)
}

func NewRequirementsLoadFailedError(programID int64, err error) *StandardError {
	return newError(ErrCodeRequirementsLoadFailed, "Failed to load program requirements",
		fmt.Sprintf("programId: %d, error: %s", programID, err.Error()), true)
}

// NewRateLimitExceededError carries the retry delay in seconds as metadata.
func NewRateLimitExceededError(limiter string, retryAfter time.Duration) *StandardError {
	return newError(ErrCodeRateLimitExceeded, "Too many requests", fmt.Sprintf("limiter: %s", limiter), true).
		WithMetadata("retryAfter", int(retryAfter.Round(time.Second).Seconds()))
}

func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Cache unavailable", err.Error(), true)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true)
}

func NewQueryExecutionFailedError(queryType string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error",
		fmt.Sprintf("queryType: %s, error: %s", queryType, err.Error()), true)
}

func NewQueryTimeoutError(queryType string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("queryType: %s", queryType), true)
}

func NewInvalidQueryTypeError(queryType string) *StandardError {
	return newError(ErrCodeInvalidQueryType, "Unsupported query type", fmt.Sprintf("queryType: %s", queryType), false)
}

func NewElasticsearchConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeElasticsearchConnectionFailed, "Elasticsearch connection error", err.Error(), true)
}

func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true)
}

func NewSearchTimeoutError(index string) *StandardError {
	return newError(ErrCodeSearchTimeout, "Elasticsearch query timeout", fmt.Sprintf("index: %s", index), true)
}

func NewIndexNotFoundError(indexName string) *StandardError {
	return newError(ErrCodeIndexNotFound, "Elasticsearch index not found", fmt.Sprintf("indexName: %s", indexName), false)
}

func NewInvalidFilterFormatError(details string) *StandardError {
	return newError(ErrCodeInvalidFilterFormat, "Invalid filter format", details, false)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), true)
}

func NewBrokerUnavailableError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerUnavailable, "Zeebe broker unavailable",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewBrokerTimeoutError(operation string, err error) *StandardError {
	return newError(ErrCodeBrokerTimeout, "Zeebe request timed out",
		fmt.Sprintf("operation: %s, error: %s", operation, err.Error()), true)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false)
}

// BPMNErrorMapping maps internal codes to the error codes caught by BPMN boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInvalidProfile:                "INVALID_PROFILE",
	ErrCodeInvalidWeightSet:              "INVALID_PROFILE",
	ErrCodeProgramNotFound:               "PROGRAM_NOT_FOUND",
	ErrCodeProfileNotFound:               "PROFILE_NOT_FOUND",
	ErrCodeRecipientNotFound:             "PROFILE_NOT_FOUND",
	ErrCodeRequirementsLoadFailed:        "REQUIREMENTS_LOAD_FAILED",
	ErrCodeDatabaseConnectionFailed:      "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryExecutionFailed:          "QUERY_EXECUTION_FAILED",
	ErrCodeQueryTimeout:                  "QUERY_TIMEOUT",
	ErrCodeInvalidQueryType:              "INVALID_QUERY_TYPE",
	ErrCodeElasticsearchConnectionFailed: "ELASTICSEARCH_CONNECTION_FAILED",
	ErrCodeSearchQueryFailed:             "SEARCH_QUERY_FAILED",
	ErrCodeSearchTimeout:                 "SEARCH_TIMEOUT",
	ErrCodeIndexNotFound:                 "INDEX_NOT_FOUND",
	ErrCodeInvalidFilterFormat:           "INVALID_FILTER_FORMAT",
	ErrCodeNotificationSendFailed:        "NOTIFICATION_SEND_FAILED",
}

// GetRetryCount returns how many times a job failing with code should be retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeRequirementsLoadFailed,
		ErrCodeElasticsearchConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeCacheUnavailable,
		ErrCodeBrokerUnavailable:
		return 3
	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout,
		ErrCodeBrokerTimeout:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for Zeebe.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	if fields, ok := stdErr.Metadata["fields"]; ok {
		vars["invalidFields"] = fields
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory groups codes for logging.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "ELASTICSEARCH") || strings.Contains(codeStr, "SEARCH") || strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY") || strings.Contains(codeStr, "REQUIREMENTS"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "RATE_LIMIT") || strings.Contains(codeStr, "CACHE") || strings.Contains(codeStr, "BROKER"):
		return "INFRASTRUCTURE"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps a code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch GetErrorCategory(code) {
	case "VALIDATION":
		return http.StatusBadRequest
	case "NOT_FOUND":
		return http.StatusNotFound
	}
	switch {
	case code == ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests
	case IsRetryableErrorCode(code):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

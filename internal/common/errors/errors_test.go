package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name      string
		err       *StandardError
		bpmnCode  string
		retries   int
		retryable bool
	}{
		{"invalid profile", NewInvalidProfileError("gpa: too high", []string{"gpa"}), "INVALID_PROFILE", 0, false},
		{"unknown weight set", NewInvalidWeightSetError("premium"), "INVALID_PROFILE", 0, false},
		{"program not found", NewProgramNotFoundError(42), "PROGRAM_NOT_FOUND", 0, false},
		{"requirements load", NewRequirementsLoadFailedError(42, stderrors.New("conn reset")), "REQUIREMENTS_LOAD_FAILED", 3, true},
		{"query timeout", NewQueryTimeoutError("student_profile"), "QUERY_TIMEOUT", 2, true},
		{"broker timeout", NewBrokerTimeoutError("topology", stderrors.New("deadline")), "BROKER_TIMEOUT", 2, true},
		{"internal", NewInternalError(stderrors.New("boom")), "INTERNAL_ERROR", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmn := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.bpmnCode, bpmn.Code)
			assert.Equal(t, tt.retries, bpmn.Retries)
			assert.Equal(t, tt.retryable, bpmn.Retryable)
			assert.Equal(t, string(tt.err.Code), bpmn.ErrorVariables["originalErrorCode"])
		})
	}
}

func TestConvertToBPMNError_InvalidFields(t *testing.T) {
	bpmn := ConvertToBPMNError(NewInvalidProfileError("bad", []string{"gpa", "english_score"}))

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, []string{"gpa", "english_score"}, vars["invalidFields"])
	assert.Equal(t, "INVALID_PROFILE", vars["errorCode"])
}

func TestNormalize(t *testing.T) {
	notFound := NewProgramNotFoundError(7)
	wrapped := fmt.Errorf("load program: %w", notFound)

	assert.Same(t, notFound, Normalize(wrapped))

	plain := Normalize(stderrors.New("unexpected"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "unexpected", plain.Details)
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeInvalidProfile))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(ErrCodeInvalidWeightSet))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeProgramNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(ErrCodeProfileNotFound))
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatus(ErrCodeRateLimitExceeded))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(ErrCodeRequirementsLoadFailed))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrCodeInternal))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeIndexNotFound))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchQueryFailed))
	assert.Equal(t, "NOT_FOUND", GetErrorCategory(ErrCodeRecipientNotFound))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidQueryType))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryExecutionFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "INFRASTRUCTURE", GetErrorCategory(ErrCodeBrokerUnavailable))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestRateLimitMetadata(t *testing.T) {
	err := NewRateLimitExceededError("search", 42*time.Second+300*time.Millisecond)

	require.True(t, err.Retryable)
	assert.Equal(t, 42, err.Metadata["retryAfter"])
	assert.Contains(t, err.Error(), "RATE_LIMIT_EXCEEDED")
}

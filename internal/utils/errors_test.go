package contextutils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorError(t *testing.T) {
	err := NewAppError(ErrorCodeUnreadableFile, SeverityWarn, "File could not be decoded", "bad.txt")
	assert.Equal(t, "UNREADABLE_FILE: File could not be decoded - bad.txt", err.Error())

	err = NewAppError(ErrorCodeEmptyFile, SeverityWarn, "Uploaded file is empty", "")
	assert.Equal(t, "EMPTY_FILE: Uploaded file is empty", err.Error())
}

func TestWrapErrorPreservesCode(t *testing.T) {
	wrapped := WrapError(ErrModelLoadFailure, "warming fr-en")
	require.Error(t, wrapped)

	appErr, ok := wrapped.(*AppError)
	require.True(t, ok)
	assert.Equal(t, ErrorCodeModelLoadFailure, appErr.Code)
	assert.Equal(t, "warming fr-en", appErr.Message)
	assert.ErrorIs(t, wrapped, ErrModelLoadFailure)
}

func TestWrapErrorPlainError(t *testing.T) {
	wrapped := WrapError(errors.New("disk full"), "writing artifact")
	appErr, ok := wrapped.(*AppError)
	require.True(t, ok)
	assert.Equal(t, ErrorCodeInternalError, appErr.Code)
	assert.Equal(t, "writing artifact", appErr.Message)
}

func TestWrapErrorNil(t *testing.T) {
	assert.NoError(t, WrapError(nil, "context"))
	assert.NoError(t, WrapErrorf(nil, "context %d", 1))
}

func TestGetErrorCodeAndSeverity(t *testing.T) {
	assert.Equal(t, ErrorCodeEmptyDocument, GetErrorCode(ErrEmptyDocument))
	assert.Equal(t, ErrorCodeInternalError, GetErrorCode(errors.New("plain")))
	assert.Equal(t, SeverityWarn, GetErrorSeverity(ErrEmptyDocument))
	assert.Equal(t, SeverityError, GetErrorSeverity(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrTimeout))
	assert.True(t, IsRetryable(ErrServiceUnavailable))
	assert.False(t, IsRetryable(ErrUnsupportedExtension))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestToJSON(t *testing.T) {
	err := NewAppErrorWithCause(ErrorCodeArtifactWriteFailure, SeverityError,
		"Failed to write translated artifact", "out.docx", errors.New("disk full"))

	payload := err.ToJSON()
	assert.Equal(t, "ARTIFACT_WRITE_FAILURE", payload["code"])
	assert.Equal(t, "Failed to write translated artifact", payload["message"])
	assert.Equal(t, "out.docx", payload["details"])
	assert.Equal(t, "disk full", payload["cause"], "error severity exposes the cause")
	assert.Equal(t, false, payload["retryable"])
}

func TestToJSONHidesCauseForClientErrors(t *testing.T) {
	err := NewAppErrorWithCause(ErrorCodeInvalidInput, SeverityWarn, "Invalid input", "", errors.New("internal detail"))
	payload := err.ToJSON()
	assert.NotContains(t, payload, "cause")
}

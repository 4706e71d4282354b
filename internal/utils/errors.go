// Package contextutils provides error handling utilities and standardized error types
// for consistent error management across the translator application.
package contextutils

import (
	"fmt"
	"strings"
)

// ErrorCode represents a standardized error code for API responses
type ErrorCode string

const (
	// Upload validation error codes

	// ErrorCodeNoFileProvided indicates that the request carried no file part
	ErrorCodeNoFileProvided ErrorCode = "NO_FILE_PROVIDED"
	// ErrorCodeEmptyFile indicates that the uploaded file had no content
	ErrorCodeEmptyFile ErrorCode = "EMPTY_FILE"
	// ErrorCodeUnsupportedExtension indicates an upload with an extension outside txt/docx/pdf
	ErrorCodeUnsupportedExtension ErrorCode = "UNSUPPORTED_EXTENSION"
	// ErrorCodeUnreadableFile indicates that decoding or parsing the upload failed
	ErrorCodeUnreadableFile ErrorCode = "UNREADABLE_FILE"
	// ErrorCodeEmptyDocument indicates that extraction succeeded but produced only blank text
	ErrorCodeEmptyDocument ErrorCode = "EMPTY_DOCUMENT"

	// Translation pipeline error codes

	// ErrorCodeUnsupportedLanguagePair indicates a language pair no model can serve
	ErrorCodeUnsupportedLanguagePair ErrorCode = "UNSUPPORTED_LANGUAGE_PAIR"
	// ErrorCodeModelLoadFailure indicates a model could not be loaded (recovered by fallback)
	ErrorCodeModelLoadFailure ErrorCode = "MODEL_LOAD_FAILURE"
	// ErrorCodeTranslationBatchFailure indicates a single batch failed during translation
	ErrorCodeTranslationBatchFailure ErrorCode = "TRANSLATION_BATCH_FAILURE"
	// ErrorCodeArtifactWriteFailure indicates the output artifact could not be written
	ErrorCodeArtifactWriteFailure ErrorCode = "ARTIFACT_WRITE_FAILURE"
	// ErrorCodeDetectionFailed indicates the language detection capability failed
	ErrorCodeDetectionFailed ErrorCode = "DETECTION_FAILED"

	// Generic error codes

	// ErrorCodeInvalidInput indicates that the provided input is invalid
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrorCodeMissingRequired indicates that a required field is missing
	ErrorCodeMissingRequired ErrorCode = "MISSING_REQUIRED_FIELD"
	// ErrorCodeRecordNotFound indicates that a requested resource was not found
	ErrorCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"
	// ErrorCodeServiceUnavailable indicates that a backing service is temporarily unavailable
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrorCodeTimeout indicates that a request has timed out
	ErrorCodeTimeout ErrorCode = "REQUEST_TIMEOUT"
	// ErrorCodeInternalError indicates an internal server error
	ErrorCodeInternalError ErrorCode = "INTERNAL_SERVER_ERROR"
)

// SeverityLevel represents the severity of an error for logging and monitoring
type SeverityLevel string

const (
	// SeverityDebug indicates debug-level errors for development
	SeverityDebug SeverityLevel = "debug"
	// SeverityInfo indicates informational errors
	SeverityInfo SeverityLevel = "info"
	// SeverityWarn indicates warning-level errors
	SeverityWarn SeverityLevel = "warn"
	// SeverityError indicates error-level issues
	SeverityError SeverityLevel = "error"
	// SeverityFatal indicates fatal errors that require immediate attention
	SeverityFatal SeverityLevel = "fatal"
)

// AppError represents a structured error with code, severity, and context
type AppError struct {
	Code     ErrorCode
	Severity SeverityLevel
	Message  string
	Details  string
	Cause    error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison for errors.Is
func (e *AppError) Is(target error) bool {
	if appErr, ok := target.(*AppError); ok {
		return e.Code == appErr.Code
	}
	return false
}

// Error types for consistent error handling with associated codes and severity
var (
	// Upload validation errors
	ErrNoFileProvided = &AppError{
		Code:     ErrorCodeNoFileProvided,
		Severity: SeverityWarn,
		Message:  "No file uploaded",
	}

	ErrEmptyFile = &AppError{
		Code:     ErrorCodeEmptyFile,
		Severity: SeverityWarn,
		Message:  "Uploaded file is empty",
	}

	ErrUnsupportedExtension = &AppError{
		Code:     ErrorCodeUnsupportedExtension,
		Severity: SeverityWarn,
		Message:  "Unsupported file extension",
	}

	ErrUnreadableFile = &AppError{
		Code:     ErrorCodeUnreadableFile,
		Severity: SeverityWarn,
		Message:  "File could not be decoded",
	}

	ErrEmptyDocument = &AppError{
		Code:     ErrorCodeEmptyDocument,
		Severity: SeverityWarn,
		Message:  "The uploaded file appears empty",
	}

	// Translation pipeline errors
	ErrUnsupportedLanguagePair = &AppError{
		Code:     ErrorCodeUnsupportedLanguagePair,
		Severity: SeverityWarn,
		Message:  "Unsupported language pair",
	}

	ErrModelLoadFailure = &AppError{
		Code:     ErrorCodeModelLoadFailure,
		Severity: SeverityWarn,
		Message:  "Translation model failed to load",
	}

	ErrTranslationBatchFailure = &AppError{
		Code:     ErrorCodeTranslationBatchFailure,
		Severity: SeverityWarn,
		Message:  "Translation batch failed",
	}

	ErrArtifactWriteFailure = &AppError{
		Code:     ErrorCodeArtifactWriteFailure,
		Severity: SeverityError,
		Message:  "Failed to write translated artifact",
	}

	ErrDetectionFailed = &AppError{
		Code:     ErrorCodeDetectionFailed,
		Severity: SeverityError,
		Message:  "Language detection failed",
	}

	// Generic errors
	ErrInvalidInput = &AppError{
		Code:     ErrorCodeInvalidInput,
		Severity: SeverityWarn,
		Message:  "Invalid input",
	}

	ErrMissingRequired = &AppError{
		Code:     ErrorCodeMissingRequired,
		Severity: SeverityWarn,
		Message:  "Missing required field",
	}

	ErrRecordNotFound = &AppError{
		Code:     ErrorCodeRecordNotFound,
		Severity: SeverityInfo,
		Message:  "Record not found",
	}

	ErrServiceUnavailable = &AppError{
		Code:     ErrorCodeServiceUnavailable,
		Severity: SeverityError,
		Message:  "Service unavailable",
	}

	ErrTimeout = &AppError{
		Code:     ErrorCodeTimeout,
		Severity: SeverityWarn,
		Message:  "Request timeout",
	}

	ErrInternalError = &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  "Internal server error",
	}
)

// NewAppError creates a new AppError with the specified code, severity, message and details
func NewAppError(code ErrorCode, severity SeverityLevel, message, details string) *AppError {
	return &AppError{
		Code:     code,
		Severity: severity,
		Message:  message,
		Details:  details,
	}
}

// NewAppErrorWithCause creates a new AppError with an underlying cause
func NewAppErrorWithCause(code ErrorCode, severity SeverityLevel, message, details string, cause error) *AppError {
	return &AppError{
		Code:     code,
		Severity: severity,
		Message:  message,
		Details:  details,
		Cause:    cause,
	}
}

// WrapError wraps an error with additional context, preserving AppError structure if possible
func WrapError(err error, context string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, wrap it with additional details
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:     appErr.Code,
			Severity: appErr.Severity,
			Message:  context,
			Details:  appErr.Error(),
			Cause:    appErr,
		}
	}

	// For regular errors, create a generic internal error wrapper
	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  context,
		Details:  err.Error(),
		Cause:    err,
	}
}

// WrapErrorf wraps an error with formatted context, preserving AppError structure if possible
func WrapErrorf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}

	// Handle %w verb for error wrapping by using fmt.Errorf
	if strings.Contains(format, "%w") {
		wrappedErr := fmt.Errorf(format, args...)

		if appErr, ok := err.(*AppError); ok {
			return &AppError{
				Code:     appErr.Code,
				Severity: appErr.Severity,
				Message:  wrappedErr.Error(),
				Details:  appErr.Error(),
				Cause:    wrappedErr,
			}
		}

		return &AppError{
			Code:     ErrorCodeInternalError,
			Severity: SeverityError,
			Message:  wrappedErr.Error(),
			Details:  err.Error(),
			Cause:    wrappedErr,
		}
	}

	context := fmt.Sprintf(format, args...)
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:     appErr.Code,
			Severity: appErr.Severity,
			Message:  context,
			Details:  appErr.Error(),
			Cause:    appErr,
		}
	}

	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  context,
		Details:  err.Error(),
		Cause:    err,
	}
}

// ErrorWithContextf creates a new error with formatted context
func ErrorWithContextf(format string, args ...interface{}) error {
	return &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// IsError checks if an error matches a specific AppError type
func IsError(err error, target *AppError) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == target.Code
	}
	return false
}

// AsError attempts to convert an error to an AppError
func AsError(err error, target **AppError) bool {
	if appErr, ok := err.(*AppError); ok {
		*target = appErr
		return true
	}
	return false
}

// GetErrorCode returns the error code from an error if it's an AppError, otherwise returns a default code
func GetErrorCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrorCodeInternalError
}

// GetErrorSeverity returns the severity level from an error if it's an AppError, otherwise returns error
func GetErrorSeverity(err error) SeverityLevel {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Severity
	}
	return SeverityError
}

// IsRetryable determines if an error should be retried based on its type and severity
func IsRetryable(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		// Only retry errors that are likely transient
		switch appErr.Code {
		case ErrorCodeTimeout, ErrorCodeServiceUnavailable:
			return appErr.Severity != SeverityFatal
		}
	}
	return false
}

// ToJSON converts an AppError to a JSON-serializable structure for API responses
func (e *AppError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":     string(e.Code),
		"message":  e.Message,
		"severity": string(e.Severity),
		"error":    e.Message, // Include error field for backward compatibility
	}

	if e.Details != "" {
		result["details"] = e.Details
	}

	result["retryable"] = IsRetryable(e)

	if e.Cause != nil {
		// Only include cause for server-side severities
		switch e.Severity {
		case SeverityError, SeverityFatal:
			result["cause"] = e.Cause.Error()
		}
	}

	return result
}

// Package contextutils provides error handling utilities and standardized error types
// for consistent error management across the quiz generation service.
package contextutils

import (
	"fmt"
	"strings"
)

// ErrorCode represents a standardized error code for API responses
type ErrorCode string

const (
	// Generation error codes

	// ErrorCodeGenerationFailed indicates that question generation failed after all retries and fallbacks
	ErrorCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	// ErrorCodeModelUnavailable indicates that the requested model is unavailable
	ErrorCodeModelUnavailable ErrorCode = "MODEL_UNAVAILABLE"
	// ErrorCodeTimeout indicates that a generation attempt timed out
	ErrorCodeTimeout ErrorCode = "TIMEOUT"
	// ErrorCodeInvalidResponse indicates that the model returned an unparseable or mis-shaped response
	ErrorCodeInvalidResponse ErrorCode = "INVALID_RESPONSE"
	// ErrorCodeRateLimited indicates that the provider rate limit has been exceeded
	ErrorCodeRateLimited ErrorCode = "RATE_LIMITED"
	// ErrorCodeContentFiltered indicates that the model refused to generate on policy grounds
	ErrorCodeContentFiltered ErrorCode = "CONTENT_FILTERED"
	// ErrorCodeQuotaExceeded indicates that the provider usage quota has been exceeded
	ErrorCodeQuotaExceeded ErrorCode = "QUOTA_EXCEEDED"

	// Validation error codes

	// ErrorCodeInvalidInput indicates that the provided input is invalid
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrorCodeMissingRequired indicates that a required field is missing
	ErrorCodeMissingRequired ErrorCode = "MISSING_REQUIRED_FIELD"
	// ErrorCodeValidationFailed indicates that validation has failed
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// Domain error codes

	// ErrorCodePositionNotFound indicates that the referenced position was not found
	ErrorCodePositionNotFound ErrorCode = "POSITION_NOT_FOUND"
	// ErrorCodeQuizNotFound indicates that the referenced quiz was not found
	ErrorCodeQuizNotFound ErrorCode = "QUIZ_NOT_FOUND"

	// Service error codes

	// ErrorCodeServiceUnavailable indicates that the service is temporarily unavailable
	ErrorCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrorCodeInternalError indicates an internal server error
	ErrorCodeInternalError ErrorCode = "INTERNAL_SERVER_ERROR"
	// ErrorCodeProviderConfigInvalid indicates that the provider configuration is invalid
	ErrorCodeProviderConfigInvalid ErrorCode = "PROVIDER_CONFIG_INVALID"
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

	// AttemptedModels carries the chain of models tried before giving up.
	// Only populated on generation errors surfaced by the executor.
	AttemptedModels []string
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
	// Generation errors
	ErrGenerationFailed = &AppError{
		Code:     ErrorCodeGenerationFailed,
		Severity: SeverityError,
		Message:  "Question generation failed",
	}

	ErrModelUnavailable = &AppError{
		Code:     ErrorCodeModelUnavailable,
		Severity: SeverityError,
		Message:  "Model unavailable",
	}

	ErrTimeout = &AppError{
		Code:     ErrorCodeTimeout,
		Severity: SeverityWarn,
		Message:  "Generation attempt timed out",
	}

	ErrInvalidResponse = &AppError{
		Code:     ErrorCodeInvalidResponse,
		Severity: SeverityError,
		Message:  "Model response invalid",
	}

	ErrRateLimited = &AppError{
		Code:     ErrorCodeRateLimited,
		Severity: SeverityWarn,
		Message:  "Rate limit exceeded",
	}

	ErrContentFiltered = &AppError{
		Code:     ErrorCodeContentFiltered,
		Severity: SeverityWarn,
		Message:  "Content filtered by provider policy",
	}

	ErrQuotaExceeded = &AppError{
		Code:     ErrorCodeQuotaExceeded,
		Severity: SeverityWarn,
		Message:  "Usage quota exceeded",
	}

	// Validation errors
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

	ErrValidationFailed = &AppError{
		Code:     ErrorCodeValidationFailed,
		Severity: SeverityWarn,
		Message:  "Validation failed",
	}

	// Domain errors
	ErrPositionNotFound = &AppError{
		Code:     ErrorCodePositionNotFound,
		Severity: SeverityInfo,
		Message:  "Position not found",
	}

	ErrQuizNotFound = &AppError{
		Code:     ErrorCodeQuizNotFound,
		Severity: SeverityInfo,
		Message:  "Quiz not found",
	}

	// Service errors
	ErrServiceUnavailable = &AppError{
		Code:     ErrorCodeServiceUnavailable,
		Severity: SeverityError,
		Message:  "Service unavailable",
	}

	ErrInternalError = &AppError{
		Code:     ErrorCodeInternalError,
		Severity: SeverityError,
		Message:  "Internal server error",
	}

	ErrProviderConfigInvalid = &AppError{
		Code:     ErrorCodeProviderConfigInvalid,
		Severity: SeverityError,
		Message:  "Provider configuration invalid",
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
			Code:            appErr.Code,
			Severity:        appErr.Severity,
			Message:         context,
			Details:         appErr.Error(),
			Cause:           appErr,
			AttemptedModels: appErr.AttemptedModels,
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
				Code:            appErr.Code,
				Severity:        appErr.Severity,
				Message:         wrappedErr.Error(),
				Details:         appErr.Error(),
				Cause:           wrappedErr,
				AttemptedModels: appErr.AttemptedModels,
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
	return WrapError(err, context)
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

// IsRetryable determines if a generation error should be retried.
// Content filtering is the single non-retryable generation kind: the model
// refused on policy grounds and retrying with identical input is futile.
// Input and validation errors are caller mistakes and are never retried.
func IsRetryable(err error) bool {
	appErr, ok := err.(*AppError)
	if !ok {
		// Unknown errors from the provider path are treated as transient.
		return true
	}
	switch appErr.Code {
	case ErrorCodeContentFiltered,
		ErrorCodeInvalidInput,
		ErrorCodeMissingRequired,
		ErrorCodeValidationFailed,
		ErrorCodeProviderConfigInvalid:
		return false
	}
	return appErr.Severity != SeverityFatal
}

// GetErrorLocalizedMessage returns a localized message for the error
func GetErrorLocalizedMessage(err error, locale string) string {
	if appErr, ok := err.(*AppError); ok {
		return GetLocalizedMessage(appErr.Code, ParseLocale(locale))
	}
	return GetLocalizedMessage(ErrorCodeInternalError, ParseLocale(locale))
}

// ToJSON converts an AppError to a JSON-serializable structure for API responses
func (e *AppError) ToJSON() map[string]interface{} {
	result := map[string]interface{}{
		"code":     string(e.Code),
		"message":  e.Message,
		"severity": string(e.Severity),
	}

	if e.Details != "" {
		result["details"] = e.Details
	}

	if len(e.AttemptedModels) > 0 {
		result["attempted_models"] = e.AttemptedModels
	}

	result["retryable"] = IsRetryable(e)

	return result
}

// ToJSONWithLocale converts an AppError to a JSON-serializable structure with a
// localized user-facing message. Internal details and provider payloads are
// intentionally omitted: they are logged, never shown to end users.
func (e *AppError) ToJSONWithLocale(locale string) map[string]interface{} {
	result := map[string]interface{}{
		"code":      string(e.Code),
		"message":   GetLocalizedMessage(e.Code, ParseLocale(locale)),
		"retryable": IsRetryable(e),
	}
	if len(e.AttemptedModels) > 0 {
		result["attempted_models"] = e.AttemptedModels
	}
	return result
}

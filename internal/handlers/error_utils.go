// Package handlers exposes the quiz generation service over HTTP.
package handlers

import (
	"net/http"

	contextutils "hirequiz/internal/utils"

	"github.com/gin-gonic/gin"
)

// StandardizeAppError sends a structured error response for an AppError. The
// user-facing message is rendered in the given locale; internal details and
// provider error text never reach the response body.
func StandardizeAppError(c *gin.Context, err *contextutils.AppError, locale string) {
	statusCode := mapErrorCodeToHTTPStatus(err.Code)
	c.JSON(statusCode, err.ToJSONWithLocale(locale))
}

// HandleAppError handles any error and sends the appropriate HTTP response.
func HandleAppError(c *gin.Context, err error, locale string) {
	var appErr *contextutils.AppError
	if contextutils.AsError(err, &appErr) {
		StandardizeAppError(c, appErr, locale)
		return
	}

	fallback := contextutils.NewAppErrorWithCause(
		contextutils.ErrorCodeInternalError,
		contextutils.SeverityError,
		"Internal server error",
		"",
		err,
	)
	StandardizeAppError(c, fallback, locale)
}

// mapErrorCodeToHTTPStatus maps AppError codes to HTTP status codes
func mapErrorCodeToHTTPStatus(code contextutils.ErrorCode) int {
	switch code {
	// 4xx Client Errors
	case contextutils.ErrorCodeInvalidInput, contextutils.ErrorCodeMissingRequired:
		return http.StatusBadRequest

	case contextutils.ErrorCodePositionNotFound, contextutils.ErrorCodeQuizNotFound:
		return http.StatusNotFound

	case contextutils.ErrorCodeRateLimited:
		return http.StatusTooManyRequests

	case contextutils.ErrorCodeQuotaExceeded:
		return http.StatusPaymentRequired

	// The model refused on policy grounds; the request was understood but
	// cannot be fulfilled as given.
	case contextutils.ErrorCodeContentFiltered:
		return http.StatusUnprocessableEntity

	case contextutils.ErrorCodeTimeout:
		return http.StatusRequestTimeout

	// 5xx Server Errors
	case contextutils.ErrorCodeModelUnavailable, contextutils.ErrorCodeServiceUnavailable:
		return http.StatusServiceUnavailable

	case contextutils.ErrorCodeGenerationFailed, contextutils.ErrorCodeInvalidResponse,
		contextutils.ErrorCodeValidationFailed, contextutils.ErrorCodeProviderConfigInvalid,
		contextutils.ErrorCodeInternalError:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}

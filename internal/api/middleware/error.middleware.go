package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/latticeobs/queryauth/internal/enforce"
	"github.com/latticeobs/queryauth/pkg/logger"
)

// ErrorResponse is the standardized error body returned to API clients.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorHandler centralizes error handling for the gateway: it maps the
// enforcement core's error types to HTTP status codes (spec.md section 7)
// and falls back to status-derived codes for everything else.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err

			statusCode := determineStatusCode(err)
			errorResp := ErrorResponse{
				Error: err.Error(),
				Code:  determineErrorCode(err, statusCode),
			}

			logError(log, statusCode, err, c)
			c.JSON(statusCode, errorResp)
			return
		}

		if c.Writer.Status() >= 400 && !c.Writer.Written() {
			statusCode := c.Writer.Status()
			errorResp := ErrorResponse{
				Error: http.StatusText(statusCode),
				Code:  determineErrorCodeFromStatus(statusCode),
			}

			if errorMsg, exists := c.Get("error_message"); exists {
				if msg, ok := errorMsg.(string); ok {
					errorResp.Error = msg
				}
			}

			log.Warn("HTTP Error Response",
				"status", statusCode,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"client_ip", c.ClientIP(),
				"error", errorResp.Error,
			)

			c.JSON(statusCode, errorResp)
		}
	}
}

// determineStatusCode maps an enforcement-core error to its HTTP status per
// spec.md section 7: UsageError -> 400, Unauthorized -> 403,
// EnhancementFailure -> 500. Anything else defaults to 500.
func determineStatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var usageErr *enforce.UsageError
	var unauthorizedErr *enforce.Unauthorized
	var enhancementErr *enforce.EnhancementFailure

	switch {
	case errors.As(err, &usageErr):
		return http.StatusBadRequest
	case errors.As(err, &unauthorizedErr):
		return http.StatusForbidden
	case errors.As(err, &enhancementErr):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// determineErrorCode creates a machine-readable error code for an error.
func determineErrorCode(err error, statusCode int) string {
	if err == nil {
		return ""
	}

	var usageErr *enforce.UsageError
	var unauthorizedErr *enforce.Unauthorized
	var enhancementErr *enforce.EnhancementFailure

	switch {
	case errors.As(err, &usageErr):
		return "INVALID_QUERY"
	case errors.As(err, &unauthorizedErr):
		return "ACCESS_DENIED"
	case errors.As(err, &enhancementErr):
		return "ENHANCEMENT_FAILED"
	default:
		return determineErrorCodeFromStatus(statusCode)
	}
}

// determineErrorCodeFromStatus creates an error code from an HTTP status.
func determineErrorCodeFromStatus(statusCode int) string {
	switch statusCode {
	case http.StatusBadRequest:
		return "INVALID_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "ACCESS_DENIED"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusUnprocessableEntity:
		return "VALIDATION_ERROR"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusInternalServerError:
		return "INTERNAL_ERROR"
	case http.StatusServiceUnavailable:
		return "SERVICE_UNAVAILABLE"
	default:
		return "UNKNOWN_ERROR"
	}
}

// logError logs a request error with fields proportional to its severity.
func logError(log logger.Logger, statusCode int, err error, c *gin.Context) {
	fields := []interface{}{
		"status", statusCode,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
		"error", err.Error(),
	}

	if requestID := c.Request.Header.Get("X-Request-ID"); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if tenantID := c.GetString("tenant_id"); tenantID != "" {
		fields = append(fields, "tenant_id", tenantID)
	}
	if identity := c.GetString("identity"); identity != "" {
		fields = append(fields, "identity", identity)
	}

	switch {
	case statusCode >= 500:
		log.Error("HTTP Error", fields...)
	case statusCode >= 400:
		log.Warn("HTTP Error", fields...)
	default:
		log.Info("HTTP Error", fields...)
	}
}

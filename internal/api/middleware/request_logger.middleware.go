package middleware

import (
	"bytes"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/latticeobs/queryauth/pkg/logger"
)

// UnknownIdentity is logged when a request carries no resolved identity.
const UnknownIdentity = "unknown"

// RequestLogger logs every HTTP request the gateway handles.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		identity := UnknownIdentity
		if param.Keys != nil {
			if id, exists := param.Keys["identity"]; exists {
				if idStr, ok := id.(string); ok && idStr != "" {
					identity = idStr
				}
			}
		}

		statusCode := param.StatusCode
		logLevel := "info"
		if statusCode >= 400 && statusCode < 500 {
			logLevel = "warn"
		} else if statusCode >= 500 {
			logLevel = "error"
		}

		fields := []interface{}{
			"method", param.Method,
			"path", param.Path,
			"status", statusCode,
			"latency", param.Latency,
			"client_ip", param.ClientIP,
			"user_agent", param.Request.UserAgent(),
			"identity", identity,
			"request_id", param.Request.Header.Get("X-Request-ID"),
			"content_length", param.Request.ContentLength,
		}

		if param.ErrorMessage != "" {
			fields = append(fields, "error", param.ErrorMessage)
		}

		switch logLevel {
		case "warn":
			log.Warn("HTTP Request", fields...)
		case "error":
			log.Error("HTTP Request", fields...)
		default:
			log.Info("HTTP Request", fields...)
		}

		return ""
	})
}

// RequestLoggerWithBody logs requests including bodies, for debugging. Bodies
// of sensitive endpoints (admin authentication, constraint edits) are never
// logged, even in debug mode.
func RequestLoggerWithBody(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		responseWriter := &responseBodyWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = responseWriter

		c.Next()

		latency := time.Since(start)

		identity := c.GetString("identity")
		if identity == "" {
			identity = UnknownIdentity
		}

		fields := []interface{}{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"query", c.Request.URL.RawQuery,
			"status", c.Writer.Status(),
			"latency", latency,
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
			"identity", identity,
			"request_id", c.Request.Header.Get("X-Request-ID"),
			"content_length", c.Request.ContentLength,
		}

		if len(requestBody) > 0 && len(requestBody) < 1024 && !isSensitiveEndpoint(c.Request.URL.Path) {
			fields = append(fields, "request_body", string(requestBody))
		}

		if !isSensitiveEndpoint(c.Request.URL.Path) && (c.Writer.Status() >= 400 || gin.Mode() == gin.DebugMode) {
			responseBody := responseWriter.body.String()
			if len(responseBody) < 1024 {
				fields = append(fields, "response_body", responseBody)
			}
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("HTTP Request", fields...)
		case c.Writer.Status() >= 400:
			log.Warn("HTTP Request", fields...)
		default:
			log.Info("HTTP Request", fields...)
		}
	}
}

// responseBodyWriter captures the response body for logging.
type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w responseBodyWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// isSensitiveEndpoint reports whether a path carries credentials or secrets
// that must never be logged.
func isSensitiveEndpoint(path string) bool {
	sensitiveEndpoints := []string{
		"/api/v1/admin/login",
		"/api/v1/admin/mfa",
		"/api/v1/admin/constraints",
	}

	for _, endpoint := range sensitiveEndpoints {
		if strings.Contains(path, endpoint) {
			return true
		}
	}

	return false
}

package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cv-ingest/internal/shared/telemetry"
)

const (
	uploadIDKey     = "uploadId"
	uploadStatusKey = "uploadStatus"
	errorCodeKey    = "errorCode"
)

// AnnotateUpload attaches the upload a request touched to its access log.
func AnnotateUpload(c *gin.Context, id, status string) {
	if id != "" {
		c.Set(uploadIDKey, id)
	}
	if status != "" {
		c.Set(uploadStatusKey, status)
	}
}

// Logging writes one access log line per request. Server errors are logged at
// error level so they stand out from client mistakes.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := map[string]any{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"route":       c.FullPath(),
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes_in":    c.Request.ContentLength,
			"bytes_out":   c.Writer.Size(),
			"client_ip":   c.ClientIP(),
		}
		if userID := UserIDFromContext(c); userID != "" {
			fields["user_id"] = userID
			fields["is_guest"] = c.GetBool(isGuestKey)
		}
		for logKey, ctxKey := range map[string]string{
			"upload_id":         uploadIDKey,
			"processing_status": uploadStatusKey,
			"error_code":        errorCodeKey,
		} {
			if v := c.GetString(ctxKey); v != "" {
				fields[logKey] = v
			}
		}

		if status >= http.StatusInternalServerError {
			telemetry.Error("request.complete", fields)
			return
		}
		telemetry.Info("request.complete", fields)
	}
}

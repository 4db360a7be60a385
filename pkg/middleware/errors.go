package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sirosfoundation/go-ehms-backend/internal/apperror"
)

// ErrorResponder is the last-resort error handler. Register it first so it
// wraps the whole chain: it recovers panics and turns the last error a
// handler recorded with c.Error into a JSON {"error": ...} response.
func ErrorResponder(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if r == http.ErrAbortHandler {
					panic(r)
				}
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", r)
				}
				logger.Error("Recovered from panic",
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.Any("panic", r),
					zap.Stack("stack"),
				)
				respond(c, err)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status := apperror.Status(err)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Error(err),
		}
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			fields = append(fields, zap.String("kind", string(appErr.Kind)))
		}

		if status >= http.StatusInternalServerError {
			logger.Error("Request failed", fields...)
		} else {
			logger.Warn("Request rejected", fields...)
		}

		respond(c, err)
	}
}

// respond writes the error body unless an earlier handler already did
func respond(c *gin.Context, err error) {
	if c.Writer.Written() {
		return
	}
	c.AbortWithStatusJSON(apperror.Status(err), gin.H{"error": apperror.PublicMessage(err)})
}

package middleware

import (
	"net/http"
	"runtime/debug" // stack of the panicking goroutine

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryMiddleware returns a gin.HandlerFunc that recovers from any panic
// raised by a downstream handler, logs it with a stack trace, and answers
// with a generic 500 so the process keeps serving.
func RecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		panic("RecoveryMiddleware requires a non-nil zap.Logger instance")
	}
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				// debug.Stack() is taken inside the deferred call, so it still
				// points at the frame that panicked.
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("stacktrace", string(debug.Stack())),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					// Lets the panic be matched with the access log line.
					zap.String("request_id", c.GetString(ContextRequestID)),
				)

				// A handler may have started streaming before it panicked.
				// Writing again would trigger "multiple WriteHeader calls".
				if !c.Writer.Written() {
					// Same envelope as every other API error; the panic value
					// itself never reaches the client.
					c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
				}

				// Stop the rest of the chain from running on a broken request.
				c.Abort()
			}
		}()

		// Any panic below this point is caught by the deferred func above.
		c.Next()
	}
}

package chain

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReportErrors writes the error that aborted a chain as {"error": message}.
// Failures keep their status; anything else is logged and becomes a 500.
func ReportErrors(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		if f, ok := FailureFrom(c); ok {
			c.JSON(f.Status, gin.H{"error": f.Message})
			return
		}
		lg.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(last.Err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}

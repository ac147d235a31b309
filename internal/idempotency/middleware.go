package idempotency

import (
	"bytes"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	keyHeader      = "Idempotency-Key"
	replayedHeader = "Idempotent-Replayed"
	maxKeyLength   = 255
)

// captureWriter keeps a copy of the response body.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware makes POST requests carrying an Idempotency-Key header safe to
// retry. The first response for a key (method and path included) is stored
// and replayed for later requests; a key still being processed gets a 409.
// Server errors are not stored, so the retry runs again.
//
// It must be registered outside the error reporter to capture error bodies.
func Middleware(s *Store, lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(keyHeader)
		if c.Request.Method != http.MethodPost || header == "" {
			c.Next()
			return
		}
		if len(header) > maxKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Idempotency-Key must be at most 255 characters"})
			return
		}

		key := c.Request.Method + " " + c.Request.URL.Path + " " + header
		created, existing := s.CreateIfNotExists(key)
		if !created {
			switch existing.Status {
			case StatusDone:
				c.Header(replayedHeader, "true")
				c.Data(existing.ResponseStatus, existing.ContentType, existing.ResponseBody)
				c.Abort()
			default:
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "A request with this Idempotency-Key is already in progress"})
			}
			return
		}

		finished := false
		defer func() {
			if !finished {
				s.MarkFailed(key)
			}
		}()

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()
		finished = true

		status := w.Status()
		if status >= http.StatusInternalServerError {
			s.MarkFailed(key)
			return
		}
		if err := s.MarkDone(key, status, w.Header().Get("Content-Type"), w.body.Bytes()); err != nil {
			lg.Warn("Store idempotent response failed", zap.String("key", header), zap.Error(err))
		}
	}
}

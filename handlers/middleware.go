package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	noCache    = 0
	thumbCache = 7 * 86400
)

// cacheControl sets the default cache policy, handlers may override it
func cacheControl(maxAge int) gin.HandlerFunc {
	value := "no-cache"
	if maxAge > 0 {
		value = "private, max-age=" + strconv.Itoa(maxAge)
	}
	return func(c *gin.Context) {
		c.Header("cache-control", value)
		c.Next()
	}
}

type errorLogWriter struct {
	gin.ResponseWriter
	log *zap.Logger
}

func (w errorLogWriter) Write(b []byte) (int, error) {
	if status := w.Status(); status >= 400 {
		w.log.Debug("error response", zap.Int("status", status), zap.ByteString("body", b))
	}
	return w.ResponseWriter.Write(b)
}

// ErrorLogMiddleware logs the body of every failed response. It must be
// registered before gzip.
func ErrorLogMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer = errorLogWriter{ResponseWriter: c.Writer, log: log}
		c.Next()
	}
}

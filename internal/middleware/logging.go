package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RequestLogger journalise chaque requête avec logrus.
func RequestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  status,
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
			"user_id": c.GetString(CtxUserID),
			"bytes":   c.Writer.Size(),
			"errors":  c.Errors.ByType(gin.ErrorTypePrivate).String(),
		})
		switch {
		case status >= 500:
			entry.Error("❌ Requête en erreur")
		case status >= 400:
			entry.Warn("⚠️ Requête refusée")
		default:
			entry.Debug("➡️ Requête traitée")
		}
	}
}

package middleware

import (
	"errors"
	"net/http"
	"strings"

	"fizzpan_back_end/internal/audit"

	"github.com/gin-gonic/gin"
)

// AuditAdmin trace chaque requête admin une fois traitée, lectures comprises.
func AuditAdmin(logger *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodOptions {
			return
		}

		entry := audit.Entry{
			UserID:     c.GetString(CtxUserID),
			Action:     actionOf(c.Request.Method),
			Resource:   resourceOf(c.FullPath()),
			ResourceID: c.Param("id"),
			Details:    map[string]interface{}{"path": c.Request.URL.Path, "status": c.Writer.Status()},
			IPAddress:  c.ClientIP(),
		}
		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			entry.Err = errors.New(http.StatusText(status))
			if errs := c.Errors.Last(); errs != nil {
				entry.Err = errs.Err
			}
		}
		logger.Record(entry)
	}
}

// actionOf : GET et HEAD deviennent "read", les autres méthodes leur nom en minuscules.
func actionOf(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	}
	return strings.ToLower(method)
}

// resourceOf extrait la ressource d'une route admin : /api/admin/products/:id → products.
func resourceOf(route string) string {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	for i, p := range parts {
		if p == "admin" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	if len(parts) > 0 {
		return parts[len(parts)-1]
	}
	return ""
}

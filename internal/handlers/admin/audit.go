package admin

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"fizzpan_back_end/internal/audit"
	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AuditReader interface {
	List(ctx context.Context, f audit.Filter) ([]models.AuditLog, error)
}

type AuditHandler struct {
	logs AuditReader
	log  logrus.FieldLogger
}

func NewAuditHandler(logs AuditReader, log logrus.FieldLogger) *AuditHandler {
	return &AuditHandler{logs: logs, log: log}
}

// GET /api/admin/audit?day=2006-01-02&user_id=&action=&resource=&success=&limit=
func (h *AuditHandler) List(c *gin.Context) {
	f := audit.Filter{
		UserID:   c.Query("user_id"),
		Action:   c.Query("action"),
		Resource: c.Query("resource"),
	}
	if raw := c.Query("day"); raw != "" {
		day, err := time.Parse(store.AuditDayLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Date invalide (AAAA-MM-JJ)"})
			return
		}
		f.Day = day
	}
	if raw := c.Query("success"); raw != "" {
		ok, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre success invalide"})
			return
		}
		f.Success = &ok
	}
	f.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(audit.DefaultListLimit)))

	logs, err := h.logs.List(c.Request.Context(), f)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "total": len(logs)})
}

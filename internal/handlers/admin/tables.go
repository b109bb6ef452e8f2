package admin

import (
	"context"
	"fmt"
	"net/http"

	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/tables"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

type TableService interface {
	List(ctx context.Context) ([]models.Table, error)
	Get(ctx context.Context, id gocql.UUID) (models.Table, error)
	Create(ctx context.Context, in tables.Input) (models.Table, error)
	Delete(ctx context.Context, id gocql.UUID) error
	Assign(ctx context.Context, tableID gocql.UUID, userIDs []gocql.UUID) (models.Table, error)
	QRCode(ctx context.Context, id gocql.UUID) ([]byte, error)
}

type TablesHandler struct {
	svc TableService
	log logrus.FieldLogger
}

func NewTablesHandler(svc TableService, log logrus.FieldLogger) *TablesHandler {
	return &TablesHandler{svc: svc, log: log}
}

func (h *TablesHandler) List(c *gin.Context) {
	listPage(c, h.log, h.svc.List)
}

func (h *TablesHandler) Get(c *gin.Context) {
	id, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *TablesHandler) Create(c *gin.Context) {
	var in tables.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	t, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h *TablesHandler) Delete(c *gin.Context) {
	deleteFromPage(c, h.log, h.svc.List, h.svc.Delete,
		func(t models.Table) gocql.UUID { return t.ID },
		"Table supprimée")
}

// POST /api/admin/tables/:id/users {"user_ids": [...]}
func (h *TablesHandler) Assign(c *gin.Context) {
	id, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		UserIDs []string `json:"user_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_ids requis"})
		return
	}

	ids := make([]gocql.UUID, 0, len(req.UserIDs))
	for _, raw := range req.UserIDs {
		uid, err := handlers.ParseUUID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "ID utilisateur invalide: " + raw})
			return
		}
		ids = append(ids, uid)
	}

	t, err := h.svc.Assign(c.Request.Context(), id, ids)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, t)
}

// GET /api/tables/:id/qrcode (public) : PNG du lien de commande.
func (h *TablesHandler) QRCode(c *gin.Context) {
	id, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	png, err := h.svc.QRCode(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=table-%s.png", id))
	c.Data(http.StatusOK, "image/png", png)
}

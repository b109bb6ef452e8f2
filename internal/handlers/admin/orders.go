package admin

import (
	"context"
	"net/http"

	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/middleware"
	"fizzpan_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

type OrderService interface {
	ListAll(ctx context.Context) ([]models.Order, error)
	Get(ctx context.Context, id gocql.UUID, user models.SessionUser) (models.Order, error)
	UpdateStatus(ctx context.Context, id gocql.UUID, status string) (models.Order, error)
	Delete(ctx context.Context, id gocql.UUID) error
	Stats(ctx context.Context) (models.OrderStats, error)
}

type OrdersHandler struct {
	svc OrderService
	log logrus.FieldLogger
}

func NewOrdersHandler(svc OrderService, log logrus.FieldLogger) *OrdersHandler {
	return &OrdersHandler{svc: svc, log: log}
}

// GET /api/admin/orders : toutes les commandes avec leurs lignes.
func (h *OrdersHandler) List(c *gin.Context) {
	listPage(c, h.log, h.svc.ListAll)
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	o, err := h.svc.Get(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, o)
}

// PATCH /api/admin/orders/:id/status {"status": "..."} ; accepte les deux vocabulaires.
func (h *OrdersHandler) UpdateStatus(c *gin.Context) {
	id, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Statut requis"})
		return
	}
	o, err := h.svc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Statut mis à jour", "order": o})
}

func (h *OrdersHandler) Delete(c *gin.Context) {
	deleteFromPage(c, h.log, h.svc.ListAll, h.svc.Delete,
		func(o models.Order) gocql.UUID { return o.ID },
		"Commande supprimée")
}

// GET /api/admin/orders/stats
func (h *OrdersHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, stats)
}

package admin

import (
	"context"

	"fizzpan_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

type CartService interface {
	All(ctx context.Context) ([]models.CartLine, error)
	RemoveAny(ctx context.Context, itemID gocql.UUID) error
}

type CartsHandler struct {
	svc CartService
	log logrus.FieldLogger
}

func NewCartsHandler(svc CartService, log logrus.FieldLogger) *CartsHandler {
	return &CartsHandler{svc: svc, log: log}
}

// GET /api/admin/carts : toutes les lignes de panier jointes au produit.
func (h *CartsHandler) List(c *gin.Context) {
	listPage(c, h.log, h.svc.All)
}

// DELETE /api/admin/carts/:id?confirm=true
func (h *CartsHandler) Delete(c *gin.Context) {
	deleteFromPage(c, h.log, h.svc.All, h.svc.RemoveAny,
		func(l models.CartLine) gocql.UUID { return l.ID },
		"Article retiré du panier")
}

package user

import (
	"context"
	"net/http"
	"strings"

	"fizzpan_back_end/internal/checkout"
	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/middleware"
	"fizzpan_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

// IdempotencyHeader porte la clé qui protège contre la double soumission.
const IdempotencyHeader = "Idempotency-Key"

type CheckoutService interface {
	Checkout(ctx context.Context, user models.SessionUser, req checkout.Request, idemKey string) (checkout.Result, error)
}

type OrderService interface {
	List(ctx context.Context, user models.SessionUser) ([]models.Order, error)
	Get(ctx context.Context, id gocql.UUID, user models.SessionUser) (models.Order, error)
}

type OrderHandler struct {
	checkout CheckoutService
	orders   OrderService
	log      logrus.FieldLogger
}

func NewOrderHandler(co CheckoutService, orders OrderService, log logrus.FieldLogger) *OrderHandler {
	return &OrderHandler{checkout: co, orders: orders, log: log}
}

// POST /api/checkout : 201 à la création, 200 quand la clé d'idempotence rejoue une commande.
func (h *OrderHandler) Checkout(c *gin.Context) {
	if _, ok := sessionUserID(c); !ok {
		return
	}

	var req checkout.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	user := middleware.CurrentUser(c)
	res, err := h.checkout.Checkout(c.Request.Context(), user, req, strings.TrimSpace(c.GetHeader(IdempotencyHeader)))
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}

	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// GET /api/orders : ses propres commandes, toutes pour un admin.
func (h *OrderHandler) List(c *gin.Context) {
	if _, ok := sessionUserID(c); !ok {
		return
	}
	list, err := h.orders.List(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// GET /api/orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	if _, ok := sessionUserID(c); !ok {
		return
	}
	id, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	o, err := h.orders.Get(c.Request.Context(), id, middleware.CurrentUser(c))
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, o)
}

package user

import (
	"context"
	"net/http"

	"fizzpan_back_end/internal/cart"
	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

type CartService interface {
	Load(ctx context.Context, userID gocql.UUID) (cart.Cart, error)
	Add(ctx context.Context, userID, productID gocql.UUID, qty int) (cart.Cart, error)
	Update(ctx context.Context, userID, itemID gocql.UUID, qty int) (cart.Cart, error)
	Remove(ctx context.Context, userID, itemID gocql.UUID) (cart.Cart, error)
	Clear(ctx context.Context, userID gocql.UUID) (cart.Cart, error)
}

type CartHandler struct {
	svc CartService
	sub Subscriber
	log logrus.FieldLogger
}

// NewCartHandler ; sub peut être nil, la route websocket répond alors 503.
func NewCartHandler(svc CartService, sub Subscriber, log logrus.FieldLogger) *CartHandler {
	return &CartHandler{svc: svc, sub: sub, log: log}
}

type addItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// GET /api/cart
func (h *CartHandler) Get(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	crt, err := h.svc.Load(c.Request.Context(), userID)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, crt.Summary())
}

// POST /api/cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	productID, err := handlers.ParseUUID(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	crt, err := h.svc.Add(c.Request.Context(), userID, productID, req.Quantity)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, crt.Summary())
}

// PATCH /api/cart/items/:id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	itemID, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}

	crt, err := h.svc.Update(c.Request.Context(), userID, itemID, req.Quantity)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, crt.Summary())
}

// DELETE /api/cart/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	itemID, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}

	crt, err := h.svc.Remove(c.Request.Context(), userID, itemID)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, crt.Summary())
}

// DELETE /api/cart
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := sessionUserID(c)
	if !ok {
		return
	}
	crt, err := h.svc.Clear(c.Request.Context(), userID)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, crt.Summary())
}

// sessionUserID relit l'utilisateur authentifié ; écrit 401 s'il manque.
func sessionUserID(c *gin.Context) (gocql.UUID, bool) {
	id, err := gocql.ParseUUID(middleware.CurrentUser(c).ID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Non authentifié"})
		return gocql.UUID{}, false
	}
	return id, true
}

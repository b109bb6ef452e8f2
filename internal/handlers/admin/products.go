package admin

import (
	"context"
	"net/http"

	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

type ProductService interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id gocql.UUID) (models.Product, error)
	Create(ctx context.Context, in models.ProductInput) (models.Product, error)
	Update(ctx context.Context, id gocql.UUID, in models.ProductInput) (models.Product, error)
	Delete(ctx context.Context, id gocql.UUID) error
}

type ProductsHandler struct {
	svc ProductService
	log logrus.FieldLogger
}

func NewProductsHandler(svc ProductService, log logrus.FieldLogger) *ProductsHandler {
	return &ProductsHandler{svc: svc, log: log}
}

func (h *ProductsHandler) List(c *gin.Context) {
	listPage(c, h.log, h.svc.List)
}

func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, p)
}

// POST /api/admin/products : l'image peut être une URL ou un data URI à compresser.
func (h *ProductsHandler) Create(c *gin.Context) {
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	p, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides"})
		return
	}
	p, err := h.svc.Update(c.Request.Context(), id, in)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *ProductsHandler) Delete(c *gin.Context) {
	deleteFromPage(c, h.log, h.svc.List, h.svc.Delete,
		func(p models.Product) gocql.UUID { return p.ID },
		"Produit supprimé")
}

// Package product expose le catalogue public (vitrine).
package product

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

type Catalog interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id gocql.UUID) (models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
}

type Handler struct {
	catalog Catalog
	log     logrus.FieldLogger
}

func NewHandler(catalog Catalog, log logrus.FieldLogger) *Handler {
	return &Handler{catalog: catalog, log: log}
}

// GET /api/products?sort=price_asc|price_desc|name&in_stock=true
func (h *Handler) List(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	products = arrange(products, c.Query("sort"), c.Query("in_stock") == "true")
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

// GET /api/products/:id
func (h *Handler) Get(c *gin.Context) {
	id, ok := handlers.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	p, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /api/products/search?q=
func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramètre 'q' manquant"})
		return
	}
	products, err := h.catalog.Search(c.Request.Context(), query)
	if err != nil {
		handlers.RespondError(c, err, h.log)
		return
	}
	products = arrange(products, c.Query("sort"), c.Query("in_stock") == "true")
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products), "query": query})
}

// arrange filtre et trie une copie de la liste.
func arrange(products []models.Product, order string, inStock bool) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if inStock && p.Stock <= 0 {
			continue
		}
		out = append(out, p)
	}

	switch order {
	case "price_asc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case "price_desc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	case "name":
		sort.SliceStable(out, func(i, j int) bool { return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name) })
	}
	return out
}

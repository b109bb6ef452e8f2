package product

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fizzpan_back_end/internal/catalog"
	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type listBody struct {
	Products []models.Product `json:"products"`
	Total    int              `json:"total"`
}

func setup(t *testing.T) (*gin.Engine, []models.Product) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()
	mem := store.NewMemory()

	seed := []models.Product{
		{ID: gocql.TimeUUID(), Name: "Couscous royal", Description: "merguez, poulet", Price: 15, Stock: 3},
		{ID: gocql.TimeUUID(), Name: "Baklava", Description: "pistache", Price: 4, Stock: 0},
		{ID: gocql.TimeUUID(), Name: "Tajine", Description: "poulet citron", Price: 13.5, Stock: 5},
	}
	for i := range seed {
		seed[i].CreatedAt = time.Now().Add(time.Duration(i) * time.Second)
		require.NoError(t, mem.CreateProduct(context.Background(), &seed[i]))
	}

	h := NewHandler(catalog.NewService(mem, catalog.Options{}, log), log)
	r := gin.New()
	r.GET("/products", h.List)
	r.GET("/products/search", h.Search)
	r.GET("/products/:id", h.Get)
	return r, seed
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestListSortsAndFilters(t *testing.T) {
	r, _ := setup(t)

	w := get(r, "/products?sort=price_asc")
	require.Equal(t, http.StatusOK, w.Code)
	var body listBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Products, 3)
	assert.Equal(t, "Baklava", body.Products[0].Name)
	assert.Equal(t, "Couscous royal", body.Products[2].Name)

	w = get(r, "/products?in_stock=true&sort=name")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Products, 2)
	assert.Equal(t, "Couscous royal", body.Products[0].Name)
}

func TestSearchFallsBackToMemory(t *testing.T) {
	r, _ := setup(t)

	assert.Equal(t, http.StatusBadRequest, get(r, "/products/search").Code)

	w := get(r, "/products/search?q=poulet")
	require.Equal(t, http.StatusOK, w.Code)
	var body listBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
}

func TestGetProduct(t *testing.T) {
	r, seed := setup(t)

	w := get(r, "/products/"+seed[2].ID.String())
	require.Equal(t, http.StatusOK, w.Code)
	var p models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Tajine", p.Name)

	assert.Equal(t, http.StatusNotFound, get(r, "/products/"+gocql.TimeUUID().String()).Code)
	assert.Equal(t, http.StatusBadRequest, get(r, "/products/nope").Code)
}

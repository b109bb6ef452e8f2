package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fizzpan_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyClientCreateProduct(t *testing.T) {
	var got legacyProduct
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := NewLegacyClient(srv.URL+"/", "secret", time.Second)
	p := models.Product{ID: gocql.TimeUUID(), Name: "Pizza", Price: 12.5, Stock: 3}
	require.NoError(t, c.CreateProduct(context.Background(), p))

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, p.ID.String(), got.ID)
	assert.Equal(t, "Pizza", got.Name)
	assert.Equal(t, 12.5, got.Price)
}

func TestLegacyClientUnauthorizedClearsToken(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewLegacyClient(srv.URL, "expired", time.Second)
	profile := models.Profile{ID: gocql.TimeUUID(), Username: "bob", Role: models.RoleUser}

	err := c.CreateUser(context.Background(), "bob@example.com", profile)
	assert.ErrorIs(t, err, ErrLegacyUnauthorized)
	assert.Empty(t, c.Token())

	// Plus de jeton : aucun nouvel appel réseau.
	err = c.CreateUser(context.Background(), "bob@example.com", profile)
	assert.ErrorIs(t, err, ErrLegacyUnauthorized)
	assert.Equal(t, 1, calls)
}

func TestLegacyClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewLegacyClient(srv.URL, "tok", 0)
	err := c.CreateProduct(context.Background(), models.Product{ID: gocql.TimeUUID()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Equal(t, "tok", c.Token())
}

package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fizzpan_back_end/internal/config"
	"fizzpan_back_end/internal/database"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, _ := test.NewNullLogger()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		StoreDriver:   config.DriverMemory,
		PublicBaseURL: "http://fizzpan.test",
		JWTSecret:     "secret-de-test",
		JWTTTL:        time.Hour,
		RefreshTTL:    24 * time.Hour,
	}
	a, err := New(cfg, &database.Connections{Redis: rdb}, log)
	require.NoError(t, err)
	t.Cleanup(a.Audit.Wait)
	return a
}

func do(a *App, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func TestNewRequiresRedis(t *testing.T) {
	log, _ := test.NewNullLogger()
	_, err := New(&config.Config{StoreDriver: config.DriverMemory}, &database.Connections{}, log)
	assert.Error(t, err)
}

func TestStoresRejectsUnknownDriver(t *testing.T) {
	_, err := Stores(&config.Config{StoreDriver: "postgres"}, &database.Connections{})
	assert.Error(t, err)

	_, err = Stores(&config.Config{StoreDriver: config.DriverScylla}, &database.Connections{})
	assert.Error(t, err)
}

func TestCustomerFlow(t *testing.T) {
	a := newApp(t)
	a.Warmup(context.Background())

	assert.Equal(t, http.StatusOK, do(a, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusOK, do(a, http.MethodGet, "/api/products", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(a, http.MethodGet, "/api/cart", "", "").Code)

	w := do(a, http.MethodPost, "/api/auth/register", `{"email":"lina@fizzpan.test","password":"couscous42","username":"lina"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(a, http.MethodPost, "/api/auth/login", `{"email":"lina@fizzpan.test","password":"couscous42"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var login struct {
		AccessToken string `json:"access_token"`
		Redirect    string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.AccessToken)

	assert.Equal(t, http.StatusOK, do(a, http.MethodGet, "/api/auth/me", "", login.AccessToken).Code)
	assert.Equal(t, http.StatusOK, do(a, http.MethodGet, "/api/cart", "", login.AccessToken).Code)
	assert.Equal(t, http.StatusForbidden, do(a, http.MethodGet, "/api/admin/users", "", login.AccessToken).Code)

	w = do(a, http.MethodPost, "/api/checkout", `{"contact_method":"whatsapp","contact_info":"+33600000000"}`, login.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "panier est vide")

	assert.Equal(t, http.StatusOK, do(a, http.MethodPost, "/api/auth/logout", "", login.AccessToken).Code)
	assert.Equal(t, http.StatusUnauthorized, do(a, http.MethodGet, "/api/auth/me", "", login.AccessToken).Code)
}

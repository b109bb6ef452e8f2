package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fizzpan_back_end/internal/audit"
	"fizzpan_back_end/internal/auth"
	"fizzpan_back_end/internal/cache"
	"fizzpan_back_end/internal/models"
	"fizzpan_back_end/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	users map[string]models.SessionUser
	err   error
	sub   string
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*auth.Claims, models.SessionUser, error) {
	if f.err != nil {
		var claims *auth.Claims
		if f.sub != "" {
			claims = &auth.Claims{UserID: f.sub}
		}
		return claims, models.SessionUser{}, f.err
	}
	u, ok := f.users[token]
	if !ok {
		return nil, models.SessionUser{}, auth.ErrInvalidToken
	}
	return &auth.Claims{UserID: u.ID}, u, nil
}

type fakeForgetter struct {
	forgotten []string
}

func (f *fakeForgetter) Forget(_ context.Context, userID string) {
	f.forgotten = append(f.forgotten, userID)
}

func newRouter(a Authenticator, roles RoleForgetter) *gin.Engine {
	log, _ := test.NewNullLogger()
	r := gin.New()
	authed := r.Group("/", AuthRequired(a, roles, log))
	authed.GET("/me", func(c *gin.Context) { c.JSON(http.StatusOK, CurrentUser(c)) })
	authed.GET("/admin", RequireAdmin, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	a := &fakeAuth{users: map[string]models.SessionUser{
		"tok-user":  {ID: "u1", Email: "u@f.fr", Username: "u", Role: models.RoleUser},
		"tok-admin": {ID: "a1", Email: "a@f.fr", Username: "a", Role: models.RoleAdmin},
	}}
	r := newRouter(a, &fakeForgetter{})

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/me", "inconnu").Code)

	w := do(r, http.MethodGet, "/me", "tok-user")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","email":"u@f.fr","username":"u","role":"user"}`, w.Body.String())

	// Token passé en paramètre (websocket).
	w = do(r, http.MethodGet, "/me?token=tok-admin", "")
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", "tok-user").Code)
	assert.Equal(t, http.StatusNoContent, do(r, http.MethodGet, "/admin", "tok-admin").Code)
}

func TestAuthRequiredForgetsRoleOn401(t *testing.T) {
	roles := &fakeForgetter{}
	r := newRouter(&fakeAuth{err: auth.ErrTokenRevoked, sub: "u42"}, roles)

	w := do(r, http.MethodGet, "/me", "revoked")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, []string{"u42"}, roles.forgotten)
}

func TestAuthRequiredBackendError(t *testing.T) {
	r := newRouter(&fakeAuth{err: fmt.Errorf("redis down")}, &fakeForgetter{})
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/me", "x").Code)
}

func newLimiter(t *testing.T) *cache.Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.New(rdb)
}

func TestRateLimit(t *testing.T) {
	log, _ := test.NewNullLogger()
	r := gin.New()
	r.GET("/x", RateLimit(newLimiter(t), Limit{Name: "t", Max: 2, Window: time.Minute, Key: ByIP}, log),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", "").Code)
	w := do(r, http.MethodGet, "/x", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/x", "").Code)
}

func TestLoginRateLimitCountsFailures(t *testing.T) {
	log, _ := test.NewNullLogger()
	r := gin.New()
	r.POST("/login", LoginRateLimit(newLimiter(t), log), func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "email ou mot de passe incorrect"})
	})

	post := func(email string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(`{"email":"`+email+`"}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := 0; i < LoginMaxFailures; i++ {
		require.Equal(t, http.StatusUnauthorized, post("Bob@Fizzpan.fr"))
	}
	assert.Equal(t, http.StatusTooManyRequests, post("bob@fizzpan.fr"))
	assert.Equal(t, http.StatusUnauthorized, post("alice@fizzpan.fr"))
}

func TestAuditAdmin(t *testing.T) {
	mem := store.NewMemory()
	log, _ := test.NewNullLogger()
	logger := audit.NewLogger(mem, log)

	r := gin.New()
	admin := r.Group("/api/admin", func(c *gin.Context) { c.Set(CtxUserID, "a1"); c.Next() }, AuditAdmin(logger))
	admin.GET("/products", func(c *gin.Context) { c.Status(http.StatusOK) })
	admin.DELETE("/products/:id", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "confirmation requise"})
	})

	do(r, http.MethodDelete, "/api/admin/products/p1", "")
	logger.Wait()

	entries := mem.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "delete", entries[0].Action)
	assert.Equal(t, "products", entries[0].Resource)
	assert.Equal(t, "p1", entries[0].ResourceID)
	assert.Equal(t, "a1", entries[0].UserID)
	assert.False(t, entries[0].Success)
}

func TestAuditAdminRecordsReads(t *testing.T) {
	mem := store.NewMemory()
	log, _ := test.NewNullLogger()
	logger := audit.NewLogger(mem, log)

	r := gin.New()
	admin := r.Group("/api/admin", func(c *gin.Context) { c.Set(CtxUserID, "a1"); c.Next() }, AuditAdmin(logger))
	admin.GET("/users", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet, "/api/admin/users", "")
	logger.Wait()

	entries := mem.AuditEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "read", entries[0].Action)
	assert.Equal(t, "users", entries[0].Resource)
	assert.Equal(t, "a1", entries[0].UserID)
	assert.True(t, entries[0].Success)
}

func TestActionOf(t *testing.T) {
	assert.Equal(t, "read", actionOf(http.MethodGet))
	assert.Equal(t, "read", actionOf(http.MethodHead))
	assert.Equal(t, "patch", actionOf(http.MethodPatch))
}

func TestResourceOf(t *testing.T) {
	assert.Equal(t, "orders", resourceOf("/api/admin/orders/:id/status"))
	assert.Equal(t, "checkout", resourceOf("/api/checkout"))
	assert.Equal(t, "", resourceOf(""))
}

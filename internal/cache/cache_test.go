package cache

import (
	"context"
	"testing"
	"time"

	"fizzpan_back_end/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb), mr
}

func TestRoleCache(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.GetRole(ctx, "u1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.SetRole(ctx, "u1", CachedRole{Role: "admin", Username: "chef"}))
	got, err := c.GetRole(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, CachedRole{Role: "admin", Username: "chef"}, got)
	assert.True(t, mr.TTL("user_role:u1") > 0)

	require.NoError(t, c.InvalidateRole(ctx, "u1"))
	_, err = c.GetRole(ctx, "u1")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRefreshTokenIsSingleUse(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.StoreRefreshToken(ctx, "tok", "u1", time.Hour))

	userID, err := c.ConsumeRefreshToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	_, err = c.ConsumeRefreshToken(ctx, "tok")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestBlacklist(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.BlacklistToken(ctx, "jti-1", time.Minute))
	ok, err := c.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = c.IsTokenBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok)

	// un token déjà expiré n'est pas stocké
	require.NoError(t, c.BlacklistToken(ctx, "jti-2", 0))
	assert.False(t, mr.Exists("blacklist:jti-2"))
}

func TestIdempotencyKey(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	key := "checkout:u1:abc"

	ok, err := c.ReserveIdempotencyKey(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ReserveIdempotencyKey(ctx, key, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	res, err := c.IdempotencyResult(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, res, "en cours")

	require.NoError(t, c.CompleteIdempotencyKey(ctx, key, "order-1", time.Hour))
	res, err = c.IdempotencyResult(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "order-1", res)

	require.NoError(t, c.ReleaseIdempotencyKey(ctx, key))
	_, err = c.IdempotencyResult(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestProductsCache(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, err := c.GetProducts(ctx)
	assert.ErrorIs(t, err, ErrMiss)

	products := []models.Product{{ID: gocql.TimeUUID(), Name: "Nasi goreng", Price: 25000}}
	require.NoError(t, c.SetProducts(ctx, products))

	got, err := c.GetProducts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Nasi goreng", got[0].Name)

	require.NoError(t, c.InvalidateProducts(ctx))
	_, err = c.GetProducts(ctx)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestIncrementRateLimit(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		n, err := c.IncrementRateLimit(ctx, "rl:test", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(i), n)
	}
	assert.True(t, mr.TTL("rl:test") > 0)

	n, ttl, err := c.RateLimitCount(ctx, "rl:test")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.True(t, ttl > 0)

	n, _, err = c.RateLimitCount(ctx, "rl:absent")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestIncrementRateLimit_RepairsKeyWithoutTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	// compteur resté sans fenêtre (EXPIRE perdu) : il ne doit pas bloquer indéfiniment
	require.NoError(t, mr.Set("rl:stuck", "4"))
	assert.Equal(t, time.Duration(0), mr.TTL("rl:stuck"))

	n, err := c.IncrementRateLimit(ctx, "rl:stuck", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, time.Minute, mr.TTL("rl:stuck"))

	// une fenêtre en cours n'est pas prolongée
	mr.FastForward(40 * time.Second)
	_, err = c.IncrementRateLimit(ctx, "rl:stuck", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 20*time.Second, mr.TTL("rl:stuck"))

	mr.FastForward(21 * time.Second)
	n, err = c.IncrementRateLimit(ctx, "rl:stuck", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRevokeUserTokens(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	_, err := c.TokensRevokedBefore(ctx, "u1")
	assert.ErrorIs(t, err, ErrMiss)

	at := time.UnixMilli(1_760_000_000_123)
	require.NoError(t, c.RevokeUserTokens(ctx, "u1", at, time.Hour))

	got, err := c.TokensRevokedBefore(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, at.Equal(got))
	assert.Equal(t, time.Hour, mr.TTL("revoked_before:u1"))

	mr.FastForward(time.Hour + time.Second)
	_, err = c.TokensRevokedBefore(ctx, "u1")
	assert.ErrorIs(t, err, ErrMiss)
}

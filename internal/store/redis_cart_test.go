package store

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

func newRedisCart(t *testing.T) (*RedisCartStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisCartStore(rdb), mr
}

func TestRedisCart_SaveAndList(t *testing.T) {
	s, mr := newRedisCart(t)
	ctx := context.Background()
	user := gocql.TimeUUID()
	now := time.Now().UTC().Truncate(time.Second)

	first := models.CartItem{ID: gocql.TimeUUID(), UserID: user, ProductID: gocql.TimeUUID(), Quantity: 1, CreatedAt: now}
	second := models.CartItem{ID: gocql.TimeUUID(), UserID: user, ProductID: gocql.TimeUUID(), Quantity: 3, CreatedAt: now.Add(time.Second)}
	require.NoError(t, s.SaveCartItem(ctx, &second))
	require.NoError(t, s.SaveCartItem(ctx, &first))

	items, err := s.ListCartItems(ctx, user)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, first.ID, items[0].ID, "ordre d'ajout")
	assert.Equal(t, 3, items[1].Quantity)

	assert.True(t, mr.TTL("cart:"+user.String()) > 0)

	got, err := s.GetCartItem(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ProductID, got.ProductID)

	found, err := s.FindCartItem(ctx, user, first.ProductID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)
}

func TestRedisCart_DeleteAndClear(t *testing.T) {
	s, mr := newRedisCart(t)
	ctx := context.Background()
	user, other := gocql.TimeUUID(), gocql.TimeUUID()

	a := models.CartItem{ID: gocql.TimeUUID(), UserID: user, ProductID: gocql.TimeUUID(), Quantity: 1}
	b := models.CartItem{ID: gocql.TimeUUID(), UserID: user, ProductID: gocql.TimeUUID(), Quantity: 1}
	c := models.CartItem{ID: gocql.TimeUUID(), UserID: other, ProductID: gocql.TimeUUID(), Quantity: 1}
	for _, it := range []*models.CartItem{&a, &b, &c} {
		require.NoError(t, s.SaveCartItem(ctx, it))
	}

	assert.ErrorIs(t, s.DeleteCartItem(ctx, other, a.ID), ErrNotFound)
	require.NoError(t, s.DeleteCartItem(ctx, user, a.ID))
	_, err := s.GetCartItem(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := s.ListAllCartItems(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.ClearCart(ctx, user))
	assert.False(t, mr.Exists("cart:"+user.String()))
	assert.False(t, mr.Exists("cart_item:"+b.ID.String()))

	items, err := s.ListCartItems(ctx, other)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

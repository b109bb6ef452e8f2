package cache

import (
	"context"
	"fmt"
	"time"

	"fizzpan_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	RoleCacheTTL    = 24 * time.Hour
	ProductCacheTTL = 10 * time.Minute

	productsAllKey = "products:all"
)

// CachedRole est la paire rôle/nom mémorisée pour un utilisateur.
type CachedRole struct {
	Role     string
	Username string
}

func roleKey(userID string) string {
	return "user_role:" + userID
}

// GetRole lit le rôle mis en cache. ErrMiss si absent.
func (c *Cache) GetRole(ctx context.Context, userID string) (CachedRole, error) {
	fields, err := c.rdb.HGetAll(ctx, roleKey(userID)).Result()
	if err != nil {
		return CachedRole{}, fmt.Errorf("lecture cache rôle: %w", err)
	}
	role, ok := fields["role"]
	if !ok || role == "" {
		return CachedRole{}, ErrMiss
	}
	return CachedRole{Role: role, Username: fields["username"]}, nil
}

func (c *Cache) SetRole(ctx context.Context, userID string, r CachedRole) error {
	key := roleKey(userID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "role", r.Role, "username", r.Username)
		pipe.Expire(ctx, key, RoleCacheTTL)
		return nil
	})
	return err
}

// InvalidateRole oublie le rôle d'un utilisateur (401, déconnexion, changement de rôle).
func (c *Cache) InvalidateRole(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, roleKey(userID)).Err()
}

// GetProducts lit le catalogue complet mis en cache.
func (c *Cache) GetProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.GetJSON(ctx, productsAllKey, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Cache) SetProducts(ctx context.Context, products []models.Product) error {
	return c.SetJSON(ctx, productsAllKey, products, ProductCacheTTL)
}

func (c *Cache) InvalidateProducts(ctx context.Context) error {
	return c.Delete(ctx, productsAllKey)
}

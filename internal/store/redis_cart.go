package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fizzpan_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/redis/go-redis/v9"
)

// CartTTL : un panier inactif expire après 30 jours.
const CartTTL = 30 * 24 * time.Hour

// RedisCartStore garde chaque panier dans un hash "cart:{userID}" (champ = id de ligne)
// et un index "cart_item:{itemID}" → userID pour retrouver le propriétaire d'une ligne.
type RedisCartStore struct {
	rdb *redis.Client
}

func NewRedisCartStore(rdb *redis.Client) *RedisCartStore {
	return &RedisCartStore{rdb: rdb}
}

func cartKey(userID gocql.UUID) string {
	return "cart:" + userID.String()
}

func cartItemKey(itemID gocql.UUID) string {
	return "cart_item:" + itemID.String()
}

func (s *RedisCartStore) ListCartItems(ctx context.Context, userID gocql.UUID) ([]models.CartItem, error) {
	return s.readCart(ctx, cartKey(userID))
}

func (s *RedisCartStore) readCart(ctx context.Context, key string) ([]models.CartItem, error) {
	fields, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("lecture panier %s: %w", key, err)
	}

	items := make([]models.CartItem, 0, len(fields))
	for _, raw := range fields {
		var it models.CartItem
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return nil, fmt.Errorf("décodage ligne panier: %w", err)
		}
		items = append(items, it)
	}
	sortCartItems(items)
	return items, nil
}

// ListAllCartItems parcourt tous les paniers (SCAN), pour l'écran admin.
func (s *RedisCartStore) ListAllCartItems(ctx context.Context) ([]models.CartItem, error) {
	var all []models.CartItem
	iter := s.rdb.Scan(ctx, 0, "cart:*", 100).Iterator()
	for iter.Next(ctx) {
		items, err := s.readCart(ctx, iter.Val())
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan paniers: %w", err)
	}
	sortCartItems(all)
	return all, nil
}

func (s *RedisCartStore) GetCartItem(ctx context.Context, itemID gocql.UUID) (models.CartItem, error) {
	owner, err := s.rdb.Get(ctx, cartItemKey(itemID)).Result()
	if errors.Is(err, redis.Nil) {
		return models.CartItem{}, ErrNotFound
	}
	if err != nil {
		return models.CartItem{}, err
	}

	raw, err := s.rdb.HGet(ctx, "cart:"+owner, itemID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return models.CartItem{}, ErrNotFound
	}
	if err != nil {
		return models.CartItem{}, err
	}

	var it models.CartItem
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		return models.CartItem{}, fmt.Errorf("décodage ligne panier: %w", err)
	}
	return it, nil
}

func (s *RedisCartStore) FindCartItem(ctx context.Context, userID, productID gocql.UUID) (models.CartItem, error) {
	items, err := s.ListCartItems(ctx, userID)
	if err != nil {
		return models.CartItem{}, err
	}
	for _, it := range items {
		if it.ProductID == productID {
			return it, nil
		}
	}
	return models.CartItem{}, ErrNotFound
}

func (s *RedisCartStore) SaveCartItem(ctx context.Context, item *models.CartItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return err
	}

	key := cartKey(item.UserID)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, item.ID.String(), data)
		pipe.Expire(ctx, key, CartTTL)
		pipe.Set(ctx, cartItemKey(item.ID), item.UserID.String(), CartTTL)
		return nil
	})
	return err
}

func (s *RedisCartStore) DeleteCartItem(ctx context.Context, userID, itemID gocql.UUID) error {
	n, err := s.rdb.HDel(ctx, cartKey(userID), itemID.String()).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return s.rdb.Del(ctx, cartItemKey(itemID)).Err()
}

func (s *RedisCartStore) ClearCart(ctx context.Context, userID gocql.UUID) error {
	key := cartKey(userID)
	ids, err := s.rdb.HKeys(ctx, key).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(ids)+1)
	keys = append(keys, key)
	for _, id := range ids {
		keys = append(keys, "cart_item:"+id)
	}
	return s.rdb.Del(ctx, keys...).Err()
}

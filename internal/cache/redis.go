package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss est renvoyée quand la clé n'existe pas (ou plus) dans Redis.
var ErrMiss = errors.New("cache: clé absente")

// Cache regroupe les usages Redis hors panier : tokens, rôles, catalogue, idempotence.
type Cache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

// Client expose le client sous-jacent (pub/sub, rate limit).
func (c *Cache) Client() *redis.Client {
	return c.rdb
}

// --- Refresh Tokens ---

// StoreRefreshToken associe un refresh token opaque à son utilisateur.
func (c *Cache) StoreRefreshToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return c.rdb.Set(ctx, "refresh:"+token, userID, ttl).Err()
}

// ConsumeRefreshToken lit et supprime le token (rotation à usage unique).
func (c *Cache) ConsumeRefreshToken(ctx context.Context, token string) (string, error) {
	userID, err := c.rdb.GetDel(ctx, "refresh:"+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return userID, err
}

func (c *Cache) DeleteRefreshToken(ctx context.Context, token string) error {
	return c.rdb.Del(ctx, "refresh:"+token).Err()
}

// --- Blacklist JWT (révocation avant expiration) ---

func (c *Cache) BlacklistToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, "blacklist:"+tokenID, "revoked", ttl).Err()
}

func (c *Cache) IsTokenBlacklisted(ctx context.Context, tokenID string) (bool, error) {
	n, err := c.rdb.Exists(ctx, "blacklist:"+tokenID).Result()
	if err != nil {
		return false, fmt.Errorf("vérification blacklist: %w", err)
	}
	return n > 0, nil
}

// --- Révocation par utilisateur (changement de rôle, suppression) ---

// RevokeUserTokens invalide tous les JWT émis pour userID jusqu'à at inclus.
// ttl doit couvrir la durée de vie d'un access token.
func (c *Cache) RevokeUserTokens(ctx context.Context, userID string, at time.Time, ttl time.Duration) error {
	return c.rdb.Set(ctx, "revoked_before:"+userID, at.UnixMilli(), ttl).Err()
}

// TokensRevokedBefore renvoie la date de coupure, ou ErrMiss si aucune révocation n'est active.
func (c *Cache) TokensRevokedBefore(ctx context.Context, userID string) (time.Time, error) {
	ms, err := c.rdb.Get(ctx, "revoked_before:"+userID).Int64()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, ErrMiss
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("lecture révocation: %w", err)
	}
	return time.UnixMilli(ms), nil
}

// --- Cache générique ---

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// --- Rate Limiting ---

// IncrementRateLimit incrémente le compteur et pose la fenêtre dans la même transaction.
// EXPIRE NX ne touche pas une fenêtre déjà posée mais répare une clé restée sans TTL.
func (c *Cache) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// RateLimitCount lit le compteur courant (0 si absent) et le temps restant de la fenêtre.
func (c *Cache) RateLimitCount(ctx context.Context, key string) (int64, time.Duration, error) {
	n, err := c.rdb.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	ttl, err := c.rdb.TTL(ctx, key).Result()
	if err != nil {
		return n, 0, err
	}
	return n, ttl, nil
}

// --- Idempotence ---

const idempotencyPending = "pending"

// ReserveIdempotencyKey pose la clé si elle est libre. false = déjà réservée.
func (c *Cache) ReserveIdempotencyKey(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, key, idempotencyPending, ttl).Result()
}

// CompleteIdempotencyKey enregistre le résultat associé à la clé.
func (c *Cache) CompleteIdempotencyKey(ctx context.Context, key, result string, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, result, ttl).Err()
}

// IdempotencyResult renvoie le résultat stocké, ou "" si la requête est encore en cours.
func (c *Cache) IdempotencyResult(ctx context.Context, key string) (string, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", err
	}
	if v == idempotencyPending {
		return "", nil
	}
	return v, nil
}

func (c *Cache) ReleaseIdempotencyKey(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// --- Pub/Sub ---

func (c *Cache) Publish(ctx context.Context, channel, message string) error {
	return c.rdb.Publish(ctx, channel, message).Err()
}

func (c *Cache) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	return c.rdb.Subscribe(ctx, channel)
}

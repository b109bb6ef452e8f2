package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fizzpan_back_end/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	LoginMaxFailures    = 5
	RegisterMaxAttempts = 3
	APIMaxRequests      = 100
	CartMaxRequests     = 20
	SearchMaxRequests   = 30

	LoginCooldown    = 15 * time.Minute
	RegisterCooldown = 30 * time.Minute
	APIWindow        = time.Minute
)

type Limiter interface {
	IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error)
	RateLimitCount(ctx context.Context, key string) (int64, time.Duration, error)
}

// Limit décrit une fenêtre fixe : Max requêtes par Window et par clé.
type Limit struct {
	Name   string
	Max    int64
	Window time.Duration
	Key    func(c *gin.Context) string
}

func ByIP(c *gin.Context) string   { return c.ClientIP() }
func ByUser(c *gin.Context) string { return c.GetString(CtxUserID) }

func APIRateLimit(l Limiter, log logrus.FieldLogger) gin.HandlerFunc {
	return RateLimit(l, Limit{Name: "api", Max: APIMaxRequests, Window: APIWindow, Key: ByIP}, log)
}

func RegisterRateLimit(l Limiter, log logrus.FieldLogger) gin.HandlerFunc {
	return RateLimit(l, Limit{Name: "register", Max: RegisterMaxAttempts, Window: RegisterCooldown, Key: ByIP}, log)
}

func CartRateLimit(l Limiter, log logrus.FieldLogger) gin.HandlerFunc {
	return RateLimit(l, Limit{Name: "cart", Max: CartMaxRequests, Window: time.Minute, Key: ByUser}, log)
}

func SearchRateLimit(l Limiter, log logrus.FieldLogger) gin.HandlerFunc {
	return RateLimit(l, Limit{Name: "search", Max: SearchMaxRequests, Window: time.Minute, Key: ByIP}, log)
}

// RateLimit compte chaque requête ; Redis indisponible → la requête passe.
func RateLimit(l Limiter, limit Limit, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := limit.Key(c)
		if id == "" {
			c.Next()
			return
		}

		n, err := l.IncrementRateLimit(c.Request.Context(), "rate:"+limit.Name+":"+id, limit.Window)
		if err != nil {
			log.WithError(err).Warn("⚠️ Limitation de débit indisponible")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", limit.Max))
		if n > limit.Max {
			metrics.RateLimited(limit.Name)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Trop de requêtes. Réessayez plus tard",
				"retry_after": int(limit.Window.Seconds()),
			})
			return
		}
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", limit.Max-n))
		c.Next()
	}
}

// LoginRateLimit bloque un email après LoginMaxFailures échecs de connexion.
func LoginRateLimit(l Limiter, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Next()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var input struct {
			Email string `json:"email"`
		}
		if json.Unmarshal(body, &input) != nil || strings.TrimSpace(input.Email) == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "rate:login:" + strings.ToLower(strings.TrimSpace(input.Email))
		failures, ttl, err := l.RateLimitCount(ctx, key)
		if err != nil {
			log.WithError(err).Warn("⚠️ Limitation de débit indisponible")
			c.Next()
			return
		}
		if failures >= LoginMaxFailures {
			metrics.RateLimited("login")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Trop de tentatives échouées. Réessayez dans %d minutes", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			return
		}

		c.Next()

		if c.Writer.Status() == http.StatusUnauthorized {
			if _, err := l.IncrementRateLimit(ctx, key, LoginCooldown); err != nil {
				log.WithError(err).Warn("⚠️ Comptage des échecs de connexion impossible")
			}
		}
	}
}

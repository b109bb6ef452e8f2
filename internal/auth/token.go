package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fizzpan_back_end/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("token invalide")

// Claims du JWT d'accès. UserMetadata reprend le user_metadata du compte à l'émission.
type Claims struct {
	UserID       string          `json:"user_id"`
	Email        string          `json:"email"`
	UserMetadata json.RawMessage `json:"user_metadata,omitempty"`
	// iat à la milliseconde, comparé à la coupure revoked_before.
	IssuedAtMs   int64           `json:"iat_ms,omitempty"`
	jwt.RegisteredClaims
}

// IssuedAtTime renvoie la date d'émission la plus précise disponible.
func (c *Claims) IssuedAtTime() time.Time {
	if c.IssuedAtMs > 0 {
		return time.UnixMilli(c.IssuedAtMs)
	}
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

// Remaining renvoie la durée de validité restante du token.
func (c *Claims) Remaining(now time.Time) time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return c.ExpiresAt.Sub(now)
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signe un token HS256 pour le compte.
func (t *TokenIssuer) Issue(acc models.Account) (string, *Claims, error) {
	now := t.now()
	claims := &Claims{
		UserID:     acc.ID.String(),
		Email:      acc.Email,
		IssuedAtMs: now.UnixMilli(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   acc.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	if acc.Metadata != "" && json.Valid([]byte(acc.Metadata)) {
		claims.UserMetadata = json.RawMessage(acc.Metadata)
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", nil, fmt.Errorf("signature JWT: %w", err)
	}
	return signed, claims, nil
}

// Parse vérifie signature, méthode et expiration.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if errors.Is(err, jwt.ErrTokenExpired) && claims.UserID != "" {
		// Signature valide : le sujet reste connu de l'appelant.
		return claims, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: user_id manquant", ErrInvalidToken)
	}
	return claims, nil
}

package auth

import (
	"testing"
	"time"

	"fizzpan_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	acc := models.Account{ID: gocql.TimeUUID(), Email: "sari@example.com", Metadata: `{"username":"sari","role":"admin"}`}

	signed, claims, err := issuer.Issue(acc)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID, "jti")

	parsed, err := issuer.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, acc.ID.String(), parsed.UserID)
	assert.Equal(t, "sari@example.com", parsed.Email)
	assert.Equal(t, "admin", ParseMetadata(string(parsed.UserMetadata)).Role)
	assert.InDelta(t, time.Hour.Seconds(), parsed.Remaining(time.Now()).Seconds(), 5)
}

func TestParse_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", time.Hour)
	acc := models.Account{ID: gocql.TimeUUID(), Email: "a@b.co"}

	t.Run("mauvaise clé", func(t *testing.T) {
		signed, _, err := NewTokenIssuer("autre", time.Hour).Issue(acc)
		require.NoError(t, err)
		_, err = issuer.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expiré", func(t *testing.T) {
		old := NewTokenIssuer("secret", time.Minute)
		old.now = func() time.Time { return time.Now().Add(-time.Hour) }
		signed, _, err := old.Issue(acc)
		require.NoError(t, err)
		claims, err := issuer.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
		require.NotNil(t, claims, "le sujet d'un token expiré reste lisible")
		assert.Equal(t, acc.ID.String(), claims.UserID)
	})

	t.Run("méthode none", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "x", "exp": time.Now().Add(time.Hour).Unix()})
		signed, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = issuer.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("sans user_id", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
		signed, err := tok.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = issuer.Parse(signed)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestParseMetadata(t *testing.T) {
	assert.Equal(t, Metadata{Username: "budi", Role: "user"}, ParseMetadata(`{"username":"budi","role":"user"}`))
	assert.Equal(t, Metadata{}, ParseMetadata(`pas du json`))
	assert.Equal(t, Metadata{}, ParseMetadata(""))
	assert.Equal(t, Metadata{Role: "admin"}, ParseMetadata(EncodeMetadata(Metadata{Role: "admin"})))
}

func TestClaimsIssuedAtTime(t *testing.T) {
	c := &Claims{IssuedAtMs: 1_760_000_000_456}
	assert.Equal(t, int64(1_760_000_000_456), c.IssuedAtTime().UnixMilli())

	c = &Claims{RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Unix(1_760_000_000, 0))}}
	assert.Equal(t, int64(1_760_000_000), c.IssuedAtTime().Unix())

	assert.True(t, (&Claims{}).IssuedAtTime().IsZero())
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverScylla, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.Scylla.Hosts)
	assert.Equal(t, "fizzpan_orders", cfg.Scylla.OrdersKeyspace)
	assert.Equal(t, "eur", cfg.Stripe.Currency)
	assert.False(t, cfg.StripeEnabled())
	assert.False(t, cfg.LegacyEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", " Memory ")
	t.Setenv("SCYLLA_HOSTS", "10.0.0.1,10.0.0.2")
	t.Setenv("LEGACY_API_URL", "https://legacy.example.com")
	t.Setenv("JWT_TTL", "2h")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, []string{"10.0.0.1", "10.0.0.2"}, cfg.Scylla.Hosts)
	assert.True(t, cfg.LegacyEnabled())
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
}

func TestValidate(t *testing.T) {
	cfg := &Config{StoreDriver: DriverMemory, JWTTTL: time.Hour}
	assert.Error(t, cfg.Validate(), "secret manquant")

	cfg.JWTSecret = "s"
	assert.NoError(t, cfg.Validate())

	cfg.StoreDriver = "postgres"
	assert.Error(t, cfg.Validate())
}

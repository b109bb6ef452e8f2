package database

import (
	"io/fs"
	"net/url"
	"testing"

	"fizzpan_back_end/internal/config"
	"fizzpan_back_end/internal/database/migrations"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	for _, dir := range []string{migrations.Products, migrations.Users, migrations.Orders} {
		up, err := fs.Glob(migrations.FS, dir+"/*.up.cql")
		require.NoError(t, err)
		down, err := fs.Glob(migrations.FS, dir+"/*.down.cql")
		require.NoError(t, err)

		assert.NotEmpty(t, up, dir)
		assert.Len(t, down, len(up), "chaque migration %s doit avoir son down", dir)
	}
}

func TestMigrationURL(t *testing.T) {
	cfg := config.ScyllaConfig{Hosts: []string{"scylla:9042"}}
	target := MigrationTarget{Name: migrations.Orders, Keyspace: "fizzpan_orders", Username: "orders", Password: "p@ss"}

	raw, err := MigrationURL(cfg, target)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "cassandra", u.Scheme)
	assert.Equal(t, "scylla:9042", u.Host)
	assert.Equal(t, "/fizzpan_orders", u.Path)
	assert.Equal(t, "true", u.Query().Get("x-multi-statement"))
	assert.Equal(t, "p@ss", u.Query().Get("password"))
}

func TestMigrationURL_Invalid(t *testing.T) {
	_, err := MigrationURL(config.ScyllaConfig{}, MigrationTarget{Keyspace: "ks"})
	assert.Error(t, err)

	_, err = MigrationURL(config.ScyllaConfig{Hosts: []string{"h"}}, MigrationTarget{Keyspace: "ks; DROP"})
	assert.Error(t, err)
}

func TestKeyspaceConfigs(t *testing.T) {
	cfg := config.ScyllaConfig{
		Hosts:            []string{"h1"},
		ProductsKeyspace: "p",
		UsersKeyspace:    "u",
		UsersRole:        "users_role",
		NumConns:         4,
	}

	configs := keyspaceConfigs(cfg)
	assert.Len(t, configs, 2)
	assert.Equal(t, "users_role", configs["u"].Username)
	assert.Equal(t, 4, configs["p"].NumConns)
}

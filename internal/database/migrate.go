package database

import (
	"fmt"
	"net/url"
	"regexp"

	"fizzpan_back_end/internal/config"
	"fizzpan_back_end/internal/database/migrations"

	"github.com/gocql/gocql"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/cassandra"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

var keyspaceName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]{0,47}$`)

// MigrationTarget associe un répertoire de migrations à son keyspace.
type MigrationTarget struct {
	Name     string
	Keyspace string
	Username string
	Password string
}

// Targets liste les keyspaces à migrer, dans l'ordre.
func Targets(cfg config.ScyllaConfig) []MigrationTarget {
	return []MigrationTarget{
		{Name: migrations.Products, Keyspace: cfg.ProductsKeyspace, Username: cfg.ProductsRole, Password: cfg.ProductsPassword},
		{Name: migrations.Users, Keyspace: cfg.UsersKeyspace, Username: cfg.UsersRole, Password: cfg.UsersPassword},
		{Name: migrations.Orders, Keyspace: cfg.OrdersKeyspace, Username: cfg.OrdersRole, Password: cfg.OrdersPassword},
	}
}

// EnsureKeyspace crée le keyspace s'il n'existe pas encore.
func EnsureKeyspace(cfg config.ScyllaConfig, t MigrationTarget, replication int) error {
	if !keyspaceName.MatchString(t.Keyspace) {
		return fmt.Errorf("nom de keyspace invalide: %q", t.Keyspace)
	}

	cluster, err := NewCluster(ScyllaKeyspaceConfig{
		Hosts:       cfg.Hosts,
		Username:    t.Username,
		Password:    t.Password,
		SSLEnabled:  cfg.SSLEnabled,
		CACertPath:  cfg.CACertPath,
		Timeout:     cfg.Timeout,
		NumConns:    1,
		Consistency: gocql.Quorum,
	})
	if err != nil {
		return err
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return fmt.Errorf("session système: %w", err)
	}
	defer session.Close()

	stmt := fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s WITH replication = {'class': 'SimpleStrategy', 'replication_factor': %d}`,
		t.Keyspace, replication)
	return session.Query(stmt).Exec()
}

// MigrationURL construit l'URL du driver cassandra de golang-migrate.
func MigrationURL(cfg config.ScyllaConfig, t MigrationTarget) (string, error) {
	if len(cfg.Hosts) == 0 || cfg.Hosts[0] == "" {
		return "", fmt.Errorf("SCYLLA_HOSTS vide")
	}
	if !keyspaceName.MatchString(t.Keyspace) {
		return "", fmt.Errorf("nom de keyspace invalide: %q", t.Keyspace)
	}

	u := url.URL{Scheme: "cassandra", Host: cfg.Hosts[0], Path: "/" + t.Keyspace}
	q := u.Query()
	q.Set("x-multi-statement", "true")
	q.Set("consistency", "QUORUM")
	if t.Username != "" {
		q.Set("username", t.Username)
		q.Set("password", t.Password)
	}
	if cfg.SSLEnabled && cfg.CACertPath != "" {
		q.Set("sslmode", "verify-ca")
		q.Set("sslrootcert", cfg.CACertPath)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// NewMigrator prépare golang-migrate avec les scripts embarqués du keyspace.
func NewMigrator(cfg config.ScyllaConfig, t MigrationTarget) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, t.Name)
	if err != nil {
		return nil, fmt.Errorf("source migrations %s: %w", t.Name, err)
	}

	dsn, err := MigrationURL(cfg, t)
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", src, dsn)
}

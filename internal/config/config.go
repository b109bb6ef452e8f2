package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	DriverScylla = "scylla"
	DriverMemory = "memory"
)

// Config regroupe toute la configuration du serveur, lue depuis l'environnement.
type Config struct {
	Port          string        `env:"PORT,default=8080"`
	GinMode       string        `env:"GIN_MODE,default=debug"`
	LogLevel      string        `env:"LOG_LEVEL,default=info"`
	LogFormat     string        `env:"LOG_FORMAT,default=text"`
	StoreDriver   string        `env:"STORE_DRIVER,default=scylla"`
	PublicBaseURL string        `env:"PUBLIC_BASE_URL,default=http://localhost:8080"`
	CORSOrigins   []string      `env:"CORS_ORIGINS,default=http://localhost:5173"`
	JWTSecret     string        `env:"JWT_SECRET"`
	JWTTTL        time.Duration `env:"JWT_TTL,default=24h"`
	RefreshTTL    time.Duration `env:"REFRESH_TTL,default=168h"`

	Scylla  ScyllaConfig
	Redis   RedisConfig
	Elastic ElasticConfig
	MinIO   MinIOConfig
	Stripe  StripeConfig
	SMTP    SMTPConfig
	Legacy  LegacyConfig
}

type ScyllaConfig struct {
	Hosts            []string      `env:"SCYLLA_HOSTS,default=127.0.0.1"`
	SSLEnabled       bool          `env:"SCYLLA_SSL_ENABLED,default=false"`
	CACertPath       string        `env:"SCYLLA_SSL_CA_PATH"`
	Timeout          time.Duration `env:"SCYLLA_TIMEOUT,default=5s"`
	NumConns         int           `env:"SCYLLA_NUM_CONNS,default=20"`
	ProductsKeyspace string        `env:"SCYLLA_KS_PRODUCTS_KEYSPACE,default=fizzpan_products"`
	ProductsRole     string        `env:"SCYLLA_KS_PRODUCTS_ROLE"`
	ProductsPassword string        `env:"SCYLLA_KS_PRODUCTS_PASSWORD"`
	UsersKeyspace    string        `env:"SCYLLA_KS_USERS_KEYSPACE,default=fizzpan_users"`
	UsersRole        string        `env:"SCYLLA_KS_USERS_ROLE"`
	UsersPassword    string        `env:"SCYLLA_KS_USERS_PASSWORD"`
	OrdersKeyspace   string        `env:"SCYLLA_KS_ORDERS_KEYSPACE,default=fizzpan_orders"`
	OrdersRole       string        `env:"SCYLLA_KS_ORDERS_ROLE"`
	OrdersPassword   string        `env:"SCYLLA_KS_ORDERS_PASSWORD"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

type ElasticConfig struct {
	URL      string `env:"ELASTIC_URL"`
	Username string `env:"ELASTIC_USERNAME"`
	Password string `env:"ELASTIC_PASSWORD"`
	Index    string `env:"ELASTIC_INDEX,default=products"`
}

type MinIOConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET,default=fizzpan-images"`
	UseSSL    bool   `env:"MINIO_USE_SSL,default=false"`
	PublicURL string `env:"MINIO_PUBLIC_URL"`
}

type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET"`
	Currency      string `env:"STRIPE_CURRENCY,default=eur"`
}

type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM,default=noreply@fizzpan.local"`
}

type LegacyConfig struct {
	URL     string        `env:"LEGACY_API_URL"`
	Token   string        `env:"LEGACY_API_TOKEN"`
	Timeout time.Duration `env:"LEGACY_API_TIMEOUT,default=10s"`
}

// Load lit le fichier .env (s'il existe) puis décode l'environnement.
func Load(log logrus.FieldLogger) (*Config, error) {
	cfg, err := LoadUnchecked(log)
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadUnchecked lit .env et l'environnement sans valider (outil de migration).
func LoadUnchecked(log logrus.FieldLogger) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Warn("⚠️  Aucun fichier .env trouvé, on continue avec les variables d'environnement du système")
	} else {
		log.Info("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

// FromEnv décode la configuration sans toucher au fichier .env.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("décodage configuration: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET manquant")
	}
	if c.StoreDriver != DriverScylla && c.StoreDriver != DriverMemory {
		return fmt.Errorf("STORE_DRIVER invalide: %q", c.StoreDriver)
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL doit être positif")
	}
	return nil
}

func (c *Config) StripeEnabled() bool  { return c.Stripe.SecretKey != "" }
func (c *Config) ElasticEnabled() bool { return c.Elastic.URL != "" }
func (c *Config) MinIOEnabled() bool   { return c.MinIO.Endpoint != "" }
func (c *Config) SMTPEnabled() bool    { return c.SMTP.Host != "" }
func (c *Config) LegacyEnabled() bool  { return c.Legacy.URL != "" }

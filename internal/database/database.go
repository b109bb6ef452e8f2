package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"fizzpan_back_end/internal/config"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// --- Configuration ScyllaDB ---
type ScyllaKeyspaceConfig struct {
	Hosts       []string
	Keyspace    string
	Username    string
	Password    string
	SSLEnabled  bool
	CACertPath  string
	Timeout     time.Duration
	NumConns    int
	Consistency gocql.Consistency
}

type ScyllaManager struct {
	sessions map[string]*gocql.Session // keyspace → session
	configs  map[string]ScyllaKeyspaceConfig
	log      logrus.FieldLogger
	mu       sync.Mutex
}

// Connections regroupe les clients ouverts au démarrage.
// Elastic et MinIO restent nil quand ils ne sont pas configurés.
type Connections struct {
	Scylla  *ScyllaManager
	Redis   *redis.Client
	Elastic *elasticsearch.Client
	MinIO   *minio.Client

	ProductsKeyspace string
	UsersKeyspace    string
	OrdersKeyspace   string
}

// --- Initialisation ---
func ConnectDatabases(cfg *config.Config, log logrus.FieldLogger) (*Connections, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conns := &Connections{
		ProductsKeyspace: cfg.Scylla.ProductsKeyspace,
		UsersKeyspace:    cfg.Scylla.UsersKeyspace,
		OrdersKeyspace:   cfg.Scylla.OrdersKeyspace,
	}

	// 1. ScyllaDB (multi-keyspaces), seulement pour le driver scylla
	if cfg.StoreDriver == config.DriverScylla {
		manager, err := InitScyllaDB(cfg.Scylla, log)
		if err != nil {
			return nil, fmt.Errorf("❌ Échec initialisation ScyllaDB: %w", err)
		}
		conns.Scylla = manager
	}

	// 2. Redis (obligatoire : panier, cache, rate limit)
	rdb, err := ConnectRedis(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	conns.Redis = rdb
	log.Info("✅ Connecté à Redis")

	// 3. Elasticsearch (optionnel)
	if cfg.ElasticEnabled() {
		es, err := connectElastic(cfg.Elastic)
		if err != nil {
			log.WithError(err).Warn("⚠️ Elasticsearch indisponible, recherche en mémoire")
		} else {
			conns.Elastic = es
			log.Info("✅ Connecté à Elasticsearch")
		}
	}

	// 4. MinIO (optionnel)
	if cfg.MinIOEnabled() {
		client, err := connectMinIO(ctx, cfg.MinIO, log)
		if err != nil {
			return nil, err
		}
		conns.MinIO = client
		log.WithField("endpoint", cfg.MinIO.Endpoint).Info("✅ Connecté à MinIO")
	}

	log.Info("✅ Toutes les bases de données sont connectées")
	return conns, nil
}

func (c *Connections) Close() {
	if c.Scylla != nil {
		c.Scylla.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}

// =============================================
// SCYLLA DB (Multi-Keyspaces avec SSL & Rôles)
// =============================================

// InitScyllaDB ouvre une session par keyspace configuré.
func InitScyllaDB(cfg config.ScyllaConfig, log logrus.FieldLogger) (*ScyllaManager, error) {
	sm := &ScyllaManager{
		sessions: make(map[string]*gocql.Session),
		configs:  keyspaceConfigs(cfg),
		log:      log,
	}

	for keyspace := range sm.configs {
		if _, err := sm.GetSession(keyspace); err != nil {
			return nil, fmt.Errorf("échec initialisation keyspace %s: %w", keyspace, err)
		}
	}
	return sm, nil
}

func keyspaceConfigs(cfg config.ScyllaConfig) map[string]ScyllaKeyspaceConfig {
	configs := make(map[string]ScyllaKeyspaceConfig)

	add := func(keyspace, role, password string) {
		if keyspace == "" {
			return
		}
		configs[keyspace] = ScyllaKeyspaceConfig{
			Hosts:       cfg.Hosts,
			Keyspace:    keyspace,
			Username:    role,
			Password:    password,
			SSLEnabled:  cfg.SSLEnabled,
			CACertPath:  cfg.CACertPath,
			Timeout:     cfg.Timeout,
			NumConns:    cfg.NumConns,
			Consistency: gocql.Quorum,
		}
	}

	add(cfg.ProductsKeyspace, cfg.ProductsRole, cfg.ProductsPassword)
	add(cfg.UsersKeyspace, cfg.UsersRole, cfg.UsersPassword)
	add(cfg.OrdersKeyspace, cfg.OrdersRole, cfg.OrdersPassword)
	return configs
}

// NewCluster crée une configuration de cluster pour un keyspace.
// Un keyspace vide donne une session système (utilisée par les migrations).
func NewCluster(config ScyllaKeyspaceConfig) (*gocql.ClusterConfig, error) {
	cluster := gocql.NewCluster(config.Hosts...)
	cluster.Keyspace = config.Keyspace
	cluster.Consistency = config.Consistency
	cluster.Timeout = config.Timeout
	cluster.NumConns = config.NumConns
	cluster.MaxWaitSchemaAgreement = 30 * time.Second
	cluster.ReconnectInterval = 1 * time.Second

	if config.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: config.Username,
			Password: config.Password,
		}
	}

	if config.SSLEnabled {
		tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
		if config.CACertPath != "" {
			caCert, err := os.ReadFile(config.CACertPath)
			if err != nil {
				return nil, fmt.Errorf("impossible de lire le certificat CA: %w", err)
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caCert) {
				return nil, errors.New("impossible de parser le certificat CA")
			}
			tlsConfig.RootCAs = pool
		}
		cluster.SslOpts = &gocql.SslOptions{Config: tlsConfig, EnableHostVerification: true}
	}

	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())
	return cluster, nil
}

// GetSession retourne (ou recrée) la session d'un keyspace.
func (sm *ScyllaManager) GetSession(keyspace string) (*gocql.Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	cfg, exists := sm.configs[keyspace]
	if !exists {
		return nil, fmt.Errorf("keyspace '%s' non configuré", keyspace)
	}

	if session, exists := sm.sessions[keyspace]; exists {
		if !session.Closed() {
			return session, nil
		}
		delete(sm.sessions, keyspace)
	}

	cluster, err := NewCluster(cfg)
	if err != nil {
		return nil, fmt.Errorf("erreur configuration cluster pour %s: %w", keyspace, err)
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("erreur création session pour %s: %w", keyspace, err)
	}

	sm.sessions[keyspace] = session
	sm.log.WithFields(logrus.Fields{"keyspace": keyspace, "role": cfg.Username}).
		Info("✅ Nouvelle session ScyllaDB")
	return session, nil
}

// Close ferme toutes les sessions ScyllaDB.
func (sm *ScyllaManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for keyspace, session := range sm.sessions {
		session.Close()
		sm.log.WithField("keyspace", keyspace).Info("🔌 Session ScyllaDB fermée")
	}
	sm.sessions = make(map[string]*gocql.Session)
}

// =============================================
// REDIS
// =============================================
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("❌ Erreur connexion Redis: %w", err)
	}
	return rdb, nil
}

// =============================================
// ELASTICSEARCH
// =============================================
func connectElastic(cfg config.ElasticConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("création client Elasticsearch: %w", err)
	}

	res, err := client.Info()
	if err != nil {
		return nil, fmt.Errorf("connexion Elasticsearch: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("connexion Elasticsearch: %s", res.Status())
	}
	return client, nil
}

// =============================================
// MINIO
// =============================================
func connectMinIO(ctx context.Context, cfg config.MinIOConfig, log logrus.FieldLogger) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("❌ Erreur connexion MinIO: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("❌ Erreur vérification bucket MinIO: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("❌ Erreur création bucket MinIO: %w", err)
		}
		log.WithField("bucket", cfg.Bucket).Info("🪣 Bucket créé")
	} else {
		log.WithField("bucket", cfg.Bucket).Info("🪣 Bucket MinIO déjà présent")
	}
	return client, nil
}

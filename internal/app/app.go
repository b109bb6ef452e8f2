// Package app assemble stores, services et handlers à partir de la configuration.
package app

import (
	"context"
	"fmt"
	"time"

	"fizzpan_back_end/internal/audit"
	"fizzpan_back_end/internal/auth"
	"fizzpan_back_end/internal/cache"
	"fizzpan_back_end/internal/cart"
	"fizzpan_back_end/internal/catalog"
	"fizzpan_back_end/internal/checkout"
	"fizzpan_back_end/internal/config"
	"fizzpan_back_end/internal/database"
	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/handlers/admin"
	"fizzpan_back_end/internal/handlers/product"
	"fizzpan_back_end/internal/handlers/user"
	"fizzpan_back_end/internal/orders"
	"fizzpan_back_end/internal/profiles"
	"fizzpan_back_end/internal/routes"
	"fizzpan_back_end/internal/services"
	"fizzpan_back_end/internal/store"
	"fizzpan_back_end/internal/tables"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type App struct {
	Router  *gin.Engine
	Audit   *audit.Logger
	catalog *catalog.Service
	log     logrus.FieldLogger
}

// Warmup pré-remplit le cache Redis du catalogue pour éviter la latence du premier appel.
func (a *App) Warmup(ctx context.Context) {
	products, err := a.catalog.List(ctx)
	if err != nil {
		a.log.WithError(err).Warn("⚠️ Pré-chauffage du catalogue échoué")
		return
	}
	a.log.WithField("products", len(products)).Info("✅ Cache catalogue pré-chauffé")
}

// Stores choisit l'implémentation des stores selon STORE_DRIVER.
// Dès que Redis est connecté, le panier y vit.
func Stores(cfg *config.Config, conns *database.Connections) (store.Stores, error) {
	var s store.Stores
	switch cfg.StoreDriver {
	case config.DriverMemory:
		s = store.NewMemory().Stores()
	case config.DriverScylla:
		if conns.Scylla == nil {
			return store.Stores{}, fmt.Errorf("ScyllaDB non initialisé")
		}
		productsSession, err := conns.Scylla.GetSession(conns.ProductsKeyspace)
		if err != nil {
			return store.Stores{}, err
		}
		usersSession, err := conns.Scylla.GetSession(conns.UsersKeyspace)
		if err != nil {
			return store.Stores{}, err
		}
		ordersSession, err := conns.Scylla.GetSession(conns.OrdersKeyspace)
		if err != nil {
			return store.Stores{}, err
		}
		users := store.NewScyllaUsers(usersSession)
		ord := store.NewScyllaOrders(ordersSession)
		s = store.Stores{
			Products: store.NewScyllaProducts(productsSession),
			Profiles: users,
			Accounts: users,
			Orders:   ord,
			Tables:   ord,
			Audit:    users,
		}
	default:
		return store.Stores{}, fmt.Errorf("STORE_DRIVER invalide: %q", cfg.StoreDriver)
	}

	if conns.Redis != nil {
		s.Carts = store.NewRedisCartStore(conns.Redis)
	}
	if s.Carts == nil {
		return store.Stores{}, fmt.Errorf("redis requis pour le panier")
	}
	return s, nil
}

// New construit le routeur complet. conns.Redis est obligatoire.
func New(cfg *config.Config, conns *database.Connections, log *logrus.Logger) (*App, error) {
	if conns.Redis == nil {
		return nil, fmt.Errorf("redis requis")
	}
	stores, err := Stores(cfg, conns)
	if err != nil {
		return nil, err
	}
	c := cache.New(conns.Redis)
	auditLog := audit.NewLogger(stores.Audit, log)

	// --- Services optionnels ---
	var images services.ImageStore
	if conns.MinIO != nil {
		images = services.NewMinIOImages(conns.MinIO, cfg.MinIO.Bucket, cfg.MinIO.PublicURL)
	}
	var search services.ProductSearch
	if conns.Elastic != nil {
		search = services.NewElasticSearch(conns.Elastic, cfg.Elastic.Index)
	}
	var payments services.Payments = services.NoPayments{}
	if cfg.StripeEnabled() {
		payments = services.NewStripePayments(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, cfg.Stripe.Currency)
		log.Info("✅ Stripe initialisé")
	} else {
		log.Warn("⚠️ Stripe non configuré : paiement par carte désactivé")
	}
	var mailer services.Mailer = services.LogMailer{Log: log}
	if cfg.SMTPEnabled() {
		mailer = services.NewSMTPMailer(cfg.SMTP, log)
	}
	var productMirror catalog.Mirror
	var userMirror profiles.Mirror
	if cfg.LegacyEnabled() {
		legacy := services.NewLegacyClient(cfg.Legacy.URL, cfg.Legacy.Token, cfg.Legacy.Timeout)
		productMirror, userMirror = legacy, legacy
		log.WithField("url", cfg.Legacy.URL).Info("🔁 Copie vers l'ancienne API activée")
	}

	// --- Domaine ---
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authSvc := auth.NewService(stores.Accounts, stores.Profiles, tokens, c, cfg.RefreshTTL, log)
	carts := cart.NewService(stores.Carts, stores.Products, c, log)
	catalogSvc := catalog.NewService(stores.Products, catalog.Options{
		Cache:  c,
		Search: search,
		Images: images,
		Mirror: productMirror,
	}, log)
	profileSvc := profiles.NewService(stores.Profiles, stores.Carts, authSvc, images, userMirror, log)
	orderSvc := orders.NewService(stores.Orders, stores.Profiles, stores.Products, log)
	tableSvc := tables.NewService(stores.Tables, stores.Profiles, images, cfg.PublicBaseURL, log)
	checkoutSvc := checkout.NewService(carts, stores.Orders, checkout.Options{
		Idempotency: c,
		Payments:    payments,
		Mailer:      mailer,
		Audit:       auditLog,
	}, log)

	h := routes.Handlers{
		Auth:     user.NewAuthHandler(authSvc, log),
		Cart:     user.NewCartHandler(carts, c, log),
		Orders:   user.NewOrderHandler(checkoutSvc, orderSvc, log),
		Profile:  user.NewProfileHandler(profileSvc, log),
		Products: product.NewHandler(catalogSvc, log),
		Payments: handlers.NewPaymentHandler(payments, orderSvc, log),

		AdminUsers:    admin.NewUsersHandler(profileSvc, log),
		AdminProducts: admin.NewProductsHandler(catalogSvc, log),
		AdminOrders:   admin.NewOrdersHandler(orderSvc, log),
		AdminTables:   admin.NewTablesHandler(tableSvc, log),
		AdminCarts:    admin.NewCartsHandler(carts, log),
		AdminAudit:    admin.NewAuditHandler(auditLog, log),
	}

	r := gin.New()
	routes.Register(r, routes.Deps{
		Log:         log,
		CORSOrigins: cfg.CORSOrigins,
		Auth:        authSvc,
		Roles:       authSvc.Resolver(),
		Limiter:     c,
		Audit:       auditLog,
		Ready: func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return conns.Redis.Ping(ctx).Err()
		},
	}, h)

	return &App{Router: r, Audit: auditLog, catalog: catalogSvc, log: log}, nil
}

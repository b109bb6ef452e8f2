// Package routes déclare la surface HTTP du serveur.
package routes

import (
	"net/http"
	"time"

	"fizzpan_back_end/internal/audit"
	"fizzpan_back_end/internal/handlers"
	"fizzpan_back_end/internal/handlers/admin"
	"fizzpan_back_end/internal/handlers/product"
	"fizzpan_back_end/internal/handlers/user"
	"fizzpan_back_end/internal/metrics"
	"fizzpan_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handlers regroupe les handlers construits par l'application.
type Handlers struct {
	Auth     *user.AuthHandler
	Cart     *user.CartHandler
	Orders   *user.OrderHandler
	Profile  *user.ProfileHandler
	Products *product.Handler
	Payments *handlers.PaymentHandler

	AdminUsers    *admin.UsersHandler
	AdminProducts *admin.ProductsHandler
	AdminOrders   *admin.OrdersHandler
	AdminTables   *admin.TablesHandler
	AdminCarts    *admin.CartsHandler
	AdminAudit    *admin.AuditHandler
}

// Deps regroupe ce dont les middlewares ont besoin.
type Deps struct {
	Log         logrus.FieldLogger
	CORSOrigins []string
	Auth        middleware.Authenticator
	Roles       middleware.RoleForgetter
	Limiter     middleware.Limiter
	Audit       *audit.Logger
	// Ready vérifie les dépendances pour /health ; nil = toujours prêt.
	Ready func() error
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", user.IdempotencyHeader},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func Register(r *gin.Engine, d Deps, h Handlers) {
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig(d.CORSOrigins)))
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(metrics.Middleware())

	r.GET("/health", func(c *gin.Context) {
		if d.Ready != nil {
			if err := d.Ready(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit(d.Limiter, d.Log))

	requireAuth := middleware.AuthRequired(d.Auth, d.Roles, d.Log)

	// --- Public ---
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", middleware.RegisterRateLimit(d.Limiter, d.Log), h.Auth.Register)
		authGroup.POST("/login", middleware.LoginRateLimit(d.Limiter, d.Log), h.Auth.Login)
		authGroup.POST("/refresh", h.Auth.Refresh)
		authGroup.POST("/logout", requireAuth, h.Auth.Logout)
		authGroup.GET("/me", requireAuth, h.Auth.Me)
	}

	api.GET("/products", h.Products.List)
	api.GET("/products/search", middleware.SearchRateLimit(d.Limiter, d.Log), h.Products.Search)
	api.GET("/products/:id", h.Products.Get)
	api.GET("/tables/:id/qrcode", h.AdminTables.QRCode)
	api.POST("/webhooks/stripe", h.Payments.StripeWebhook)

	// --- Client ---
	me := api.Group("", requireAuth)
	{
		cartGroup := me.Group("/cart")
		cartGroup.GET("", h.Cart.Get)
		cartGroup.GET("/ws", h.Cart.WebSocket)
		cartGroup.POST("/items", middleware.CartRateLimit(d.Limiter, d.Log), h.Cart.AddItem)
		cartGroup.PATCH("/items/:id", middleware.CartRateLimit(d.Limiter, d.Log), h.Cart.UpdateItem)
		cartGroup.DELETE("/items/:id", h.Cart.RemoveItem)
		cartGroup.DELETE("", h.Cart.Clear)

		me.POST("/checkout", h.Orders.Checkout)
		me.GET("/orders", h.Orders.List)
		me.GET("/orders/:id", h.Orders.Get)

		me.GET("/profile", h.Profile.Get)
		me.PUT("/profile", h.Profile.Update)
	}

	// --- Admin ---
	adm := api.Group("/admin", requireAuth, middleware.RequireAdmin, middleware.AuditAdmin(d.Audit))
	{
		adm.GET("/users", h.AdminUsers.List)
		adm.GET("/users/:id", h.AdminUsers.Get)
		adm.POST("/users", h.AdminUsers.Create)
		adm.PUT("/users/:id", h.AdminUsers.Update)
		adm.DELETE("/users/:id", h.AdminUsers.Delete)

		adm.GET("/products", h.AdminProducts.List)
		adm.GET("/products/:id", h.AdminProducts.Get)
		adm.POST("/products", h.AdminProducts.Create)
		adm.PUT("/products/:id", h.AdminProducts.Update)
		adm.DELETE("/products/:id", h.AdminProducts.Delete)

		adm.GET("/orders", h.AdminOrders.List)
		adm.GET("/orders/stats", h.AdminOrders.Stats)
		adm.GET("/orders/:id", h.AdminOrders.Get)
		adm.PATCH("/orders/:id/status", h.AdminOrders.UpdateStatus)
		adm.DELETE("/orders/:id", h.AdminOrders.Delete)

		adm.GET("/tables", h.AdminTables.List)
		adm.GET("/tables/:id", h.AdminTables.Get)
		adm.POST("/tables", h.AdminTables.Create)
		adm.POST("/tables/:id/users", h.AdminTables.Assign)
		adm.DELETE("/tables/:id", h.AdminTables.Delete)

		adm.GET("/carts", h.AdminCarts.List)
		adm.DELETE("/carts/:id", h.AdminCarts.Delete)

		adm.GET("/audit", h.AdminAudit.List)
	}
}

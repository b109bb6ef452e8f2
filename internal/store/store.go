// Package store définit les accès aux données (ScyllaDB, Redis, mémoire).
package store

import (
	"context"
	"errors"
	"time"

	"fizzpan_back_end/internal/models"

	"github.com/gocql/gocql"
)

var (
	ErrNotFound = errors.New("ressource introuvable")
	ErrConflict = errors.New("ressource déjà existante")
)

type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id gocql.UUID) (models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id gocql.UUID) error
}

type ProfileStore interface {
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	GetProfile(ctx context.Context, id gocql.UUID) (models.Profile, error)
	CreateProfile(ctx context.Context, p *models.Profile) error
	UpdateProfile(ctx context.Context, p *models.Profile) error
	DeleteProfile(ctx context.Context, id gocql.UUID) error
}

type AccountStore interface {
	// CreateAccount renvoie ErrConflict si l'email est déjà pris.
	CreateAccount(ctx context.Context, a *models.Account) error
	GetAccount(ctx context.Context, id gocql.UUID) (models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (models.Account, error)
	UpdateAccountMetadata(ctx context.Context, id gocql.UUID, metadata string) error
	DeleteAccount(ctx context.Context, id gocql.UUID) error
}

type CartStore interface {
	ListCartItems(ctx context.Context, userID gocql.UUID) ([]models.CartItem, error)
	ListAllCartItems(ctx context.Context) ([]models.CartItem, error)
	GetCartItem(ctx context.Context, itemID gocql.UUID) (models.CartItem, error)
	FindCartItem(ctx context.Context, userID, productID gocql.UUID) (models.CartItem, error)
	SaveCartItem(ctx context.Context, item *models.CartItem) error
	DeleteCartItem(ctx context.Context, userID, itemID gocql.UUID) error
	ClearCart(ctx context.Context, userID gocql.UUID) error
}

type OrderStore interface {
	// CreateWithItems écrit la commande et ses lignes en une seule opération atomique.
	CreateWithItems(ctx context.Context, o *models.Order) error
	ListOrders(ctx context.Context) ([]models.Order, error)
	ListOrdersByUser(ctx context.Context, userID gocql.UUID) ([]models.Order, error)
	GetOrder(ctx context.Context, id gocql.UUID) (models.Order, error)
	UpdateOrderStatus(ctx context.Context, id gocql.UUID, status string) error
	SetPaymentIntent(ctx context.Context, id gocql.UUID, intentID string) error
	DeleteOrder(ctx context.Context, id gocql.UUID) error
}

type TableStore interface {
	ListTables(ctx context.Context) ([]models.Table, error)
	GetTable(ctx context.Context, id gocql.UUID) (models.Table, error)
	CreateTable(ctx context.Context, t *models.Table) error
	DeleteTable(ctx context.Context, id gocql.UUID) error
	AssignUser(ctx context.Context, a models.TableAssignment) error
	ListAssignments(ctx context.Context, tableID gocql.UUID) ([]models.TableAssignment, error)
}

// AuditDayLayout est la clé de partition journalière du journal d'audit.
const AuditDayLayout = "2006-01-02"

type AuditStore interface {
	InsertAudit(ctx context.Context, entry models.AuditLog) error
	// ListAudit renvoie les entrées d'une journée UTC, les plus récentes d'abord.
	ListAudit(ctx context.Context, day time.Time, limit int) ([]models.AuditLog, error)
}

// Stores regroupe toutes les implémentations utilisées par le serveur.
type Stores struct {
	Products ProductStore
	Profiles ProfileStore
	Accounts AccountStore
	Carts    CartStore
	Orders   OrderStore
	Tables   TableStore
	Audit    AuditStore
}

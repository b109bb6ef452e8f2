package models

import (
	"time"

	"github.com/gocql/gocql"
)

const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderCompleted  = "completed"
	OrderCancelled  = "cancelled"
)

const (
	ContactWhatsApp  = "whatsapp"
	ContactInstagram = "instagram"
	ContactCard      = "card"
)

type Order struct {
	ID              gocql.UUID  `json:"id" db:"order_id"`
	UserID          gocql.UUID  `json:"user_id" db:"user_id"`
	Username        string      `json:"username,omitempty"`
	Status          string      `json:"status" db:"status"`
	TotalAmount     float64     `json:"total_amount" db:"total_amount"`
	ContactMethod   string      `json:"contact_method" db:"contact_method"`
	ContactInfo     string      `json:"contact_info" db:"contact_info"`
	Notes           string      `json:"notes,omitempty" db:"notes"`
	PaymentIntentID string      `json:"payment_intent_id,omitempty" db:"payment_intent_id"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at" db:"updated_at"`
}

// OrderItem fige le prix unitaire au moment de la commande.
type OrderItem struct {
	ID           gocql.UUID `json:"id" db:"item_id"`
	OrderID      gocql.UUID `json:"order_id" db:"order_id"`
	ProductID    gocql.UUID `json:"product_id" db:"product_id"`
	ProductName  string     `json:"product_name" db:"product_name"`
	ProductImage string     `json:"product_image,omitempty" db:"product_image"`
	Quantity     int        `json:"quantity" db:"quantity"`
	Price        float64    `json:"price" db:"price"`
}

// OrderStats alimente le tableau de bord des revenus.
type OrderStats struct {
	TotalRevenue     float64 `json:"total_revenue"`
	TotalOrders      int     `json:"total_orders"`
	CompletedOrders  int     `json:"completed_orders"`
	PendingOrders    int     `json:"pending_orders"`
	ProcessingOrders int     `json:"processing_orders"`
	CancelledOrders  int     `json:"cancelled_orders"`
	TotalProducts    int     `json:"total_products"`
	TotalUsers       int     `json:"total_users"`
	RecentOrders     []Order `json:"recent_orders"`
}

package models

import (
	"time"

	"github.com/gocql/gocql"
)

// CartItem est une ligne de panier telle que stockée dans Redis.
type CartItem struct {
	ID        gocql.UUID `json:"id"`
	UserID    gocql.UUID `json:"user_id"`
	ProductID gocql.UUID `json:"product_id"`
	Quantity  int        `json:"quantity"`
	CreatedAt time.Time  `json:"created_at"`
}

// CartLine est une ligne de panier jointe à son produit.
type CartLine struct {
	CartItem
	Product Product `json:"product"`
}

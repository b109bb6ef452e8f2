package models

import (
	"time"

	"github.com/gocql/gocql"
)

// Table est une table du restaurant.
type Table struct {
	ID            gocql.UUID `json:"id" db:"table_id"`
	TableNumber   int        `json:"table_number" db:"table_number"`
	NumberOfSeats int        `json:"number_of_seats" db:"number_of_seats"`
	Image         string     `json:"image,omitempty" db:"image"`
	Users         []string   `json:"users,omitempty"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

type TableAssignment struct {
	TableID    gocql.UUID `json:"table_id" db:"table_id"`
	UserID     gocql.UUID `json:"user_id" db:"user_id"`
	AssignedAt time.Time  `json:"assigned_at" db:"assigned_at"`
}

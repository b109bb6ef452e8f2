package models

import (
	"time"

	"github.com/gocql/gocql"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole indique si le rôle fait partie du vocabulaire connu.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}

// Profile est la fiche publique d'un utilisateur (table profiles).
type Profile struct {
	ID        gocql.UUID `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Role      string     `json:"role" db:"role"`
	Avatar    string     `json:"avatar,omitempty" db:"avatar"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Account est l'identité d'authentification, partagée par ID avec Profile.
type Account struct {
	ID           gocql.UUID `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Metadata     string     `json:"user_metadata" db:"user_metadata"` // JSON {"username","role"}
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// SessionUser est l'utilisateur résolu renvoyé au client après connexion.
type SessionUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (u SessionUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

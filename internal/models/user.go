package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles.
const (
	RoleLandowner  = "landowner"
	RoleContractor = "contractor"
	RoleAdmin      = "admin"
)

type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role string    `json:"role"`
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

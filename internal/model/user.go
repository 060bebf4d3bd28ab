package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles an operator account can hold. Viewers may search and export;
// admins additionally manage users, tokens and imports.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

// User represents an operator login account. Users are independent of
// devices — a device carries a free-text owner label, not a user FK.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"username"`
	PasswordHash string    `gorm:"type:varchar(255);not null" json:"-"`
	Role         string    `gorm:"type:varchar(50);not null" json:"role"` // admin, viewer
	Phone        *string   `gorm:"type:varchar(20)" json:"phone,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

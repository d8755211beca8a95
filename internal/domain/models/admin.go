// internal/domain/models/admin.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Admin is a back-office account that can edit site content. Admins are the
// only authenticated principals in the system; visitors read anonymously.
type Admin struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email    string             `bson:"email" json:"email"` // stored lowercase
	FullName string             `bson:"full_name" json:"full_name"`

	PasswordHash string `bson:"password_hash" json:"-"` // bcrypt hash (never in JSON)

	Status string `bson:"status" json:"status"` // active, disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Admin statuses
const (
	AdminStatusActive   = "active"
	AdminStatusDisabled = "disabled"
)

// IsActive reports whether the account may log in.
func (a *Admin) IsActive() bool {
	return a.Status == AdminStatusActive
}

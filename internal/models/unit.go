package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Unit is an operating base that owns vehicles and users.
type Unit struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Status    string             `bson:"status" json:"status"` // "active" or "blocked"
	ExpiresAt *time.Time         `bson:"expires_at,omitempty" json:"expires_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// IsActive reports whether the unit is usable at the given instant.
func (u *Unit) IsActive(now time.Time) bool {
	if u.Status == "blocked" {
		return false
	}
	return u.ExpiresAt == nil || now.Before(*u.ExpiresAt)
}

// UnitRequest is the body of a unit registration.
type UnitRequest struct {
	Name      string     `json:"name" validate:"required,max=80"`
	ExpiresAt *time.Time `json:"expires_at"`
}

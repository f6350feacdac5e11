package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
	"time"
)

// Role represents user roles in the system
type Role string

const (
	RoleProgrammer  Role = "programmer"
	RoleAdmin       Role = "admin"
	RolePermanent   Role = "permanent"
	RoleOperational Role = "operational"
)

// User represents a user in the system
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	Registration string             `bson:"registration" json:"registration"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	Unit         string             `bson:"unit" json:"unit"`
	IsActive     bool               `bson:"is_active" json:"is_active"`
	LastLogin    *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest represents a user creation request
type RegisterRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=50"`
	Name         string `json:"name" validate:"max=120"`
	Email        string `json:"email" validate:"omitempty,email"`
	Registration string `json:"registration" validate:"max=30"`
	Password     string `json:"password" validate:"required,min=8,max=72"`
	Unit         string `json:"unit" validate:"max=40"`
	Role         Role   `json:"role" validate:"required"`
}

// LoginResponse represents a successful login response
type LoginResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         User   `json:"user"`
}

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Unit     string `json:"unit"`
	Role     Role   `json:"role"`
	Exp      int64  `json:"exp"`
}

// IsValidRole checks if a role is valid
func IsValidRole(role Role) bool {
	switch role {
	case RoleProgrammer, RoleAdmin, RolePermanent, RoleOperational:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role can manage the fleet.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleProgrammer
}

// Permission is an action guarded by role.
type Permission string

const (
	PermViewVehicles      Permission = "view_vehicles"
	PermCheckVehicle      Permission = "check_vehicle"
	PermCreateFuel        Permission = "create_fuel"
	PermViewFuel          Permission = "view_fuel"
	PermViewReports       Permission = "view_reports"
	PermRecordMaintenance Permission = "record_maintenance"
	PermManageUsers       Permission = "manage_users"
	PermManageDatabase    Permission = "manage_database"
)

var fieldPermissions = map[Role][]Permission{
	RolePermanent:   {PermViewVehicles, PermCheckVehicle, PermCreateFuel, PermViewFuel, PermViewReports},
	RoleOperational: {PermViewVehicles, PermCheckVehicle, PermCreateFuel},
}

// Can reports whether the role grants p. Programmers can do anything and
// admins anything but database management.
func (r Role) Can(p Permission) bool {
	switch r {
	case RoleProgrammer:
		return true
	case RoleAdmin:
		return p != PermManageDatabase
	}
	for _, granted := range fieldPermissions[r] {
		if granted == p {
			return true
		}
	}
	return false
}

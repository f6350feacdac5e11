package handlers

import (
	"errors"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-checkpoint/internal/auth"
	"github.com/ukydev/fleet-checkpoint/internal/db"
	"github.com/ukydev/fleet-checkpoint/internal/middleware"
	"github.com/ukydev/fleet-checkpoint/internal/models"
	"github.com/ukydev/fleet-checkpoint/internal/validation"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuthHandler handles authentication and user management requests
type AuthHandler struct {
	authService    *auth.Service
	userCollection db.UserCollection
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(authService *auth.Service, userCollection db.UserCollection) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		userCollection: userCollection,
	}
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq models.LoginRequest
	if err := decodeJSON(w, r, &loginReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if err := validation.Struct(loginReq); err != nil {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}

	// Find user by username
	user, err := h.userCollection.FindUserByUsername(r.Context(), strings.TrimSpace(loginReq.Username))
	if err != nil {
		if !errors.Is(err, db.ErrUserNotFound) {
			middleware.Logger(r.Context()).WithError(err).Error("Failed to look up user")
		}
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	// Check if user is active
	if !user.IsActive {
		http.Error(w, "Account is deactivated", http.StatusUnauthorized)
		return
	}

	// Verify password
	if !h.authService.CheckPassword(loginReq.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	// Generate tokens
	token, err := h.authService.GenerateToken(user)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.authService.GenerateRefreshToken()
	if err != nil {
		http.Error(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	// Last login is informational, a failure does not block the login
	if err := h.userCollection.UpdateLastLogin(r.Context(), user.ID.Hex()); err != nil {
		middleware.Logger(r.Context()).WithError(err).WithField("username", user.Username).Warn("Failed to update last login")
	}

	middleware.Logger(r.Context()).WithFields(log.Fields{
		"username": user.Username,
		"role":     user.Role,
		"unit":     user.Unit,
	}).Info("User logged in")

	writeJSON(w, http.StatusOK, models.LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         *user,
	})
}

// Register lets an admin create a user. New users default to the admin's unit.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	var registerReq models.RegisterRequest
	if err := decodeJSON(w, r, &registerReq); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	registerReq.Username = strings.TrimSpace(registerReq.Username)

	if err := validation.Struct(registerReq); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !models.IsValidRole(registerReq.Role) {
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	// Only programmers hand out the programmer role
	if registerReq.Role == models.RoleProgrammer && claims.Role != models.RoleProgrammer {
		http.Error(w, "Insufficient permissions", http.StatusForbidden)
		return
	}

	// Check if username already exists
	_, err := h.userCollection.FindUserByUsername(r.Context(), registerReq.Username)
	if err == nil {
		http.Error(w, "Username already exists", http.StatusConflict)
		return
	}
	if !errors.Is(err, db.ErrUserNotFound) {
		writeError(w, r, err)
		return
	}

	// Hash password
	passwordHash, err := h.authService.HashPassword(registerReq.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	unit := registerReq.Unit
	if unit == "" || claims.Role != models.RoleProgrammer {
		unit = claims.Unit
	}

	user := models.User{
		ID:           primitive.NewObjectID(),
		Username:     registerReq.Username,
		Name:         registerReq.Name,
		Email:        registerReq.Email,
		Registration: registerReq.Registration,
		PasswordHash: passwordHash,
		Role:         registerReq.Role,
		Unit:         unit,
		IsActive:     true,
	}

	if err := h.userCollection.InsertUser(r.Context(), user); err != nil {
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	middleware.Logger(r.Context()).WithFields(log.Fields{
		"username":   user.Username,
		"role":       user.Role,
		"unit":       user.Unit,
		"created_by": claims.Username,
	}).Info("User created")

	writeJSON(w, http.StatusCreated, user)
}

// ListUsers lists the users visible to an admin.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	unit := r.URL.Query().Get("unit")
	if claims.Role != models.RoleProgrammer {
		unit = claims.Unit
	}

	users, err := h.userCollection.FindUsers(r.Context(), unit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFrom(w, r)
	if !ok {
		return
	}

	user, err := h.userCollection.FindUserByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, user)
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"course_market_backend/db"
	"course_market_backend/logger"
	"course_market_backend/middleware"
	"course_market_backend/models"
)

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash, fullName, userType string) (uuid.UUID, error)
	ByEmail(ctx context.Context, email string) (models.User, error)
	Info(ctx context.Context, userID uuid.UUID) (models.UserInfo, error)
}

type RoleStore interface {
	EnsureRole(ctx context.Context, userID uuid.UUID, role string) error
	Roles(ctx context.Context, userID uuid.UUID) ([]string, error)
}

type TokenIssuer interface {
	GenerateTokens(ctx context.Context, userID uuid.UUID) (models.TokenPair, error)
	ValidateRefreshToken(ctx context.Context, refreshToken string) (uuid.UUID, error)
	InvalidateRefreshToken(ctx context.Context, refreshToken string) error
}

type AuthHandler struct {
	users  UserStore
	roles  RoleStore
	tokens TokenIssuer
	log    *logger.Logger
}

func NewAuthHandler(users UserStore, roles RoleStore, tokens TokenIssuer, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		users:  users,
		roles:  roles,
		tokens: tokens,
		log:    log.With("handler", "auth"),
	}
}

// Register creates the account and its profile, grants the role matching
// the chosen user type and signs the user in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	hashedPassword, err := middleware.HashPassword(req.Password)
	if err != nil {
		h.log.Error("error hashing password", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	userID, err := h.users.CreateUser(ctx, req.Email, hashedPassword, req.FullName, req.UserType)
	if errors.Is(err, db.ErrEmailTaken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		return
	}
	if err != nil {
		h.log.Error("error creating user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	if err := h.roles.EnsureRole(ctx, userID, req.UserType); err != nil {
		h.log.Warn("error granting initial role", "user_id", userID, "role", req.UserType, "error", err)
	}

	tokens, err := h.tokens.GenerateTokens(ctx, userID)
	if err != nil {
		h.log.Error("error generating tokens", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	h.log.Info("user registered", "user_id", userID, "user_type", req.UserType)
	c.JSON(http.StatusCreated, tokens)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.ByEmail(c.Request.Context(), req.Email)
	if errors.Is(err, db.ErrUserNotFound) || (err == nil && !middleware.VerifyPassword(user.PasswordHash, req.Password)) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		h.log.Error("error querying user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to verify credentials"})
		return
	}

	tokens, err := h.tokens.GenerateTokens(c.Request.Context(), user.ID)
	if err != nil {
		h.log.Error("error generating tokens", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// RefreshToken swaps a refresh token for a new pair and revokes the old one.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ctx := c.Request.Context()

	userID, err := h.tokens.ValidateRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid refresh token"})
		return
	}

	tokens, err := h.tokens.GenerateTokens(ctx, userID)
	if err != nil {
		h.log.Error("error generating tokens", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate tokens"})
		return
	}

	if err := h.tokens.InvalidateRefreshToken(ctx, req.RefreshToken); err != nil {
		h.log.Warn("error invalidating old refresh token", "error", err)
	}

	c.JSON(http.StatusOK, tokens)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req models.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No token provided"})
		return
	}

	if err := h.tokens.InvalidateRefreshToken(c.Request.Context(), req.RefreshToken); err != nil {
		h.log.Error("error invalidating refresh token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to logout"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// UserInfo returns the caller's profile and granted roles.
func (h *AuthHandler) UserInfo(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	ctx := c.Request.Context()

	info, err := h.users.Info(ctx, userID)
	if errors.Is(err, db.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		h.log.Error("error fetching user info", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user info"})
		return
	}

	roles, err := h.roles.Roles(ctx, userID)
	if err != nil {
		h.log.Error("error fetching roles", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user info"})
		return
	}
	info.Roles = roles

	c.JSON(http.StatusOK, info)
}

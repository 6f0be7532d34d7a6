package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"course_market_backend/logger"
	"course_market_backend/middleware"
	"course_market_backend/models"
)

type RoleGranter interface {
	EnsureRole(ctx context.Context, userID uuid.UUID, role string) error
}

type RoleHandler struct {
	roles RoleGranter
	log   *logger.Logger
}

func NewRoleHandler(roles RoleGranter, log *logger.Logger) *RoleHandler {
	return &RoleHandler{roles: roles, log: log.With("handler", "roles")}
}

// EnsureTeacherRole grants the teacher role to the caller. Calling it again
// is harmless.
func (h *RoleHandler) EnsureTeacherRole(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	if err := h.roles.EnsureRole(c.Request.Context(), userID, models.RoleTeacher); err != nil {
		h.log.Error("failed to grant teacher role", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign teacher role"})
		return
	}

	c.JSON(http.StatusOK, models.EnsureRoleResponse{OK: true})
}

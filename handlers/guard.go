package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"course_market_backend/guard"
	"course_market_backend/middleware"
)

type GuardHandler struct {
	guard *guard.Guard
}

func NewGuardHandler(g *guard.Guard) *GuardHandler {
	return &GuardHandler{guard: g}
}

// Check tells the web client whether the current session may open path.
func (h *GuardHandler) Check(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	var session *guard.Session
	if userID, ok := middleware.UserID(c); ok {
		session = &guard.Session{UserID: userID}
	}

	c.JSON(http.StatusOK, h.guard.Check(c.Request.Context(), session, path))
}

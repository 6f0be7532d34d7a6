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

type StatsSource interface {
	CourseStats(ctx context.Context, teacherID uuid.UUID) (models.CourseStats, error)
}

type TeacherCourseLister interface {
	CoursesByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.Course, error)
}

type DashboardHandler struct {
	stats   StatsSource
	courses TeacherCourseLister
	log     *logger.Logger
}

func NewDashboardHandler(stats StatsSource, courses TeacherCourseLister, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{stats: stats, courses: courses, log: log.With("handler", "dashboard")}
}

func (h *DashboardHandler) Overview(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	stats, err := h.stats.CourseStats(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to load course stats", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dashboard"})
		return
	}

	c.JSON(http.StatusOK, models.NewTeacherOverview(stats))
}

// Courses lists the caller's courses, newest first, drafts included.
func (h *DashboardHandler) Courses(c *gin.Context) {
	userID, _ := middleware.UserID(c)

	courses, err := h.courses.CoursesByTeacher(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("failed to list courses", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch courses"})
		return
	}
	if courses == nil {
		courses = []models.Course{}
	}

	c.JSON(http.StatusOK, courses)
}

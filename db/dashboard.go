package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"course_market_backend/models"
)

type DashboardRepository struct {
	db *sql.DB
}

func NewDashboardRepository(db *sql.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) CourseStats(ctx context.Context, teacherID uuid.UUID) (models.CourseStats, error) {
	var s models.CourseStats
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE published),
			COALESCE(SUM(total_lessons), 0),
			COALESCE(SUM(total_duration), 0)
		FROM courses
		WHERE teacher_id = $1`, teacherID,
	).Scan(&s.Courses, &s.Published, &s.TotalLessons, &s.TotalDuration)
	if err != nil {
		return models.CourseStats{}, fmt.Errorf("select course stats: %w", err)
	}
	return s, nil
}

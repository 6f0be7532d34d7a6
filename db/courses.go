package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"course_market_backend/models"
)

// CourseRepository reads and writes the four course tables one row or one
// ordered list at a time. It never opens a transaction.
type CourseRepository struct {
	db *sql.DB
}

func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, teacher_id, title, subtitle, description, category, level, language,
	thumbnail_url, price, promotional_price, currency, free_preview, published,
	enrollment_limit, certificate_enabled, total_lessons, total_duration, slug, created_at`

// InsertCourse stores a course row. Like a row-level policy, the insert only
// goes through when the teacher already holds the teacher role; otherwise
// ErrPermissionDenied is returned and nothing is written.
func (r *CourseRepository) InsertCourse(ctx context.Context, c models.NewCourse) (models.Course, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO courses (
			teacher_id, title, subtitle, description, category, level, language,
			thumbnail_url, price, promotional_price, currency, free_preview, published,
			enrollment_limit, certificate_enabled, total_lessons, total_duration, slug
		)
		SELECT $1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text,
			$8::text, $9::numeric, $10::numeric, $11::text, $12::boolean, $13::boolean,
			$14::integer, $15::boolean, $16::integer, $17::integer, $18::text
		WHERE EXISTS (
			SELECT 1 FROM user_roles WHERE user_id = $1::uuid AND role = 'teacher'
		)
		RETURNING `+courseColumns,
		c.TeacherID, c.Title, c.Subtitle, c.Description, c.Category, c.Level, c.Language,
		c.ThumbnailURL, c.Price, c.PromotionalPrice, c.Currency, c.FreePreview, c.Published,
		c.EnrollmentLimit, c.CertificateEnabled, c.TotalLessons, c.TotalDuration, c.Slug,
	)
	course, err := scanCourse(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Course{}, ErrPermissionDenied
	}
	if err != nil {
		return models.Course{}, fmt.Errorf("insert course: %w", err)
	}
	return course, nil
}

func (r *CourseRepository) InsertSection(ctx context.Context, s models.NewSection) (models.Section, error) {
	out := models.Section{}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO course_sections (course_id, title, description, order_index)
		VALUES ($1, $2, $3, $4)
		RETURNING id, course_id, title, description, order_index`,
		s.CourseID, s.Title, s.Description, s.OrderIndex,
	).Scan(&out.ID, &out.CourseID, &out.Title, &out.Description, &out.OrderIndex)
	if err != nil {
		return models.Section{}, fmt.Errorf("insert section: %w", err)
	}
	return out, nil
}

func (r *CourseRepository) InsertLesson(ctx context.Context, l models.NewLesson) (models.Lesson, error) {
	out := models.Lesson{}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO course_lessons (section_id, title, description, order_index, is_published, estimated_duration)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, section_id, title, description, order_index, is_published, estimated_duration`,
		l.SectionID, l.Title, l.Description, l.OrderIndex, l.IsPublished, l.EstimatedDuration,
	).Scan(&out.ID, &out.SectionID, &out.Title, &out.Description, &out.OrderIndex, &out.IsPublished, &out.EstimatedDuration)
	if err != nil {
		return models.Lesson{}, fmt.Errorf("insert lesson: %w", err)
	}
	return out, nil
}

func (r *CourseRepository) InsertContent(ctx context.Context, c models.NewContentItem) (models.ContentItem, error) {
	data := c.Data
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	out := models.ContentItem{}
	var raw []byte
	// lib/pq sends []byte as bytea, so the payload goes over as text.
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO lesson_content (lesson_id, content_type, title, order_index, data)
		VALUES ($1, $2, $3, $4, $5::jsonb)
		RETURNING id, lesson_id, content_type, title, order_index, data`,
		c.LessonID, c.ContentType, c.Title, c.OrderIndex, string(data),
	).Scan(&out.ID, &out.LessonID, &out.ContentType, &out.Title, &out.OrderIndex, &raw)
	if err != nil {
		return models.ContentItem{}, fmt.Errorf("insert content: %w", err)
	}
	out.Data = json.RawMessage(raw)
	return out, nil
}

// CourseBySlug returns nil, nil when no course has the slug.
func (r *CourseRepository) CourseBySlug(ctx context.Context, slug string) (*models.Course, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+courseColumns+` FROM courses WHERE slug = $1 LIMIT 2`, slug)
	if err != nil {
		return nil, fmt.Errorf("select course: %w", err)
	}
	defer rows.Close()

	var courses []models.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select course: %w", err)
	}

	switch len(courses) {
	case 0:
		return nil, nil
	case 1:
		return &courses[0], nil
	default:
		return nil, fmt.Errorf("%w %q", ErrAmbiguousSlug, slug)
	}
}

func (r *CourseRepository) SectionsByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Section, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, course_id, title, description, order_index
		FROM course_sections
		WHERE course_id = $1
		ORDER BY order_index`, courseID)
	if err != nil {
		return nil, fmt.Errorf("select sections: %w", err)
	}
	defer rows.Close()

	sections := make([]models.Section, 0)
	for rows.Next() {
		var s models.Section
		if err := rows.Scan(&s.ID, &s.CourseID, &s.Title, &s.Description, &s.OrderIndex); err != nil {
			return nil, fmt.Errorf("scan section: %w", err)
		}
		sections = append(sections, s)
	}
	return sections, rows.Err()
}

func (r *CourseRepository) LessonsBySection(ctx context.Context, sectionID uuid.UUID) ([]models.Lesson, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, section_id, title, description, order_index, is_published, estimated_duration
		FROM course_lessons
		WHERE section_id = $1
		ORDER BY order_index`, sectionID)
	if err != nil {
		return nil, fmt.Errorf("select lessons: %w", err)
	}
	defer rows.Close()

	lessons := make([]models.Lesson, 0)
	for rows.Next() {
		var l models.Lesson
		if err := rows.Scan(&l.ID, &l.SectionID, &l.Title, &l.Description, &l.OrderIndex, &l.IsPublished, &l.EstimatedDuration); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (r *CourseRepository) ContentByLesson(ctx context.Context, lessonID uuid.UUID) ([]models.ContentItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, lesson_id, content_type, title, order_index, data
		FROM lesson_content
		WHERE lesson_id = $1
		ORDER BY order_index`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("select content: %w", err)
	}
	defer rows.Close()

	items := make([]models.ContentItem, 0)
	for rows.Next() {
		var c models.ContentItem
		var raw []byte
		if err := rows.Scan(&c.ID, &c.LessonID, &c.ContentType, &c.Title, &c.OrderIndex, &raw); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		c.Data = json.RawMessage(raw)
		items = append(items, c)
	}
	return items, rows.Err()
}

// CoursesByTeacher lists a teacher's courses, newest first.
func (r *CourseRepository) CoursesByTeacher(ctx context.Context, teacherID uuid.UUID) ([]models.Course, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+courseColumns+`
		FROM courses
		WHERE teacher_id = $1
		ORDER BY created_at DESC`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("select teacher courses: %w", err)
	}
	defer rows.Close()

	courses := make([]models.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCourse(row rowScanner) (models.Course, error) {
	var c models.Course
	var thumbnail sql.NullString
	var promo sql.NullFloat64
	err := row.Scan(
		&c.ID, &c.TeacherID, &c.Title, &c.Subtitle, &c.Description, &c.Category, &c.Level, &c.Language,
		&thumbnail, &c.Price, &promo, &c.Currency, &c.FreePreview, &c.Published,
		&c.EnrollmentLimit, &c.CertificateEnabled, &c.TotalLessons, &c.TotalDuration, &c.Slug, &c.CreatedAt,
	)
	if err != nil {
		return models.Course{}, err
	}
	if thumbnail.Valid {
		c.ThumbnailURL = &thumbnail.String
	}
	if promo.Valid {
		c.PromotionalPrice = &promo.Float64
	}
	return c, nil
}

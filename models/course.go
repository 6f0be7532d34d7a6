package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Course struct {
	ID                 uuid.UUID `json:"id"`
	TeacherID          uuid.UUID `json:"teacher_id"`
	Title              string    `json:"title"`
	Subtitle           string    `json:"subtitle"`
	Description        string    `json:"description"`
	Category           string    `json:"category"`
	Level              string    `json:"level"`
	Language           string    `json:"language"`
	ThumbnailURL       *string   `json:"thumbnail_url"`
	Price              float64   `json:"price"`
	PromotionalPrice   *float64  `json:"promotional_price"`
	Currency           string    `json:"currency"`
	FreePreview        bool      `json:"free_preview"`
	Published          bool      `json:"published"`
	EnrollmentLimit    int       `json:"enrollment_limit"`
	CertificateEnabled bool      `json:"certificate_enabled"`
	TotalLessons       int       `json:"total_lessons"`
	TotalDuration      int       `json:"total_duration"`
	Slug               string    `json:"slug"`
	CreatedAt          time.Time `json:"created_at"`
}

type Section struct {
	ID          uuid.UUID `json:"id"`
	CourseID    uuid.UUID `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OrderIndex  int       `json:"order_index"`
}

type Lesson struct {
	ID                uuid.UUID `json:"id"`
	SectionID         uuid.UUID `json:"section_id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	OrderIndex        int       `json:"order_index"`
	IsPublished       bool      `json:"is_published"`
	EstimatedDuration int       `json:"estimated_duration"`
}

type ContentItem struct {
	ID          uuid.UUID       `json:"id"`
	LessonID    uuid.UUID       `json:"lesson_id"`
	ContentType string          `json:"content_type"`
	Title       string          `json:"title"`
	OrderIndex  int             `json:"order_index"`
	Data        json.RawMessage `json:"data"`
}

// NewCourse is the insert payload for a courses row.
type NewCourse struct {
	TeacherID          uuid.UUID
	Title              string
	Subtitle           string
	Description        string
	Category           string
	Level              string
	Language           string
	ThumbnailURL       *string
	Price              float64
	PromotionalPrice   *float64
	Currency           string
	FreePreview        bool
	Published          bool
	EnrollmentLimit    int
	CertificateEnabled bool
	TotalLessons       int
	TotalDuration      int
	Slug               string
}

type NewSection struct {
	CourseID    uuid.UUID
	Title       string
	Description string
	OrderIndex  int
}

type NewLesson struct {
	SectionID         uuid.UUID
	Title             string
	Description       string
	OrderIndex        int
	IsPublished       bool
	EstimatedDuration int
}

type NewContentItem struct {
	LessonID    uuid.UUID
	ContentType string
	Title       string
	OrderIndex  int
	Data        json.RawMessage
}

// CourseTree is a course with its sections, lessons and content, each level
// ordered by order_index.
type CourseTree struct {
	Course   Course        `json:"course"`
	Sections []SectionTree `json:"sections"`
}

type SectionTree struct {
	Section
	Lessons []LessonTree `json:"lessons"`
}

type LessonTree struct {
	Lesson
	Content []ContentItem `json:"content"`
}

type PublishResponse struct {
	CourseID  uuid.UUID `json:"course_id"`
	Slug      string    `json:"slug"`
	URL       string    `json:"url"`
	Published bool      `json:"published"`
}

// CoursePath is the public address of a course.
func CoursePath(slug string) string {
	return "/course/" + slug
}

package publish

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"course_market_backend/draft"
	"course_market_backend/logger"
	"course_market_backend/models"
)

// Store performs the single-row inserts. Each call returns the stored row so
// its generated id can be used as the parent of the next level.
type Store interface {
	InsertCourse(ctx context.Context, c models.NewCourse) (models.Course, error)
	InsertSection(ctx context.Context, s models.NewSection) (models.Section, error)
	InsertLesson(ctx context.Context, l models.NewLesson) (models.Lesson, error)
	InsertContent(ctx context.Context, c models.NewContentItem) (models.ContentItem, error)
}

type RoleGranter interface {
	EnsureRole(ctx context.Context, userID uuid.UUID, role string) error
}

// ThumbnailStore uploads an object and returns its public URL.
type ThumbnailStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) (string, error)
}

var errNoThumbnailStore = errors.New("thumbnail storage is not configured")

const thumbnailPrefix = "course-thumbnails/"

type Thumbnail struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type Request struct {
	UserID    uuid.UUID
	Draft     draft.Draft
	Published bool
	// Thumbnail is a newly chosen file; nil keeps Draft.Basics.ThumbnailURL.
	Thumbnail *Thumbnail
}

type Result struct {
	CourseID     uuid.UUID
	Slug         string
	Published    bool
	Sections     int
	Lessons      int
	ContentItems int
}

func (r Result) URL() string {
	return models.CoursePath(r.Slug)
}

type Orchestrator struct {
	store      Store
	roles      RoleGranter
	thumbnails ThumbnailStore
	log        *logger.Logger
}

// NewOrchestrator wires the publish flow. thumbnails may be nil, in which
// case drafts that carry a new thumbnail file fail at the upload stage.
func NewOrchestrator(store Store, roles RoleGranter, thumbnails ThumbnailStore, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		roles:      roles,
		thumbnails: thumbnails,
		log:        log.With("component", "publish"),
	}
}

// Publish validates req.Draft and writes it as one course row followed by
// its sections, lessons and content items, top-down and strictly one insert
// at a time. The first failed write stops the sequence; nothing written
// before it is undone.
func (o *Orchestrator) Publish(ctx context.Context, req Request) (Result, error) {
	d := req.Draft
	if err := Validate(d); err != nil {
		return Result{}, err
	}

	if err := o.roles.EnsureRole(ctx, req.UserID, models.RoleTeacher); err != nil {
		o.log.Warn("ensure teacher role failed, continuing", "user_id", req.UserID, "error", err)
	}

	thumbnailURL, err := o.thumbnailURL(ctx, d.Basics.ThumbnailURL, req.Thumbnail)
	if err != nil {
		o.log.Error("thumbnail upload failed", "user_id", req.UserID, "error", err)
		return Result{}, writeError(StageThumbnail, nil, err)
	}

	slug := Slugify(d.Basics.Title)
	course, err := o.store.InsertCourse(ctx, models.NewCourse{
		TeacherID:          req.UserID,
		Title:              d.Basics.Title,
		Subtitle:           d.Basics.Subtitle,
		Description:        d.Basics.Description,
		Category:           d.Basics.Category,
		Level:              d.Basics.Level,
		Language:           d.Basics.Language,
		ThumbnailURL:       thumbnailURL,
		Price:              d.Pricing.Price,
		PromotionalPrice:   d.Pricing.PromotionalPrice,
		Currency:           d.Pricing.Currency,
		FreePreview:        d.Pricing.FreePreview,
		Published:          req.Published,
		EnrollmentLimit:    d.Settings.EnrollmentLimit,
		CertificateEnabled: d.Settings.CertificateEnabled,
		TotalLessons:       d.TotalLessons(),
		TotalDuration:      d.TotalDuration(),
		Slug:               slug,
	})
	if err != nil {
		return Result{}, o.abort(req.UserID, StageCourse, nil, err)
	}

	res := Result{CourseID: course.ID, Slug: course.Slug, Published: req.Published}
	if res.Slug == "" {
		res.Slug = slug
	}

	for si, s := range d.Sections {
		section, err := o.store.InsertSection(ctx, models.NewSection{
			CourseID:    course.ID,
			Title:       s.Title,
			Description: s.Description,
			OrderIndex:  si,
		})
		if err != nil {
			return res, o.abort(req.UserID, StageSection, []int{si}, err)
		}
		res.Sections++

		for li, l := range s.Lessons {
			duration := l.EstimatedDuration
			if duration < 0 {
				duration = 0
			}
			lesson, err := o.store.InsertLesson(ctx, models.NewLesson{
				SectionID:         section.ID,
				Title:             l.Title,
				Description:       l.Description,
				OrderIndex:        li,
				IsPublished:       l.IsPublished,
				EstimatedDuration: duration,
			})
			if err != nil {
				return res, o.abort(req.UserID, StageLesson, []int{si, li}, err)
			}
			res.Lessons++

			for ci, c := range l.ContentItems {
				data := c.Data
				if len(data) == 0 || string(data) == "null" {
					data = json.RawMessage(`{}`)
				}
				if _, err := o.store.InsertContent(ctx, models.NewContentItem{
					LessonID:    lesson.ID,
					ContentType: c.Type,
					Title:       c.Title,
					OrderIndex:  ci,
					Data:        data,
				}); err != nil {
					return res, o.abort(req.UserID, StageContent, []int{si, li, ci}, err)
				}
				res.ContentItems++
			}
		}
	}

	o.log.Info("course stored",
		"course_id", res.CourseID,
		"slug", res.Slug,
		"published", res.Published,
		"sections", res.Sections,
		"lessons", res.Lessons,
		"content_items", res.ContentItems,
	)
	return res, nil
}

func (o *Orchestrator) abort(userID uuid.UUID, stage Stage, path []int, err error) error {
	o.log.Error("publish aborted, earlier rows are kept",
		"user_id", userID,
		"stage", stageLabel(stage, path),
		"error", err,
	)
	return writeError(stage, path, err)
}

func (o *Orchestrator) thumbnailURL(ctx context.Context, current string, t *Thumbnail) (*string, error) {
	if t == nil {
		// Object URLs from a browser preview are never stored.
		if current == "" || strings.HasPrefix(current, "blob:") {
			return nil, nil
		}
		return &current, nil
	}
	if o.thumbnails == nil {
		return nil, errNoThumbnailStore
	}
	key := thumbnailPrefix + uuid.NewString()
	if ext := strings.TrimPrefix(path.Ext(t.Filename), "."); ext != "" {
		key += "." + strings.ToLower(ext)
	}
	url, err := o.thumbnails.Upload(ctx, key, t.ContentType, t.Body)
	if err != nil {
		return nil, err
	}
	return &url, nil
}

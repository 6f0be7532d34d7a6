// Package viewer rebuilds a published course tree from its slug.
package viewer

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"course_market_backend/logger"
	"course_market_backend/models"
)

var ErrNotFound = errors.New("course not found")

// ReadError wraps any failed fetch. The caller shows a generic load failure.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string {
	return "failed to load course data: " + e.Err.Error()
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// Store is the read side of the course tables. CourseBySlug returns a nil
// course and no error when the slug is unknown; the list calls return rows
// ordered by order_index.
type Store interface {
	CourseBySlug(ctx context.Context, slug string) (*models.Course, error)
	SectionsByCourse(ctx context.Context, courseID uuid.UUID) ([]models.Section, error)
	LessonsBySection(ctx context.Context, sectionID uuid.UUID) ([]models.Lesson, error)
	ContentByLesson(ctx context.Context, lessonID uuid.UUID) ([]models.ContentItem, error)
}

type Viewer struct {
	store Store
	log   *logger.Logger
}

func New(store Store, log *logger.Logger) *Viewer {
	return &Viewer{store: store, log: log.With("component", "viewer")}
}

// Load fetches the course, then its sections, then every section's lessons
// and every lesson's content concurrently. Siblings do not wait on each
// other; a lesson's content fetch starts once that section's lessons are
// known. The first failure cancels the rest and no tree is returned.
func (v *Viewer) Load(ctx context.Context, slug string) (*models.CourseTree, error) {
	course, err := v.store.CourseBySlug(ctx, slug)
	if err != nil {
		return nil, v.fail(slug, err)
	}
	if course == nil {
		return nil, ErrNotFound
	}

	sections, err := v.store.SectionsByCourse(ctx, course.ID)
	if err != nil {
		return nil, v.fail(slug, err)
	}

	tree := &models.CourseTree{
		Course:   *course,
		Sections: make([]models.SectionTree, len(sections)),
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, s := range sections {
		s := s
		tree.Sections[i].Section = s
		st := &tree.Sections[i]
		g.Go(func() error {
			lessons, err := v.store.LessonsBySection(gctx, s.ID)
			if err != nil {
				return err
			}
			st.Lessons = make([]models.LessonTree, len(lessons))
			for j, l := range lessons {
				l := l
				st.Lessons[j].Lesson = l
				lt := &st.Lessons[j]
				g.Go(func() error {
					content, err := v.store.ContentByLesson(gctx, l.ID)
					if err != nil {
						return err
					}
					if content == nil {
						content = []models.ContentItem{}
					}
					lt.Content = content
					return nil
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, v.fail(slug, err)
	}
	return tree, nil
}

func (v *Viewer) fail(slug string, err error) error {
	v.log.Error("course load failed", "slug", slug, "error", err)
	return &ReadError{Err: err}
}

package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"course_market_backend/db"
	"course_market_backend/draft"
	"course_market_backend/logger"
	"course_market_backend/models"
)

// fakeStore records every insert in call order. failAt makes the insert
// with that label fail, e.g. "section:1" or "lesson:0.2".
type fakeStore struct {
	courses  []models.NewCourse
	sections []models.NewSection
	lessons  []models.NewLesson
	contents []models.NewContentItem
	calls    []string

	failAt  string
	failErr error

	sectionSeen int
	lessonSeen  map[uuid.UUID]int
	sectionPos  map[uuid.UUID]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{lessonSeen: map[uuid.UUID]int{}, sectionPos: map[uuid.UUID]int{}}
}

func (f *fakeStore) fail(label string) error {
	if f.failAt == label {
		if f.failErr != nil {
			return f.failErr
		}
		return errors.New("insert failed: " + label)
	}
	return nil
}

func (f *fakeStore) InsertCourse(_ context.Context, c models.NewCourse) (models.Course, error) {
	f.calls = append(f.calls, "course")
	if err := f.fail("course"); err != nil {
		return models.Course{}, err
	}
	f.courses = append(f.courses, c)
	return models.Course{ID: uuid.New(), TeacherID: c.TeacherID, Slug: c.Slug, Published: c.Published}, nil
}

func (f *fakeStore) InsertSection(_ context.Context, s models.NewSection) (models.Section, error) {
	label := "section:" + strconv.Itoa(f.sectionSeen)
	f.sectionSeen++
	f.calls = append(f.calls, label)
	if err := f.fail(label); err != nil {
		return models.Section{}, err
	}
	f.sections = append(f.sections, s)
	id := uuid.New()
	f.sectionPos[id] = s.OrderIndex
	return models.Section{ID: id, CourseID: s.CourseID, OrderIndex: s.OrderIndex}, nil
}

func (f *fakeStore) InsertLesson(_ context.Context, l models.NewLesson) (models.Lesson, error) {
	label := "lesson:" + strconv.Itoa(f.sectionPos[l.SectionID]) + "." + strconv.Itoa(f.lessonSeen[l.SectionID])
	f.lessonSeen[l.SectionID]++
	f.calls = append(f.calls, label)
	if err := f.fail(label); err != nil {
		return models.Lesson{}, err
	}
	f.lessons = append(f.lessons, l)
	return models.Lesson{ID: uuid.New(), SectionID: l.SectionID, OrderIndex: l.OrderIndex}, nil
}

func (f *fakeStore) InsertContent(_ context.Context, c models.NewContentItem) (models.ContentItem, error) {
	f.calls = append(f.calls, "content")
	if err := f.fail("content"); err != nil {
		return models.ContentItem{}, err
	}
	f.contents = append(f.contents, c)
	return models.ContentItem{ID: uuid.New(), LessonID: c.LessonID, OrderIndex: c.OrderIndex}, nil
}

func (f *fakeStore) writes() int {
	return len(f.courses) + len(f.sections) + len(f.lessons) + len(f.contents)
}

type fakeRoles struct {
	calls int
	err   error
}

func (f *fakeRoles) EnsureRole(context.Context, uuid.UUID, string) error {
	f.calls++
	return f.err
}

type fakeThumbs struct {
	keys []string
	body []byte
	err  error
}

func (f *fakeThumbs) Upload(_ context.Context, key, _ string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.body, _ = io.ReadAll(r)
	return "https://cdn.example.com/" + key, nil
}

// buildDraft makes a valid draft with the given lesson counts per section;
// every lesson gets 10 minutes and two content items.
func buildDraft(t *testing.T, lessonsPerSection ...int) draft.Draft {
	t.Helper()
	d := draft.New().UpdateBasics(draft.Basics{
		Title:    "My Course!! 2024",
		Category: "development",
		Level:    "beginner",
		Language: "en",
	})
	for si, n := range lessonsPerSection {
		var sk string
		d, sk = d.AddSection()
		d, _ = d.UpdateSection(sk, "Section "+strconv.Itoa(si), "")
		for li := 0; li < n; li++ {
			var lk string
			var err error
			d, lk, err = d.AddLesson(sk)
			require.NoError(t, err)
			d, err = d.UpdateLesson(sk, lk, draft.LessonPatch{Title: "Lesson " + strconv.Itoa(li), EstimatedDuration: 10})
			require.NoError(t, err)
			d, _, err = d.AddContent(sk, lk, "text", "Reading", json.RawMessage(`{"body":"x"}`))
			require.NoError(t, err)
			d, _, err = d.AddContent(sk, lk, "quiz", "Check", nil)
			require.NoError(t, err)
		}
	}
	return d
}

func newOrchestrator(store Store, roles RoleGranter, thumbs ThumbnailStore) *Orchestrator {
	return NewOrchestrator(store, roles, thumbs, logger.Nop())
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"My Course!! 2024":           "my_course_2024",
		"Go   for\tbeginners":        "go_for_beginners",
		"C++ & Rust":                 "c_rust",
		"Café Society":               "caf_society",
		"!!!":                        "",
		" padded ":                   "_padded_",
		"ALREADY_snake":              "alreadysnake",
		"My\u00a0Course":             "my_course",
		"My\vCourse":                 "my_course",
		"My\u2003Course":             "my_course",
		"Go\u3000Basics":             "go_basics",
		"Go\ufeffBasics":             "go_basics",
		"Go\u2028Basics":             "go_basics",
		"No\u00a0\u00a0break  space": "no_break_space",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
	assert.Equal(t, Slugify("My Course 2024"), Slugify("my course!! 2024"))
}

func TestPublish_FullTree(t *testing.T) {
	store := newFakeStore()
	roles := &fakeRoles{}
	o := newOrchestrator(store, roles, nil)
	userID := uuid.New()
	d := buildDraft(t, 2, 3, 1)

	res, err := o.Publish(context.Background(), Request{UserID: userID, Draft: d, Published: true})
	require.NoError(t, err)

	assert.Equal(t, 1, roles.calls)
	require.Len(t, store.courses, 1)
	c := store.courses[0]
	assert.Equal(t, userID, c.TeacherID)
	assert.Equal(t, "my_course_2024", c.Slug)
	assert.True(t, c.Published)
	assert.Equal(t, 6, c.TotalLessons)
	assert.Equal(t, 60, c.TotalDuration)
	assert.Equal(t, "USD", c.Currency)
	assert.Nil(t, c.ThumbnailURL)

	require.Len(t, store.sections, 3)
	for i, s := range store.sections {
		assert.Equal(t, i, s.OrderIndex)
		assert.Equal(t, "Section "+strconv.Itoa(i), s.Title)
	}
	require.Len(t, store.lessons, 6)
	assert.Equal(t, []int{0, 1, 0, 1, 2, 0}, lessonOrder(store.lessons))
	require.Len(t, store.contents, 12)
	for i, ci := range store.contents {
		assert.Equal(t, i%2, ci.OrderIndex)
	}
	assert.JSONEq(t, `{"body":"x"}`, string(store.contents[0].Data))
	assert.JSONEq(t, `{}`, string(store.contents[1].Data))

	assert.Equal(t, "my_course_2024", res.Slug)
	assert.Equal(t, "/course/my_course_2024", res.URL())
	assert.Equal(t, 3, res.Sections)
	assert.Equal(t, 6, res.Lessons)
	assert.Equal(t, 12, res.ContentItems)
}

func TestPublish_ParentBeforeChildren(t *testing.T) {
	store := newFakeStore()
	o := newOrchestrator(store, &fakeRoles{}, nil)

	_, err := o.Publish(context.Background(), Request{UserID: uuid.New(), Draft: buildDraft(t, 1, 1)})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"course",
		"section:0", "lesson:0.0", "content", "content",
		"section:1", "lesson:1.0", "content", "content",
	}, store.calls)
}

func lessonOrder(ls []models.NewLesson) []int {
	out := make([]int, len(ls))
	for i, l := range ls {
		out[i] = l.OrderIndex
	}
	return out
}

func TestPublish_SaveAsDraft(t *testing.T) {
	store := newFakeStore()
	o := newOrchestrator(store, &fakeRoles{}, nil)

	res, err := o.Publish(context.Background(), Request{UserID: uuid.New(), Draft: buildDraft(t, 1), Published: false})
	require.NoError(t, err)
	assert.False(t, res.Published)
	require.Len(t, store.courses, 1)
	assert.False(t, store.courses[0].Published)
	assert.Len(t, store.sections, 1)
}

func TestPublish_ValidationOrder(t *testing.T) {
	full := buildDraft(t, 1)
	tests := []struct {
		name  string
		edit  func(b *draft.Basics)
		field string
	}{
		{"all missing", func(b *draft.Basics) { *b = draft.Basics{} }, "title"},
		{"title missing", func(b *draft.Basics) { b.Title = "" }, "title"},
		{"category and level missing", func(b *draft.Basics) { b.Category, b.Level = "", "" }, "category"},
		{"level and language missing", func(b *draft.Basics) { b.Level, b.Language = "", "" }, "level"},
		{"language missing", func(b *draft.Basics) { b.Language = "" }, "language"},
		{"title without letters", func(b *draft.Basics) { b.Title = "!!!" }, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := full.Basics
			tt.edit(&b)
			store := newFakeStore()
			roles := &fakeRoles{}
			o := newOrchestrator(store, roles, nil)

			_, err := o.Publish(context.Background(), Request{UserID: uuid.New(), Draft: full.UpdateBasics(b)})

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.Equal(t, draft.StepBasics, vErr.Step)
			assert.Zero(t, store.writes())
			assert.Empty(t, store.calls)
			assert.Zero(t, roles.calls)
		})
	}
}

func TestPublish_NoSections(t *testing.T) {
	store := newFakeStore()
	d := buildDraft(t)

	_, err := newOrchestrator(store, &fakeRoles{}, nil).Publish(context.Background(), Request{UserID: uuid.New(), Draft: d})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "sections", vErr.Field)
	assert.Equal(t, draft.StepStructure, vErr.Step)
	assert.Zero(t, store.writes())
}

func TestPublish_SectionFailureLeavesPartialTree(t *testing.T) {
	store := newFakeStore()
	store.failAt = "section:2"
	o := newOrchestrator(store, &fakeRoles{}, nil)

	res, err := o.Publish(context.Background(), Request{UserID: uuid.New(), Draft: buildDraft(t, 1, 1, 1, 1)})

	var wErr *RemoteWriteError
	require.ErrorAs(t, err, &wErr)
	assert.Equal(t, StageSection, wErr.Stage)
	assert.Equal(t, []int{2}, wErr.Path)
	assert.Equal(t, "insert failed: section:2", err.Error())

	assert.Len(t, store.courses, 1)
	require.Len(t, store.sections, 2)
	assert.Equal(t, 0, store.sections[0].OrderIndex)
	assert.Equal(t, 1, store.sections[1].OrderIndex)
	// lessons of the persisted sections stay, nothing at or past index 2
	assert.Len(t, store.lessons, 2)
	assert.Len(t, store.contents, 4)
	assert.Equal(t, "section:2", store.calls[len(store.calls)-1])
	assert.Equal(t, 2, res.Sections)
}

func TestPublish_LessonFailureStopsEverything(t *testing.T) {
	store := newFakeStore()
	store.failAt = "lesson:0.1"
	o := newOrchestrator(store, &fakeRoles{}, nil)

	_, err := o.Publish(context.Background(), Request{UserID: uuid.New(), Draft: buildDraft(t, 3, 2)})

	var wErr *RemoteWriteError
	require.ErrorAs(t, err, &wErr)
	assert.Equal(t, StageLesson, wErr.Stage)
	assert.Equal(t, []int{0, 1}, wErr.Path)
	assert.Len(t, store.sections, 1)
	assert.Len(t, store.lessons, 1)
	assert.Len(t, store.contents, 2)
}

func TestPublish_CourseFailure(t *testing.T) {
	store := newFakeStore()
	store.failAt = "course"
	o := newOrchestrator(store, &fakeRoles{}, nil)

	_, err := o.Publish(context.Background(), Request{UserID: uuid.New(), Draft: buildDraft(t, 1)})

	var wErr *RemoteWriteError
	require.ErrorAs(t, err, &wErr)
	assert.Equal(t, StageCourse, wErr.Stage)
	assert.Zero(t, store.writes())
}

func TestPublish_PermissionErrors(t *testing.T) {
	tests := map[string]error{
		"policy sentinel": db.ErrPermissionDenied,
		"sqlstate":        &pq.Error{Code: "42501", Message: "insufficient privilege"},
		"message":         errors.New(`new row violates row-level security policy for table "courses"`),
	}
	for name, cause := range tests {
		t.Run(name, func(t *testing.T) {
			store := newFakeStore()
			store.failAt = "course"
			store.failErr = cause

			_, err := newOrchestrator(store, &fakeRoles{}, nil).Publish(context.Background(), Request{UserID: uuid.New(), Draft: buildDraft(t, 1)})

			var pErr *RemotePermissionError
			require.ErrorAs(t, err, &pErr)
			assert.Equal(t, StageCourse, pErr.Stage)
			assert.ErrorIs(t, err, cause)
		})
	}
}

func TestPublish_RoleGrantFailureIsNotFatal(t *testing.T) {
	store := newFakeStore()
	roles := &fakeRoles{err: errors.New("role service down")}

	_, err := newOrchestrator(store, roles, nil).Publish(context.Background(), Request{UserID: uuid.New(), Draft: buildDraft(t, 1)})
	require.NoError(t, err)
	assert.Equal(t, 1, roles.calls)
	assert.Len(t, store.courses, 1)
}

func TestPublish_Thumbnail(t *testing.T) {
	t.Run("new file is uploaded", func(t *testing.T) {
		store := newFakeStore()
		thumbs := &fakeThumbs{}
		o := newOrchestrator(store, &fakeRoles{}, thumbs)

		_, err := o.Publish(context.Background(), Request{
			UserID: uuid.New(),
			Draft:  buildDraft(t, 1),
			Thumbnail: &Thumbnail{
				Filename:    "cover.PNG",
				ContentType: "image/png",
				Body:        bytes.NewReader([]byte("png-bytes")),
			},
		})
		require.NoError(t, err)
		require.Len(t, thumbs.keys, 1)
		assert.True(t, strings.HasPrefix(thumbs.keys[0], "course-thumbnails/"))
		assert.True(t, strings.HasSuffix(thumbs.keys[0], ".png"))
		assert.Equal(t, []byte("png-bytes"), thumbs.body)
		require.NotNil(t, store.courses[0].ThumbnailURL)
		assert.Equal(t, "https://cdn.example.com/"+thumbs.keys[0], *store.courses[0].ThumbnailURL)
	})

	t.Run("existing url is reused", func(t *testing.T) {
		store := newFakeStore()
		d := buildDraft(t, 1)
		b := d.Basics
		b.ThumbnailURL = "https://cdn.example.com/old.png"

		_, err := newOrchestrator(store, &fakeRoles{}, &fakeThumbs{}).Publish(context.Background(), Request{UserID: uuid.New(), Draft: d.UpdateBasics(b)})
		require.NoError(t, err)
		require.NotNil(t, store.courses[0].ThumbnailURL)
		assert.Equal(t, "https://cdn.example.com/old.png", *store.courses[0].ThumbnailURL)
	})

	t.Run("upload failure aborts before any insert", func(t *testing.T) {
		store := newFakeStore()
		thumbs := &fakeThumbs{err: errors.New("bucket unavailable")}

		_, err := newOrchestrator(store, &fakeRoles{}, thumbs).Publish(context.Background(), Request{
			UserID:    uuid.New(),
			Draft:     buildDraft(t, 1),
			Thumbnail: &Thumbnail{Filename: "a.jpg", Body: strings.NewReader("x")},
		})
		var wErr *RemoteWriteError
		require.ErrorAs(t, err, &wErr)
		assert.Equal(t, StageThumbnail, wErr.Stage)
		assert.Zero(t, store.writes())
	})

	t.Run("no storage configured", func(t *testing.T) {
		store := newFakeStore()
		_, err := newOrchestrator(store, &fakeRoles{}, nil).Publish(context.Background(), Request{
			UserID:    uuid.New(),
			Draft:     buildDraft(t, 1),
			Thumbnail: &Thumbnail{Filename: "a.jpg", Body: strings.NewReader("x")},
		})
		var wErr *RemoteWriteError
		require.ErrorAs(t, err, &wErr)
		assert.Zero(t, store.writes())
	})
}

// Package draft holds the in-progress course being authored in the wizard.
//
// A Draft is a plain value. Every edit returns a new Draft and leaves the
// receiver untouched: slices are copied at each level that changes, so an
// older Draft can still be read (or saved) safely after later edits.
package draft

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrUnknownKey = errors.New("draft: unknown key")

type Draft struct {
	Basics   Basics    `json:"basics"`
	Sections []Section `json:"sections"`
	Pricing  Pricing   `json:"pricing"`
	Settings Settings  `json:"settings"`
	Step     Step      `json:"step"`
}

type Basics struct {
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Level        string `json:"level"`
	Language     string `json:"language"`
	ThumbnailURL string `json:"thumbnail"`
}

type Pricing struct {
	Price            float64  `json:"price"`
	Currency         string   `json:"currency"`
	PromotionalPrice *float64 `json:"promotional_price,omitempty"`
	FreePreview      bool     `json:"free_preview"`
}

type Settings struct {
	EnrollmentLimit    int  `json:"enrollment_limit"`
	CertificateEnabled bool `json:"certificate_enabled"`
}

// Section, Lesson and ContentItem carry a client-side Key so edits can
// address them before any database id exists.
type Section struct {
	Key         string   `json:"key"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Lessons     []Lesson `json:"lessons"`
}

type Lesson struct {
	Key               string        `json:"key"`
	Title             string        `json:"title"`
	Description       string        `json:"description"`
	IsPublished       bool          `json:"is_published"`
	EstimatedDuration int           `json:"estimated_duration"`
	ContentItems      []ContentItem `json:"content_items"`
}

type ContentItem struct {
	Key   string          `json:"key"`
	Type  string          `json:"type"`
	Title string          `json:"title"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func New() Draft {
	return Draft{
		Pricing: Pricing{Currency: "USD"},
		Step:    StepBasics,
	}
}

func newKey(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func (d Draft) UpdateBasics(b Basics) Draft {
	d.Basics = b
	return d
}

func (d Draft) UpdatePricing(p Pricing) Draft {
	d.Pricing = p
	return d
}

func (d Draft) UpdateSettings(s Settings) Draft {
	d.Settings = s
	return d
}

// AddSection appends an empty section and returns its key.
func (d Draft) AddSection() (Draft, string) {
	s := Section{Key: newKey("section")}
	sections := make([]Section, 0, len(d.Sections)+1)
	sections = append(sections, d.Sections...)
	d.Sections = append(sections, s)
	return d, s.Key
}

func (d Draft) UpdateSection(key, title, description string) (Draft, error) {
	i := d.sectionIndex(key)
	if i < 0 {
		return d, fmt.Errorf("%w: section %q", ErrUnknownKey, key)
	}
	sections := cloneSections(d.Sections)
	sections[i].Title = title
	sections[i].Description = description
	d.Sections = sections
	return d, nil
}

func (d Draft) DeleteSection(key string) (Draft, error) {
	i := d.sectionIndex(key)
	if i < 0 {
		return d, fmt.Errorf("%w: section %q", ErrUnknownKey, key)
	}
	sections := make([]Section, 0, len(d.Sections)-1)
	sections = append(sections, d.Sections[:i]...)
	d.Sections = append(sections, d.Sections[i+1:]...)
	return d, nil
}

// AddLesson appends an empty lesson to a section and returns its key.
func (d Draft) AddLesson(sectionKey string) (Draft, string, error) {
	i := d.sectionIndex(sectionKey)
	if i < 0 {
		return d, "", fmt.Errorf("%w: section %q", ErrUnknownKey, sectionKey)
	}
	l := Lesson{Key: newKey("lesson")}
	sections := cloneSections(d.Sections)
	lessons := make([]Lesson, 0, len(sections[i].Lessons)+1)
	lessons = append(lessons, sections[i].Lessons...)
	sections[i].Lessons = append(lessons, l)
	d.Sections = sections
	return d, l.Key, nil
}

// LessonPatch is the editable part of a lesson.
type LessonPatch struct {
	Title             string `json:"title"`
	Description       string `json:"description"`
	IsPublished       bool   `json:"is_published"`
	EstimatedDuration int    `json:"estimated_duration"`
}

func (d Draft) UpdateLesson(sectionKey, lessonKey string, p LessonPatch) (Draft, error) {
	si, li := d.lessonIndex(sectionKey, lessonKey)
	if si < 0 || li < 0 {
		return d, fmt.Errorf("%w: lesson %q in section %q", ErrUnknownKey, lessonKey, sectionKey)
	}
	if p.EstimatedDuration < 0 {
		p.EstimatedDuration = 0
	}
	sections := cloneSections(d.Sections)
	lessons := cloneLessons(sections[si].Lessons)
	lessons[li].Title = p.Title
	lessons[li].Description = p.Description
	lessons[li].IsPublished = p.IsPublished
	lessons[li].EstimatedDuration = p.EstimatedDuration
	sections[si].Lessons = lessons
	d.Sections = sections
	return d, nil
}

func (d Draft) DeleteLesson(sectionKey, lessonKey string) (Draft, error) {
	si, li := d.lessonIndex(sectionKey, lessonKey)
	if si < 0 || li < 0 {
		return d, fmt.Errorf("%w: lesson %q in section %q", ErrUnknownKey, lessonKey, sectionKey)
	}
	sections := cloneSections(d.Sections)
	old := sections[si].Lessons
	lessons := make([]Lesson, 0, len(old)-1)
	lessons = append(lessons, old[:li]...)
	sections[si].Lessons = append(lessons, old[li+1:]...)
	d.Sections = sections
	return d, nil
}

// AddContent appends a content item to a lesson and returns its key. The
// data payload is opaque here; its shape depends on the content type.
func (d Draft) AddContent(sectionKey, lessonKey, contentType, title string, data json.RawMessage) (Draft, string, error) {
	si, li := d.lessonIndex(sectionKey, lessonKey)
	if si < 0 || li < 0 {
		return d, "", fmt.Errorf("%w: lesson %q in section %q", ErrUnknownKey, lessonKey, sectionKey)
	}
	item := ContentItem{Key: newKey("content"), Type: contentType, Title: title, Data: data}
	sections := cloneSections(d.Sections)
	lessons := cloneLessons(sections[si].Lessons)
	items := make([]ContentItem, 0, len(lessons[li].ContentItems)+1)
	items = append(items, lessons[li].ContentItems...)
	lessons[li].ContentItems = append(items, item)
	sections[si].Lessons = lessons
	d.Sections = sections
	return d, item.Key, nil
}

func (d Draft) DeleteContent(sectionKey, lessonKey, contentKey string) (Draft, error) {
	si, li := d.lessonIndex(sectionKey, lessonKey)
	if si < 0 || li < 0 {
		return d, fmt.Errorf("%w: lesson %q in section %q", ErrUnknownKey, lessonKey, sectionKey)
	}
	old := d.Sections[si].Lessons[li].ContentItems
	ci := -1
	for i, c := range old {
		if c.Key == contentKey {
			ci = i
			break
		}
	}
	if ci < 0 {
		return d, fmt.Errorf("%w: content %q", ErrUnknownKey, contentKey)
	}
	sections := cloneSections(d.Sections)
	lessons := cloneLessons(sections[si].Lessons)
	items := make([]ContentItem, 0, len(old)-1)
	items = append(items, old[:ci]...)
	lessons[li].ContentItems = append(items, old[ci+1:]...)
	sections[si].Lessons = lessons
	d.Sections = sections
	return d, nil
}

func (d Draft) TotalLessons() int {
	n := 0
	for _, s := range d.Sections {
		n += len(s.Lessons)
	}
	return n
}

// TotalDuration is the sum of estimated lesson durations in minutes.
func (d Draft) TotalDuration() int {
	n := 0
	for _, s := range d.Sections {
		for _, l := range s.Lessons {
			if l.EstimatedDuration > 0 {
				n += l.EstimatedDuration
			}
		}
	}
	return n
}

func (d Draft) sectionIndex(key string) int {
	for i, s := range d.Sections {
		if s.Key == key {
			return i
		}
	}
	return -1
}

func (d Draft) lessonIndex(sectionKey, lessonKey string) (int, int) {
	si := d.sectionIndex(sectionKey)
	if si < 0 {
		return -1, -1
	}
	for li, l := range d.Sections[si].Lessons {
		if l.Key == lessonKey {
			return si, li
		}
	}
	return si, -1
}

func cloneSections(in []Section) []Section {
	out := make([]Section, len(in))
	copy(out, in)
	return out
}

func cloneLessons(in []Lesson) []Lesson {
	out := make([]Lesson, len(in))
	copy(out, in)
	return out
}

package draft

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownOp = errors.New("draft: unknown operation")

const (
	OpUpdateBasics   = "update_basics"
	OpUpdatePricing  = "update_pricing"
	OpUpdateSettings = "update_settings"
	OpAddSection     = "add_section"
	OpUpdateSection  = "update_section"
	OpDeleteSection  = "delete_section"
	OpAddLesson      = "add_lesson"
	OpUpdateLesson   = "update_lesson"
	OpDeleteLesson   = "delete_lesson"
	OpAddContent     = "add_content"
	OpDeleteContent  = "delete_content"
	OpNextStep       = "next_step"
	OpPrevStep       = "prev_step"
	OpGoToStep       = "go_to_step"
)

// Op is one wizard edit as sent by the autosave endpoint.
type Op struct {
	Type        string          `json:"op" binding:"required"`
	SectionKey  string          `json:"section_key,omitempty"`
	LessonKey   string          `json:"lesson_key,omitempty"`
	ContentKey  string          `json:"content_key,omitempty"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	ContentType string          `json:"content_type,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
	Basics      *Basics         `json:"basics,omitempty"`
	Pricing     *Pricing        `json:"pricing,omitempty"`
	Settings    *Settings       `json:"settings,omitempty"`
	Lesson      *LessonPatch    `json:"lesson,omitempty"`
	Step        Step            `json:"step,omitempty"`
}

// Apply runs op against d. The returned key is set for add operations.
func (d Draft) Apply(op Op) (Draft, string, error) {
	switch op.Type {
	case OpUpdateBasics:
		if op.Basics == nil {
			return d, "", missing(op, "basics")
		}
		return d.UpdateBasics(*op.Basics), "", nil
	case OpUpdatePricing:
		if op.Pricing == nil {
			return d, "", missing(op, "pricing")
		}
		return d.UpdatePricing(*op.Pricing), "", nil
	case OpUpdateSettings:
		if op.Settings == nil {
			return d, "", missing(op, "settings")
		}
		return d.UpdateSettings(*op.Settings), "", nil
	case OpAddSection:
		nd, key := d.AddSection()
		if op.Title != "" || op.Description != "" {
			nd, _ = nd.UpdateSection(key, op.Title, op.Description)
		}
		return nd, key, nil
	case OpUpdateSection:
		nd, err := d.UpdateSection(op.SectionKey, op.Title, op.Description)
		return nd, "", err
	case OpDeleteSection:
		nd, err := d.DeleteSection(op.SectionKey)
		return nd, "", err
	case OpAddLesson:
		nd, key, err := d.AddLesson(op.SectionKey)
		if err != nil {
			return d, "", err
		}
		if op.Lesson != nil {
			nd, err = nd.UpdateLesson(op.SectionKey, key, *op.Lesson)
		}
		return nd, key, err
	case OpUpdateLesson:
		if op.Lesson == nil {
			return d, "", missing(op, "lesson")
		}
		nd, err := d.UpdateLesson(op.SectionKey, op.LessonKey, *op.Lesson)
		return nd, "", err
	case OpDeleteLesson:
		nd, err := d.DeleteLesson(op.SectionKey, op.LessonKey)
		return nd, "", err
	case OpAddContent:
		if op.ContentType == "" {
			return d, "", missing(op, "content_type")
		}
		return d.AddContent(op.SectionKey, op.LessonKey, op.ContentType, op.Title, op.Data)
	case OpDeleteContent:
		nd, err := d.DeleteContent(op.SectionKey, op.LessonKey, op.ContentKey)
		return nd, "", err
	case OpNextStep:
		return d.Next(), "", nil
	case OpPrevStep:
		return d.Prev(), "", nil
	case OpGoToStep:
		if !op.Step.Valid() {
			return d, "", fmt.Errorf("draft: step %d out of range", op.Step)
		}
		return d.GoTo(op.Step), "", nil
	default:
		return d, "", fmt.Errorf("%w: %q", ErrUnknownOp, op.Type)
	}
}

func missing(op Op, field string) error {
	return fmt.Errorf("draft: %s requires %s", op.Type, field)
}

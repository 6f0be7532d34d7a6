package publish

import "course_market_backend/draft"

// Validate reports the first problem in d, checking title, category, level,
// language and then the section count.
func Validate(d draft.Draft) error {
	b := d.Basics
	switch {
	case b.Title == "":
		return &ValidationError{Field: "title", Step: draft.StepBasics, Message: "Please enter a course title"}
	case b.Category == "":
		return &ValidationError{Field: "category", Step: draft.StepBasics, Message: "Please select a category"}
	case b.Level == "":
		return &ValidationError{Field: "level", Step: draft.StepBasics, Message: "Please select a difficulty level"}
	case b.Language == "":
		return &ValidationError{Field: "language", Step: draft.StepBasics, Message: "Please select a language"}
	case len(d.Sections) == 0:
		return &ValidationError{Field: "sections", Step: draft.StepStructure, Message: "Please add at least one section to your course"}
	case Slugify(b.Title) == "":
		return &ValidationError{Field: "title", Step: draft.StepBasics, Message: "Course title must contain at least one letter or digit"}
	}
	return nil
}

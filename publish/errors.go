package publish

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"course_market_backend/db"
	"course_market_backend/draft"
)

// ValidationError names the first missing field and the wizard step that
// holds it. No write has happened when it is returned.
type ValidationError struct {
	Field   string
	Step    draft.Step
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Stage is where in the publish sequence a write failed.
type Stage string

const (
	StageThumbnail Stage = "thumbnail"
	StageCourse    Stage = "course"
	StageSection   Stage = "section"
	StageLesson    Stage = "lesson"
	StageContent   Stage = "content"
)

// RemoteWriteError is any failed insert or upload. Rows written before the
// failure are left in place.
type RemoteWriteError struct {
	Stage Stage
	// Path holds the array positions leading to the failed row, e.g.
	// [section, lesson] for a lesson insert.
	Path []int
	Err  error
}

func (e *RemoteWriteError) Error() string {
	return e.Err.Error()
}

func (e *RemoteWriteError) Unwrap() error {
	return e.Err
}

// RemotePermissionError is a write rejected by the teacher-role policy.
type RemotePermissionError struct {
	Stage Stage
	Err   error
}

func (e *RemotePermissionError) Error() string {
	return e.Err.Error()
}

func (e *RemotePermissionError) Unwrap() error {
	return e.Err
}

const PermissionHint = "You don't have permission to create courses. Please ensure you have the teacher role assigned."

func writeError(stage Stage, path []int, err error) error {
	if isPermissionDenied(err) {
		return &RemotePermissionError{Stage: stage, Err: err}
	}
	return &RemoteWriteError{Stage: stage, Path: path, Err: err}
}

func isPermissionDenied(err error) bool {
	if errors.Is(err, db.ErrPermissionDenied) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "42501" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "row-level security") || strings.Contains(msg, "permission denied")
}

func stageLabel(stage Stage, path []int) string {
	if len(path) == 0 {
		return string(stage)
	}
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = fmt.Sprint(p)
	}
	return string(stage) + "[" + strings.Join(parts, ".") + "]"
}

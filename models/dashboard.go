package models

import (
	"math"
	"strconv"
)

// CourseStats are the raw sums over a teacher's courses.
type CourseStats struct {
	Courses       int
	Published     int
	TotalLessons  int
	TotalDuration int
}

type TeacherOverview struct {
	Courses              int     `json:"courses"`
	Published            int     `json:"published"`
	Drafts               int     `json:"drafts"`
	PublishedPercent     float64 `json:"published_percent"`
	TotalLessons         int     `json:"total_lessons"`
	TotalDuration        int     `json:"total_duration"`
	AvgLessonsPerCourse  float64 `json:"avg_lessons_per_course"`
	TotalDurationDisplay string  `json:"total_duration_display"`
}

func NewTeacherOverview(s CourseStats) TeacherOverview {
	o := TeacherOverview{
		Courses:              s.Courses,
		Published:            s.Published,
		Drafts:               s.Courses - s.Published,
		TotalLessons:         s.TotalLessons,
		TotalDuration:        s.TotalDuration,
		TotalDurationDisplay: FormatDuration(s.TotalDuration),
	}
	if s.Courses > 0 {
		o.PublishedPercent = round1(float64(s.Published) * 100 / float64(s.Courses))
		o.AvgLessonsPerCourse = round1(float64(s.TotalLessons) / float64(s.Courses))
	}
	return o
}

// FormatDuration renders minutes as "1h 5m" or "45m".
func FormatDuration(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if h > 0 {
		return strconv.Itoa(h) + "h " + strconv.Itoa(m) + "m"
	}
	return strconv.Itoa(m) + "m"
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

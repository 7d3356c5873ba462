package models

import (
	"errors"
	"strings"
)

type Course struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	ImageURL        string   `json:"imageUrl,omitempty"`
	URL             string   `json:"url"`
	Platform        string   `json:"platform"`
	Tutor           string   `json:"tutor,omitempty"`
	Duration        string   `json:"duration,omitempty"`
	DifficultyLevel string   `json:"difficultyLevel,omitempty"`
	Tags            []string `json:"tags,omitempty"`
}

// NewCourse is the admin "add course" form.
type NewCourse struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required"`
	ImageURL    string `json:"imageUrl,omitempty" validate:"omitempty,url"`
	URL         string `json:"url" validate:"required,url"`
	Platform    string `json:"platform" validate:"required"`
	Tutor       string `json:"tutor,omitempty"`
}

type Difficulty string

const (
	DifficultyBeginner     Difficulty = "BEGINNER"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
)

type Duration string

const (
	DurationOneToFourWeeks   Duration = "ONE_TO_FOUR_WEEKS"
	DurationFourToEightWeeks Duration = "FOUR_TO_EIGHT_WEEKS"
	DurationEightPlusWeeks   Duration = "EIGHT_PLUS_WEEKS"
)

var (
	ErrUnknownDifficulty = errors.New("unknown difficulty")
	ErrUnknownDuration   = errors.New("unknown duration")
	ErrUnknownPlatform   = errors.New("unknown platform")
)

func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToUpper(strings.TrimSpace(s))); d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return d, nil
	}
	return "", ErrUnknownDifficulty
}

// ParseDuration accepts both the wire enum and the quiz length buckets
// short, medium and long.
func ParseDuration(s string) (Duration, error) {
	v := strings.TrimSpace(s)
	switch strings.ToLower(v) {
	case "short":
		return DurationOneToFourWeeks, nil
	case "medium":
		return DurationFourToEightWeeks, nil
	case "long":
		return DurationEightPlusWeeks, nil
	}
	switch d := Duration(strings.ToUpper(v)); d {
	case DurationOneToFourWeeks, DurationFourToEightWeeks, DurationEightPlusWeeks:
		return d, nil
	}
	return "", ErrUnknownDuration
}

// Platforms in canonical order.
var Platforms = []string{"Coursera", "Udemy", "edX", "Infosys Springboard"}

// ParsePlatform matches case-insensitively and returns the canonical spelling.
// "Infosys" is accepted for Infosys Springboard.
func ParsePlatform(s string) (string, error) {
	v := strings.TrimSpace(s)
	if strings.EqualFold(v, "Infosys") {
		return "Infosys Springboard", nil
	}
	for _, p := range Platforms {
		if strings.EqualFold(p, v) {
			return p, nil
		}
	}
	return "", ErrUnknownPlatform
}

// RecommendationPayload is the body of POST /courses/filter.
type RecommendationPayload struct {
	Tags       []string   `json:"tags"`
	Platforms  []string   `json:"platforms"`
	Difficulty Difficulty `json:"difficulty"`
	Duration   Duration   `json:"duration"`
	Goal       string     `json:"goal"`
}

type SavedCourse struct {
	ID       string `json:"id,omitempty"`
	CourseID string `json:"courseId"`
	UserID   string `json:"userId,omitempty"`
	Title    string `json:"title,omitempty"`
}

// SavedSet mirrors the backend's saved courses for membership checks.
type SavedSet map[string]struct{}

func NewSavedSet(saved []SavedCourse) SavedSet {
	s := make(SavedSet, len(saved))
	for _, c := range saved {
		s[c.CourseID] = struct{}{}
	}
	return s
}

func (s SavedSet) Has(courseID string) bool {
	_, ok := s[courseID]
	return ok
}

func (s SavedSet) Add(courseID string)    { s[courseID] = struct{}{} }
func (s SavedSet) Remove(courseID string) { delete(s, courseID) }

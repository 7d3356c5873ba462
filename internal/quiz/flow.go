package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/courspresso/courspresso-web/internal/models"
	"github.com/courspresso/courspresso-web/internal/utils"
)

const (
	FirstLevel = 1
	LastLevel  = 3
)

var (
	ErrIncompleteLevel = errors.New("current level is incomplete")
	ErrFinished        = errors.New("quiz already finished")
)

// Answers accumulate across the three levels.
type Answers struct {
	Interest      []string `json:"interest" validate:"min=1,dive,required"`
	LearningStyle string   `json:"learningStyle" validate:"oneof=project video theory"`
	CourseLength  string   `json:"courseLength" validate:"oneof=short medium long"`
	Platforms     []string `json:"platforms" validate:"min=1,dive,required"`
	Difficulty    string   `json:"difficulty" validate:"oneof=BEGINNER INTERMEDIATE ADVANCED"`
	Goal          string   `json:"goal" validate:"max=500"`
}

var levelFields = map[int][]string{
	1: {"Interest", "LearningStyle"},
	2: {"CourseLength", "Platforms"},
	3: {"Difficulty", "Goal"},
}

// Flow is the quiz state. It is serialised as the browser's quiz draft.
type Flow struct {
	Level   int     `json:"level"`
	Answers Answers `json:"answers"`
	Done    bool    `json:"done"`
}

func New() *Flow {
	return &Flow{Level: FirstLevel}
}

// Load restores a draft; an empty or unreadable draft starts over.
func Load(draft string) *Flow {
	if strings.TrimSpace(draft) == "" {
		return New()
	}
	var f Flow
	if err := json.Unmarshal([]byte(draft), &f); err != nil || f.Level < FirstLevel || f.Level > LastLevel {
		return New()
	}
	return &f
}

func (f *Flow) Marshal() (string, error) {
	b, err := json.Marshal(f)
	return string(b), err
}

// CheckLevel validates the current level's required answers.
func (f *Flow) CheckLevel() error {
	if err := utils.ValidateFields(&f.Answers, levelFields[f.Level]...); err != nil {
		return fmt.Errorf("%w: %v", ErrIncompleteLevel, err)
	}
	return nil
}

// Advance moves to the next level, or finishes on the last one. It never
// changes Level while the current level is incomplete.
func (f *Flow) Advance() error {
	if f.Done {
		return ErrFinished
	}
	if err := f.CheckLevel(); err != nil {
		return err
	}
	if f.Level == LastLevel {
		f.Done = true
		return nil
	}
	f.Level++
	return nil
}

// Back revisits the previous level and keeps every answer.
func (f *Flow) Back() {
	f.Done = false
	if f.Level > FirstLevel {
		f.Level--
	}
}

func (f *Flow) Progress() int {
	return f.Level * 100 / LastLevel
}

// Apply merges submitted form values for the current level. Values are
// normalised here; anything unrecognised is dropped so the level stays
// incomplete.
func (f *Flow) Apply(values map[string][]string) {
	first := func(k string) string {
		if v := values[k]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}
	switch f.Level {
	case 1:
		f.Answers.Interest = knownDomains(values["interest"])
		f.Answers.LearningStyle = strings.ToLower(first("learningStyle"))
	case 2:
		f.Answers.CourseLength = strings.ToLower(first("courseLength"))
		f.Answers.Platforms = knownPlatforms(values["platforms"])
	case 3:
		f.Answers.Difficulty = ""
		if d, err := models.ParseDifficulty(first("difficulty")); err == nil {
			f.Answers.Difficulty = string(d)
		}
		f.Answers.Goal = first("goal")
	}
}

func knownDomains(in []string) []string {
	out := []string{}
	for _, v := range in {
		if d, ok := DomainByName(v); ok {
			out = append(out, d.Name)
		}
	}
	return out
}

func knownPlatforms(in []string) []string {
	out := []string{}
	for _, v := range in {
		if p, err := models.ParsePlatform(v); err == nil {
			out = append(out, p)
		}
	}
	return out
}

// BuildPayload maps finished answers to the filter request. It is pure.
func BuildPayload(a Answers) models.RecommendationPayload {
	p := models.RecommendationPayload{
		Tags:      ExpandTags(a.Interest),
		Platforms: canonicalPlatforms(a.Platforms),
		Goal:      strings.TrimSpace(a.Goal),
	}
	if d, err := models.ParseDifficulty(a.Difficulty); err == nil {
		p.Difficulty = d
	}
	if d, err := models.ParseDuration(a.CourseLength); err == nil {
		p.Duration = d
	}
	return p
}

func canonicalPlatforms(in []string) []string {
	want := map[string]bool{}
	for _, v := range in {
		if p, err := models.ParsePlatform(v); err == nil {
			want[p] = true
		}
	}
	out := []string{}
	for _, p := range models.Platforms {
		if want[p] {
			out = append(out, p)
		}
	}
	return out
}

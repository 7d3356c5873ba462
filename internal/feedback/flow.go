package feedback

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/courspresso/courspresso-web/internal/models"
)

type State string

const (
	StateEmpty      State = "empty"
	StateCollecting State = "collecting"
	StateSubmitted  State = "submitted"
)

var (
	ErrNoCourses      = errors.New("no recommended courses to review")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrRatingRequired = errors.New("rate this course before moving on")
	ErrIncomplete     = errors.New("every course needs a rating before submitting")
	ErrNotLast        = errors.New("submit is only available on the last course")
	ErrClosed         = errors.New("feedback already submitted")
)

const (
	MinRating = 1
	MaxRating = 5
)

// Item is one course's feedback form.
type Item struct {
	CourseID string `json:"courseId"`
	Title    string `json:"title"`
	Rating   int    `json:"rating"`
	Enrolled bool   `json:"enrolled"`
	Comments string `json:"comments"`
}

// Flow walks the recommended courses one at a time. It is serialised as the
// browser's feedback draft.
type Flow struct {
	State State  `json:"state"`
	Index int    `json:"index"`
	Items []Item `json:"items"`
}

// New starts a flow over the recommended list; an empty list is terminal.
func New(courses []models.Course) *Flow {
	if len(courses) == 0 {
		return &Flow{State: StateEmpty, Items: []Item{}}
	}
	items := make([]Item, len(courses))
	for i, c := range courses {
		items[i] = Item{CourseID: c.ID, Title: c.Title}
	}
	return &Flow{State: StateCollecting, Items: items}
}

// Resume restores a draft when it still matches the recommended list,
// otherwise starts over.
func Resume(draft string, courses []models.Course) *Flow {
	fresh := New(courses)
	if fresh.State == StateEmpty || strings.TrimSpace(draft) == "" {
		return fresh
	}
	var f Flow
	if err := json.Unmarshal([]byte(draft), &f); err != nil || f.State != StateCollecting || len(f.Items) != len(fresh.Items) {
		return fresh
	}
	for i := range f.Items {
		if f.Items[i].CourseID != fresh.Items[i].CourseID {
			return fresh
		}
	}
	if f.Index < 0 || f.Index >= len(f.Items) {
		f.Index = 0
	}
	return &f
}

func (f *Flow) Marshal() (string, error) {
	b, err := json.Marshal(f)
	return string(b), err
}

func (f *Flow) current() (*Item, error) {
	switch f.State {
	case StateEmpty:
		return nil, ErrNoCourses
	case StateSubmitted:
		return nil, ErrClosed
	}
	return &f.Items[f.Index], nil
}

func (f *Flow) Current() (Item, bool) {
	it, err := f.current()
	if err != nil {
		return Item{}, false
	}
	return *it, true
}

func (f *Flow) Rate(rating int) error {
	it, err := f.current()
	if err != nil {
		return err
	}
	if rating < MinRating || rating > MaxRating {
		return ErrInvalidRating
	}
	it.Rating = rating
	return nil
}

func (f *Flow) SetEnrolled(v bool) error {
	it, err := f.current()
	if err != nil {
		return err
	}
	it.Enrolled = v
	return nil
}

func (f *Flow) SetComments(s string) error {
	it, err := f.current()
	if err != nil {
		return err
	}
	it.Comments = strings.TrimSpace(s)
	return nil
}

// Next moves to the following course; the current one must be rated.
func (f *Flow) Next() error {
	it, err := f.current()
	if err != nil {
		return err
	}
	if it.Rating == 0 {
		return ErrRatingRequired
	}
	if f.IsLast() {
		return ErrNotLast
	}
	f.Index++
	return nil
}

func (f *Flow) Prev() {
	if f.State == StateCollecting && f.Index > 0 {
		f.Index--
	}
}

func (f *Flow) IsLast() bool { return f.Index == len(f.Items)-1 }

// CanSubmit is true only on the last course with every course rated.
func (f *Flow) CanSubmit() bool {
	if f.State != StateCollecting || !f.IsLast() {
		return false
	}
	for _, it := range f.Items {
		if it.Rating == 0 {
			return false
		}
	}
	return true
}

// Submit builds the batch to post. The flow stays Collecting until
// MarkSubmitted so a failed post can be retried by the user.
func (f *Flow) Submit() (models.FeedbackBatch, error) {
	if _, err := f.current(); err != nil {
		return models.FeedbackBatch{}, err
	}
	if !f.IsLast() {
		return models.FeedbackBatch{}, ErrNotLast
	}
	if !f.CanSubmit() {
		return models.FeedbackBatch{}, ErrIncomplete
	}
	recs := make([]models.FeedbackRecord, len(f.Items))
	for i, it := range f.Items {
		recs[i] = models.FeedbackRecord{
			CourseID: it.CourseID,
			Rating:   it.Rating,
			Enrolled: it.Enrolled,
			Comments: it.Comments,
		}
	}
	return models.FeedbackBatch{CourseFeedbacks: recs}, nil
}

func (f *Flow) MarkSubmitted() { f.State = StateSubmitted }

func (f *Flow) Position() int { return f.Index + 1 }
func (f *Flow) Total() int    { return len(f.Items) }

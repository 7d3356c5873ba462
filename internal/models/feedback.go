package models

type FeedbackRecord struct {
	CourseID string `json:"courseId"`
	Rating   int    `json:"rating"`
	Enrolled bool   `json:"enrolled"`
	Comments string `json:"comments,omitempty"`
}

type FeedbackBatch struct {
	CourseFeedbacks []FeedbackRecord `json:"courseFeedbacks"`
}

// CourseFeedback is feedback as listed by the backend.
type CourseFeedback struct {
	ID        string `json:"id,omitempty"`
	CourseID  string `json:"courseId"`
	UserEmail string `json:"userEmail,omitempty"`
	Rating    int    `json:"rating"`
	Enrolled  bool   `json:"enrolled"`
	Comments  string `json:"comments,omitempty"`
}

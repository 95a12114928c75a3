package models

// Document is an uploaded file attached to a course, or to the uploader
// when CourseID is nil.
type Document struct {
	DocumentID  int64     `json:"documentId"`
	CourseID    *int64    `json:"courseId"`
	UserID      int64     `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Labels      []string  `json:"labels"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// SearchHit is one passage the search index matched.
type SearchHit struct {
	DocumentID int64   `json:"documentId"`
	Text       string  `json:"text"`
	Page       int     `json:"page,omitempty"`
	Score      float64 `json:"score"`
}

package models

// Question is a user question and the answer the LLM service gave.
type Question struct {
	QuestionID int64     `json:"questionId"`
	CourseID   *int64    `json:"courseId"`
	DocumentID *int64    `json:"documentId"`
	UserID     int64     `json:"userId"`
	ModelID    *int64    `json:"modelId"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Feedback   *int      `json:"feedback"`
	CreatedAt  Timestamp `json:"createdAt"`
}

// Notification is an in-app message for one user.
type Notification struct {
	NotificationID int64     `json:"notificationId"`
	UserID         int64     `json:"userId"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Read           bool      `json:"read"`
	CreatedAt      Timestamp `json:"createdAt"`
}

// Model is an LLM offered to users when asking questions.
type Model struct {
	ModelID     int64  `json:"modelId"`
	Name        string `json:"name"`
	Provider    string `json:"provider"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

package models

// Course is a class professors publish documents to.
type Course struct {
	CourseID     int64     `json:"courseId"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Code         string    `json:"code"`
	ProfessorID  int64     `json:"professorId"`
	Professor    string    `json:"professorName,omitempty"`
	StudentCount int       `json:"studentCount"`
	CreatedAt    Timestamp `json:"createdAt"`
}

// Student is an enrolled member of a course.
type Student struct {
	UserID   int64     `json:"userId"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	JoinedAt Timestamp `json:"joinedAt"`
}

// Recommendation is a professor's note pointing students at documents.
type Recommendation struct {
	RecommendationID int64     `json:"recommendationId"`
	CourseID         int64     `json:"courseId"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	DocumentIDs      []int64   `json:"documentIds"`
	CreatedAt        Timestamp `json:"createdAt"`
}

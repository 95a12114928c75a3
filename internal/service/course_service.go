package service

import (
	"context"
	"fmt"
	"strings"

	"insightpaper/internal/apperr"
	"insightpaper/internal/models"
	"insightpaper/internal/validation"
)

// CourseStore is the course persistence the service needs.
type CourseStore interface {
	CourseReader
	GetForUser(ctx context.Context, userID int64) ([]models.Course, error)
	Create(ctx context.Context, professorID int64, name, description string) (*models.Course, error)
	Update(ctx context.Context, userID, courseID int64, name, description string) error
	Delete(ctx context.Context, userID, courseID int64) error
	Join(ctx context.Context, userID int64, code string) (*models.Course, error)
	Leave(ctx context.Context, userID, courseID int64) error
	RemoveStudent(ctx context.Context, actorID, courseID, studentID int64) error
	CreateRecommendation(ctx context.Context, actorID int64, rec models.Recommendation) (*models.Recommendation, error)
}

// RecommendationMailer tells students about recommendations.
type RecommendationMailer interface {
	SendRecommendation(ctx context.Context, to, courseName, title, message string) error
}

// RecommendationResult is a stored recommendation plus delivery outcome.
type RecommendationResult struct {
	Recommendation *models.Recommendation `json:"recommendation"`
	DeliveryReport
}

// CourseService handles courses and enrolment
type CourseService struct {
	courses     CourseStore
	mailer      RecommendationMailer
	concurrency int
}

func NewCourseService(courses CourseStore, mailer RecommendationMailer, concurrency int) *CourseService {
	return &CourseService{courses: courses, mailer: mailer, concurrency: concurrency}
}

func (s *CourseService) List(ctx context.Context, userID int64) ([]models.Course, error) {
	return s.courses.GetForUser(ctx, userID)
}

// Get returns not_found for missing or invisible courses.
func (s *CourseService) Get(ctx context.Context, userID, courseID int64) (*models.Course, error) {
	course, err := s.courses.GetByID(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	if course == nil {
		return nil, apperr.NotFound("course_not_found")
	}
	return course, nil
}

func (s *CourseService) Create(ctx context.Context, professorID int64, name, description string) (*models.Course, error) {
	name = strings.TrimSpace(name)
	if err := validation.Required("name", name); err != nil {
		return nil, err
	}
	course, err := s.courses.Create(ctx, professorID, name, strings.TrimSpace(description))
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	return course, nil
}

func (s *CourseService) Update(ctx context.Context, userID, courseID int64, name, description string) error {
	name = strings.TrimSpace(name)
	if err := validation.Required("name", name); err != nil {
		return err
	}
	return s.courses.Update(ctx, userID, courseID, name, strings.TrimSpace(description))
}

func (s *CourseService) Delete(ctx context.Context, userID, courseID int64) error {
	return s.courses.Delete(ctx, userID, courseID)
}

// Join enrols the caller using a course code.
func (s *CourseService) Join(ctx context.Context, userID int64, code string) (*models.Course, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := validation.Required("code", code); err != nil {
		return nil, err
	}
	course, err := s.courses.Join(ctx, userID, code)
	if err != nil {
		return nil, fmt.Errorf("failed to join course: %w", err)
	}
	return course, nil
}

func (s *CourseService) Leave(ctx context.Context, userID, courseID int64) error {
	return s.courses.Leave(ctx, userID, courseID)
}

func (s *CourseService) Students(ctx context.Context, courseID int64) ([]models.Student, error) {
	return s.courses.GetStudents(ctx, courseID)
}

func (s *CourseService) RemoveStudent(ctx context.Context, actorID, courseID, studentID int64) error {
	return s.courses.RemoveStudent(ctx, actorID, courseID, studentID)
}

// Recommend stores a recommendation and emails every enrolled student.
func (s *CourseService) Recommend(ctx context.Context, actorID int64, rec models.Recommendation) (*RecommendationResult, error) {
	rec.Title = strings.TrimSpace(rec.Title)
	if err := validation.Required("title", rec.Title); err != nil {
		return nil, err
	}
	course, err := s.Get(ctx, actorID, rec.CourseID)
	if err != nil {
		return nil, err
	}
	created, err := s.courses.CreateRecommendation(ctx, actorID, rec)
	if err != nil {
		return nil, fmt.Errorf("failed to create recommendation: %w", err)
	}
	students, err := s.courses.GetStudents(ctx, rec.CourseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get students: %w", err)
	}
	recipients := make([]string, 0, len(students))
	for _, st := range students {
		recipients = append(recipients, st.Email)
	}
	report := fanOut(ctx, s.concurrency, recipients, func(ctx context.Context, to string) error {
		return s.mailer.SendRecommendation(ctx, to, course.Name, created.Title, created.Message)
	})
	return &RecommendationResult{Recommendation: created, DeliveryReport: report}, nil
}

package repository

import (
	"context"
	"fmt"
	"strconv"

	"insightpaper/internal/database"
	"insightpaper/internal/models"
)

// CourseRepository handles courses, enrolment and recommendations
type CourseRepository struct {
	db database.Caller
}

func NewCourseRepository(db database.Caller) *CourseRepository {
	return &CourseRepository{db: db}
}

// GetForUser lists the courses a user teaches or is enrolled in.
func (r *CourseRepository) GetForUser(ctx context.Context, userID int64) ([]models.Course, error) {
	return callList[models.Course](ctx, r.db, "courses", "spCourses_GetByUser", database.P("userId", userID))
}

// GetByID returns nil when the course does not exist or is not visible to userID.
func (r *CourseRepository) GetByID(ctx context.Context, userID, courseID int64) (*models.Course, error) {
	return callOne[models.Course](ctx, r.db, "course", "spCourses_GetById",
		database.P("userId", userID),
		database.P("courseId", courseID),
	)
}

// Create inserts a course owned by professorID; the backend assigns the join code.
func (r *CourseRepository) Create(ctx context.Context, professorID int64, name, description string) (*models.Course, error) {
	res, err := mutate(ctx, r.db, professorID, "course_create",
		step("spCourses_Create",
			database.P("userId", professorID),
			database.P("name", name),
			database.P("description", description),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	course, err := decodeOne[models.Course](res)
	if err != nil {
		return nil, fmt.Errorf("failed to decode course: %w", err)
	}
	return course, nil
}

func (r *CourseRepository) Update(ctx context.Context, userID, courseID int64, name, description string) error {
	_, err := mutate(ctx, r.db, userID, "course_update",
		step("spCourses_Update",
			database.P("userId", userID),
			database.P("courseId", courseID),
			database.P("name", name),
			database.P("description", description),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}
	return nil
}

func (r *CourseRepository) Delete(ctx context.Context, userID, courseID int64) error {
	_, err := mutate(ctx, r.db, userID, "course_delete",
		step("spCourses_Delete", database.P("userId", userID), database.P("courseId", courseID)),
	)
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}
	return nil
}

// Join enrols userID in the course with the given code.
func (r *CourseRepository) Join(ctx context.Context, userID int64, code string) (*models.Course, error) {
	res, err := mutate(ctx, r.db, userID, "course_join",
		step("spCourses_Join", database.P("userId", userID), database.P("code", code)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to join course: %w", err)
	}
	course, err := decodeOne[models.Course](res)
	if err != nil {
		return nil, fmt.Errorf("failed to decode course: %w", err)
	}
	return course, nil
}

func (r *CourseRepository) Leave(ctx context.Context, userID, courseID int64) error {
	_, err := mutate(ctx, r.db, userID, "course_leave",
		step("spCourses_RemoveStudent", database.P("courseId", courseID), database.P("studentId", userID)),
	)
	if err != nil {
		return fmt.Errorf("failed to leave course: %w", err)
	}
	return nil
}

// GetStudents lists the students enrolled in a course.
func (r *CourseRepository) GetStudents(ctx context.Context, courseID int64) ([]models.Student, error) {
	return callList[models.Student](ctx, r.db, "students", "spCourses_GetStudents", database.P("courseId", courseID))
}

// RemoveStudent is the professor-side counterpart of Leave.
func (r *CourseRepository) RemoveStudent(ctx context.Context, actorID, courseID, studentID int64) error {
	_, err := mutate(ctx, r.db, actorID, "course_student_remove",
		step("spCourses_RemoveStudent", database.P("courseId", courseID), database.P("studentId", studentID)),
	)
	if err != nil {
		return fmt.Errorf("failed to remove student: %w", err)
	}
	return nil
}

// CreateRecommendation stores a recommendation and a notification for every
// enrolled student.
func (r *CourseRepository) CreateRecommendation(ctx context.Context, actorID int64, rec models.Recommendation) (*models.Recommendation, error) {
	ids := make(database.StringList, 0, len(rec.DocumentIDs))
	for _, id := range rec.DocumentIDs {
		ids = append(ids, strconv.FormatInt(id, 10))
	}
	res, err := mutate(ctx, r.db, actorID, "recommendation_create",
		step("spRecommendations_Create",
			database.P("userId", actorID),
			database.P("courseId", rec.CourseID),
			database.P("title", rec.Title),
			database.P("message", rec.Message),
			database.P("documentIds", ids),
		),
		step("spNotifications_CreateForCourse",
			database.P("courseId", rec.CourseID),
			database.P("title", rec.Title),
			database.P("message", rec.Message),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create recommendation: %w", err)
	}
	created, err := decodeOne[models.Recommendation](res)
	if err != nil {
		return nil, fmt.Errorf("failed to decode recommendation: %w", err)
	}
	if created == nil {
		return &rec, nil
	}
	return created, nil
}

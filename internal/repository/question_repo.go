package repository

import (
	"context"
	"fmt"

	"insightpaper/internal/database"
	"insightpaper/internal/models"
)

// QuestionRepository handles questions and their answers
type QuestionRepository struct {
	db database.Caller
}

func NewQuestionRepository(db database.Caller) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) GetForUser(ctx context.Context, userID int64, courseID *int64) ([]models.Question, error) {
	return callList[models.Question](ctx, r.db, "questions", "spQuestions_GetByUser",
		database.P("userId", userID),
		database.P("courseId", nullable(courseID)),
	)
}

// GetForCourse lists every question asked in a course, for professors.
func (r *QuestionRepository) GetForCourse(ctx context.Context, courseID int64) ([]models.Question, error) {
	return callList[models.Question](ctx, r.db, "questions", "spQuestions_GetByCourse", database.P("courseId", courseID))
}

// Create stores an answered question.
func (r *QuestionRepository) Create(ctx context.Context, q models.Question) (*models.Question, error) {
	res, err := mutate(ctx, r.db, q.UserID, "question_create",
		step("spQuestions_Create",
			database.P("userId", q.UserID),
			database.P("courseId", nullable(q.CourseID)),
			database.P("documentId", nullable(q.DocumentID)),
			database.P("modelId", nullable(q.ModelID)),
			database.P("question", q.Question),
			database.P("answer", q.Answer),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	created, err := decodeOne[models.Question](res)
	if err != nil {
		return nil, fmt.Errorf("failed to decode question: %w", err)
	}
	if created == nil {
		return &q, nil
	}
	return created, nil
}

// UpdateFeedback records the user's rating of an answer.
func (r *QuestionRepository) UpdateFeedback(ctx context.Context, userID, questionID int64, feedback int) error {
	_, err := mutate(ctx, r.db, userID, "question_feedback",
		step("spQuestions_UpdateFeedback",
			database.P("userId", userID),
			database.P("questionId", questionID),
			database.P("feedback", feedback),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to update feedback: %w", err)
	}
	return nil
}

func (r *QuestionRepository) Delete(ctx context.Context, userID, questionID int64) error {
	_, err := mutate(ctx, r.db, userID, "question_delete",
		step("spQuestions_Delete", database.P("userId", userID), database.P("questionId", questionID)),
	)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	return nil
}

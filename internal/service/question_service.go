package service

import (
	"context"
	"fmt"
	"strings"

	"insightpaper/internal/apperr"
	"insightpaper/internal/models"
	"insightpaper/internal/validation"
)

// QuestionStore is the question persistence the service needs.
type QuestionStore interface {
	GetForUser(ctx context.Context, userID int64, courseID *int64) ([]models.Question, error)
	GetForCourse(ctx context.Context, courseID int64) ([]models.Question, error)
	Create(ctx context.Context, q models.Question) (*models.Question, error)
	UpdateFeedback(ctx context.Context, userID, questionID int64, feedback int) error
	Delete(ctx context.Context, userID, questionID int64) error
}

// Answerer is the question side of the LLM service.
type Answerer interface {
	Ask(ctx context.Context, question, model string) (string, error)
	AskWithContext(ctx context.Context, question string, documentID int64, model string) (string, error)
}

// ModelLookup resolves a model id to the name the LLM service expects.
type ModelLookup interface {
	GetByID(ctx context.Context, modelID int64) (*models.Model, error)
}

// QuestionService answers questions and keeps their history
type QuestionService struct {
	questions QuestionStore
	answerer  Answerer
	models    ModelLookup
}

func NewQuestionService(questions QuestionStore, answerer Answerer, models ModelLookup) *QuestionService {
	return &QuestionService{questions: questions, answerer: answerer, models: models}
}

func (s *QuestionService) List(ctx context.Context, userID int64, courseID *int64) ([]models.Question, error) {
	return s.questions.GetForUser(ctx, userID, courseID)
}

func (s *QuestionService) ListForCourse(ctx context.Context, courseID int64) ([]models.Question, error) {
	return s.questions.GetForCourse(ctx, courseID)
}

// Ask sends the question to the LLM service, with a document as context when
// one is given, and stores the answer.
func (s *QuestionService) Ask(ctx context.Context, userID int64, q models.Question) (*models.Question, error) {
	q.Question = strings.TrimSpace(q.Question)
	if err := validation.Required("question", q.Question); err != nil {
		return nil, err
	}
	q.UserID = userID

	modelName := ""
	if q.ModelID != nil {
		m, err := s.models.GetByID(ctx, *q.ModelID)
		if err != nil {
			return nil, fmt.Errorf("failed to get model: %w", err)
		}
		if m == nil || !m.Enabled {
			return nil, apperr.Validation("model_invalid")
		}
		modelName = m.Name
	}

	var answer string
	var err error
	if q.DocumentID != nil {
		answer, err = s.answerer.AskWithContext(ctx, q.Question, *q.DocumentID, modelName)
	} else {
		answer, err = s.answerer.Ask(ctx, q.Question, modelName)
	}
	if err != nil {
		return nil, apperr.Internal(err)
	}
	q.Answer = answer

	created, err := s.questions.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to store question: %w", err)
	}
	return created, nil
}

// Feedback rates an answer from 1 to 5.
func (s *QuestionService) Feedback(ctx context.Context, userID, questionID int64, feedback int) error {
	if feedback < 1 || feedback > 5 {
		return apperr.Validation("feedback_invalid")
	}
	return s.questions.UpdateFeedback(ctx, userID, questionID, feedback)
}

func (s *QuestionService) Delete(ctx context.Context, userID, questionID int64) error {
	return s.questions.Delete(ctx, userID, questionID)
}

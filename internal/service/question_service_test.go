package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"insightpaper/internal/apperr"
	"insightpaper/internal/models"
)

type memQuestions struct {
	created  []models.Question
	feedback map[int64]int
}

func (m *memQuestions) GetForUser(context.Context, int64, *int64) ([]models.Question, error) {
	return m.created, nil
}

func (m *memQuestions) GetForCourse(context.Context, int64) ([]models.Question, error) {
	return m.created, nil
}

func (m *memQuestions) Create(_ context.Context, q models.Question) (*models.Question, error) {
	q.QuestionID = int64(len(m.created) + 1)
	m.created = append(m.created, q)
	return &q, nil
}

func (m *memQuestions) UpdateFeedback(_ context.Context, _, questionID int64, feedback int) error {
	m.feedback[questionID] = feedback
	return nil
}

func (m *memQuestions) Delete(context.Context, int64, int64) error { return nil }

type fakeAnswerer struct {
	withContext bool
	documentID  int64
	model       string
	err         error
}

func (f *fakeAnswerer) Ask(_ context.Context, question, model string) (string, error) {
	f.withContext, f.model = false, model
	return "general: " + question, f.err
}

func (f *fakeAnswerer) AskWithContext(_ context.Context, question string, documentID int64, model string) (string, error) {
	f.withContext, f.documentID, f.model = true, documentID, model
	return "from document: " + question, f.err
}

type fakeModels map[int64]models.Model

func (f fakeModels) GetByID(_ context.Context, modelID int64) (*models.Model, error) {
	m, ok := f[modelID]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func newQuestionFixture() (*QuestionService, *memQuestions, *fakeAnswerer) {
	questions := &memQuestions{feedback: map[int64]int{}}
	answerer := &fakeAnswerer{}
	catalog := fakeModels{
		1: {ModelID: 1, Name: "llama3", Enabled: true},
		2: {ModelID: 2, Name: "retired", Enabled: false},
	}
	return NewQuestionService(questions, answerer, catalog), questions, answerer
}

func TestAskWithDocument(t *testing.T) {
	svc, questions, answerer := newQuestionFixture()
	docID, modelID := int64(9), int64(1)

	q, err := svc.Ask(context.Background(), 4, models.Question{
		Question:   " What is 3NF? ",
		DocumentID: &docID,
		ModelID:    &modelID,
	})
	require.NoError(t, err)
	assert.True(t, answerer.withContext)
	assert.Equal(t, int64(9), answerer.documentID)
	assert.Equal(t, "llama3", answerer.model)
	assert.Equal(t, "from document: What is 3NF?", q.Answer)
	assert.Equal(t, int64(4), q.UserID)
	assert.Len(t, questions.created, 1)
}

func TestAskWithoutDocument(t *testing.T) {
	svc, _, answerer := newQuestionFixture()

	q, err := svc.Ask(context.Background(), 4, models.Question{Question: "What is SQL?"})
	require.NoError(t, err)
	assert.False(t, answerer.withContext)
	assert.Empty(t, answerer.model)
	assert.Equal(t, "general: What is SQL?", q.Answer)
}

func TestAskFailures(t *testing.T) {
	svc, questions, answerer := newQuestionFixture()
	ctx := context.Background()

	_, err := svc.Ask(ctx, 4, models.Question{Question: " "})
	assert.Equal(t, "question_required", apperr.Cause(err))

	retired := int64(2)
	_, err = svc.Ask(ctx, 4, models.Question{Question: "q", ModelID: &retired})
	assert.Equal(t, "model_invalid", apperr.Cause(err))

	answerer.err = errors.New("timeout")
	_, err = svc.Ask(ctx, 4, models.Question{Question: "q"})
	assert.Equal(t, 500, apperr.Status(err))
	assert.Empty(t, questions.created, "failed answers are not stored")
}

func TestFeedbackRange(t *testing.T) {
	svc, questions, _ := newQuestionFixture()

	assert.Equal(t, "feedback_invalid", apperr.Cause(svc.Feedback(context.Background(), 4, 1, 0)))
	assert.Equal(t, "feedback_invalid", apperr.Cause(svc.Feedback(context.Background(), 4, 1, 6)))
	require.NoError(t, svc.Feedback(context.Background(), 4, 1, 5))
	assert.Equal(t, 5, questions.feedback[1])
}

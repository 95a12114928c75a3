package handlers

import (
	"net/http"

	"insightpaper/internal/apperr"
	"insightpaper/internal/export"
	"insightpaper/internal/models"
	"insightpaper/internal/service"
)

// QuestionHandler handles question HTTP requests
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

func (h *QuestionHandler) List(w http.ResponseWriter, r *http.Request) {
	courseID, err := queryID(r, "courseId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	questions, err := h.questionService.List(r.Context(), p.UserID, courseID)
	if err != nil {
		respondWithError(w, "Error loading questions", err)
		return
	}
	writeResult(w, http.StatusOK, questions)
}

// Ask answers a question and stores it.
func (h *QuestionHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var q models.Question
	if err := decodeJSON(r, &q); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	created, err := h.questionService.Ask(r.Context(), p.UserID, q)
	if err != nil {
		respondWithError(w, "Error answering question", err)
		return
	}
	writeResult(w, http.StatusCreated, created)
}

func (h *QuestionHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	questionID, err := pathID(r, "questionId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	var req struct {
		Feedback int `json:"feedback"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.questionService.Feedback(r.Context(), p.UserID, questionID, req.Feedback); err != nil {
		respondWithError(w, "Error saving feedback", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	questionID, err := pathID(r, "questionId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.questionService.Delete(r.Context(), p.UserID, questionID); err != nil {
		respondWithError(w, "Error deleting question", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

// Export downloads a course's questions as a spreadsheet.
func (h *QuestionHandler) Export(w http.ResponseWriter, r *http.Request) {
	courseID, err := queryID(r, "courseId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	if courseID == nil {
		respondWithError(w, "", apperr.Validation("courseId_required"))
		return
	}
	questions, err := h.questionService.ListForCourse(r.Context(), *courseID)
	if err != nil {
		respondWithError(w, "Error loading questions", err)
		return
	}
	data, err := export.Questions(questions)
	if err != nil {
		respondWithError(w, "Error building questions workbook", err)
		return
	}
	writeWorkbook(w, export.Filename("questions", r.URL.Query().Get("courseId")), data)
}

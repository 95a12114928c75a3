package handlers

import (
	"net/http"

	"insightpaper/internal/export"
	"insightpaper/internal/models"
	"insightpaper/internal/service"
)

// CourseHandler handles course HTTP requests
type CourseHandler struct {
	courseService *service.CourseService
}

// NewCourseHandler creates a new course handler
func NewCourseHandler(courseService *service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

type courseRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	courses, err := h.courseService.List(r.Context(), p.UserID)
	if err != nil {
		respondWithError(w, "Error loading courses", err)
		return
	}
	writeResult(w, http.StatusOK, courses)
}

func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	course, err := h.courseService.Get(r.Context(), p.UserID, courseID)
	if err != nil {
		respondWithError(w, "Error loading course", err)
		return
	}
	writeResult(w, http.StatusOK, course)
}

func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	course, err := h.courseService.Create(r.Context(), p.UserID, req.Name, req.Description)
	if err != nil {
		respondWithError(w, "Error creating course", err)
		return
	}
	writeResult(w, http.StatusCreated, course)
}

func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.courseService.Update(r.Context(), p.UserID, courseID, req.Name, req.Description); err != nil {
		respondWithError(w, "Error updating course", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.courseService.Delete(r.Context(), p.UserID, courseID); err != nil {
		respondWithError(w, "Error deleting course", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

func (h *CourseHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	course, err := h.courseService.Join(r.Context(), p.UserID, req.Code)
	if err != nil {
		respondWithError(w, "Error joining course", err)
		return
	}
	writeResult(w, http.StatusOK, course)
}

func (h *CourseHandler) Leave(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.courseService.Leave(r.Context(), p.UserID, courseID); err != nil {
		respondWithError(w, "Error leaving course", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

func (h *CourseHandler) Students(w http.ResponseWriter, r *http.Request) {
	course, ok := h.loadCourse(w, r)
	if !ok {
		return
	}
	students, err := h.courseService.Students(r.Context(), course.CourseID)
	if err != nil {
		respondWithError(w, "Error loading students", err)
		return
	}
	writeResult(w, http.StatusOK, students)
}

func (h *CourseHandler) RemoveStudent(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	studentID, err := pathID(r, "studentId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.courseService.RemoveStudent(r.Context(), p.UserID, courseID, studentID); err != nil {
		respondWithError(w, "Error removing student", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

// Recommend stores a recommendation and emails the students. The response
// carries the delivery report next to the result.
func (h *CourseHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	var rec models.Recommendation
	if err := decodeJSON(r, &rec); err != nil {
		respondWithError(w, "", err)
		return
	}
	rec.CourseID = courseID
	p := GetPrincipal(r.Context())
	res, err := h.courseService.Recommend(r.Context(), p.UserID, rec)
	if err != nil {
		respondWithError(w, "Error creating recommendation", err)
		return
	}
	writeDelivery(w, http.StatusCreated, map[string]any{"result": res.Recommendation}, res.DeliveryReport)
}

// ExportStudents downloads the course roster as a spreadsheet.
func (h *CourseHandler) ExportStudents(w http.ResponseWriter, r *http.Request) {
	course, ok := h.loadCourse(w, r)
	if !ok {
		return
	}
	students, err := h.courseService.Students(r.Context(), course.CourseID)
	if err != nil {
		respondWithError(w, "Error loading students", err)
		return
	}
	data, err := export.Students(course, students)
	if err != nil {
		respondWithError(w, "Error building students workbook", err)
		return
	}
	writeWorkbook(w, export.Filename("students", course.Name), data)
}

// loadCourse resolves {courseId} through the visibility-checked lookup.
func (h *CourseHandler) loadCourse(w http.ResponseWriter, r *http.Request) (*models.Course, bool) {
	courseID, err := pathID(r, "courseId")
	if err != nil {
		respondWithError(w, "", err)
		return nil, false
	}
	p := GetPrincipal(r.Context())
	course, err := h.courseService.Get(r.Context(), p.UserID, courseID)
	if err != nil {
		respondWithError(w, "Error loading course", err)
		return nil, false
	}
	return course, true
}

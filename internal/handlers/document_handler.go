package handlers

import (
	"net/http"
	"strconv"

	"insightpaper/internal/apperr"
	"insightpaper/internal/models"
	"insightpaper/internal/service"
)

const maxUploadSize = 32 << 20

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	documentService *service.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	courseID, err := queryID(r, "courseId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	docs, err := h.documentService.List(r.Context(), p.UserID, courseID)
	if err != nil {
		respondWithError(w, "Error loading documents", err)
		return
	}
	writeResult(w, http.StatusOK, docs)
}

// Upload takes a multipart form with file, title and an optional courseId,
// and returns the stored file's URL.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondWithError(w, "", apperr.Validation("file_invalid"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, "", apperr.Validation("file_required"))
		return
	}
	defer file.Close()

	var courseID *int64
	if raw := r.FormValue("courseId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			respondWithError(w, "", apperr.Validation("courseId_invalid"))
			return
		}
		courseID = &id
	}
	title := r.FormValue("title")
	if title == "" {
		title = header.Filename
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.documentService.Upload(r.Context(), courseID, title, contentType, file)
	if err != nil {
		respondWithError(w, "Error uploading document", err)
		return
	}
	writeResult(w, http.StatusCreated, map[string]string{"url": url})
}

// Create stores the document record, indexes it and notifies the course.
func (h *DocumentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var doc models.Document
	if err := decodeJSON(r, &doc); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	res, err := h.documentService.Create(r.Context(), p.UserID, doc)
	if err != nil {
		respondWithError(w, "Error creating document", err)
		return
	}
	writeDelivery(w, http.StatusCreated, map[string]any{
		"result":  res.Document,
		"indexed": res.Indexed,
	}, res.DeliveryReport)
}

func (h *DocumentHandler) Update(w http.ResponseWriter, r *http.Request) {
	documentID, err := pathID(r, "documentId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	var doc models.Document
	if err := decodeJSON(r, &doc); err != nil {
		respondWithError(w, "", err)
		return
	}
	doc.DocumentID = documentID
	p := GetPrincipal(r.Context())
	if err := h.documentService.Update(r.Context(), p.UserID, doc); err != nil {
		respondWithError(w, "Error updating document", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID, err := pathID(r, "documentId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.documentService.Delete(r.Context(), p.UserID, documentID); err != nil {
		respondWithError(w, "Error deleting document", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

// Search runs a semantic query over several documents.
func (h *DocumentHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query       string  `json:"query"`
		DocumentIDs []int64 `json:"documentIds"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondWithError(w, "", err)
		return
	}
	results, err := h.documentService.Search(r.Context(), req.Query, req.DocumentIDs)
	if err != nil {
		respondWithError(w, "Error searching documents", err)
		return
	}
	writeResult(w, http.StatusOK, results)
}

package handlers

import (
	"net/http"

	"insightpaper/internal/models"
	"insightpaper/internal/service"
)

// ModelHandler handles LLM catalogue HTTP requests
type ModelHandler struct {
	modelService *service.ModelService
}

func NewModelHandler(modelService *service.ModelService) *ModelHandler {
	return &ModelHandler{modelService: modelService}
}

func (h *ModelHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.modelService.List(r.Context())
	if err != nil {
		respondWithError(w, "Error loading models", err)
		return
	}
	writeResult(w, http.StatusOK, list)
}

func (h *ModelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var m models.Model
	if err := decodeJSON(r, &m); err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	created, err := h.modelService.Create(r.Context(), p.UserID, m)
	if err != nil {
		respondWithError(w, "Error creating model", err)
		return
	}
	writeResult(w, http.StatusCreated, created)
}

func (h *ModelHandler) Update(w http.ResponseWriter, r *http.Request) {
	modelID, err := pathID(r, "modelId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	var m models.Model
	if err := decodeJSON(r, &m); err != nil {
		respondWithError(w, "", err)
		return
	}
	m.ModelID = modelID
	p := GetPrincipal(r.Context())
	if err := h.modelService.Update(r.Context(), p.UserID, m); err != nil {
		respondWithError(w, "Error updating model", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

func (h *ModelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	modelID, err := pathID(r, "modelId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.modelService.Delete(r.Context(), p.UserID, modelID); err != nil {
		respondWithError(w, "Error deleting model", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

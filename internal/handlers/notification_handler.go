package handlers

import (
	"net/http"

	"insightpaper/internal/service"
)

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	notifications, err := h.notificationService.List(r.Context(), p.UserID)
	if err != nil {
		respondWithError(w, "Error loading notifications", err)
		return
	}
	writeResult(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "notificationId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.notificationService.MarkRead(r.Context(), p.UserID, id); err != nil {
		respondWithError(w, "Error updating notification", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	p := GetPrincipal(r.Context())
	if err := h.notificationService.MarkAllRead(r.Context(), p.UserID); err != nil {
		respondWithError(w, "Error updating notifications", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "notificationId")
	if err != nil {
		respondWithError(w, "", err)
		return
	}
	p := GetPrincipal(r.Context())
	if err := h.notificationService.Delete(r.Context(), p.UserID, id); err != nil {
		respondWithError(w, "Error deleting notification", err)
		return
	}
	writeResult(w, http.StatusOK, true)
}

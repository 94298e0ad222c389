package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/username/pulabus/backend/src/services"
	"github.com/username/pulabus/backend/src/utils"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) HandleListNotifications(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		utils.SendJSONError(w, "userId is required", http.StatusBadRequest)
		return
	}

	notifications, err := h.notificationService.ListForUser(r.Context(), userID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, notifications)
}

func (h *NotificationHandler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	notificationID := chi.URLParam(r, "id")

	if err := h.notificationService.MarkRead(r.Context(), notificationID); err != nil {
		respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uks-adp-api/internal/service"
	"github.com/noah-isme/uks-adp-api/pkg/response"
)

// NotificationHandler exposes the guardian notification history.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler constructs NotificationHandler.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ByStudent godoc
// @Summary Notification history for one student
// @Tags Notifications
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /notifications/student/{studentId} [get]
func (h *NotificationHandler) ByStudent(c *gin.Context) {
	rows, err := h.notifications.ListByStudent(c.Request.Context(), c.Param("studentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

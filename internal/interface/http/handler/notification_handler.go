package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ties-together/marketplace-backend/internal/interface/http/dto"
	"github.com/ties-together/marketplace-backend/internal/interface/http/response"
	"github.com/ties-together/marketplace-backend/internal/usecase/notification"
)

type NotificationHandler struct {
	listUC     *notification.ListNotificationsUseCase
	markReadUC *notification.MarkReadUseCase
}

func NewNotificationHandler(listUC *notification.ListNotificationsUseCase, markReadUC *notification.MarkReadUseCase) *NotificationHandler {
	return &NotificationHandler{listUC: listUC, markReadUC: markReadUC}
}

// List GET /notifications?limit&offset&unread_only
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	limit := parseIntQuery(c, "limit", 20)
	offset := parseIntQuery(c, "offset", 0)

	items, err := h.listUC.Execute(c.Request.Context(), userID, limit, offset, c.Query("unread_only") == "true")
	if err != nil {
		response.Error(c, err)
		return
	}
	if limit <= 0 {
		limit = 20
	} else if limit > 100 {
		limit = 100
	}
	response.Paginated(c, dto.MapSlice(items, dto.ToNotificationResponse), len(items), limit, offset)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	count, err := h.listUC.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	var req dto.MarkNotificationsReadRequest
	if !bindJSON(c, &req) {
		return
	}
	updated, err := h.markReadUC.Execute(c.Request.Context(), userID, req.IDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	updated, err := h.markReadUC.All(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}

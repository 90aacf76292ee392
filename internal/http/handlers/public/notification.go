package public

import (
	"errors"
	"strconv"

	handlershared "github.com/velora-shop/internal/http/handlers/shared"
	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// ListNotifications 当前用户通知列表
func (h *Handler) ListNotifications(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	notifications, total, err := h.NotificationService.ListByUser(uid, c.Query("unread") == "true", page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "notification list failed", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"notifications": notifications}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetUnreadCount 当前用户未读通知数
func (h *Handler) GetUnreadCount(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	count, err := h.NotificationService.CountUnread(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "unread count failed", err)
		return
	}
	response.Success(c, gin.H{"unreadCount": count})
}

// MarkNotificationRead 标记单条通知已读
func (h *Handler) MarkNotificationRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid notification id", nil)
		return
	}
	if err := h.NotificationService.MarkRead(uint(id), uid); err != nil {
		switch {
		case errors.Is(err, service.ErrNotificationNotFound):
			respondError(c, response.CodeNotFound, "notification not found", nil)
		default:
			respondError(c, response.CodeInternal, "mark read failed", err)
		}
		return
	}
	response.Success(c, gin.H{"read": true})
}

// MarkAllNotificationsRead 全部标记已读
func (h *Handler) MarkAllNotificationsRead(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.NotificationService.MarkAllRead(uid); err != nil {
		respondError(c, response.CodeInternal, "mark all read failed", err)
		return
	}
	response.Success(c, gin.H{"read": true})
}

// NotificationSocket 建立通知 WebSocket 长连接，服务端推送 {unreadCount}
func (h *Handler) NotificationSocket(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	h.Hub.HandleConnection(c.Writer, c.Request, uid)
}

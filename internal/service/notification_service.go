package service

import (
	"github.com/velora-shop/internal/logger"
	"github.com/velora-shop/internal/models"
	"github.com/velora-shop/internal/queue"
	"github.com/velora-shop/internal/repository"

	"go.uber.org/zap"
)

// NotificationService 站内通知服务
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	queueClient      *queue.Client
}

// NewNotificationService 创建通知服务
func NewNotificationService(notificationRepo repository.NotificationRepository, queueClient *queue.Client) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		queueClient:      queueClient,
	}
}

func notificationLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// Notify 写入通知并触发推送任务。
// 推送失败不影响通知落库，客户端下次拉取仍能看到。
func (s *NotificationService) Notify(userID uint, ntype, title, message string, data models.JSON) error {
	if userID == 0 {
		return ErrUserNotFound
	}
	notification := &models.Notification{
		UserID:  userID,
		Type:    ntype,
		Title:   title,
		Message: message,
		Data:    data,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return err
	}
	if err := s.queueClient.EnqueueNotificationPush(queue.NotificationPushPayload{
		UserID:         userID,
		NotificationID: notification.ID,
	}); err != nil {
		notificationLogger("user_id", userID, "notification_id", notification.ID).
			Warnw("notification_push_enqueue_failed", "error", err)
	}
	return nil
}

// ListByUser 查询用户通知列表
func (s *NotificationService) ListByUser(userID uint, unreadOnly bool, page, pageSize int) ([]models.Notification, int64, error) {
	return s.notificationRepo.ListByUser(repository.NotificationListFilter{
		UserID:     userID,
		UnreadOnly: unreadOnly,
		Page:       page,
		PageSize:   pageSize,
	})
}

// CountUnread 统计未读数
func (s *NotificationService) CountUnread(userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(userID)
}

// MarkRead 标记单条已读
func (s *NotificationService) MarkRead(id, userID uint) error {
	notification, err := s.notificationRepo.GetByIDAndUser(id, userID)
	if err != nil {
		return err
	}
	if notification == nil {
		return ErrNotificationNotFound
	}
	if notification.IsRead {
		return nil
	}
	return s.notificationRepo.MarkRead(id, userID)
}

// MarkAllRead 标记全部已读
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.notificationRepo.MarkAllRead(userID)
}

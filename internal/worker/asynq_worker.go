package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/velora-shop/internal/cache"
	"github.com/velora-shop/internal/logger"
	"github.com/velora-shop/internal/notify"
	"github.com/velora-shop/internal/provider"
	"github.com/velora-shop/internal/queue"
	"github.com/velora-shop/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskNotificationPush, c.handleNotificationPush)
	mux.HandleFunc(queue.TaskOrderTimeoutCancel, c.handleOrderTimeoutCancel)
}

// handleNotificationPush 计算用户未读数并经 Redis 发布给在线网关
func (c *Consumer) handleNotificationPush(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_notification_push_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.NotificationPushPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_notification_push_unmarshal_failed", "error", err)
		return err
	}
	if payload.UserID == 0 {
		logger.Debugw("worker_notification_push_skip_invalid_payload", "user_id", payload.UserID)
		return nil
	}
	if c.NotificationRepo == nil {
		logger.Warnw("worker_notification_push_skip_repo_nil", "user_id", payload.UserID)
		return nil
	}
	unread, err := c.NotificationRepo.CountUnread(payload.UserID)
	if err != nil {
		logger.Warnw("worker_notification_push_count_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	if err := cache.PublishJSON(ctx, notify.ChannelFor(payload.UserID), notify.ChannelMessage{
		UserID:      payload.UserID,
		UnreadCount: unread,
	}); err != nil {
		logger.Warnw("worker_notification_push_publish_failed", "user_id", payload.UserID, "error", err)
		return err
	}
	logger.Debugw("worker_notification_pushed", "user_id", payload.UserID, "unread_count", unread)
	return nil
}

func (c *Consumer) handleOrderTimeoutCancel(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_timeout_cancel_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderTimeoutCancelPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_timeout_cancel_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_timeout_cancel_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.OrderService == nil {
		logger.Warnw("worker_order_timeout_cancel_skip_order_service_nil", "order_id", payload.OrderID)
		return nil
	}
	_, err := c.OrderService.CancelExpiredOrder(payload.OrderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_order_timeout_cancel_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		case errors.Is(err, service.ErrOrderUpdateFailed):
			logger.Warnw("worker_order_timeout_cancel_update_failed", "order_id", payload.OrderID, "error", err)
			return err
		default:
			logger.Warnw("worker_order_timeout_cancel_failed", "order_id", payload.OrderID, "error", err)
			return err
		}
	}
	return nil
}

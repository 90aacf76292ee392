package queue

import (
	"encoding/json"

	"github.com/velora-shop/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskNotificationPush 站内通知推送任务
	TaskNotificationPush = constants.TaskNotificationPush
	// TaskOrderTimeoutCancel 在线支付超时取消任务
	TaskOrderTimeoutCancel = constants.TaskOrderTimeoutCancel
)

// NotificationPushPayload 通知推送任务载荷
type NotificationPushPayload struct {
	UserID         uint `json:"user_id"`
	NotificationID uint `json:"notification_id"`
}

// OrderTimeoutCancelPayload 超时取消任务载荷
type OrderTimeoutCancelPayload struct {
	OrderID uint `json:"order_id"`
}

// NewNotificationPushTask 创建通知推送任务
func NewNotificationPushTask(payload NotificationPushPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskNotificationPush, body), nil
}

// NewOrderTimeoutCancelTask 创建超时取消任务
func NewOrderTimeoutCancelTask(payload OrderTimeoutCancelPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderTimeoutCancel, body), nil
}

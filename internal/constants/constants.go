package constants

import "strings"

// 订单状态常量（入库与对外输出统一使用大写）
const (
	OrderStatusPendingPayment = "PENDING_PAYMENT"
	OrderStatusPaid           = "PAID"
	OrderStatusProcessing     = "PROCESSING"
	OrderStatusShipped        = "SHIPPED"
	OrderStatusDelivered      = "DELIVERED"
	OrderStatusCancelled      = "CANCELLED"
	OrderStatusRefunded       = "REFUNDED"
)

// NormalizeOrderStatus 订单状态入参不区分大小写
func NormalizeOrderStatus(status string) string {
	return strings.ToUpper(strings.TrimSpace(status))
}

// 支付方式常量
const (
	PaymentMethodCOD   = "cod"
	PaymentMethodPayOS = "payos"
)

// 支付状态常量
const (
	PaymentStatusPending   = "pending"
	PaymentStatusPaid      = "paid"
	PaymentStatusFailed    = "failed"
	PaymentStatusCancelled = "cancelled"
)

// PayOS 回调应答常量
const (
	PayOSAckSuccess          = "00"
	PayOSAckOrderNotFound    = "01"
	PayOSAckInvalidSignature = "97"
	PayOSAckException        = "99"
)

// PayOS 回调状态常量
const (
	PayOSWebhookStatusPaid      = "PAID"
	PayOSWebhookStatusPending   = "PENDING"
	PayOSWebhookStatusCancelled = "CANCELLED"
)

// 库存类型常量
const (
	InventoryTypeRegular = "regular"
	InventoryTypeSize    = "size"
	InventoryTypeColor   = "color"
	InventoryTypeBoth    = "both"
)

// 商品库存状态常量
const (
	ProductStockStatusInStock    = "in_stock"
	ProductStockStatusLowStock   = "low_stock"
	ProductStockStatusOutOfStock = "out_of_stock"
)

// 取消申请状态常量
const (
	CancelRequestStatusNone     = ""
	CancelRequestStatusPending  = "pending"
	CancelRequestStatusApproved = "approved"
	CancelRequestStatusRejected = "rejected"
)

// 用户角色常量
const (
	UserRoleCustomer = "customer"
	UserRoleAdmin    = "admin"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 通知类型常量
const (
	NotificationTypeOrderStatus   = "order_status"
	NotificationTypeCancelRequest = "cancel_request"
	NotificationTypeSystem        = "system"
)

// 验证码校验场景常量
const (
	CaptchaProviderNone      = "none"
	CaptchaProviderImage     = "image"
	CaptchaProviderTurnstile = "turnstile"
	CaptchaSceneLogin        = "login"
	CaptchaSceneRegister     = "register"
)

// 队列常量
const (
	QueueDefault           = "default"
	TaskNotificationPush   = "notification:push"
	TaskOrderTimeoutCancel = "order:timeout_cancel"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "vs"
)

// 用户通知推送频道常量
const (
	NotifyChannelPrefix = "notify:user:"
)

// 币种常量
const (
	SiteCurrencyDefault = "VND"
)

package service

import "errors"

// 商品 / 库存
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductInactive      = errors.New("product inactive")
	ErrVariantNotFound      = errors.New("variant not found")
	ErrSelectionRequired    = errors.New("size or color selection required")
	ErrSelectionInvalid     = errors.New("selection not applicable to inventory type")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInventoryTypeInvalid = errors.New("invalid inventory type")
	ErrProductInvalid       = errors.New("product slug and name are required")
	ErrProductPriceInvalid  = errors.New("invalid product price")
	ErrStockCountInvalid    = errors.New("invalid stock count")
)

// 购物车
var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrCartEmpty        = errors.New("cart is empty")
	ErrQuantityInvalid  = errors.New("invalid quantity")
)

// 订单
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrNotOrderOwner         = errors.New("order does not belong to user")
	ErrOrderStatusInvalid    = errors.New("invalid order status transition")
	ErrPaymentMethodInvalid  = errors.New("invalid payment method")
	ErrShippingInfoRequired  = errors.New("shipping info required")
	ErrCancelNotAllowed      = errors.New("order cannot be cancelled")
	ErrCancelRequestExists   = errors.New("cancel request already pending")
	ErrCancelRequestNotFound = errors.New("no pending cancel request")
	ErrOrderUpdateFailed     = errors.New("order update failed")
)

// 支付
var (
	ErrPaymentGatewayFailed  = errors.New("payment gateway request failed")
	ErrSignatureInvalid      = errors.New("invalid callback signature")
	ErrPaymentAmountMismatch = errors.New("callback amount mismatch")
)

// 评价
var (
	ErrReviewDuplicate  = errors.New("review already exists for this order")
	ErrReviewNotAllowed = errors.New("review requires a delivered order containing the product")
	ErrReviewNotFound   = errors.New("review not found")
	ErrRatingInvalid    = errors.New("rating must be between 1 and 5")
)

// 用户 / 认证
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrEmailInvalid       = errors.New("invalid email address")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserDisabled       = errors.New("user disabled")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserStatusInvalid  = errors.New("invalid user status")
	ErrCaptchaInvalid     = errors.New("captcha verification failed")
	ErrCaptchaRequired    = errors.New("captcha required")
	ErrWeakPassword       = errors.New("password does not meet policy")
	ErrInvalidPassword    = errors.New("current password incorrect")
)

// 分类
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryInvalid  = errors.New("category slug and name are required")
	ErrSlugTaken        = errors.New("slug already in use")
	ErrCategoryInUse    = errors.New("category still has products")
)

// 仪表盘
var (
	ErrDashboardRangeInvalid = errors.New("invalid dashboard range")
)

// 通知
var (
	ErrNotificationNotFound = errors.New("notification not found")
)

package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/logger"
	"github.com/velora-shop/internal/models"
	"github.com/velora-shop/internal/queue"
	"github.com/velora-shop/internal/repository"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	db              *gorm.DB
	orderRepo       repository.OrderRepository
	productRepo     repository.ProductRepository
	cartRepo        repository.CartRepository
	inventorySvc    *InventoryService
	notificationSvc *NotificationService
	queueClient     *queue.Client
	shipping        ShippingPolicy
	currency        string
	paymentExpire   time.Duration
}

// NewOrderService 创建订单服务
func NewOrderService(db *gorm.DB, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, cartRepo repository.CartRepository, inventorySvc *InventoryService, notificationSvc *NotificationService, queueClient *queue.Client, shipping ShippingPolicy, currency string, paymentExpire time.Duration) *OrderService {
	if strings.TrimSpace(currency) == "" {
		currency = constants.SiteCurrencyDefault
	}
	if paymentExpire <= 0 {
		paymentExpire = 15 * time.Minute
	}
	return &OrderService{
		db:              db,
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		cartRepo:        cartRepo,
		inventorySvc:    inventorySvc,
		notificationSvc: notificationSvc,
		queueClient:     queueClient,
		shipping:        shipping,
		currency:        currency,
		paymentExpire:   paymentExpire,
	}
}

func orderLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// CheckoutInput 结账输入
type CheckoutInput struct {
	UserID          uint
	PaymentMethod   string
	ShippingName    string
	ShippingPhone   string
	ShippingAddress string
	Note            string
}

// Checkout 从购物车创建订单。
// COD 在同一事务内校验并扣减库存、软清空购物车；
// PayOS 先落单（不动库存），支付会话由 PaymentService 在提交后创建。
func (s *OrderService) Checkout(input CheckoutInput) (*models.Order, error) {
	method := strings.ToLower(strings.TrimSpace(input.PaymentMethod))
	if method != constants.PaymentMethodCOD && method != constants.PaymentMethodPayOS {
		return nil, ErrPaymentMethodInvalid
	}
	if strings.TrimSpace(input.ShippingName) == "" ||
		strings.TrimSpace(input.ShippingPhone) == "" ||
		strings.TrimSpace(input.ShippingAddress) == "" {
		return nil, ErrShippingInfoRequired
	}

	cartItems, err := s.cartRepo.ListByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrCartEmpty
	}

	log := orderLogger("user_id", input.UserID, "payment_method", method)

	// 在线支付：清理同一用户上一笔未支付的 PayOS 订单（惰性清理，无后台任务）
	if method == constants.PaymentMethodPayOS {
		if err := s.discardPendingPayOSOrders(input.UserID, log); err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		OrderNo:         generateOrderNo(),
		UserID:          input.UserID,
		Currency:        s.currency,
		PaymentMethod:   method,
		PaymentStatus:   constants.PaymentStatusPending,
		ShippingName:    strings.TrimSpace(input.ShippingName),
		ShippingPhone:   strings.TrimSpace(input.ShippingPhone),
		ShippingAddress: strings.TrimSpace(input.ShippingAddress),
		Note:            strings.TrimSpace(input.Note),
	}
	if method == constants.PaymentMethodCOD {
		order.Status = constants.OrderStatusPaid
	} else {
		order.Status = constants.OrderStatusPendingPayment
		order.PayOSOrderCode = generatePayOSOrderCode(time.Now())
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		cartRepo := s.cartRepo.WithTx(tx)

		items, subtotal, err := s.buildOrderItems(productRepo, cartItems)
		if err != nil {
			return err
		}
		order.Subtotal = subtotal
		order.ShippingFee = s.shipping.FeeFor(subtotal)
		order.TotalAmount = models.NewMoneyFromDecimal(subtotal.Decimal.Add(order.ShippingFee.Decimal))

		// COD：下单即扣减库存
		if method == constants.PaymentMethodCOD {
			for i := range items {
				product, err := productRepo.GetByID(items[i].ProductID)
				if err != nil {
					return err
				}
				if product == nil {
					return ErrProductNotFound
				}
				if err := s.inventorySvc.DebitTx(tx, product, items[i].Size, items[i].Color, items[i].Quantity); err != nil {
					return err
				}
			}
		}

		if err := orderRepo.Create(order, items); err != nil {
			return err
		}
		order.Items = items

		if method == constants.PaymentMethodCOD {
			if err := cartRepo.ClearByUser(input.UserID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Warnw("order_checkout_failed", "error", err)
		return nil, err
	}

	// 在线支付订单超时未付自动取消
	if method == constants.PaymentMethodPayOS {
		if err := s.queueClient.EnqueueOrderTimeoutCancel(
			queue.OrderTimeoutCancelPayload{OrderID: order.ID},
			asynq.ProcessIn(s.paymentExpire),
		); err != nil {
			log.Warnw("order_timeout_cancel_enqueue_failed", "order_id", order.ID, "error", err)
		}
	}

	log.Infow("order_created",
		"order_id", order.ID,
		"order_no", order.OrderNo,
		"status", order.Status,
		"total_amount", order.TotalAmount.String(),
	)
	return order, nil
}

// CancelExpiredOrder 取消超时未支付的在线订单。
// 仅当订单仍处于待支付时生效，库存未扣减无需回补。
func (s *OrderService) CancelExpiredOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPendingPayment {
		return order, nil
	}

	now := time.Now()
	if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusCancelled, map[string]interface{}{
		"payment_status": constants.PaymentStatusCancelled,
		"updated_at":     now,
	}); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	order.Status = constants.OrderStatusCancelled
	order.PaymentStatus = constants.PaymentStatusCancelled

	orderLogger("order_id", order.ID, "order_no", order.OrderNo).Infow("order_timeout_cancelled")
	s.notifyOrderEvent(order, constants.NotificationTypeOrderStatus, "Order cancelled",
		fmt.Sprintf("Order %s was cancelled because payment was not completed in time.", order.OrderNo))
	return order, nil
}

// buildOrderItems 重新校验购物车并冻结下单价格
func (s *OrderService) buildOrderItems(productRepo repository.ProductRepository, cartItems []models.CartItem) ([]models.OrderItem, models.Money, error) {
	items := make([]models.OrderItem, 0, len(cartItems))
	subtotal := models.NewMoneyFromInt(0)
	for _, cartItem := range cartItems {
		if cartItem.Quantity <= 0 {
			return nil, subtotal, ErrQuantityInvalid
		}
		product, err := productRepo.GetByID(cartItem.ProductID)
		if err != nil {
			return nil, subtotal, err
		}
		if product == nil {
			return nil, subtotal, ErrProductNotFound
		}
		if !product.IsActive {
			return nil, subtotal, ErrProductInactive
		}
		available, err := s.inventorySvc.Available(product, cartItem.Size, cartItem.Color)
		if err != nil {
			return nil, subtotal, err
		}
		if int64(cartItem.Quantity) > available {
			return nil, subtotal, ErrInsufficientStock
		}

		unitPrice := product.EffectivePrice()
		totalPrice := models.NewMoneyFromDecimal(unitPrice.Decimal.Mul(quantityDecimal(cartItem.Quantity)))
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Size:        cartItem.Size,
			Color:       cartItem.Color,
			UnitPrice:   unitPrice,
			Quantity:    cartItem.Quantity,
			TotalPrice:  totalPrice,
		})
		subtotal = models.NewMoneyFromDecimal(subtotal.Decimal.Add(totalPrice.Decimal))
	}
	return items, subtotal, nil
}

// discardPendingPayOSOrders 软删除用户上一笔未支付的在线订单
func (s *OrderService) discardPendingPayOSOrders(userID uint, log *zap.SugaredLogger) error {
	for {
		pending, err := s.orderRepo.GetPendingPayOSByUser(userID)
		if err != nil {
			return err
		}
		if pending == nil {
			return nil
		}
		if err := s.orderRepo.Delete(pending.ID); err != nil {
			return err
		}
		log.Infow("pending_online_order_discarded", "order_id", pending.ID, "order_no", pending.OrderNo)
	}
}

// RequestCancel 用户提交取消申请
func (s *OrderService) RequestCancel(orderID, userID uint, reason string) (*models.Order, error) {
	order, err := s.orderRepo.GetByIDAndUser(orderID, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if isOrderTerminal(order.Status) {
		return nil, ErrCancelNotAllowed
	}
	if order.CancelRequestStatus == constants.CancelRequestStatusPending {
		return nil, ErrCancelRequestExists
	}

	now := time.Now()
	order.CancelRequestStatus = constants.CancelRequestStatusPending
	order.CancelReason = strings.TrimSpace(reason)
	order.CancelRequestedAt = &now
	order.CancelReviewedAt = nil
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	orderLogger("order_id", order.ID, "order_no", order.OrderNo).Infow("order_cancel_requested")
	return order, nil
}

// ApproveCancel 管理员批准取消申请：订单转 CANCELLED，已扣减的库存回补
func (s *OrderService) ApproveCancel(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.CancelRequestStatus != constants.CancelRequestStatusPending {
		return nil, ErrCancelRequestNotFound
	}
	if !isTransitionAllowed(order.Status, constants.OrderStatusCancelled) {
		return nil, ErrOrderStatusInvalid
	}

	restock := isStockDebited(order.Status)
	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		if restock {
			if err := s.creditOrderItems(tx, order.Items); err != nil {
				return err
			}
		}
		return orderRepo.UpdateStatus(order.ID, constants.OrderStatusCancelled, map[string]interface{}{
			"cancel_request_status": constants.CancelRequestStatusApproved,
			"cancel_reviewed_at":    now,
			"updated_at":            now,
		})
	})
	if err != nil {
		return nil, err
	}
	order.Status = constants.OrderStatusCancelled
	order.CancelRequestStatus = constants.CancelRequestStatusApproved
	order.CancelReviewedAt = &now

	orderLogger("order_id", order.ID, "order_no", order.OrderNo, "restock", restock).
		Infow("order_cancel_approved")
	s.notifyOrderEvent(order, constants.NotificationTypeCancelRequest,
		"Cancellation approved",
		fmt.Sprintf("Your cancellation request for order %s has been approved.", order.OrderNo))
	return order, nil
}

// RejectCancel 管理员驳回取消申请：清除标记，订单状态不变
func (s *OrderService) RejectCancel(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.CancelRequestStatus != constants.CancelRequestStatusPending {
		return nil, ErrCancelRequestNotFound
	}

	now := time.Now()
	order.CancelRequestStatus = constants.CancelRequestStatusRejected
	order.CancelReviewedAt = &now
	if err := s.orderRepo.Update(order); err != nil {
		return nil, err
	}

	orderLogger("order_id", order.ID, "order_no", order.OrderNo).Infow("order_cancel_rejected")
	s.notifyOrderEvent(order, constants.NotificationTypeCancelRequest,
		"Cancellation rejected",
		fmt.Sprintf("Your cancellation request for order %s has been rejected.", order.OrderNo))
	return order, nil
}

// UpdateStatusInput 管理端状态更新输入
type UpdateStatusInput struct {
	OrderID        uint
	TargetStatus   string
	TrackingNumber string
}

// UpdateStatusForAdmin 管理员更新订单状态，按迁移表校验
func (s *OrderService) UpdateStatusForAdmin(input UpdateStatusInput) (*models.Order, error) {
	target := constants.NormalizeOrderStatus(input.TargetStatus)
	if !isOrderStatusValid(target) {
		return nil, ErrOrderStatusInvalid
	}
	order, err := s.orderRepo.GetByID(input.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !isTransitionAllowed(order.Status, target) {
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	updates := map[string]interface{}{
		"updated_at": now,
	}
	switch target {
	case constants.OrderStatusShipped:
		tracking := strings.TrimSpace(input.TrackingNumber)
		if tracking != "" {
			updates["tracking_number"] = tracking
			order.TrackingNumber = tracking
		}
		updates["shipped_at"] = now
		order.ShippedAt = &now
	case constants.OrderStatusDelivered:
		updates["delivered_at"] = now
		order.DeliveredAt = &now
		// 货到付款在签收时视作收款完成
		if order.PaymentMethod == constants.PaymentMethodCOD {
			updates["payment_status"] = constants.PaymentStatusPaid
			updates["paid_at"] = now
			order.PaymentStatus = constants.PaymentStatusPaid
			order.PaidAt = &now
		}
	}

	restock := target == constants.OrderStatusCancelled && isStockDebited(order.Status)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if restock {
			if err := s.creditOrderItems(tx, order.Items); err != nil {
				return err
			}
		}
		return s.orderRepo.WithTx(tx).UpdateStatus(order.ID, target, updates)
	})
	if err != nil {
		return nil, ErrOrderUpdateFailed
	}
	previous := order.Status
	order.Status = target

	orderLogger("order_id", order.ID, "order_no", order.OrderNo,
		"previous_status", previous, "new_status", target).Infow("order_status_updated")
	s.notifyOrderEvent(order, constants.NotificationTypeOrderStatus,
		"Order status updated",
		fmt.Sprintf("Order %s is now %s.", order.OrderNo, target))
	return order, nil
}

// creditOrderItems 按订单项回补库存
func (s *OrderService) creditOrderItems(tx *gorm.DB, items []models.OrderItem) error {
	productRepo := s.productRepo.WithTx(tx)
	for _, item := range items {
		product, err := productRepo.GetByID(item.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			// 商品已被物理清理时放弃回补，不阻塞取消流程
			continue
		}
		if err := s.inventorySvc.CreditTx(tx, product, item.Size, item.Color, item.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func (s *OrderService) notifyOrderEvent(order *models.Order, ntype, title, message string) {
	if s.notificationSvc == nil || order == nil || order.UserID == 0 {
		return
	}
	if err := s.notificationSvc.Notify(order.UserID, ntype, title, message, models.JSON{
		"order_id": fmt.Sprintf("%d", order.ID),
		"order_no": order.OrderNo,
		"status":   order.Status,
	}); err != nil {
		orderLogger("order_id", order.ID, "order_no", order.OrderNo).
			Warnw("order_notification_failed", "error", err)
	}
}

// GetOrderByUser 获取用户订单详情（归属校验）
func (s *OrderService) GetOrderByUser(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}
	return order, nil
}

// ListOrdersByUser 用户订单列表
func (s *OrderService) ListOrdersByUser(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListByUser(filter)
}

// ListOrdersForAdmin 管理端订单列表
func (s *OrderService) ListOrdersForAdmin(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.ListAdmin(filter)
}

// GetOrderForAdmin 管理端订单详情
func (s *OrderService) GetOrderForAdmin(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart := randNumeric(6)
	return fmt.Sprintf("VS%s%s", now, randPart)
}

// generatePayOSOrderCode 生成 PayOS 订单码，要求为正整数且不超过 2^53-1
func generatePayOSOrderCode(now time.Time) int64 {
	code := now.UnixMilli()*1000 + mustRandInt(1000)
	const maxSafeInteger = 9007199254740991
	if code > maxSafeInteger {
		code = code % maxSafeInteger
	}
	return code
}

func mustRandInt(max int64) int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(max))
	if err != nil {
		return 0
	}
	return n.Int64()
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		b.WriteString(fmt.Sprintf("%d", mustRandInt(10)))
	}
	return b.String()
}

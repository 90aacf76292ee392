package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/logger"
	"github.com/velora-shop/internal/models"
	"github.com/velora-shop/internal/payment/payos"
	"github.com/velora-shop/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService 在线支付服务（PayOS）
type PaymentService struct {
	db              *gorm.DB
	orderRepo       repository.OrderRepository
	productRepo     repository.ProductRepository
	cartRepo        repository.CartRepository
	inventorySvc    *InventoryService
	notificationSvc *NotificationService
	cfg             *payos.Config
	returnURL       string
	cancelURL       string
}

// NewPaymentService 创建支付服务
func NewPaymentService(db *gorm.DB, orderRepo repository.OrderRepository, productRepo repository.ProductRepository, cartRepo repository.CartRepository, inventorySvc *InventoryService, notificationSvc *NotificationService, cfg *payos.Config, returnURL, cancelURL string) *PaymentService {
	return &PaymentService{
		db:              db,
		orderRepo:       orderRepo,
		productRepo:     productRepo,
		cartRepo:        cartRepo,
		inventorySvc:    inventorySvc,
		notificationSvc: notificationSvc,
		cfg:             cfg,
		returnURL:       returnURL,
		cancelURL:       cancelURL,
	}
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// Enabled 网关配置是否可用
func (s *PaymentService) Enabled() bool {
	return payos.ValidateConfig(s.cfg) == nil
}

// CreateCheckout 为订单创建 PayOS 支付会话。
// 成功后记录收银台地址并清空购物车；失败时订单保持待支付，
// 调用方可提示重试或改用货到付款。
func (s *PaymentService) CreateCheckout(ctx context.Context, order *models.Order) (string, error) {
	if order == nil {
		return "", ErrOrderNotFound
	}
	if !s.Enabled() {
		return "", ErrPaymentGatewayFailed
	}

	log := paymentLogger("order_id", order.ID, "order_no", order.OrderNo, "order_code", order.PayOSOrderCode)

	items := make([]payos.Item, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, payos.Item{
			Name:     item.ProductName,
			Quantity: item.Quantity,
			Price:    item.UnitPrice.Int64(),
		})
	}
	input := payos.CreateInput{
		OrderCode:   order.PayOSOrderCode,
		Amount:      order.TotalAmount.Int64(),
		Description: fmt.Sprintf("Order #%d", order.ID),
		ReturnURL:   s.returnURL,
		CancelURL:   s.cancelURL,
		Items:       items,
	}

	result, err := payos.CreatePayment(ctx, s.cfg, input)
	if errors.Is(err, payos.ErrDuplicateOrder) {
		// 订单码撞号时换号重试一次
		order.PayOSOrderCode = generatePayOSOrderCode(time.Now())
		input.OrderCode = order.PayOSOrderCode
		result, err = payos.CreatePayment(ctx, s.cfg, input)
	}
	if err != nil {
		log.Warnw("payos_create_session_failed", "error", err)
		return "", ErrPaymentGatewayFailed
	}

	now := time.Now()
	order.PayOSCheckoutURL = result.CheckoutURL
	if err := s.orderRepo.UpdateStatus(order.ID, order.Status, map[string]interface{}{
		"payos_order_code":   order.PayOSOrderCode,
		"payos_checkout_url": result.CheckoutURL,
		"updated_at":         now,
	}); err != nil {
		return "", err
	}
	// 会话建立成功才清空购物车
	if err := s.cartRepo.ClearByUser(order.UserID); err != nil {
		log.Warnw("payos_cart_clear_failed", "error", err)
	}

	log.Infow("payos_session_created", "checkout_url", result.CheckoutURL)
	return result.CheckoutURL, nil
}

// WebhookAck 回调应答（按网关约定返回 code/desc）
type WebhookAck struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

// HandleWebhook 处理 PayOS 回调。
// 验签失败或订单不存在不改动任何状态；重复回调靠已入账的
// 网关交易号与订单终态幂等吸收。
func (s *PaymentService) HandleWebhook(body []byte) WebhookAck {
	data, err := payos.ParseWebhook(body)
	if err != nil {
		paymentLogger().Warnw("payos_webhook_malformed", "error", err)
		return WebhookAck{Code: constants.PayOSAckException, Desc: "invalid payload"}
	}

	log := paymentLogger(
		"order_code", data.OrderCode,
		"callback_status", data.Status,
		"transaction_id", data.TransactionID,
		"callback_amount", data.Amount,
	)

	if err := payos.VerifyWebhook(s.cfg, data); err != nil {
		log.Warnw("payos_webhook_signature_invalid")
		return WebhookAck{Code: constants.PayOSAckInvalidSignature, Desc: "invalid signature"}
	}

	order, err := s.orderRepo.GetByPayOSOrderCode(data.OrderCode)
	if err != nil {
		log.Errorw("payos_webhook_order_fetch_failed", "error", err)
		return WebhookAck{Code: constants.PayOSAckException, Desc: "internal error"}
	}
	if order == nil {
		log.Warnw("payos_webhook_order_not_found")
		return WebhookAck{Code: constants.PayOSAckOrderNotFound, Desc: "order not found"}
	}
	log = log.With("order_id", order.ID, "order_no", order.OrderNo)

	switch data.Status {
	case payos.StatusPaid:
		return s.applyPaidWebhook(order, data, log)
	case payos.StatusCancelled:
		return s.applyCancelledWebhook(order, log)
	default:
		log.Infow("payos_webhook_ignored_status")
		return WebhookAck{Code: constants.PayOSAckSuccess, Desc: "success"}
	}
}

func (s *PaymentService) applyPaidWebhook(order *models.Order, data *payos.WebhookData, log *zap.SugaredLogger) WebhookAck {
	// 幂等：订单已支付或交易号已入账则直接确认
	if order.Status == constants.OrderStatusPaid || order.ProviderTxnID != "" {
		log.Infow("payos_webhook_idempotent_paid")
		return WebhookAck{Code: constants.PayOSAckSuccess, Desc: "success"}
	}
	if data.TransactionID != "" {
		seen, err := s.orderRepo.ExistsProviderTxn(data.TransactionID)
		if err != nil {
			log.Errorw("payos_webhook_txn_lookup_failed", "error", err)
			return WebhookAck{Code: constants.PayOSAckException, Desc: "internal error"}
		}
		if seen {
			log.Infow("payos_webhook_idempotent_txn")
			return WebhookAck{Code: constants.PayOSAckSuccess, Desc: "success"}
		}
	}
	if !isTransitionAllowed(order.Status, constants.OrderStatusPaid) {
		log.Warnw("payos_webhook_transition_rejected", "current_status", order.Status)
		return WebhookAck{Code: constants.PayOSAckSuccess, Desc: "success"}
	}
	if data.Amount != order.TotalAmount.Int64() {
		log.Warnw("payos_webhook_amount_mismatch",
			"stored_amount", order.TotalAmount.String(),
		)
		return WebhookAck{Code: constants.PayOSAckException, Desc: "amount mismatch"}
	}

	now := time.Now()
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)

		// 在线支付延迟扣减：支付确认后才扣库存
		for _, item := range order.Items {
			product, err := productRepo.GetByID(item.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return ErrProductNotFound
			}
			if err := s.inventorySvc.DebitTx(tx, product, item.Size, item.Color, item.Quantity); err != nil {
				return err
			}
		}

		if err := orderRepo.UpdateStatus(order.ID, constants.OrderStatusPaid, map[string]interface{}{
			"payment_status":  constants.PaymentStatusPaid,
			"provider_txn_id": data.TransactionID,
			"paid_at":         now,
			"updated_at":      now,
		}); err != nil {
			return err
		}
		return s.cartRepo.WithTx(tx).ClearByUser(order.UserID)
	})
	if err != nil {
		log.Errorw("payos_webhook_apply_failed", "error", err)
		return WebhookAck{Code: constants.PayOSAckException, Desc: "internal error"}
	}

	order.Status = constants.OrderStatusPaid
	order.PaymentStatus = constants.PaymentStatusPaid
	order.ProviderTxnID = data.TransactionID
	order.PaidAt = &now

	log.Infow("payos_webhook_order_paid")
	s.notifyPaymentEvent(order, "Payment received",
		fmt.Sprintf("Payment for order %s has been confirmed.", order.OrderNo))
	return WebhookAck{Code: constants.PayOSAckSuccess, Desc: "success"}
}

func (s *PaymentService) applyCancelledWebhook(order *models.Order, log *zap.SugaredLogger) WebhookAck {
	if isOrderTerminal(order.Status) {
		log.Infow("payos_webhook_idempotent_terminal", "current_status", order.Status)
		return WebhookAck{Code: constants.PayOSAckSuccess, Desc: "success"}
	}
	if !isTransitionAllowed(order.Status, constants.OrderStatusCancelled) {
		log.Warnw("payos_webhook_transition_rejected", "current_status", order.Status)
		return WebhookAck{Code: constants.PayOSAckSuccess, Desc: "success"}
	}

	now := time.Now()
	// 在线订单未扣减库存，取消无需回补
	if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusCancelled, map[string]interface{}{
		"payment_status": constants.PaymentStatusCancelled,
		"updated_at":     now,
	}); err != nil {
		log.Errorw("payos_webhook_cancel_failed", "error", err)
		return WebhookAck{Code: constants.PayOSAckException, Desc: "internal error"}
	}
	order.Status = constants.OrderStatusCancelled
	order.PaymentStatus = constants.PaymentStatusCancelled

	log.Infow("payos_webhook_order_cancelled")
	s.notifyPaymentEvent(order, "Payment cancelled",
		fmt.Sprintf("Payment for order %s was cancelled.", order.OrderNo))
	return WebhookAck{Code: constants.PayOSAckSuccess, Desc: "success"}
}

// GetOrderByPayOSCode 按订单码查询订单（支付结果页展示用，不改状态）
func (s *PaymentService) GetOrderByPayOSCode(orderCode int64) (*models.Order, error) {
	order, err := s.orderRepo.GetByPayOSOrderCode(orderCode)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *PaymentService) notifyPaymentEvent(order *models.Order, title, message string) {
	if s.notificationSvc == nil || order == nil || order.UserID == 0 {
		return
	}
	if err := s.notificationSvc.Notify(order.UserID, constants.NotificationTypeOrderStatus, title, message, models.JSON{
		"order_id": fmt.Sprintf("%d", order.ID),
		"order_no": order.OrderNo,
		"status":   order.Status,
	}); err != nil {
		paymentLogger("order_id", order.ID).Warnw("payment_notification_failed", "error", err)
	}
}

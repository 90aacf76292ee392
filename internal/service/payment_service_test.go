package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/models"
	"github.com/velora-shop/internal/payment/payos"
	"github.com/velora-shop/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testChecksumKey = "test-checksum-key"

func setupPaymentServiceTest(t *testing.T) (*PaymentService, *OrderService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	orderRepo := repository.NewOrderRepository(db)
	productRepo := repository.NewProductRepository(db)
	cartRepo := repository.NewCartRepository(db)
	inventorySvc := NewInventoryService(repository.NewInventoryRepository(db))

	orderSvc := NewOrderService(db, orderRepo, productRepo, cartRepo, inventorySvc, nil, nil,
		ShippingPolicy{}, "VND", 15*time.Minute)
	paymentSvc := NewPaymentService(db, orderRepo, productRepo, cartRepo, inventorySvc, nil,
		&payos.Config{ClientID: "client", APIKey: "key", ChecksumKey: testChecksumKey},
		"https://shop.example.com/payments/return",
		"https://shop.example.com/payments/cancel")
	return paymentSvc, orderSvc, db
}

func createPendingPayOSOrder(t *testing.T, orderSvc *OrderService, db *gorm.DB, userID uint, stock int) *models.Order {
	t.Helper()
	product := seedRegularProduct(t, db, fmt.Sprintf("payhook-%d", userID), 150000, stock)
	seedCartItem(t, db, userID, product.ID, "", "", 2)
	order, err := orderSvc.Checkout(checkoutInput(userID, constants.PaymentMethodPayOS))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	return order
}

func signedWebhookBody(t *testing.T, orderCode, amount int64, status, txnID string) []byte {
	t.Helper()
	data := &payos.WebhookData{
		OrderCode:     orderCode,
		Amount:        amount,
		Status:        status,
		TransactionID: txnID,
	}
	data.Signature = payos.SignWebhook(testChecksumKey, data)
	body, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal webhook failed: %v", err)
	}
	return body
}

func TestWebhookPaidDebitsStockAndClearsCart(t *testing.T) {
	paymentSvc, orderSvc, db := setupPaymentServiceTest(t)
	order := createPendingPayOSOrder(t, orderSvc, db, 20, 10)

	body := signedWebhookBody(t, order.PayOSOrderCode, order.TotalAmount.Int64(), payos.StatusPaid, "txn-001")
	ack := paymentSvc.HandleWebhook(body)
	if ack.Code != constants.PayOSAckSuccess {
		t.Fatalf("ack want %s got %s (%s)", constants.PayOSAckSuccess, ack.Code, ack.Desc)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPaid {
		t.Fatalf("status want PAID got %s", reloaded.Status)
	}
	if reloaded.PaymentStatus != constants.PaymentStatusPaid || reloaded.PaidAt == nil {
		t.Fatalf("payment should be completed: %+v", reloaded)
	}
	if reloaded.ProviderTxnID != "txn-001" {
		t.Fatalf("provider txn want txn-001 got %s", reloaded.ProviderTxnID)
	}

	var product models.Product
	if err := db.First(&product, order.Items[0].ProductID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if product.StockCount != 8 {
		t.Fatalf("stock want 8 got %d", product.StockCount)
	}

	var cartCount int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", 20).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if cartCount != 0 {
		t.Fatalf("cart should be cleared after payment, got %d", cartCount)
	}
}

func TestWebhookPaidIsIdempotent(t *testing.T) {
	paymentSvc, orderSvc, db := setupPaymentServiceTest(t)
	order := createPendingPayOSOrder(t, orderSvc, db, 21, 10)

	body := signedWebhookBody(t, order.PayOSOrderCode, order.TotalAmount.Int64(), payos.StatusPaid, "txn-dup")
	if ack := paymentSvc.HandleWebhook(body); ack.Code != constants.PayOSAckSuccess {
		t.Fatalf("first ack want success got %s", ack.Code)
	}
	// 重复投递同一笔回调
	if ack := paymentSvc.HandleWebhook(body); ack.Code != constants.PayOSAckSuccess {
		t.Fatalf("replay ack want success got %s", ack.Code)
	}

	var product models.Product
	if err := db.First(&product, order.Items[0].ProductID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if product.StockCount != 8 {
		t.Fatalf("stock must not be double-debited, want 8 got %d", product.StockCount)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	paymentSvc, orderSvc, db := setupPaymentServiceTest(t)
	order := createPendingPayOSOrder(t, orderSvc, db, 22, 10)

	data := &payos.WebhookData{
		OrderCode: order.PayOSOrderCode,
		Amount:    order.TotalAmount.Int64(),
		Status:    payos.StatusPaid,
		Signature: "deadbeef",
	}
	body, _ := json.Marshal(data)

	ack := paymentSvc.HandleWebhook(body)
	if ack.Code != constants.PayOSAckInvalidSignature {
		t.Fatalf("ack want %s got %s", constants.PayOSAckInvalidSignature, ack.Code)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("forged webhook must not change order, got %s", reloaded.Status)
	}
}

func TestWebhookAmountMismatch(t *testing.T) {
	paymentSvc, orderSvc, db := setupPaymentServiceTest(t)
	order := createPendingPayOSOrder(t, orderSvc, db, 23, 10)

	body := signedWebhookBody(t, order.PayOSOrderCode, order.TotalAmount.Int64()-1000, payos.StatusPaid, "txn-short")
	ack := paymentSvc.HandleWebhook(body)
	if ack.Code != constants.PayOSAckException {
		t.Fatalf("ack want %s got %s", constants.PayOSAckException, ack.Code)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("underpaid webhook must not mark order paid, got %s", reloaded.Status)
	}
}

func TestWebhookUnknownOrder(t *testing.T) {
	paymentSvc, _, _ := setupPaymentServiceTest(t)

	body := signedWebhookBody(t, 424242424242, 100000, payos.StatusPaid, "txn-none")
	ack := paymentSvc.HandleWebhook(body)
	if ack.Code != constants.PayOSAckOrderNotFound {
		t.Fatalf("ack want %s got %s", constants.PayOSAckOrderNotFound, ack.Code)
	}
}

func TestWebhookMalformedBody(t *testing.T) {
	paymentSvc, _, _ := setupPaymentServiceTest(t)

	if ack := paymentSvc.HandleWebhook([]byte("not-json")); ack.Code != constants.PayOSAckException {
		t.Fatalf("malformed body want %s got %s", constants.PayOSAckException, ack.Code)
	}
	if ack := paymentSvc.HandleWebhook(nil); ack.Code != constants.PayOSAckException {
		t.Fatalf("empty body want %s got %s", constants.PayOSAckException, ack.Code)
	}
}

func TestWebhookCancelled(t *testing.T) {
	paymentSvc, orderSvc, db := setupPaymentServiceTest(t)
	order := createPendingPayOSOrder(t, orderSvc, db, 24, 10)

	body := signedWebhookBody(t, order.PayOSOrderCode, order.TotalAmount.Int64(), payos.StatusCancelled, "")
	ack := paymentSvc.HandleWebhook(body)
	if ack.Code != constants.PayOSAckSuccess {
		t.Fatalf("ack want success got %s", ack.Code)
	}

	var reloaded models.Order
	if err := db.First(&reloaded, order.ID).Error; err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if reloaded.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want CANCELLED got %s", reloaded.Status)
	}
	if reloaded.PaymentStatus != constants.PaymentStatusCancelled {
		t.Fatalf("payment status want cancelled got %s", reloaded.PaymentStatus)
	}

	// 在线订单未扣库存，取消也不应改动库存
	var product models.Product
	if err := db.First(&product, order.Items[0].ProductID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if product.StockCount != 10 {
		t.Fatalf("stock should be untouched, want 10 got %d", product.StockCount)
	}

	// 终态后的回调幂等吸收
	if ack := paymentSvc.HandleWebhook(body); ack.Code != constants.PayOSAckSuccess {
		t.Fatalf("replay after terminal want success got %s", ack.Code)
	}
}

func TestPaymentServiceEnabled(t *testing.T) {
	svc := NewPaymentService(nil, nil, nil, nil, nil, nil, nil, "", "")
	if svc.Enabled() {
		t.Fatalf("nil config should disable gateway")
	}
	svc = NewPaymentService(nil, nil, nil, nil, nil, nil,
		&payos.Config{ClientID: "a", APIKey: "b", ChecksumKey: "c"}, "", "")
	if !svc.Enabled() {
		t.Fatalf("complete config should enable gateway")
	}
}

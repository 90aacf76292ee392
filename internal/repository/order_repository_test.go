package repository

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewOrderRepository(db), db
}

func TestOrderPayOSColumnsRoundTrip(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)

	order := &models.Order{
		OrderNo:        "VS20260901001",
		UserID:         12,
		Status:         constants.OrderStatusPendingPayment,
		Currency:       "VND",
		Subtotal:       models.NewMoneyFromInt(300000),
		TotalAmount:    models.NewMoneyFromInt(300000),
		PaymentMethod:  constants.PaymentMethodPayOS,
		PaymentStatus:  constants.PaymentStatusPending,
		PayOSOrderCode: 20260901001,
	}
	items := []models.OrderItem{
		{ProductID: 1, ProductName: "Áo thun", Quantity: 2, UnitPrice: models.NewMoneyFromInt(150000), TotalPrice: models.NewMoneyFromInt(300000)},
	}
	if err := repo.Create(order, items); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	got, err := repo.GetByPayOSOrderCode(20260901001)
	if err != nil {
		t.Fatalf("get by payos order code failed: %v", err)
	}
	if got == nil || got.ID != order.ID {
		t.Fatalf("order lookup by payos order code failed, got %+v", got)
	}
	if len(got.Items) != 1 {
		t.Fatalf("items should be preloaded, got %d", len(got.Items))
	}

	// 创建支付会话后按字符串列名回写订单码与收银台地址
	err = repo.UpdateStatus(order.ID, constants.OrderStatusPendingPayment, map[string]interface{}{
		"payos_order_code":   int64(20260901002),
		"payos_checkout_url": "https://pay.payos.vn/web/abc123",
	})
	if err != nil {
		t.Fatalf("update payos columns failed: %v", err)
	}

	got, err = repo.GetByPayOSOrderCode(20260901002)
	if err != nil {
		t.Fatalf("get by updated payos order code failed: %v", err)
	}
	if got == nil || got.ID != order.ID {
		t.Fatalf("updated payos order code not found, got %+v", got)
	}
	if got.PayOSCheckoutURL != "https://pay.payos.vn/web/abc123" {
		t.Fatalf("checkout url mismatch, got %q", got.PayOSCheckoutURL)
	}

	if missing, err := repo.GetByPayOSOrderCode(999); err != nil || missing != nil {
		t.Fatalf("missing order code want nil,nil got %v,%v", missing, err)
	}
}

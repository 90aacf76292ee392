package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/models"
	"github.com/velora-shop/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB) {
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

	svc := NewOrderService(db, orderRepo, productRepo, cartRepo, inventorySvc, nil, nil,
		ShippingPolicy{}, "VND", 15*time.Minute)
	return svc, db
}

func seedRegularProduct(t *testing.T, db *gorm.DB, slug string, price int64, stock int) *models.Product {
	t.Helper()
	category := models.Category{Slug: slug + "-cat", Name: "Test Category"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	product := models.Product{
		CategoryID:    category.ID,
		Slug:          slug,
		Name:          "Test Product " + slug,
		Price:         models.NewMoneyFromInt(price),
		InventoryType: constants.InventoryTypeRegular,
		StockCount:    stock,
		IsActive:      true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return &product
}

func seedCartItem(t *testing.T, db *gorm.DB, userID, productID uint, size, color string, quantity int) {
	t.Helper()
	item := models.CartItem{
		UserID:    userID,
		ProductID: productID,
		Size:      size,
		Color:     color,
		Quantity:  quantity,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("create cart item failed: %v", err)
	}
}

func checkoutInput(userID uint, method string) CheckoutInput {
	return CheckoutInput{
		UserID:          userID,
		PaymentMethod:   method,
		ShippingName:    "Nguyen Van A",
		ShippingPhone:   "0900000000",
		ShippingAddress: "123 Le Loi, Q1, HCMC",
	}
}

func TestCheckoutCODDebitsStockAndClearsCart(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedRegularProduct(t, db, "cod-tee", 250000, 10)
	seedCartItem(t, db, 7, product.ID, "", "", 3)

	order, err := svc.Checkout(checkoutInput(7, constants.PaymentMethodCOD))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.Status != constants.OrderStatusPaid {
		t.Fatalf("status want PAID got %s", order.Status)
	}
	if order.PaymentStatus != constants.PaymentStatusPending {
		t.Fatalf("payment status want pending got %s", order.PaymentStatus)
	}
	if order.Subtotal.Int64() != 750000 {
		t.Fatalf("subtotal want 750000 got %d", order.Subtotal.Int64())
	}
	if order.TotalAmount.Int64() != 750000 {
		t.Fatalf("total want 750000 got %d", order.TotalAmount.Int64())
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 3 {
		t.Fatalf("unexpected order items: %+v", order.Items)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockCount != 7 {
		t.Fatalf("stock want 7 got %d", reloaded.StockCount)
	}

	var cartCount int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", 7).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if cartCount != 0 {
		t.Fatalf("cart should be cleared, got %d items", cartCount)
	}
}

func TestCheckoutPayOSDefersStockDebit(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedRegularProduct(t, db, "payos-tee", 199000, 5)
	seedCartItem(t, db, 8, product.ID, "", "", 2)

	order, err := svc.Checkout(checkoutInput(8, constants.PaymentMethodPayOS))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.Status != constants.OrderStatusPendingPayment {
		t.Fatalf("status want PENDING_PAYMENT got %s", order.Status)
	}
	if order.PayOSOrderCode <= 0 {
		t.Fatalf("order code should be positive, got %d", order.PayOSOrderCode)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockCount != 5 {
		t.Fatalf("stock should be untouched, want 5 got %d", reloaded.StockCount)
	}

	// 购物车保留到支付确认后再清空
	var cartCount int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", 8).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if cartCount != 1 {
		t.Fatalf("cart should be kept for online payment, got %d items", cartCount)
	}
}

func TestCheckoutPayOSDiscardsPreviousPendingOrder(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedRegularProduct(t, db, "repay-tee", 100000, 5)
	seedCartItem(t, db, 9, product.ID, "", "", 1)

	first, err := svc.Checkout(checkoutInput(9, constants.PaymentMethodPayOS))
	if err != nil {
		t.Fatalf("first checkout failed: %v", err)
	}
	second, err := svc.Checkout(checkoutInput(9, constants.PaymentMethodPayOS))
	if err != nil {
		t.Fatalf("second checkout failed: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("expected a fresh order")
	}

	var gone models.Order
	err = db.First(&gone, first.ID).Error
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("first pending order should be soft deleted, err=%v", err)
	}
}

func TestCheckoutValidation(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedRegularProduct(t, db, "val-tee", 100000, 2)

	if _, err := svc.Checkout(checkoutInput(10, "bank_transfer")); !errors.Is(err, ErrPaymentMethodInvalid) {
		t.Fatalf("want ErrPaymentMethodInvalid got %v", err)
	}

	input := checkoutInput(10, constants.PaymentMethodCOD)
	input.ShippingAddress = "  "
	if _, err := svc.Checkout(input); !errors.Is(err, ErrShippingInfoRequired) {
		t.Fatalf("want ErrShippingInfoRequired got %v", err)
	}

	if _, err := svc.Checkout(checkoutInput(10, constants.PaymentMethodCOD)); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("want ErrCartEmpty got %v", err)
	}

	seedCartItem(t, db, 10, product.ID, "", "", 5)
	if _, err := svc.Checkout(checkoutInput(10, constants.PaymentMethodCOD)); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock got %v", err)
	}

	// 失败的结账不应留下订单
	var orderCount int64
	if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
		t.Fatalf("count orders failed: %v", err)
	}
	if orderCount != 0 {
		t.Fatalf("no orders expected, got %d", orderCount)
	}
}

func TestCheckoutUsesDiscountPriceAndShippingFee(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	svc.shipping = ShippingPolicy{FlatFee: 30000, FreeThreshold: 500000}

	product := seedRegularProduct(t, db, "sale-tee", 250000, 10)
	discount := models.NewMoneyFromInt(200000)
	product.DiscountPrice = &discount
	if err := db.Save(product).Error; err != nil {
		t.Fatalf("save discount failed: %v", err)
	}
	seedCartItem(t, db, 11, product.ID, "", "", 2)

	order, err := svc.Checkout(checkoutInput(11, constants.PaymentMethodCOD))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if order.Subtotal.Int64() != 400000 {
		t.Fatalf("subtotal want 400000 got %d", order.Subtotal.Int64())
	}
	if order.ShippingFee.Int64() != 30000 {
		t.Fatalf("shipping fee want 30000 got %d", order.ShippingFee.Int64())
	}
	if order.TotalAmount.Int64() != 430000 {
		t.Fatalf("total want 430000 got %d", order.TotalAmount.Int64())
	}
	if !order.Items[0].UnitPrice.Decimal.Equal(discount.Decimal) {
		t.Fatalf("unit price should freeze discount price, got %s", order.Items[0].UnitPrice.String())
	}
}

func TestRequestCancelAndApproveRestocks(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedRegularProduct(t, db, "cancel-tee", 150000, 10)
	seedCartItem(t, db, 12, product.ID, "", "", 4)

	order, err := svc.Checkout(checkoutInput(12, constants.PaymentMethodCOD))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if _, err := svc.RequestCancel(order.ID, 999, "wrong owner"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign user want ErrOrderNotFound got %v", err)
	}

	updated, err := svc.RequestCancel(order.ID, 12, "changed my mind")
	if err != nil {
		t.Fatalf("request cancel failed: %v", err)
	}
	if updated.CancelRequestStatus != constants.CancelRequestStatusPending {
		t.Fatalf("cancel request status want pending got %s", updated.CancelRequestStatus)
	}

	if _, err := svc.RequestCancel(order.ID, 12, "again"); !errors.Is(err, ErrCancelRequestExists) {
		t.Fatalf("duplicate request want ErrCancelRequestExists got %v", err)
	}

	approved, err := svc.ApproveCancel(order.ID)
	if err != nil {
		t.Fatalf("approve cancel failed: %v", err)
	}
	if approved.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want CANCELLED got %s", approved.Status)
	}
	if approved.CancelRequestStatus != constants.CancelRequestStatusApproved {
		t.Fatalf("cancel request status want approved got %s", approved.CancelRequestStatus)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockCount != 10 {
		t.Fatalf("stock should be restored to 10, got %d", reloaded.StockCount)
	}
}

func TestRejectCancelKeepsOrderStatus(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedRegularProduct(t, db, "reject-tee", 150000, 10)
	seedCartItem(t, db, 13, product.ID, "", "", 1)

	order, err := svc.Checkout(checkoutInput(13, constants.PaymentMethodCOD))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if _, err := svc.RequestCancel(order.ID, 13, ""); err != nil {
		t.Fatalf("request cancel failed: %v", err)
	}

	rejected, err := svc.RejectCancel(order.ID)
	if err != nil {
		t.Fatalf("reject cancel failed: %v", err)
	}
	if rejected.Status != constants.OrderStatusPaid {
		t.Fatalf("order status should be unchanged, got %s", rejected.Status)
	}
	if rejected.CancelRequestStatus != constants.CancelRequestStatusRejected {
		t.Fatalf("cancel request status want rejected got %s", rejected.CancelRequestStatus)
	}

	// 驳回后库存不回补
	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockCount != 9 {
		t.Fatalf("stock want 9 got %d", reloaded.StockCount)
	}

	if _, err := svc.ApproveCancel(order.ID); !errors.Is(err, ErrCancelRequestNotFound) {
		t.Fatalf("approve after reject want ErrCancelRequestNotFound got %v", err)
	}
}

func TestUpdateStatusForAdminTransitions(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedRegularProduct(t, db, "ship-tee", 120000, 10)
	seedCartItem(t, db, 14, product.ID, "", "", 1)

	order, err := svc.Checkout(checkoutInput(14, constants.PaymentMethodCOD))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	// 跳级迁移被拒绝
	if _, err := svc.UpdateStatusForAdmin(UpdateStatusInput{OrderID: order.ID, TargetStatus: constants.OrderStatusDelivered}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("skip transition want ErrOrderStatusInvalid got %v", err)
	}
	if _, err := svc.UpdateStatusForAdmin(UpdateStatusInput{OrderID: order.ID, TargetStatus: "not-a-status"}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("unknown status want ErrOrderStatusInvalid got %v", err)
	}

	if _, err := svc.UpdateStatusForAdmin(UpdateStatusInput{OrderID: order.ID, TargetStatus: "processing"}); err != nil {
		t.Fatalf("paid -> processing failed: %v", err)
	}

	shipped, err := svc.UpdateStatusForAdmin(UpdateStatusInput{
		OrderID:        order.ID,
		TargetStatus:   constants.OrderStatusShipped,
		TrackingNumber: "GHN123456",
	})
	if err != nil {
		t.Fatalf("processing -> shipped failed: %v", err)
	}
	if shipped.TrackingNumber != "GHN123456" || shipped.ShippedAt == nil {
		t.Fatalf("shipped order should carry tracking and timestamp: %+v", shipped)
	}

	delivered, err := svc.UpdateStatusForAdmin(UpdateStatusInput{OrderID: order.ID, TargetStatus: constants.OrderStatusDelivered})
	if err != nil {
		t.Fatalf("shipped -> delivered failed: %v", err)
	}
	// COD 在签收时收款完成
	if delivered.PaymentStatus != constants.PaymentStatusPaid || delivered.PaidAt == nil {
		t.Fatalf("cod delivery should mark payment paid: %+v", delivered)
	}

	if _, err := svc.UpdateStatusForAdmin(UpdateStatusInput{OrderID: order.ID, TargetStatus: constants.OrderStatusProcessing}); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("backward transition want ErrOrderStatusInvalid got %v", err)
	}
}

func TestUpdateStatusForAdminCancelRestocks(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedRegularProduct(t, db, "admin-cancel-tee", 120000, 6)
	seedCartItem(t, db, 15, product.ID, "", "", 2)

	order, err := svc.Checkout(checkoutInput(15, constants.PaymentMethodCOD))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	if _, err := svc.UpdateStatusForAdmin(UpdateStatusInput{OrderID: order.ID, TargetStatus: constants.OrderStatusCancelled}); err != nil {
		t.Fatalf("admin cancel failed: %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockCount != 6 {
		t.Fatalf("stock should be restored to 6, got %d", reloaded.StockCount)
	}
}

func TestCancelExpiredOrder(t *testing.T) {
	svc, db := setupOrderServiceTest(t)
	product := seedRegularProduct(t, db, "expire-tee", 100000, 5)
	seedCartItem(t, db, 16, product.ID, "", "", 1)

	order, err := svc.Checkout(checkoutInput(16, constants.PaymentMethodPayOS))
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	cancelled, err := svc.CancelExpiredOrder(order.ID)
	if err != nil {
		t.Fatalf("cancel expired failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled {
		t.Fatalf("status want CANCELLED got %s", cancelled.Status)
	}
	if cancelled.PaymentStatus != constants.PaymentStatusCancelled {
		t.Fatalf("payment status want cancelled got %s", cancelled.PaymentStatus)
	}

	// 已离开待支付的订单不再改动
	again, err := svc.CancelExpiredOrder(order.ID)
	if err != nil {
		t.Fatalf("second cancel failed: %v", err)
	}
	if again.Status != constants.OrderStatusCancelled {
		t.Fatalf("status should stay CANCELLED, got %s", again.Status)
	}

	if _, err := svc.CancelExpiredOrder(99999); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order want ErrOrderNotFound got %v", err)
	}
}

func TestOrderStatusTransitionTable(t *testing.T) {
	cases := []struct {
		from  string
		to    string
		allow bool
	}{
		{constants.OrderStatusPendingPayment, constants.OrderStatusPaid, true},
		{constants.OrderStatusPendingPayment, constants.OrderStatusShipped, false},
		{constants.OrderStatusPaid, constants.OrderStatusProcessing, true},
		{constants.OrderStatusPaid, constants.OrderStatusRefunded, true},
		{constants.OrderStatusProcessing, constants.OrderStatusShipped, true},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		{constants.OrderStatusDelivered, constants.OrderStatusRefunded, true},
		{constants.OrderStatusDelivered, constants.OrderStatusCancelled, false},
		{constants.OrderStatusCancelled, constants.OrderStatusPaid, false},
		{constants.OrderStatusRefunded, constants.OrderStatusPaid, false},
		{constants.OrderStatusPaid, constants.OrderStatusPaid, false},
	}
	for _, tc := range cases {
		if got := isTransitionAllowed(tc.from, tc.to); got != tc.allow {
			t.Fatalf("transition %s -> %s want %v got %v", tc.from, tc.to, tc.allow, got)
		}
	}
}

func TestShippingPolicyFeeFor(t *testing.T) {
	free := ShippingPolicy{}
	if fee := free.FeeFor(models.NewMoneyFromInt(100000)); fee.Int64() != 0 {
		t.Fatalf("default policy should be free, got %d", fee.Int64())
	}

	policy := ShippingPolicy{FlatFee: 30000, FreeThreshold: 500000}
	if fee := policy.FeeFor(models.NewMoneyFromInt(499999)); fee.Int64() != 30000 {
		t.Fatalf("below threshold want 30000 got %d", fee.Int64())
	}
	if fee := policy.FeeFor(models.NewMoneyFromInt(500000)); fee.Int64() != 0 {
		t.Fatalf("at threshold want 0 got %d", fee.Int64())
	}
}

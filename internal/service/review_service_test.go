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

func setupReviewServiceTest(t *testing.T) (*ReviewService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	svc := NewReviewService(
		repository.NewReviewRepository(db),
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
	)
	return svc, db
}

func seedDeliveredOrder(t *testing.T, db *gorm.DB, userID, productID uint) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNo:       fmt.Sprintf("VS%d", time.Now().UnixNano()),
		UserID:        userID,
		Status:        constants.OrderStatusDelivered,
		Currency:      "VND",
		PaymentMethod: constants.PaymentMethodCOD,
		PaymentStatus: constants.PaymentStatusPaid,
		Subtotal:      models.NewMoneyFromInt(100000),
		TotalAmount:   models.NewMoneyFromInt(100000),
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	item := &models.OrderItem{
		OrderID:     order.ID,
		ProductID:   productID,
		ProductName: "Delivered Product",
		UnitPrice:   models.NewMoneyFromInt(100000),
		Quantity:    1,
		TotalPrice:  models.NewMoneyFromInt(100000),
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}
	return order
}

func TestCreateReviewRequiresDeliveredOrder(t *testing.T) {
	svc, db := setupReviewServiceTest(t)
	product := seedRegularProduct(t, db, "review-tee", 100000, 5)

	if _, err := svc.CreateReview(CreateReviewInput{UserID: 30, ProductID: product.ID, Rating: 6}); !errors.Is(err, ErrRatingInvalid) {
		t.Fatalf("rating 6 want ErrRatingInvalid got %v", err)
	}
	if _, err := svc.CreateReview(CreateReviewInput{UserID: 30, ProductID: 9999, Rating: 5}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("missing product want ErrProductNotFound got %v", err)
	}

	// 未购买或未送达：不可评价
	if _, err := svc.CreateReview(CreateReviewInput{UserID: 30, ProductID: product.ID, Rating: 5}); !errors.Is(err, ErrReviewNotAllowed) {
		t.Fatalf("no delivered order want ErrReviewNotAllowed got %v", err)
	}

	order := seedDeliveredOrder(t, db, 30, product.ID)
	review, err := svc.CreateReview(CreateReviewInput{UserID: 30, ProductID: product.ID, Rating: 5, Comment: "Chất vải đẹp"})
	if err != nil {
		t.Fatalf("create review failed: %v", err)
	}
	if review.OrderID != order.ID {
		t.Fatalf("review should bind to delivered order %d, got %d", order.ID, review.OrderID)
	}

	// 同一 (用户, 商品, 订单) 只能评价一次
	if _, err := svc.CreateReview(CreateReviewInput{UserID: 30, ProductID: product.ID, Rating: 4}); !errors.Is(err, ErrReviewDuplicate) {
		t.Fatalf("duplicate want ErrReviewDuplicate got %v", err)
	}

	// 其他用户不受影响
	if _, err := svc.CreateReview(CreateReviewInput{UserID: 31, ProductID: product.ID, Rating: 4}); !errors.Is(err, ErrReviewNotAllowed) {
		t.Fatalf("other user without order want ErrReviewNotAllowed got %v", err)
	}
}

func TestListProductReviewsSummary(t *testing.T) {
	svc, db := setupReviewServiceTest(t)
	product := seedRegularProduct(t, db, "summary-tee", 100000, 5)

	seedDeliveredOrder(t, db, 40, product.ID)
	seedDeliveredOrder(t, db, 41, product.ID)
	if _, err := svc.CreateReview(CreateReviewInput{UserID: 40, ProductID: product.ID, Rating: 5}); err != nil {
		t.Fatalf("create review failed: %v", err)
	}
	if _, err := svc.CreateReview(CreateReviewInput{UserID: 41, ProductID: product.ID, Rating: 3}); err != nil {
		t.Fatalf("create review failed: %v", err)
	}

	page, err := svc.ListProductReviews(product.ID, 1, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if page.Total != 2 || len(page.Reviews) != 2 {
		t.Fatalf("reviews want 2 got total=%d len=%d", page.Total, len(page.Reviews))
	}
	if page.ReviewCount != 2 || page.AverageRating != 4 {
		t.Fatalf("summary mismatch: count=%d average=%f", page.ReviewCount, page.AverageRating)
	}
}

func TestUpdateAndDeleteReviewOwnership(t *testing.T) {
	svc, db := setupReviewServiceTest(t)
	product := seedRegularProduct(t, db, "own-tee", 100000, 5)
	seedDeliveredOrder(t, db, 50, product.ID)

	review, err := svc.CreateReview(CreateReviewInput{UserID: 50, ProductID: product.ID, Rating: 4, Comment: "ok"})
	if err != nil {
		t.Fatalf("create review failed: %v", err)
	}

	if _, err := svc.UpdateReview(review.ID, 51, 5, "hijack"); !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("foreign update want ErrReviewNotFound got %v", err)
	}
	updated, err := svc.UpdateReview(review.ID, 50, 5, "đổi ý, rất thích")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Rating != 5 {
		t.Fatalf("rating want 5 got %d", updated.Rating)
	}

	if err := svc.DeleteReview(review.ID, 51, false); !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("foreign delete want ErrReviewNotFound got %v", err)
	}
	// 管理员可删除任意评价
	if err := svc.DeleteReview(review.ID, 51, true); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}
	if err := svc.DeleteReview(review.ID, 50, false); !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("deleted review want ErrReviewNotFound got %v", err)
	}
}

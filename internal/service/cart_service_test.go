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

func setupCartServiceTest(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	svc := NewCartService(
		repository.NewCartRepository(db),
		repository.NewProductRepository(db),
		NewInventoryService(repository.NewInventoryRepository(db)),
	)
	return svc, db
}

func TestCartAddUpsertsSameSelection(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := seedInventoryProduct(t, db, constants.InventoryTypeSize, 20)
	if err := db.Create(&models.ProductSize{ProductID: product.ID, Size: "M", StockCount: 20}).Error; err != nil {
		t.Fatalf("create size failed: %v", err)
	}

	first, err := svc.Add(AddCartItemInput{UserID: 5, ProductID: product.ID, Size: "M", Quantity: 2})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	second, err := svc.Add(AddCartItemInput{UserID: 5, ProductID: product.ID, Size: "M", Quantity: 3})
	if err != nil {
		t.Fatalf("second add failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("same selection should merge into one row")
	}
	if second.Quantity != 5 {
		t.Fatalf("quantity want 5 got %d", second.Quantity)
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", 5).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("cart rows want 1 got %d", count)
	}

	// 累计数量不得超过可售库存
	if _, err := svc.Add(AddCartItemInput{UserID: 5, ProductID: product.ID, Size: "M", Quantity: 16}); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("want ErrInsufficientStock got %v", err)
	}
}

func TestCartAddValidation(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := seedInventoryProduct(t, db, constants.InventoryTypeRegular, 3)

	if _, err := svc.Add(AddCartItemInput{UserID: 5, ProductID: product.ID, Quantity: 0}); !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("zero quantity want ErrQuantityInvalid got %v", err)
	}
	if _, err := svc.Add(AddCartItemInput{UserID: 5, ProductID: 9999, Quantity: 1}); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("missing product want ErrProductNotFound got %v", err)
	}
	if _, err := svc.Add(AddCartItemInput{UserID: 5, ProductID: product.ID, Size: "M", Quantity: 1}); !errors.Is(err, ErrSelectionInvalid) {
		t.Fatalf("regular with size want ErrSelectionInvalid got %v", err)
	}
	if _, err := svc.Add(AddCartItemInput{UserID: 5, ProductID: product.ID, Quantity: 4}); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("oversell want ErrInsufficientStock got %v", err)
	}

	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if _, err := svc.Add(AddCartItemInput{UserID: 5, ProductID: product.ID, Quantity: 1}); !errors.Is(err, ErrProductInactive) {
		t.Fatalf("inactive product want ErrProductInactive got %v", err)
	}
}

func TestCartUpdateQuantityAndRemove(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := seedInventoryProduct(t, db, constants.InventoryTypeRegular, 10)

	item, err := svc.Add(AddCartItemInput{UserID: 6, ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	if err := svc.UpdateQuantity(6, item.ID, 5); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if err := svc.UpdateQuantity(6, item.ID, 11); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("oversell want ErrInsufficientStock got %v", err)
	}
	// 归属校验：他人购物车项不可操作
	if err := svc.UpdateQuantity(7, item.ID, 1); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("foreign user want ErrCartItemNotFound got %v", err)
	}
	if err := svc.Remove(7, item.ID); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("foreign remove want ErrCartItemNotFound got %v", err)
	}

	if err := svc.Remove(6, item.ID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := svc.Remove(6, item.ID); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("second remove want ErrCartItemNotFound got %v", err)
	}

	// 软删除：记录保留在表中
	var raw int64
	if err := db.Unscoped().Model(&models.CartItem{}).Where("id = ?", item.ID).Count(&raw).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if raw != 1 {
		t.Fatalf("soft-deleted row should remain, got %d", raw)
	}
}

func TestCartUpdateQuantityZeroRemovesItem(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := seedInventoryProduct(t, db, constants.InventoryTypeRegular, 10)

	item, err := svc.Add(AddCartItemInput{UserID: 6, ProductID: product.ID, Quantity: 2})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// 数量归零前仍做归属校验
	if err := svc.UpdateQuantity(7, item.ID, 0); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("foreign user want ErrCartItemNotFound got %v", err)
	}

	if err := svc.UpdateQuantity(6, item.ID, 0); err != nil {
		t.Fatalf("zero quantity update failed: %v", err)
	}
	summary, err := svc.ListByUser(6)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(summary.Items) != 0 {
		t.Fatalf("zero quantity should remove the item, got %d items", len(summary.Items))
	}

	// 负数同样视为移除，且重复操作返回未找到
	if err := svc.UpdateQuantity(6, item.ID, -1); !errors.Is(err, ErrCartItemNotFound) {
		t.Fatalf("removed item want ErrCartItemNotFound got %v", err)
	}

	var raw int64
	if err := db.Unscoped().Model(&models.CartItem{}).Where("id = ?", item.ID).Count(&raw).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if raw != 1 {
		t.Fatalf("soft-deleted row should remain, got %d", raw)
	}
}

func TestCartListPrunesUnavailableItems(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	keep := seedInventoryProduct(t, db, constants.InventoryTypeRegular, 10)
	drop := seedInventoryProduct(t, db, constants.InventoryTypeRegular, 10)

	if _, err := svc.Add(AddCartItemInput{UserID: 8, ProductID: keep.ID, Quantity: 2}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if _, err := svc.Add(AddCartItemInput{UserID: 8, ProductID: drop.ID, Quantity: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := db.Model(&models.Product{}).Where("id = ?", drop.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}

	summary, err := svc.ListByUser(8)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(summary.Items) != 1 || summary.Items[0].ProductID != keep.ID {
		t.Fatalf("inactive product should be pruned: %+v", summary.Items)
	}
	if summary.Count != 2 {
		t.Fatalf("count want 2 got %d", summary.Count)
	}
	if summary.Subtotal.Int64() != 200000 {
		t.Fatalf("subtotal want 200000 got %d", summary.Subtotal.Int64())
	}
}

func TestCartClear(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product := seedInventoryProduct(t, db, constants.InventoryTypeRegular, 10)

	if _, err := svc.Add(AddCartItemInput{UserID: 9, ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if err := svc.Clear(9); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	summary, err := svc.ListByUser(9)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(summary.Items) != 0 {
		t.Fatalf("cart should be empty, got %d items", len(summary.Items))
	}
}

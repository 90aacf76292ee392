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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupProductServiceTest(t *testing.T) (*ProductService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	inventoryRepo := repository.NewInventoryRepository(db)
	svc := NewProductService(
		repository.NewProductRepository(db),
		repository.NewCategoryRepository(db),
		inventoryRepo,
		NewInventoryService(inventoryRepo),
	)
	return svc, db
}

func seedTestCategory(t *testing.T, db *gorm.DB, slug string) *models.Category {
	t.Helper()
	category := models.Category{Slug: slug, Name: "Category " + slug}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	return &category
}

func saveInput(categoryID uint, slug string) SaveProductInput {
	return SaveProductInput{
		CategoryID:    categoryID,
		Slug:          slug,
		Name:          "Product " + slug,
		Price:         decimal.NewFromInt(150000),
		InventoryType: constants.InventoryTypeRegular,
	}
}

func TestCreateProductRegular(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	category := seedTestCategory(t, db, "ao-thun")

	stock := 12
	input := saveInput(category.ID, "ao-thun-basic")
	input.StockCount = &stock
	input.Images = []ProductImageInput{
		{URL: "/uploads/a.jpg", IsPrimary: true},
		{URL: "/uploads/b.jpg", SortOrder: 1},
	}

	product, err := svc.Create(input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if product.StockCount != 12 {
		t.Fatalf("stock want 12 got %d", product.StockCount)
	}
	if len(product.Images) != 2 {
		t.Fatalf("images want 2 got %d", len(product.Images))
	}
	if !product.IsActive {
		t.Fatalf("product should default to active")
	}

	// slug 冲突
	if _, err := svc.Create(saveInput(category.ID, "ao-thun-basic")); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("want ErrSlugTaken got %v", err)
	}
}

func TestCreateProductVariantAggregatesStock(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	category := seedTestCategory(t, db, "hoodie")

	input := saveInput(category.ID, "hoodie-premium")
	input.InventoryType = constants.InventoryTypeBoth
	input.Variants = []VariantStockInput{
		{Size: "M", Color: "Đen", StockCount: 7},
		{Size: "M", Color: "Xám", StockCount: 4},
		{Size: "L", Color: "Đen", StockCount: 0},
	}

	product, err := svc.Create(input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if product.StockCount != 11 {
		t.Fatalf("aggregate stock want 11 got %d", product.StockCount)
	}
	if len(product.Variants) != 3 {
		t.Fatalf("variants want 3 got %d", len(product.Variants))
	}
}

func TestCreateProductValidation(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	category := seedTestCategory(t, db, "phu-kien")

	input := saveInput(category.ID, "")
	if _, err := svc.Create(input); !errors.Is(err, ErrProductInvalid) {
		t.Fatalf("empty slug want ErrProductInvalid got %v", err)
	}

	input = saveInput(category.ID, "free-stuff")
	input.Price = decimal.Zero
	if _, err := svc.Create(input); !errors.Is(err, ErrProductPriceInvalid) {
		t.Fatalf("zero price want ErrProductPriceInvalid got %v", err)
	}

	// 折扣价必须低于原价
	input = saveInput(category.ID, "bad-discount")
	discount := decimal.NewFromInt(150000)
	input.DiscountPrice = &discount
	if _, err := svc.Create(input); !errors.Is(err, ErrProductPriceInvalid) {
		t.Fatalf("discount >= price want ErrProductPriceInvalid got %v", err)
	}

	// regular 不接受分库存字段
	input = saveInput(category.ID, "mixed-up")
	input.Sizes = []SizeStockInput{{Size: "M", StockCount: 3}}
	if _, err := svc.Create(input); !errors.Is(err, ErrInventoryTypeInvalid) {
		t.Fatalf("regular with sizes want ErrInventoryTypeInvalid got %v", err)
	}

	// size 类型要求至少一行尺码
	input = saveInput(category.ID, "no-sizes")
	input.InventoryType = constants.InventoryTypeSize
	if _, err := svc.Create(input); !errors.Is(err, ErrInventoryTypeInvalid) {
		t.Fatalf("size without rows want ErrInventoryTypeInvalid got %v", err)
	}

	// 重复尺码
	input = saveInput(category.ID, "dup-sizes")
	input.InventoryType = constants.InventoryTypeSize
	input.Sizes = []SizeStockInput{{Size: "M", StockCount: 3}, {Size: "M", StockCount: 5}}
	if _, err := svc.Create(input); !errors.Is(err, ErrStockCountInvalid) {
		t.Fatalf("duplicate sizes want ErrStockCountInvalid got %v", err)
	}

	input = saveInput(category.ID, "unknown-type")
	input.InventoryType = "bundle"
	if _, err := svc.Create(input); !errors.Is(err, ErrInventoryTypeInvalid) {
		t.Fatalf("unknown type want ErrInventoryTypeInvalid got %v", err)
	}

	if _, err := svc.Create(saveInput(9999, "orphan")); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("missing category want ErrCategoryNotFound got %v", err)
	}
}

func TestUpdateProductReplacesPartitions(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	category := seedTestCategory(t, db, "tote")

	input := saveInput(category.ID, "tui-tote")
	input.InventoryType = constants.InventoryTypeColor
	input.Colors = []ColorStockInput{
		{Color: "Be", StockCount: 12},
		{Color: "Đen", StockCount: 8},
	}
	product, err := svc.Create(input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if product.StockCount != 20 {
		t.Fatalf("aggregate stock want 20 got %d", product.StockCount)
	}

	update := saveInput(category.ID, "tui-tote")
	update.InventoryType = constants.InventoryTypeColor
	update.Colors = []ColorStockInput{{Color: "Xanh rêu", StockCount: 5}}
	updated, err := svc.Update(product.ID, update)
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(updated.Colors) != 1 || updated.Colors[0].Color != "Xanh rêu" {
		t.Fatalf("colors should be fully replaced: %+v", updated.Colors)
	}
	if updated.StockCount != 5 {
		t.Fatalf("aggregate stock want 5 got %d", updated.StockCount)
	}

	// 保留自身 slug 不算冲突
	if _, err := svc.Update(product.ID, update); err != nil {
		t.Fatalf("update with own slug failed: %v", err)
	}

	other, err := svc.Create(saveInput(category.ID, "tui-khac"))
	if err != nil {
		t.Fatalf("create second product failed: %v", err)
	}
	conflict := saveInput(category.ID, "tui-tote")
	if _, err := svc.Update(other.ID, conflict); !errors.Is(err, ErrSlugTaken) {
		t.Fatalf("want ErrSlugTaken got %v", err)
	}
}

func TestGetPublicBySlugHidesInactive(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	category := seedTestCategory(t, db, "visible")

	inactive := false
	input := saveInput(category.ID, "hidden-tee")
	input.IsActive = &inactive
	if _, err := svc.Create(input); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.GetPublicBySlug("hidden-tee"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("inactive product want ErrProductNotFound got %v", err)
	}
	if _, err := svc.GetPublicBySlug("missing"); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("missing product want ErrProductNotFound got %v", err)
	}
}

func TestListPublicFiltersInactive(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	category := seedTestCategory(t, db, "list")

	if _, err := svc.Create(saveInput(category.ID, "active-tee")); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	inactive := false
	hidden := saveInput(category.ID, "hidden-tee")
	hidden.IsActive = &inactive
	if _, err := svc.Create(hidden); err != nil {
		t.Fatalf("create hidden failed: %v", err)
	}

	items, total, err := svc.ListPublic(PublicListInput{Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].Slug != "active-tee" {
		t.Fatalf("public list should hide inactive products: total=%d items=%+v", total, items)
	}

	items, total, err = svc.ListAdmin(0, "", 1, 10)
	if err != nil {
		t.Fatalf("admin list failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("admin list should include inactive, total want 2 got %d", total)
	}
	_ = items
}

func TestDeleteProduct(t *testing.T) {
	svc, db := setupProductServiceTest(t)
	category := seedTestCategory(t, db, "del")

	product, err := svc.Create(saveInput(category.ID, "bye-tee"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.Delete(product.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := svc.Delete(product.ID); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("second delete want ErrProductNotFound got %v", err)
	}
}

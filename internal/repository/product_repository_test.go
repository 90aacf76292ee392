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

func setupProductRepositoryTest(t *testing.T) (*GormProductRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return NewProductRepository(db), db
}

func createTestProduct(t *testing.T, repo *GormProductRepository, slug string, price int64, discount *int64, stock int, active bool) *models.Product {
	t.Helper()
	product := &models.Product{
		CategoryID:    1,
		Slug:          slug,
		Name:          "Product " + slug,
		Price:         models.NewMoneyFromInt(price),
		InventoryType: constants.InventoryTypeRegular,
		StockCount:    stock,
		IsActive:      active,
	}
	if discount != nil {
		d := models.NewMoneyFromInt(*discount)
		product.DiscountPrice = &d
	}
	if err := repo.Create(product); err != nil {
		t.Fatalf("create product %s failed: %v", slug, err)
	}
	return product
}

func TestProductListFilters(t *testing.T) {
	repo, _ := setupProductRepositoryTest(t)

	discount := int64(180000)
	createTestProduct(t, repo, "ao-thun-trang", 250000, nil, 10, true)
	createTestProduct(t, repo, "ao-khoac-gio", 450000, &discount, 0, true)
	createTestProduct(t, repo, "mu-luoi-trai", 90000, nil, 5, false)

	// 公开列表只看上架商品
	items, total, err := repo.List(ProductListFilter{OnlyActive: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("active total want 2 got %d", total)
	}

	// 有货筛选
	items, total, err = repo.List(ProductListFilter{OnlyActive: true, InStockOnly: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 1 || items[0].Slug != "ao-thun-trang" {
		t.Fatalf("in-stock filter want ao-thun-trang, got total=%d items=%+v", total, items)
	}

	// 关键词匹配 name/slug/description
	_, total, err = repo.List(ProductListFilter{Search: "khoac"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("search total want 1 got %d", total)
	}

	// 价格筛选按生效价：折扣价优先于原价
	max := int64(200000)
	items, total, err = repo.List(ProductListFilter{MaxPrice: &max})
	if err != nil {
		t.Fatalf("price filter failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("max price total want 2 got %d", total)
	}
	slugs := make(map[string]bool, len(items))
	for _, item := range items {
		slugs[item.Slug] = true
	}
	if !slugs["ao-khoac-gio"] || !slugs["mu-luoi-trai"] {
		t.Fatalf("effective price filter mismatch: %v", slugs)
	}

	min := int64(200000)
	_, total, err = repo.List(ProductListFilter{MinPrice: &min})
	if err != nil {
		t.Fatalf("price filter failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("min price total want 1 got %d", total)
	}
}

func TestProductListPagination(t *testing.T) {
	repo, _ := setupProductRepositoryTest(t)
	for i := 0; i < 5; i++ {
		createTestProduct(t, repo, fmt.Sprintf("tee-%d", i), 100000, nil, 1, true)
	}

	items, total, err := repo.List(ProductListFilter{Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 5 {
		t.Fatalf("total want 5 got %d", total)
	}
	if len(items) != 2 {
		t.Fatalf("page size want 2 got %d", len(items))
	}
}

func TestProductGetBySlug(t *testing.T) {
	repo, _ := setupProductRepositoryTest(t)
	createTestProduct(t, repo, "hidden-tee", 100000, nil, 3, false)

	product, err := repo.GetBySlug("hidden-tee", true)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if product != nil {
		t.Fatalf("onlyActive lookup should miss inactive product")
	}

	product, err = repo.GetBySlug("hidden-tee", false)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if product == nil {
		t.Fatalf("admin lookup should find inactive product")
	}

	product, err = repo.GetBySlug("missing", false)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if product != nil {
		t.Fatalf("missing slug should return nil without error")
	}
}

func TestProductCountBySlug(t *testing.T) {
	repo, _ := setupProductRepositoryTest(t)
	product := createTestProduct(t, repo, "tee-one", 100000, nil, 1, true)

	count, err := repo.CountBySlug("tee-one", nil)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("count want 1 got %d", count)
	}

	count, err = repo.CountBySlug("tee-one", &product.ID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("self-excluded count want 0 got %d", count)
	}
}

func TestProductReplaceImages(t *testing.T) {
	repo, db := setupProductRepositoryTest(t)
	product := createTestProduct(t, repo, "pic-tee", 100000, nil, 1, true)

	if err := repo.ReplaceImages(product.ID, []models.ProductImage{
		{URL: "/uploads/old-1.jpg"},
		{URL: "/uploads/old-2.jpg"},
	}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}
	if err := repo.ReplaceImages(product.ID, []models.ProductImage{
		{URL: "/uploads/new.jpg", IsPrimary: true},
	}); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	var images []models.ProductImage
	if err := db.Where("product_id = ?", product.ID).Find(&images).Error; err != nil {
		t.Fatalf("load images failed: %v", err)
	}
	if len(images) != 1 || images[0].URL != "/uploads/new.jpg" {
		t.Fatalf("images should be fully replaced: %+v", images)
	}

	// 清空
	if err := repo.ReplaceImages(product.ID, nil); err != nil {
		t.Fatalf("replace with empty failed: %v", err)
	}
	if err := db.Where("product_id = ?", product.ID).Find(&images).Error; err != nil {
		t.Fatalf("load images failed: %v", err)
	}
	if len(images) != 0 {
		t.Fatalf("images should be cleared, got %d", len(images))
	}
}

func TestProductSoftDelete(t *testing.T) {
	repo, _ := setupProductRepositoryTest(t)
	product := createTestProduct(t, repo, "gone-tee", 100000, nil, 1, true)

	if err := repo.Delete(product.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	found, err := repo.GetByID(product.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if found != nil {
		t.Fatalf("deleted product should not be found")
	}
	_, total, err := repo.List(ProductListFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("deleted product should not be listed, total=%d", total)
	}
}

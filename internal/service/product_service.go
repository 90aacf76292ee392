package service

import (
	"strings"

	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/models"
	"github.com/velora-shop/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductService 商品业务服务
type ProductService struct {
	productRepo   repository.ProductRepository
	categoryRepo  repository.CategoryRepository
	inventoryRepo repository.InventoryRepository
	inventorySvc  *InventoryService
}

// NewProductService 创建商品服务
func NewProductService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository, inventoryRepo repository.InventoryRepository, inventorySvc *InventoryService) *ProductService {
	return &ProductService{
		productRepo:   productRepo,
		categoryRepo:  categoryRepo,
		inventoryRepo: inventoryRepo,
		inventorySvc:  inventorySvc,
	}
}

// ProductImageInput 商品图片入参
type ProductImageInput struct {
	URL       string `json:"url"`
	IsPrimary bool   `json:"is_primary"`
	SortOrder int    `json:"sort_order"`
}

// SizeStockInput 尺码分库存入参
type SizeStockInput struct {
	Size       string `json:"size"`
	StockCount int    `json:"stock_count"`
}

// ColorStockInput 颜色分库存入参
type ColorStockInput struct {
	Color      string `json:"color"`
	StockCount int    `json:"stock_count"`
}

// VariantStockInput 尺码+颜色分库存入参
type VariantStockInput struct {
	Size       string `json:"size"`
	Color      string `json:"color"`
	StockCount int    `json:"stock_count"`
}

// SaveProductInput 创建/更新商品入参
type SaveProductInput struct {
	CategoryID    uint
	Slug          string
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice *decimal.Decimal
	InventoryType string
	StockCount    *int
	Images        []ProductImageInput
	Sizes         []SizeStockInput
	Colors        []ColorStockInput
	Variants      []VariantStockInput
	IsActive      *bool
	SortOrder     int
}

// PublicListInput 公开商品列表查询入参
type PublicListInput struct {
	Page        int
	PageSize    int
	CategoryID  uint
	Search      string
	MinPrice    *int64
	MaxPrice    *int64
	InStockOnly bool
}

// ListPublic 获取公开商品列表
func (s *ProductService) ListPublic(input PublicListInput) ([]models.Product, int64, error) {
	return s.productRepo.List(repository.ProductListFilter{
		Page:         input.Page,
		PageSize:     input.PageSize,
		CategoryID:   input.CategoryID,
		Search:       input.Search,
		MinPrice:     input.MinPrice,
		MaxPrice:     input.MaxPrice,
		InStockOnly:  input.InStockOnly,
		OnlyActive:   true,
		WithCategory: true,
	})
}

// GetPublicBySlug 获取公开商品详情（含分库存明细）
func (s *ProductService) GetPublicBySlug(slug string) (*models.Product, error) {
	product, err := s.productRepo.GetBySlug(slug, true)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// ListAdmin 获取后台商品列表
func (s *ProductService) ListAdmin(categoryID uint, search string, page, pageSize int) ([]models.Product, int64, error) {
	return s.productRepo.List(repository.ProductListFilter{
		Page:         page,
		PageSize:     pageSize,
		CategoryID:   categoryID,
		Search:       search,
		OnlyActive:   false,
		WithCategory: true,
	})
}

// GetAdminByID 获取后台商品详情
func (s *ProductService) GetAdminByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品
func (s *ProductService) Create(input SaveProductInput) (*models.Product, error) {
	normalized, err := s.normalizeSaveInput(&input)
	if err != nil {
		return nil, err
	}
	category, err := s.categoryRepo.GetByID(input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	count, err := s.productRepo.CountBySlug(input.Slug, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	isActive := true
	if input.IsActive != nil {
		isActive = *input.IsActive
	}
	product := models.Product{
		CategoryID:    input.CategoryID,
		Slug:          strings.TrimSpace(input.Slug),
		Name:          strings.TrimSpace(input.Name),
		Description:   input.Description,
		Price:         models.NewMoneyFromDecimal(input.Price),
		InventoryType: normalized.inventoryType,
		StockCount:    normalized.regularStock,
		IsActive:      isActive,
		SortOrder:     input.SortOrder,
	}
	if input.DiscountPrice != nil {
		discount := models.NewMoneyFromDecimal(*input.DiscountPrice)
		product.DiscountPrice = &discount
	}
	for _, image := range input.Images {
		product.Images = append(product.Images, models.ProductImage{
			URL:       image.URL,
			IsPrimary: image.IsPrimary,
			SortOrder: image.SortOrder,
		})
	}

	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.productRepo.WithTx(tx).Create(&product); err != nil {
			return err
		}
		return s.applyPartitions(tx, &product, normalized)
	})
	if err != nil {
		return nil, err
	}
	return s.GetAdminByID(product.ID)
}

// Update 更新商品（整体替换图片与分库存）
func (s *ProductService) Update(id uint, input SaveProductInput) (*models.Product, error) {
	normalized, err := s.normalizeSaveInput(&input)
	if err != nil {
		return nil, err
	}
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	category, err := s.categoryRepo.GetByID(input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	count, err := s.productRepo.CountBySlug(input.Slug, &id)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugTaken
	}

	product.CategoryID = input.CategoryID
	product.Slug = strings.TrimSpace(input.Slug)
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.Price = models.NewMoneyFromDecimal(input.Price)
	product.DiscountPrice = nil
	if input.DiscountPrice != nil {
		discount := models.NewMoneyFromDecimal(*input.DiscountPrice)
		product.DiscountPrice = &discount
	}
	product.InventoryType = normalized.inventoryType
	if normalized.inventoryType == constants.InventoryTypeRegular {
		product.StockCount = normalized.regularStock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}
	product.SortOrder = input.SortOrder
	// 关联单独整体替换，避免 Update 级联写入脏数据
	product.Images = nil
	product.Sizes = nil
	product.Colors = nil
	product.Variants = nil

	err = s.productRepo.Transaction(func(tx *gorm.DB) error {
		txRepo := s.productRepo.WithTx(tx)
		if err := txRepo.Update(product); err != nil {
			return err
		}
		images := make([]models.ProductImage, 0, len(input.Images))
		for _, image := range input.Images {
			images = append(images, models.ProductImage{
				ProductID: product.ID,
				URL:       image.URL,
				IsPrimary: image.IsPrimary,
				SortOrder: image.SortOrder,
			})
		}
		if err := txRepo.ReplaceImages(product.ID, images); err != nil {
			return err
		}
		return s.applyPartitions(tx, product, normalized)
	})
	if err != nil {
		return nil, err
	}
	return s.GetAdminByID(product.ID)
}

// Delete 删除商品（软删除）
func (s *ProductService) Delete(id uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return s.productRepo.Delete(id)
}

type normalizedSaveInput struct {
	inventoryType string
	regularStock  int
	sizes         []models.ProductSize
	colors        []models.ProductColor
	variants      []models.ProductVariant
}

// normalizeSaveInput 校验价格与库存类型，并按类型整理分库存。
// 每种类型只接受它自己的分库存字段，其余字段必须为空。
func (s *ProductService) normalizeSaveInput(input *SaveProductInput) (*normalizedSaveInput, error) {
	if strings.TrimSpace(input.Slug) == "" || strings.TrimSpace(input.Name) == "" {
		return nil, ErrProductInvalid
	}
	input.Price = input.Price.Round(0)
	if input.Price.LessThanOrEqual(decimal.Zero) {
		return nil, ErrProductPriceInvalid
	}
	if input.DiscountPrice != nil {
		discount := input.DiscountPrice.Round(0)
		if discount.LessThanOrEqual(decimal.Zero) || discount.GreaterThanOrEqual(input.Price) {
			return nil, ErrProductPriceInvalid
		}
		input.DiscountPrice = &discount
	}

	inventoryType := strings.ToLower(strings.TrimSpace(input.InventoryType))
	if inventoryType == "" {
		inventoryType = constants.InventoryTypeRegular
	}
	result := &normalizedSaveInput{inventoryType: inventoryType}

	switch inventoryType {
	case constants.InventoryTypeRegular:
		if len(input.Sizes) > 0 || len(input.Colors) > 0 || len(input.Variants) > 0 {
			return nil, ErrInventoryTypeInvalid
		}
		if input.StockCount != nil {
			if *input.StockCount < 0 {
				return nil, ErrStockCountInvalid
			}
			result.regularStock = *input.StockCount
		}
	case constants.InventoryTypeSize:
		if len(input.Colors) > 0 || len(input.Variants) > 0 || len(input.Sizes) == 0 {
			return nil, ErrInventoryTypeInvalid
		}
		seen := make(map[string]bool, len(input.Sizes))
		for _, row := range input.Sizes {
			size := strings.TrimSpace(row.Size)
			if size == "" || row.StockCount < 0 || seen[size] {
				return nil, ErrStockCountInvalid
			}
			seen[size] = true
			result.sizes = append(result.sizes, models.ProductSize{Size: size, StockCount: row.StockCount})
		}
	case constants.InventoryTypeColor:
		if len(input.Sizes) > 0 || len(input.Variants) > 0 || len(input.Colors) == 0 {
			return nil, ErrInventoryTypeInvalid
		}
		seen := make(map[string]bool, len(input.Colors))
		for _, row := range input.Colors {
			color := strings.TrimSpace(row.Color)
			if color == "" || row.StockCount < 0 || seen[color] {
				return nil, ErrStockCountInvalid
			}
			seen[color] = true
			result.colors = append(result.colors, models.ProductColor{Color: color, StockCount: row.StockCount})
		}
	case constants.InventoryTypeBoth:
		if len(input.Sizes) > 0 || len(input.Colors) > 0 || len(input.Variants) == 0 {
			return nil, ErrInventoryTypeInvalid
		}
		seen := make(map[string]bool, len(input.Variants))
		for _, row := range input.Variants {
			size := strings.TrimSpace(row.Size)
			color := strings.TrimSpace(row.Color)
			key := size + "\x00" + color
			if size == "" || color == "" || row.StockCount < 0 || seen[key] {
				return nil, ErrStockCountInvalid
			}
			seen[key] = true
			result.variants = append(result.variants, models.ProductVariant{Size: size, Color: color, StockCount: row.StockCount})
		}
	default:
		return nil, ErrInventoryTypeInvalid
	}
	return result, nil
}

// applyPartitions 整体替换分库存并重算汇总库存
func (s *ProductService) applyPartitions(tx *gorm.DB, product *models.Product, normalized *normalizedSaveInput) error {
	if err := s.inventoryRepo.ReplaceSizes(tx, product.ID, normalized.sizes); err != nil {
		return err
	}
	if err := s.inventoryRepo.ReplaceColors(tx, product.ID, normalized.colors); err != nil {
		return err
	}
	if err := s.inventoryRepo.ReplaceVariants(tx, product.ID, normalized.variants); err != nil {
		return err
	}
	return s.inventorySvc.RecalcAggregateTx(tx, product)
}

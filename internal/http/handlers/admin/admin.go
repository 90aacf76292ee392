package admin

import (
	"errors"
	"strconv"

	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ====================  商品管理  ====================

// GetAdminProducts 管理端商品列表（含未上架）
func (h *Handler) GetAdminProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)

	products, total, err := h.ProductService.ListAdmin(uint(categoryID), c.Query("search"), page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "product list failed", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"products": products}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// GetAdminProduct 管理端商品详情
func (h *Handler) GetAdminProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := h.ProductService.GetAdminByID(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, response.CodeNotFound, "product not found", nil)
		default:
			respondError(c, response.CodeInternal, "product fetch failed", err)
		}
		return
	}
	response.Success(c, gin.H{"product": product})
}

// SaveProductRequest 创建/更新商品请求
type SaveProductRequest struct {
	CategoryID    uint                        `json:"category_id" binding:"required"`
	Slug          string                      `json:"slug" binding:"required"`
	Name          string                      `json:"name" binding:"required"`
	Description   string                      `json:"description"`
	Price         float64                     `json:"price" binding:"required"`
	DiscountPrice *float64                    `json:"discount_price"`
	InventoryType string                      `json:"inventory_type" binding:"required"`
	StockCount    *int                        `json:"stock_count"`
	Images        []service.ProductImageInput `json:"images"`
	Sizes         []service.SizeStockInput    `json:"sizes"`
	Colors        []service.ColorStockInput   `json:"colors"`
	Variants      []service.VariantStockInput `json:"variants"`
	IsActive      *bool                       `json:"is_active"`
	SortOrder     int                         `json:"sort_order"`
}

func (r SaveProductRequest) toServiceInput() service.SaveProductInput {
	input := service.SaveProductInput{
		CategoryID:    r.CategoryID,
		Slug:          r.Slug,
		Name:          r.Name,
		Description:   r.Description,
		Price:         decimal.NewFromFloat(r.Price),
		InventoryType: r.InventoryType,
		StockCount:    r.StockCount,
		Images:        r.Images,
		Sizes:         r.Sizes,
		Colors:        r.Colors,
		Variants:      r.Variants,
		IsActive:      r.IsActive,
		SortOrder:     r.SortOrder,
	}
	if r.DiscountPrice != nil {
		discount := decimal.NewFromFloat(*r.DiscountPrice)
		input.DiscountPrice = &discount
	}
	return input
}

var productSaveErrorRules = []struct {
	target error
	code   int
	msg    string
}{
	{service.ErrCategoryNotFound, response.CodeBadRequest, "category not found"},
	{service.ErrSlugTaken, response.CodeConflict, "slug already in use"},
	{service.ErrProductInvalid, response.CodeBadRequest, "product slug and name are required"},
	{service.ErrProductPriceInvalid, response.CodeBadRequest, "invalid product price"},
	{service.ErrInventoryTypeInvalid, response.CodeBadRequest, "invalid inventory type"},
	{service.ErrStockCountInvalid, response.CodeBadRequest, "invalid stock count"},
}

func respondProductSaveError(c *gin.Context, err error, fallback string) {
	for _, rule := range productSaveErrorRules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, response.CodeInternal, fallback, err)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	var req SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.Create(req.toServiceInput())
	if err != nil {
		respondProductSaveError(c, err, "product creation failed")
		return
	}
	response.Success(c, gin.H{"product": product})
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req SaveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	product, err := h.ProductService.Update(id, req.toServiceInput())
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondProductSaveError(c, err, "product update failed")
		return
	}
	response.Success(c, gin.H{"product": product})
}

// DeleteProduct 删除商品（软删除）
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(id); err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, response.CodeNotFound, "product not found", nil)
		default:
			respondError(c, response.CodeInternal, "product delete failed", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ====================  分类管理  ====================

// GetAdminCategories 管理端分类列表
func (h *Handler) GetAdminCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondError(c, response.CodeInternal, "category list failed", err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}

// SaveCategoryRequest 创建/更新分类请求
type SaveCategoryRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

// CreateCategory 创建分类
func (h *Handler) CreateCategory(c *gin.Context) {
	var req SaveCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	category, err := h.CategoryService.Create(service.SaveCategoryInput{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryInvalid):
			respondError(c, response.CodeBadRequest, "category slug and name are required", nil)
		case errors.Is(err, service.ErrSlugTaken):
			respondError(c, response.CodeConflict, "slug already in use", nil)
		default:
			respondError(c, response.CodeInternal, "category creation failed", err)
		}
		return
	}
	response.Success(c, gin.H{"category": category})
}

// UpdateCategory 更新分类
func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req SaveCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	category, err := h.CategoryService.Update(id, service.SaveCategoryInput{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			respondError(c, response.CodeNotFound, "category not found", nil)
		case errors.Is(err, service.ErrCategoryInvalid):
			respondError(c, response.CodeBadRequest, "category slug and name are required", nil)
		case errors.Is(err, service.ErrSlugTaken):
			respondError(c, response.CodeConflict, "slug already in use", nil)
		default:
			respondError(c, response.CodeInternal, "category update failed", err)
		}
		return
	}
	response.Success(c, gin.H{"category": category})
}

// DeleteCategory 删除分类
func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.CategoryService.Delete(id); err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			respondError(c, response.CodeNotFound, "category not found", nil)
		case errors.Is(err, service.ErrCategoryInUse):
			respondError(c, response.CodeConflict, "category still has products", nil)
		default:
			respondError(c, response.CodeInternal, "category delete failed", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

package public

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/velora-shop/internal/http/handlers/shared"
	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/service"

	"github.com/gin-gonic/gin"
)

func parsePriceParam(raw string) *int64 {
	value := strings.TrimSpace(raw)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil || parsed < 0 {
		return nil
	}
	return &parsed
}

// ListProducts 公开商品列表
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 64)

	products, total, err := h.ProductService.ListPublic(service.PublicListInput{
		Page:        page,
		PageSize:    pageSize,
		CategoryID:  uint(categoryID),
		Search:      c.Query("search"),
		MinPrice:    parsePriceParam(c.Query("min_price")),
		MaxPrice:    parsePriceParam(c.Query("max_price")),
		InStockOnly: c.Query("in_stock") == "true",
	})
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

// GetProduct 公开商品详情（含库存分区明细与评价汇总）
func (h *Handler) GetProduct(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "product slug required", nil)
		return
	}

	product, err := h.ProductService.GetPublicBySlug(slug)
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

// ListCategories 公开分类列表
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CategoryService.List()
	if err != nil {
		respondError(c, response.CodeInternal, "category list failed", err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}

// GetCategory 公开分类详情
func (h *Handler) GetCategory(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "category slug required", nil)
		return
	}
	category, err := h.CategoryService.GetBySlug(slug)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCategoryNotFound):
			respondError(c, response.CodeNotFound, "category not found", nil)
		default:
			respondError(c, response.CodeInternal, "category fetch failed", err)
		}
		return
	}
	response.Success(c, gin.H{"category": category})
}

package admin

import (
	"errors"
	"strconv"

	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/repository"
	"github.com/velora-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// GetAdminReviews 管理端评价列表（按商品筛选）
func (h *Handler) GetAdminReviews(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	productID, _ := strconv.ParseUint(c.Query("product_id"), 10, 64)
	if productID == 0 {
		respondError(c, response.CodeBadRequest, "product_id required", nil)
		return
	}

	reviews, total, err := h.ReviewRepo.ListByProduct(repository.ReviewListFilter{
		Page:      page,
		PageSize:  pageSize,
		ProductID: uint(productID),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "review list failed", err)
		return
	}

	response.SuccessWithPage(c, gin.H{"reviews": reviews}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// AdminDeleteReview 管理端删除违规评价
func (h *Handler) AdminDeleteReview(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	if err := h.ReviewService.DeleteReview(id, adminID, true); err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			respondError(c, response.CodeNotFound, "review not found", nil)
		default:
			respondError(c, response.CodeInternal, "review delete failed", err)
		}
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

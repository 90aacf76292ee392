package public

import (
	"errors"
	"strconv"

	handlershared "github.com/velora-shop/internal/http/handlers/shared"
	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateReviewRequest 创建评价请求
type CreateReviewRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required"`
	Comment   string `json:"comment"`
}

// CreateReview 创建商品评价，要求已收货订单
func (h *Handler) CreateReview(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	review, err := h.ReviewService.CreateReview(service.CreateReviewInput{
		UserID:    uid,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		respondWithMappedError(c, err, reviewCreateErrorRules, response.CodeInternal, "review creation failed")
		return
	}
	response.Success(c, gin.H{"review": review})
}

// ListProductReviews 商品评价列表（公开）
func (h *Handler) ListProductReviews(c *gin.Context) {
	product, err := h.ProductService.GetPublicBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "product not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "review list failed", err)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	pageData, err := h.ReviewService.ListProductReviews(product.ID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "review list failed", err)
		return
	}
	response.SuccessWithPage(c, pageData, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     pageData.Total,
		TotalPage: (pageData.Total + int64(pageSize) - 1) / int64(pageSize),
	})
}

// ListMyReviews 当前用户评价列表
func (h *Handler) ListMyReviews(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	reviews, total, err := h.ReviewService.ListUserReviews(uid, page, pageSize)
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

// UpdateReviewRequest 更新评价请求
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

func reviewIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid review id", nil)
		return 0, false
	}
	return uint(id), true
}

// UpdateReview 更新本人评价
func (h *Handler) UpdateReview(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}
	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	review, err := h.ReviewService.UpdateReview(reviewID, uid, req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrReviewNotFound):
			respondError(c, response.CodeNotFound, "review not found", nil)
		case errors.Is(err, service.ErrRatingInvalid):
			respondError(c, response.CodeBadRequest, "rating must be between 1 and 5", nil)
		default:
			respondError(c, response.CodeInternal, "review update failed", err)
		}
		return
	}
	response.Success(c, gin.H{"review": review})
}

// DeleteReview 删除本人评价
func (h *Handler) DeleteReview(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	reviewID, ok := reviewIDParam(c)
	if !ok {
		return
	}
	if err := h.ReviewService.DeleteReview(reviewID, uid, false); err != nil {
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

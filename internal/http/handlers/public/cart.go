package public

import (
	"strconv"

	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// AddCartItemRequest 加入购物车请求
type AddCartItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// UpdateCartItemRequest 更新购物车项请求。数量 <= 0 表示移除该项。
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart 获取购物车
func (h *Handler) GetCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	summary, err := h.CartService.ListByUser(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "cart fetch failed", err)
		return
	}
	response.Success(c, summary)
}

// AddCartItem 加入购物车（同款合并数量）
func (h *Handler) AddCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	item, err := h.CartService.Add(service.AddCartItemInput{
		UserID:    uid,
		ProductID: req.ProductID,
		Size:      req.Size,
		Color:     req.Color,
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondWithMappedError(c, err, cartMutationErrorRules, response.CodeInternal, "cart update failed")
		return
	}
	response.Success(c, gin.H{"item": item})
}

func cartItemIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid cart item id", nil)
		return 0, false
	}
	return uint(id), true
}

// UpdateCartItem 更新购物车项数量
func (h *Handler) UpdateCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := cartItemIDParam(c)
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	if err := h.CartService.UpdateQuantity(uid, itemID, req.Quantity); err != nil {
		respondWithMappedError(c, err, cartMutationErrorRules, response.CodeInternal, "cart update failed")
		return
	}
	response.Success(c, gin.H{"updated": true})
}

// DeleteCartItem 删除购物车项（软删除）
func (h *Handler) DeleteCartItem(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := cartItemIDParam(c)
	if !ok {
		return
	}
	if err := h.CartService.Remove(uid, itemID); err != nil {
		respondWithMappedError(c, err, cartMutationErrorRules, response.CodeInternal, "cart update failed")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// ClearCart 清空购物车
func (h *Handler) ClearCart(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(uid); err != nil {
		respondError(c, response.CodeInternal, "cart clear failed", err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

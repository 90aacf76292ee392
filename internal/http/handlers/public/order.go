package public

import (
	"errors"
	"strconv"

	"github.com/velora-shop/internal/constants"
	handlershared "github.com/velora-shop/internal/http/handlers/shared"
	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/repository"
	"github.com/velora-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// CheckoutRequest 结账请求
type CheckoutRequest struct {
	PaymentMethod   string `json:"payment_method" binding:"required"`
	ShippingName    string `json:"shipping_name" binding:"required"`
	ShippingPhone   string `json:"shipping_phone" binding:"required"`
	ShippingAddress string `json:"shipping_address" binding:"required"`
	Note            string `json:"note"`
}

// Checkout 从购物车结账。COD 直接成单，PayOS 返回收银台地址。
func (h *Handler) Checkout(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	if req.PaymentMethod == constants.PaymentMethodPayOS && !h.PaymentService.Enabled() {
		respondError(c, response.CodeBadRequest, "online payment is not available", nil)
		return
	}

	order, err := h.OrderService.Checkout(service.CheckoutInput{
		UserID:          uid,
		PaymentMethod:   req.PaymentMethod,
		ShippingName:    req.ShippingName,
		ShippingPhone:   req.ShippingPhone,
		ShippingAddress: req.ShippingAddress,
		Note:            req.Note,
	})
	if err != nil {
		respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "checkout failed")
		return
	}

	if order.PaymentMethod == constants.PaymentMethodPayOS {
		checkoutURL, err := h.PaymentService.CreateCheckout(c.Request.Context(), order)
		if err != nil {
			respondWithMappedError(c, err, checkoutErrorRules, response.CodeInternal, "checkout failed")
			return
		}
		response.Success(c, gin.H{"order": order, "checkout_url": checkoutURL})
		return
	}

	response.Success(c, gin.H{"order": order})
}

// ListMyOrders 当前用户订单列表
func (h *Handler) ListMyOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListOrdersByUser(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"orders": orders}, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}

func orderIDParam(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", nil)
		return 0, false
	}
	return uint(id), true
}

// GetMyOrder 当前用户订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrderByUser(orderID, uid)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrNotOrderOwner):
			respondError(c, response.CodeForbidden, "order does not belong to you", nil)
		default:
			respondError(c, response.CodeInternal, "order fetch failed", err)
		}
		return
	}
	response.Success(c, gin.H{"order": order})
}

// CancelOrderRequest 取消申请请求
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// RequestCancelOrder 提交订单取消申请，待管理员审核
func (h *Handler) RequestCancelOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}
	var req CancelOrderRequest
	// body 可省略，视为无理由取消
	_ = c.ShouldBindJSON(&req)
	order, err := h.OrderService.RequestCancel(orderID, uid, req.Reason)
	if err != nil {
		respondWithMappedError(c, err, orderCancelErrorRules, response.CodeInternal, "cancel request failed")
		return
	}
	response.Success(c, gin.H{"order": order})
}

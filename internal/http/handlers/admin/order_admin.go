package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/repository"
	"github.com/velora-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminListOrders 管理端订单列表
func (h *Handler) AdminListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	createdFrom, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	createdTo, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to")))
	if err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}

	var userID uint
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			userID = uint(parsed)
		}
	}

	orders, total, err := h.OrderService.ListOrdersForAdmin(repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		UserID:        userID,
		Status:        strings.TrimSpace(c.Query("status")),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
		CancelPending: c.Query("cancel_pending") == "true",
		CreatedFrom:   createdFrom,
		CreatedTo:     createdTo,
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

// AdminGetOrder 管理端订单详情
func (h *Handler) AdminGetOrder(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetOrderForAdmin(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		default:
			respondError(c, response.CodeInternal, "order fetch failed", err)
		}
		return
	}
	response.Success(c, gin.H{"order": order})
}

// UpdateOrderStatusRequest 管理端订单状态更新请求
type UpdateOrderStatusRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"tracking_number"`
}

// AdminUpdateOrderStatus 管理端更新订单状态，按状态迁移表校验
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "bad request", err)
		return
	}
	order, err := h.OrderService.UpdateStatusForAdmin(service.UpdateStatusInput{
		OrderID:        id,
		TargetStatus:   req.Status,
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "invalid order status transition", nil)
		default:
			respondError(c, response.CodeInternal, "order update failed", err)
		}
		return
	}
	response.Success(c, gin.H{"order": order})
}

// AdminApproveCancel 批准取消申请，已扣库存订单回补库存
func (h *Handler) AdminApproveCancel(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.ApproveCancel(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrCancelRequestNotFound):
			respondError(c, response.CodeBadRequest, "no pending cancellation request", nil)
		default:
			respondError(c, response.CodeInternal, "cancel approval failed", err)
		}
		return
	}
	response.Success(c, gin.H{"order": order})
}

// AdminRejectCancel 驳回取消申请
func (h *Handler) AdminRejectCancel(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.RejectCancel(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrCancelRequestNotFound):
			respondError(c, response.CodeBadRequest, "no pending cancellation request", nil)
		default:
			respondError(c, response.CodeInternal, "cancel rejection failed", err)
		}
		return
	}
	response.Success(c, gin.H{"order": order})
}

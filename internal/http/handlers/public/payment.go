package public

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	handlershared "github.com/velora-shop/internal/http/handlers/shared"
	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/service"

	"github.com/gin-gonic/gin"
)

// PayOSWebhook 接收 PayOS 异步回调。
// 应答为网关约定的 {code, desc} 原始 JSON，不走统一响应包装。
func (h *Handler) PayOSWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		handlershared.RequestLog(c).Warnw("payos_webhook_read_failed", "error", err)
		c.JSON(http.StatusOK, service.WebhookAck{Code: "99", Desc: "read body failed"})
		return
	}

	ack := h.PaymentService.HandleWebhook(body)
	c.JSON(http.StatusOK, ack)
}

// GetPaymentResult 按 PayOS orderCode 查询订单支付结果，用于支付完成后的跳转页
func (h *Handler) GetPaymentResult(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderCode, err := strconv.ParseInt(c.Param("order_code"), 10, 64)
	if err != nil || orderCode <= 0 {
		respondError(c, response.CodeBadRequest, "invalid order code", nil)
		return
	}

	order, err := h.PaymentService.GetOrderByPayOSCode(orderCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		default:
			respondError(c, response.CodeInternal, "payment result fetch failed", err)
		}
		return
	}
	if order.UserID != uid {
		respondError(c, response.CodeForbidden, "order does not belong to you", nil)
		return
	}

	response.Success(c, gin.H{
		"order_id":       order.ID,
		"order_no":       order.OrderNo,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
		"total_amount":   order.TotalAmount,
	})
}

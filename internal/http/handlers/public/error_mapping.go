package public

import (
	"errors"

	handlershared "github.com/velora-shop/internal/http/handlers/shared"
	"github.com/velora-shop/internal/http/response"
	"github.com/velora-shop/internal/service"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var cartMutationErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrProductInactive, code: response.CodeBadRequest, msg: "product not available"},
	{target: service.ErrQuantityInvalid, code: response.CodeBadRequest, msg: "invalid quantity"},
	{target: service.ErrSelectionRequired, code: response.CodeBadRequest, msg: "size or color selection required"},
	{target: service.ErrSelectionInvalid, code: response.CodeBadRequest, msg: "selection not applicable to this product"},
	{target: service.ErrVariantNotFound, code: response.CodeBadRequest, msg: "selected variant not found"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, msg: "insufficient stock"},
	{target: service.ErrCartItemNotFound, code: response.CodeNotFound, msg: "cart item not found"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentMethodInvalid, code: response.CodeBadRequest, msg: "invalid payment method"},
	{target: service.ErrShippingInfoRequired, code: response.CodeBadRequest, msg: "shipping name, phone and address are required"},
	{target: service.ErrCartEmpty, code: response.CodeBadRequest, msg: "cart is empty"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, msg: "a cart product is no longer available"},
	{target: service.ErrProductInactive, code: response.CodeBadRequest, msg: "a cart product is no longer available"},
	{target: service.ErrVariantNotFound, code: response.CodeBadRequest, msg: "a selected variant is no longer available"},
	{target: service.ErrSelectionInvalid, code: response.CodeBadRequest, msg: "a cart selection no longer matches the product"},
	{target: service.ErrInsufficientStock, code: response.CodeBadRequest, msg: "insufficient stock"},
	{target: service.ErrPaymentGatewayFailed, code: response.CodeInternal, msg: "payment gateway request failed"},
}

var orderCancelErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrNotOrderOwner, code: response.CodeForbidden, msg: "order does not belong to you"},
	{target: service.ErrCancelNotAllowed, code: response.CodeBadRequest, msg: "order can no longer be cancelled"},
	{target: service.ErrCancelRequestExists, code: response.CodeConflict, msg: "a cancellation request is already pending"},
}

var reviewCreateErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
	{target: service.ErrRatingInvalid, code: response.CodeBadRequest, msg: "rating must be between 1 and 5"},
	{target: service.ErrReviewNotAllowed, code: response.CodeForbidden, msg: "reviews require a delivered order containing the product"},
	{target: service.ErrReviewDuplicate, code: response.CodeConflict, msg: "you already reviewed this product for this order"},
}

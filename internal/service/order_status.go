package service

import "github.com/velora-shop/internal/constants"

// orderStatusTransitions 订单状态迁移表。
// 主链 PENDING_PAYMENT → PAID → PROCESSING → SHIPPED → DELIVERED；
// DELIVERED 之前可侧出 CANCELLED，PAID 之后可侧出 REFUNDED。
var orderStatusTransitions = map[string][]string{
	constants.OrderStatusPendingPayment: {
		constants.OrderStatusPaid,
		constants.OrderStatusCancelled,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusProcessing,
		constants.OrderStatusCancelled,
		constants.OrderStatusRefunded,
	},
	constants.OrderStatusProcessing: {
		constants.OrderStatusShipped,
		constants.OrderStatusCancelled,
		constants.OrderStatusRefunded,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered,
		constants.OrderStatusCancelled,
		constants.OrderStatusRefunded,
	},
	constants.OrderStatusDelivered: {
		constants.OrderStatusRefunded,
	},
	constants.OrderStatusCancelled: {},
	constants.OrderStatusRefunded:  {},
}

// isOrderStatusValid 判断是否为合法状态值
func isOrderStatusValid(status string) bool {
	_, ok := orderStatusTransitions[constants.NormalizeOrderStatus(status)]
	return ok
}

// isTransitionAllowed 判断状态迁移是否合法
func isTransitionAllowed(from, to string) bool {
	from = constants.NormalizeOrderStatus(from)
	to = constants.NormalizeOrderStatus(to)
	if from == to {
		return false
	}
	for _, next := range orderStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// isOrderTerminal 判断订单是否处于终态
func isOrderTerminal(status string) bool {
	return len(orderStatusTransitions[constants.NormalizeOrderStatus(status)]) == 0
}

// isStockDebited 判断该状态下库存是否已扣减。
// PENDING_PAYMENT 的在线订单尚未扣减，取消时无需回补。
func isStockDebited(status string) bool {
	switch constants.NormalizeOrderStatus(status) {
	case constants.OrderStatusPendingPayment, constants.OrderStatusCancelled:
		return false
	default:
		return true
	}
}

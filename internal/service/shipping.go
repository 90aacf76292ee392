package service

import "github.com/velora-shop/internal/models"

// ShippingPolicy 运费策略：固定运费 + 免运费门槛。
// 默认配置运费为 0，即全场免运费。
type ShippingPolicy struct {
	FlatFee       int64
	FreeThreshold int64
}

// FeeFor 计算订单运费
func (p ShippingPolicy) FeeFor(subtotal models.Money) models.Money {
	if p.FlatFee <= 0 {
		return models.NewMoneyFromInt(0)
	}
	if p.FreeThreshold > 0 && subtotal.Int64() >= p.FreeThreshold {
		return models.NewMoneyFromInt(0)
	}
	return models.NewMoneyFromInt(p.FlatFee)
}

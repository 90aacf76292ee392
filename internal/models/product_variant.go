package models

import "time"

// ProductVariant 商品尺码+颜色组合分库存表
type ProductVariant struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                                        // 主键
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_product_variant,priority:1" json:"product_id"`       // 商品ID
	Size       string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_product_variant,priority:2" json:"size"`  // 尺码
	Color      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_variant,priority:3" json:"color"` // 颜色
	StockCount int       `gorm:"not null;default:0" json:"stock_count"`                                       // 库存数量
	CreatedAt  time.Time `json:"created_at"`                                                                  // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                                                                  // 更新时间
}

// TableName 指定表名
func (ProductVariant) TableName() string {
	return "product_variants"
}

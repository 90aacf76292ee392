package models

import "time"

// ProductSize 商品尺码分库存表
type ProductSize struct {
	ID         uint      `gorm:"primarykey" json:"id"`                                                    // 主键
	ProductID  uint      `gorm:"not null;uniqueIndex:idx_product_size,priority:1" json:"product_id"`      // 商品ID
	Size       string    `gorm:"type:varchar(20);not null;uniqueIndex:idx_product_size,priority:2" json:"size"` // 尺码
	StockCount int       `gorm:"not null;default:0" json:"stock_count"`                                   // 库存数量
	CreatedAt  time.Time `json:"created_at"`                                                              // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                                                              // 更新时间
}

// TableName 指定表名
func (ProductSize) TableName() string {
	return "product_sizes"
}

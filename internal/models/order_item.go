package models

import "time"

// OrderItem 订单项表
type OrderItem struct {
	ID          uint      `gorm:"primarykey" json:"id"`                                     // 主键
	OrderID     uint      `gorm:"index;not null" json:"order_id"`                           // 订单ID
	ProductID   uint      `gorm:"index;not null" json:"product_id"`                         // 商品ID
	ProductName string    `gorm:"type:varchar(200);not null" json:"product_name"`           // 商品名称快照
	Size        string    `gorm:"type:varchar(20);default:''" json:"size"`                  // 尺码选择
	Color       string    `gorm:"type:varchar(50);default:''" json:"color"`                 // 颜色选择
	UnitPrice   Money     `gorm:"type:decimal(20,0);not null;default:0" json:"unit_price"`  // 下单单价快照
	Quantity    int       `gorm:"not null" json:"quantity"`                                 // 数量
	TotalPrice  Money     `gorm:"type:decimal(20,0);not null;default:0" json:"total_price"` // 小计
	CreatedAt   time.Time `gorm:"index" json:"created_at"`                                  // 创建时间

	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"` // 关联商品
}

// TableName 指定表名
func (OrderItem) TableName() string {
	return "order_items"
}

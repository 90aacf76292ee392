package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID                  uint           `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo             string         `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	UserID              uint           `gorm:"index;not null" json:"user_id"`                             // 用户ID
	Status              string         `gorm:"index;not null" json:"status"`                              // 订单状态
	Currency            string         `gorm:"not null" json:"currency"`                                  // 币种
	Subtotal            Money          `gorm:"type:decimal(20,0);not null;default:0" json:"subtotal"`     // 商品小计
	ShippingFee         Money          `gorm:"type:decimal(20,0);not null;default:0" json:"shipping_fee"` // 运费
	TotalAmount         Money          `gorm:"type:decimal(20,0);not null;default:0" json:"total_amount"` // 实付金额
	PaymentMethod       string         `gorm:"type:varchar(20);not null" json:"payment_method"`           // 支付方式（cod/payos）
	PaymentStatus       string         `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"` // 支付状态
	PayOSOrderCode      int64          `gorm:"column:payos_order_code;index" json:"payos_order_code,omitempty"`               // PayOS 订单码
	PayOSCheckoutURL    string         `gorm:"column:payos_checkout_url;type:varchar(500)" json:"payos_checkout_url,omitempty"` // PayOS 收银台地址
	ProviderTxnID       string         `gorm:"index;type:varchar(100)" json:"provider_txn_id,omitempty"`  // 网关交易号（回调幂等依据）
	ShippingName        string         `gorm:"type:varchar(100)" json:"shipping_name"`                    // 收货人姓名
	ShippingPhone       string         `gorm:"type:varchar(20)" json:"shipping_phone"`                    // 收货人电话
	ShippingAddress     string         `gorm:"type:varchar(500)" json:"shipping_address"`                 // 收货地址
	TrackingNumber      string         `gorm:"type:varchar(100)" json:"tracking_number,omitempty"`        // 物流单号（发货时填写）
	Note                string         `gorm:"type:varchar(500)" json:"note,omitempty"`                   // 买家备注
	CancelRequestStatus string         `gorm:"type:varchar(20);default:''" json:"cancel_request_status"`  // 取消申请状态（pending/approved/rejected）
	CancelReason        string         `gorm:"type:varchar(500)" json:"cancel_reason,omitempty"`          // 取消原因
	CancelRequestedAt   *time.Time     `json:"cancel_requested_at,omitempty"`                             // 取消申请时间
	CancelReviewedAt    *time.Time     `json:"cancel_reviewed_at,omitempty"`                              // 取消审核时间
	PaidAt              *time.Time     `gorm:"index" json:"paid_at"`                                      // 支付时间
	ShippedAt           *time.Time     `json:"shipped_at,omitempty"`                                      // 发货时间
	DeliveredAt         *time.Time     `json:"delivered_at,omitempty"`                                    // 签收时间
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt           time.Time      `gorm:"index" json:"updated_at"`                                   // 更新时间
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`                                            // 软删除时间

	// 关联
	User  *User       `gorm:"foreignKey:UserID" json:"user,omitempty"`   // 下单用户
	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"` // 订单项
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

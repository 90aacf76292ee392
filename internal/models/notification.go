package models

import "time"

// Notification 站内通知表
type Notification struct {
	ID        uint      `gorm:"primarykey" json:"id"`                           // 主键
	UserID    uint      `gorm:"not null;index" json:"user_id"`                  // 接收用户ID
	Type      string    `gorm:"type:varchar(50);not null" json:"type"`          // 通知类型
	Title     string    `gorm:"type:varchar(200);not null" json:"title"`        // 标题
	Message   string    `gorm:"type:varchar(1000)" json:"message"`              // 内容
	Data      JSON      `gorm:"type:json" json:"data,omitempty"`                // 附加数据（订单号等）
	IsRead    bool      `gorm:"default:false;index" json:"is_read"`             // 是否已读
	CreatedAt time.Time `gorm:"index" json:"created_at"`                        // 创建时间
}

// TableName 指定表名
func (Notification) TableName() string {
	return "notifications"
}

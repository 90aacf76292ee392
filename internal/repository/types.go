package repository

import "time"

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page         int
	PageSize     int
	CategoryID   uint
	Search       string
	MinPrice     *int64
	MaxPrice     *int64
	InStockOnly  bool
	OnlyActive   bool
	WithCategory bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page          int
	PageSize      int
	UserID        uint
	Status        string
	OrderNo       string
	CancelPending bool
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
}

// ReviewListFilter 查询评价列表的过滤条件
type ReviewListFilter struct {
	Page      int
	PageSize  int
	ProductID uint
	UserID    uint
}

// NotificationListFilter 查询通知列表的过滤条件
type NotificationListFilter struct {
	Page       int
	PageSize   int
	UserID     uint
	UnreadOnly bool
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Role        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

package repository

import (
	"fmt"
	"time"

	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/models"

	"gorm.io/gorm"
)

// DashboardRepository 仪表盘聚合查询接口
// 说明：仅聚合统计数据，不承载业务规则。
type DashboardRepository interface {
	GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error)
	GetSalesTrends(startAt, endAt time.Time) ([]DashboardSalesTrendRow, error)
	GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error)
	ListLowStockProducts(threshold int64, limit int) ([]models.Product, error)
}

// DashboardOverviewRow 仪表盘总览原始统计结果
type DashboardOverviewRow struct {
	OrdersTotal           int64
	PendingPaymentOrders  int64
	PaidOrders            int64
	ShippedOrders         int64
	DeliveredOrders       int64
	CancelledOrders       int64
	PendingCancelRequests int64
	RevenuePaid           float64
	NewUsers              int64
	ActiveProducts        int64
}

// DashboardSalesTrendRow 按天销售趋势
type DashboardSalesTrendRow struct {
	Day         string
	OrdersTotal int64
	OrdersPaid  int64
	RevenuePaid float64
}

// DashboardProductRankingRow 商品排行原始行
type DashboardProductRankingRow struct {
	ProductID  uint
	Name       string
	PaidOrders int64
	Quantity   int64
	PaidAmount float64
}

// GormDashboardRepository GORM 仪表盘聚合实现
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository 创建仪表盘仓库
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

func paidOrderStatuses() []string {
	return []string{
		constants.OrderStatusPaid,
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	}
}

// GetOverview 获取总览统计
func (r *GormDashboardRepository) GetOverview(startAt, endAt time.Time) (DashboardOverviewRow, error) {
	result := DashboardOverviewRow{}

	orderBase := func() *gorm.DB {
		return r.db.Model(&models.Order{}).
			Where("created_at >= ? AND created_at < ?", startAt, endAt)
	}

	if err := orderBase().Count(&result.OrdersTotal).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusPendingPayment).Count(&result.PendingPaymentOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status IN ?", paidOrderStatuses()).Count(&result.PaidOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusShipped).Count(&result.ShippedOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusDelivered).Count(&result.DeliveredOrders).Error; err != nil {
		return result, err
	}
	if err := orderBase().Where("status = ?", constants.OrderStatusCancelled).Count(&result.CancelledOrders).Error; err != nil {
		return result, err
	}
	if err := r.db.Model(&models.Order{}).
		Where("cancel_request_status = ?", constants.CancelRequestStatusPending).
		Count(&result.PendingCancelRequests).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Order{}).
		Where("paid_at IS NOT NULL AND paid_at >= ? AND paid_at < ? AND status IN ?", startAt, endAt, paidOrderStatuses()).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&result.RevenuePaid).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.User{}).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Count(&result.NewUsers).Error; err != nil {
		return result, err
	}

	if err := r.db.Model(&models.Product{}).
		Where("is_active = ?", true).
		Count(&result.ActiveProducts).Error; err != nil {
		return result, err
	}

	return result, nil
}

// GetSalesTrends 获取按天销售趋势
func (r *GormDashboardRepository) GetSalesTrends(startAt, endAt time.Time) ([]DashboardSalesTrendRow, error) {
	type totalRow struct {
		Day   string
		Total int64
	}
	type paidRow struct {
		Day     string
		Paid    int64
		Revenue float64
	}

	dayExpr := dateGroupExpr(r.db, "created_at")

	var totals []totalRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as total", dayExpr)).
		Where("created_at >= ? AND created_at < ?", startAt, endAt).
		Group(dayExpr).
		Order("day asc").
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	var paids []paidRow
	if err := r.db.Model(&models.Order{}).
		Select(fmt.Sprintf("%s as day, COUNT(*) as paid, COALESCE(SUM(total_amount), 0) as revenue", dayExpr)).
		Where("created_at >= ? AND created_at < ? AND status IN ?", startAt, endAt, paidOrderStatuses()).
		Group(dayExpr).
		Order("day asc").
		Scan(&paids).Error; err != nil {
		return nil, err
	}

	paidMap := make(map[string]paidRow, len(paids))
	for _, item := range paids {
		paidMap[item.Day] = item
	}

	result := make([]DashboardSalesTrendRow, 0, len(totals))
	for _, item := range totals {
		paid := paidMap[item.Day]
		result = append(result, DashboardSalesTrendRow{
			Day:         item.Day,
			OrdersTotal: item.Total,
			OrdersPaid:  paid.Paid,
			RevenuePaid: paid.Revenue,
		})
	}
	return result, nil
}

// GetTopProducts 获取热销商品排行
func (r *GormDashboardRepository) GetTopProducts(startAt, endAt time.Time, limit int) ([]DashboardProductRankingRow, error) {
	if limit <= 0 {
		limit = 10
	}
	var rows []DashboardProductRankingRow
	err := r.db.Model(&models.OrderItem{}).
		Select("order_items.product_id as product_id, order_items.product_name as name, " +
			"COUNT(DISTINCT order_items.order_id) as paid_orders, " +
			"COALESCE(SUM(order_items.quantity), 0) as quantity, " +
			"COALESCE(SUM(order_items.total_price), 0) as paid_amount").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.created_at >= ? AND orders.created_at < ? AND orders.status IN ? AND orders.deleted_at IS NULL",
			startAt, endAt, paidOrderStatuses()).
		Group("order_items.product_id, order_items.product_name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListLowStockProducts 获取低库存商品列表
func (r *GormDashboardRepository) ListLowStockProducts(threshold int64, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 20
	}
	var products []models.Product
	err := r.db.Model(&models.Product{}).
		Where("is_active = ? AND stock_count <= ?", true, threshold).
		Order("stock_count ASC, id ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

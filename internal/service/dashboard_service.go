package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/velora-shop/internal/cache"
	"github.com/velora-shop/internal/repository"
)

const (
	dashboardCacheTTL      = 45 * time.Second
	dashboardCustomMaxDays = 90
	dashboardTopLimit      = 10
	dashboardLowStockLimit = 20
)

// DashboardService 仪表盘服务
// 说明：聚合后台首页核心经营数据。
type DashboardService struct {
	repo              repository.DashboardRepository
	lowStockThreshold int64
	currency          string
}

// NewDashboardService 创建仪表盘服务
func NewDashboardService(repo repository.DashboardRepository, lowStockThreshold int64, currency string) *DashboardService {
	if lowStockThreshold <= 0 {
		lowStockThreshold = 5
	}
	if strings.TrimSpace(currency) == "" {
		currency = "VND"
	}
	return &DashboardService{
		repo:              repo,
		lowStockThreshold: lowStockThreshold,
		currency:          strings.ToUpper(strings.TrimSpace(currency)),
	}
}

// DashboardQueryInput 仪表盘查询输入
type DashboardQueryInput struct {
	Range        string
	From         *time.Time
	To           *time.Time
	Timezone     string
	ForceRefresh bool
}

// DashboardOverviewResponse 仪表盘总览响应
type DashboardOverviewResponse struct {
	Range    string               `json:"range"`
	From     string               `json:"from"`
	To       string               `json:"to"`
	Timezone string               `json:"timezone"`
	Currency string               `json:"currency"`
	KPI      DashboardKPI         `json:"kpi"`
	Alerts   []DashboardAlertItem `json:"alerts"`
}

// DashboardKPI 仪表盘核心指标
type DashboardKPI struct {
	OrdersTotal           int64  `json:"orders_total"`
	PendingPaymentOrders  int64  `json:"pending_payment_orders"`
	PaidOrders            int64  `json:"paid_orders"`
	ShippedOrders         int64  `json:"shipped_orders"`
	DeliveredOrders       int64  `json:"delivered_orders"`
	CancelledOrders       int64  `json:"cancelled_orders"`
	PendingCancelRequests int64  `json:"pending_cancel_requests"`
	RevenuePaid           string `json:"revenue_paid"`
	PaymentConversionRate string `json:"payment_conversion_rate"`
	NewUsers              int64  `json:"new_users"`
	ActiveProducts        int64  `json:"active_products"`
	LowStockProducts      int64  `json:"low_stock_products"`
}

// DashboardAlertItem 仪表盘告警项
type DashboardAlertItem struct {
	Type  string `json:"type"`
	Level string `json:"level"`
	Value int64  `json:"value"`
}

// DashboardTrendResponse 仪表盘趋势响应
type DashboardTrendResponse struct {
	Range    string                `json:"range"`
	From     string                `json:"from"`
	To       string                `json:"to"`
	Timezone string                `json:"timezone"`
	Points   []DashboardTrendPoint `json:"points"`
}

// DashboardTrendPoint 趋势点
type DashboardTrendPoint struct {
	Date        string `json:"date"`
	OrdersTotal int64  `json:"orders_total"`
	OrdersPaid  int64  `json:"orders_paid"`
	RevenuePaid string `json:"revenue_paid"`
}

// DashboardRankingsResponse 商品排行榜响应
type DashboardRankingsResponse struct {
	Range       string                    `json:"range"`
	From        string                    `json:"from"`
	To          string                    `json:"to"`
	Timezone    string                    `json:"timezone"`
	TopProducts []DashboardProductRanking `json:"top_products"`
	LowStock    []DashboardLowStockItem   `json:"low_stock"`
}

// DashboardProductRanking 商品排行项
type DashboardProductRanking struct {
	ProductID  uint   `json:"product_id"`
	Name       string `json:"name"`
	PaidOrders int64  `json:"paid_orders"`
	Quantity   int64  `json:"quantity"`
	PaidAmount string `json:"paid_amount"`
}

// DashboardLowStockItem 低库存商品项
type DashboardLowStockItem struct {
	ProductID  uint   `json:"product_id"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	StockCount int    `json:"stock_count"`
}

type dashboardWindow struct {
	rangeKey string
	startAt  time.Time
	endAt    time.Time
	timezone string
}

// GetOverview 获取仪表盘总览
func (s *DashboardService) GetOverview(ctx context.Context, input DashboardQueryInput) (*DashboardOverviewResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardOverviewResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:overview:%s:%d:%d:%s",
		window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardOverviewResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	overview, err := s.repo.GetOverview(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.repo.ListLowStockProducts(s.lowStockThreshold, dashboardLowStockLimit)
	if err != nil {
		return nil, err
	}

	conversionRate := 0.0
	if overview.OrdersTotal > 0 {
		conversionRate = float64(overview.PaidOrders) / float64(overview.OrdersTotal) * 100
	}

	response := &DashboardOverviewResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Currency: s.currency,
		KPI: DashboardKPI{
			OrdersTotal:           overview.OrdersTotal,
			PendingPaymentOrders:  overview.PendingPaymentOrders,
			PaidOrders:            overview.PaidOrders,
			ShippedOrders:         overview.ShippedOrders,
			DeliveredOrders:       overview.DeliveredOrders,
			CancelledOrders:       overview.CancelledOrders,
			PendingCancelRequests: overview.PendingCancelRequests,
			RevenuePaid:           formatMoneyValue(overview.RevenuePaid),
			PaymentConversionRate: formatPercentValue(conversionRate),
			NewUsers:              overview.NewUsers,
			ActiveProducts:        overview.ActiveProducts,
			LowStockProducts:      int64(len(lowStock)),
		},
		Alerts: buildDashboardAlerts(overview, int64(len(lowStock))),
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetTrends 获取仪表盘销售趋势
func (s *DashboardService) GetTrends(ctx context.Context, input DashboardQueryInput) (*DashboardTrendResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardTrendResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:trends:%s:%d:%d:%s", window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardTrendResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	rows, err := s.repo.GetSalesTrends(window.startAt, window.endAt)
	if err != nil {
		return nil, err
	}
	rowMap := make(map[string]repository.DashboardSalesTrendRow, len(rows))
	for _, item := range rows {
		rowMap[item.Day] = item
	}

	points := make([]DashboardTrendPoint, 0)
	for cursor := time.Date(window.startAt.Year(), window.startAt.Month(), window.startAt.Day(), 0, 0, 0, 0, window.startAt.Location()); cursor.Before(window.endAt); cursor = cursor.AddDate(0, 0, 1) {
		day := cursor.Format("2006-01-02")
		item := rowMap[day]
		points = append(points, DashboardTrendPoint{
			Date:        day,
			OrdersTotal: item.OrdersTotal,
			OrdersPaid:  item.OrdersPaid,
			RevenuePaid: formatMoneyValue(item.RevenuePaid),
		})
	}

	response := &DashboardTrendResponse{
		Range:    window.rangeKey,
		From:     window.startAt.Format(time.RFC3339),
		To:       window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone: window.timezone,
		Points:   points,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

// GetRankings 获取商品排行与低库存清单
func (s *DashboardService) GetRankings(ctx context.Context, input DashboardQueryInput) (*DashboardRankingsResponse, error) {
	if s == nil || s.repo == nil {
		return &DashboardRankingsResponse{}, nil
	}

	window, err := resolveDashboardWindow(input, time.Now())
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("dashboard:rankings:%s:%d:%d:%s", window.rangeKey, window.startAt.Unix(), window.endAt.Unix(), window.timezone)
	if !input.ForceRefresh {
		var cached DashboardRankingsResponse
		hit, cacheErr := cache.GetJSON(ctx, cacheKey, &cached)
		if cacheErr == nil && hit {
			return &cached, nil
		}
	}

	productRows, err := s.repo.GetTopProducts(window.startAt, window.endAt, dashboardTopLimit)
	if err != nil {
		return nil, err
	}
	lowStock, err := s.repo.ListLowStockProducts(s.lowStockThreshold, dashboardLowStockLimit)
	if err != nil {
		return nil, err
	}

	products := make([]DashboardProductRanking, 0, len(productRows))
	for _, item := range productRows {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			name = "-"
		}
		products = append(products, DashboardProductRanking{
			ProductID:  item.ProductID,
			Name:       name,
			PaidOrders: item.PaidOrders,
			Quantity:   item.Quantity,
			PaidAmount: formatMoneyValue(item.PaidAmount),
		})
	}

	lowStockItems := make([]DashboardLowStockItem, 0, len(lowStock))
	for _, product := range lowStock {
		lowStockItems = append(lowStockItems, DashboardLowStockItem{
			ProductID:  product.ID,
			Name:       product.Name,
			Slug:       product.Slug,
			StockCount: product.StockCount,
		})
	}

	response := &DashboardRankingsResponse{
		Range:       window.rangeKey,
		From:        window.startAt.Format(time.RFC3339),
		To:          window.endAt.Add(-time.Second).Format(time.RFC3339),
		Timezone:    window.timezone,
		TopProducts: products,
		LowStock:    lowStockItems,
	}

	_ = cache.SetJSON(ctx, cacheKey, response, dashboardCacheTTL)
	return response, nil
}

func resolveDashboardWindow(input DashboardQueryInput, now time.Time) (dashboardWindow, error) {
	rangeKey := strings.ToLower(strings.TrimSpace(input.Range))
	if rangeKey == "" {
		rangeKey = "7d"
	}

	timezone := strings.TrimSpace(input.Timezone)
	location := time.Local
	if timezone != "" {
		if parsed, err := time.LoadLocation(timezone); err == nil {
			location = parsed
		} else {
			timezone = ""
		}
	}
	if timezone == "" {
		timezone = location.String()
	}

	localNow := now.In(location)
	todayStart := time.Date(localNow.Year(), localNow.Month(), localNow.Day(), 0, 0, 0, 0, location)
	window := dashboardWindow{rangeKey: rangeKey, timezone: timezone}

	switch rangeKey {
	case "today":
		window.startAt = todayStart
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "7d":
		window.startAt = todayStart.AddDate(0, 0, -6)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "30d":
		window.startAt = todayStart.AddDate(0, 0, -29)
		window.endAt = todayStart.AddDate(0, 0, 1)
	case "custom":
		if input.From == nil || input.To == nil {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		startAt := input.From.In(location)
		endAt := input.To.In(location)
		if endAt.Before(startAt) {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		if endAt.Sub(startAt) > time.Hour*24*dashboardCustomMaxDays {
			return dashboardWindow{}, ErrDashboardRangeInvalid
		}
		window.startAt = startAt
		window.endAt = endAt.Add(time.Second)
	default:
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}

	if !window.endAt.After(window.startAt) {
		return dashboardWindow{}, ErrDashboardRangeInvalid
	}
	return window, nil
}

func formatMoneyValue(value float64) string {
	return fmt.Sprintf("%.0f", value)
}

func formatPercentValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func buildDashboardAlerts(overview repository.DashboardOverviewRow, lowStockCount int64) []DashboardAlertItem {
	alerts := make([]DashboardAlertItem, 0, 3)
	if lowStockCount > 0 {
		alerts = append(alerts, DashboardAlertItem{Type: "low_stock_products", Level: "warning", Value: lowStockCount})
	}
	if overview.PendingCancelRequests > 0 {
		alerts = append(alerts, DashboardAlertItem{Type: "pending_cancel_requests", Level: "warning", Value: overview.PendingCancelRequests})
	}
	if overview.PendingPaymentOrders > 0 {
		alerts = append(alerts, DashboardAlertItem{Type: "pending_payment_orders", Level: "info", Value: overview.PendingPaymentOrders})
	}
	return alerts
}

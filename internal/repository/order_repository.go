package repository

import (
	"errors"
	"strings"

	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order, items []models.OrderItem) error
	GetByID(id uint) (*models.Order, error)
	GetByIDAndUser(id uint, userID uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	GetByPayOSOrderCode(orderCode int64) (*models.Order, error)
	GetPendingPayOSByUser(userID uint) (*models.Order, error)
	ExistsProviderTxn(txnID string) (bool, error)
	ListByUser(filter OrderListFilter) ([]models.Order, int64, error)
	ListAdmin(filter OrderListFilter) ([]models.Order, int64, error)
	HasDeliveredProduct(userID, productID uint) (uint, error)
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	Update(order *models.Order) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Create 创建订单与订单项
func (r *GormOrderRepository) Create(order *models.Order, items []models.OrderItem) error {
	if err := r.db.Create(order).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := r.db.Create(&items).Error; err != nil {
			return err
		}
	}
	return nil
}

// GetByID 根据 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDAndUser 获取用户订单详情
func (r *GormOrderRepository) GetByIDAndUser(id uint, userID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").Where("id = ? AND user_id = ?", id, userID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 根据订单编号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	var order models.Order
	err := r.db.Preload("Items").Where("order_no = ?", orderNo).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByPayOSOrderCode 根据 PayOS 订单码获取订单
func (r *GormOrderRepository) GetByPayOSOrderCode(orderCode int64) (*models.Order, error) {
	if orderCode == 0 {
		return nil, nil
	}
	var order models.Order
	err := r.db.Preload("Items").Where("payos_order_code = ?", orderCode).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetPendingPayOSByUser 获取用户未支付的 PayOS 订单（下一次结账前清理用）
func (r *GormOrderRepository) GetPendingPayOSByUser(userID uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").
		Where("user_id = ? AND status = ? AND payment_method = ?",
			userID, constants.OrderStatusPendingPayment, constants.PaymentMethodPayOS).
		Order("created_at desc").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ExistsProviderTxn 判断网关交易号是否已入账（回调幂等依据）
func (r *GormOrderRepository) ExistsProviderTxn(txnID string) (bool, error) {
	txnID = strings.TrimSpace(txnID)
	if txnID == "" {
		return false, nil
	}
	var count int64
	if err := r.db.Model(&models.Order{}).Where("provider_txn_id = ?", txnID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListByUser 用户订单列表
func (r *GormOrderRepository) ListByUser(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{}).Where("user_id = ?", filter.UserID)
	if status := constants.NormalizeOrderStatus(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	return r.listOrders(query, filter.Page, filter.PageSize)
}

// ListAdmin 管理端订单列表
func (r *GormOrderRepository) ListAdmin(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if status := constants.NormalizeOrderStatus(filter.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if orderNo := strings.TrimSpace(filter.OrderNo); orderNo != "" {
		query = query.Where("order_no = ?", orderNo)
	}
	if filter.CancelPending {
		query = query.Where("cancel_request_status = ?", constants.CancelRequestStatusPending)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}
	return r.listOrders(query.Preload("User"), filter.Page, filter.PageSize)
}

func (r *GormOrderRepository) listOrders(query *gorm.DB, page, pageSize int) ([]models.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []models.Order
	query = applyPagination(query, page, pageSize)
	if err := query.Preload("Items").Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// HasDeliveredProduct 返回用户已签收且包含指定商品的订单 ID（不存在返回 0）
func (r *GormOrderRepository) HasDeliveredProduct(userID, productID uint) (uint, error) {
	var row struct {
		ID uint
	}
	err := r.db.Model(&models.Order{}).
		Select("orders.id").
		Joins("JOIN order_items ON order_items.order_id = orders.id").
		Where("orders.user_id = ? AND orders.status = ? AND order_items.product_id = ?",
			userID, constants.OrderStatusDelivered, productID).
		Order("orders.created_at desc").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.ID, nil
}

// UpdateStatus 更新订单状态与附加字段
func (r *GormOrderRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// Update 保存订单
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// Delete 删除订单（软删除）
func (r *GormOrderRepository) Delete(id uint) error {
	return r.db.Delete(&models.Order{}, id).Error
}

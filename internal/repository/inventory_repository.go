package repository

import (
	"errors"

	"github.com/velora-shop/internal/models"

	"gorm.io/gorm"
)

// InventoryRepository 库存数据访问接口
// 扣减一律使用条件更新（WHERE stock_count >= 扣减量），以 RowsAffected 判定成败，
// 避免读改写竞态下的超卖。
type InventoryRepository interface {
	DebitProduct(productID uint, quantity int) (int64, error)
	CreditProduct(productID uint, quantity int) (int64, error)
	DebitSize(productID uint, size string, quantity int) (int64, error)
	CreditSize(productID uint, size string, quantity int) (int64, error)
	DebitColor(productID uint, color string, quantity int) (int64, error)
	CreditColor(productID uint, color string, quantity int) (int64, error)
	DebitVariant(productID uint, size, color string, quantity int) (int64, error)
	CreditVariant(productID uint, size, color string, quantity int) (int64, error)
	GetSize(productID uint, size string) (*models.ProductSize, error)
	GetColor(productID uint, color string) (*models.ProductColor, error)
	GetVariant(productID uint, size, color string) (*models.ProductVariant, error)
	SumSizes(productID uint) (int64, error)
	SumColors(productID uint) (int64, error)
	SumVariants(productID uint) (int64, error)
	SetAggregate(productID uint, stockCount int64) error
	ReplaceSizes(tx *gorm.DB, productID uint, sizes []models.ProductSize) error
	ReplaceColors(tx *gorm.DB, productID uint, colors []models.ProductColor) error
	ReplaceVariants(tx *gorm.DB, productID uint, variants []models.ProductVariant) error
	WithTx(tx *gorm.DB) InventoryRepository
}

// GormInventoryRepository GORM 实现
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository 创建库存仓库
func NewInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// WithTx 绑定事务
func (r *GormInventoryRepository) WithTx(tx *gorm.DB) InventoryRepository {
	if tx == nil {
		return r
	}
	return &GormInventoryRepository{db: tx}
}

// DebitProduct 扣减整品库存
func (r *GormInventoryRepository) DebitProduct(productID uint, quantity int) (int64, error) {
	if productID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock debit params")
	}
	result := r.db.Model(&models.Product{}).
		Where("id = ? AND stock_count >= ?", productID, quantity).
		Update("stock_count", gorm.Expr("stock_count - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CreditProduct 回补整品库存
func (r *GormInventoryRepository) CreditProduct(productID uint, quantity int) (int64, error) {
	if productID == 0 || quantity <= 0 {
		return 0, errors.New("invalid stock credit params")
	}
	result := r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Update("stock_count", gorm.Expr("stock_count + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DebitSize 扣减尺码分库存
func (r *GormInventoryRepository) DebitSize(productID uint, size string, quantity int) (int64, error) {
	if productID == 0 || size == "" || quantity <= 0 {
		return 0, errors.New("invalid stock debit params")
	}
	result := r.db.Model(&models.ProductSize{}).
		Where("product_id = ? AND size = ? AND stock_count >= ?", productID, size, quantity).
		Update("stock_count", gorm.Expr("stock_count - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CreditSize 回补尺码分库存
func (r *GormInventoryRepository) CreditSize(productID uint, size string, quantity int) (int64, error) {
	if productID == 0 || size == "" || quantity <= 0 {
		return 0, errors.New("invalid stock credit params")
	}
	result := r.db.Model(&models.ProductSize{}).
		Where("product_id = ? AND size = ?", productID, size).
		Update("stock_count", gorm.Expr("stock_count + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DebitColor 扣减颜色分库存
func (r *GormInventoryRepository) DebitColor(productID uint, color string, quantity int) (int64, error) {
	if productID == 0 || color == "" || quantity <= 0 {
		return 0, errors.New("invalid stock debit params")
	}
	result := r.db.Model(&models.ProductColor{}).
		Where("product_id = ? AND color = ? AND stock_count >= ?", productID, color, quantity).
		Update("stock_count", gorm.Expr("stock_count - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CreditColor 回补颜色分库存
func (r *GormInventoryRepository) CreditColor(productID uint, color string, quantity int) (int64, error) {
	if productID == 0 || color == "" || quantity <= 0 {
		return 0, errors.New("invalid stock credit params")
	}
	result := r.db.Model(&models.ProductColor{}).
		Where("product_id = ? AND color = ?", productID, color).
		Update("stock_count", gorm.Expr("stock_count + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// DebitVariant 扣减尺码+颜色组合分库存
func (r *GormInventoryRepository) DebitVariant(productID uint, size, color string, quantity int) (int64, error) {
	if productID == 0 || size == "" || color == "" || quantity <= 0 {
		return 0, errors.New("invalid stock debit params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("product_id = ? AND size = ? AND color = ? AND stock_count >= ?", productID, size, color, quantity).
		Update("stock_count", gorm.Expr("stock_count - ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CreditVariant 回补尺码+颜色组合分库存
func (r *GormInventoryRepository) CreditVariant(productID uint, size, color string, quantity int) (int64, error) {
	if productID == 0 || size == "" || color == "" || quantity <= 0 {
		return 0, errors.New("invalid stock credit params")
	}
	result := r.db.Model(&models.ProductVariant{}).
		Where("product_id = ? AND size = ? AND color = ?", productID, size, color).
		Update("stock_count", gorm.Expr("stock_count + ?", quantity))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// GetSize 获取尺码分库存行
func (r *GormInventoryRepository) GetSize(productID uint, size string) (*models.ProductSize, error) {
	var row models.ProductSize
	err := r.db.Where("product_id = ? AND size = ?", productID, size).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetColor 获取颜色分库存行
func (r *GormInventoryRepository) GetColor(productID uint, color string) (*models.ProductColor, error) {
	var row models.ProductColor
	err := r.db.Where("product_id = ? AND color = ?", productID, color).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// GetVariant 获取尺码+颜色组合分库存行
func (r *GormInventoryRepository) GetVariant(productID uint, size, color string) (*models.ProductVariant, error) {
	var row models.ProductVariant
	err := r.db.Where("product_id = ? AND size = ? AND color = ?", productID, size, color).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// SumSizes 汇总尺码分库存
func (r *GormInventoryRepository) SumSizes(productID uint) (int64, error) {
	return r.sumStock(&models.ProductSize{}, productID)
}

// SumColors 汇总颜色分库存
func (r *GormInventoryRepository) SumColors(productID uint) (int64, error) {
	return r.sumStock(&models.ProductColor{}, productID)
}

// SumVariants 汇总尺码+颜色组合分库存
func (r *GormInventoryRepository) SumVariants(productID uint) (int64, error) {
	return r.sumStock(&models.ProductVariant{}, productID)
}

func (r *GormInventoryRepository) sumStock(model interface{}, productID uint) (int64, error) {
	var total int64
	err := r.db.Model(model).
		Where("product_id = ?", productID).
		Select("COALESCE(SUM(stock_count), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// SetAggregate 写入商品汇总库存
func (r *GormInventoryRepository) SetAggregate(productID uint, stockCount int64) error {
	return r.db.Model(&models.Product{}).Where("id = ?", productID).Update("stock_count", stockCount).Error
}

// ReplaceSizes 整体替换尺码分库存
func (r *GormInventoryRepository) ReplaceSizes(tx *gorm.DB, productID uint, sizes []models.ProductSize) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductSize{}).Error; err != nil {
		return err
	}
	for i := range sizes {
		sizes[i].ID = 0
		sizes[i].ProductID = productID
	}
	if len(sizes) == 0 {
		return nil
	}
	return db.Create(&sizes).Error
}

// ReplaceColors 整体替换颜色分库存
func (r *GormInventoryRepository) ReplaceColors(tx *gorm.DB, productID uint, colors []models.ProductColor) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductColor{}).Error; err != nil {
		return err
	}
	for i := range colors {
		colors[i].ID = 0
		colors[i].ProductID = productID
	}
	if len(colors) == 0 {
		return nil
	}
	return db.Create(&colors).Error
}

// ReplaceVariants 整体替换尺码+颜色组合分库存
func (r *GormInventoryRepository) ReplaceVariants(tx *gorm.DB, productID uint, variants []models.ProductVariant) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	if err := db.Where("product_id = ?", productID).Delete(&models.ProductVariant{}).Error; err != nil {
		return err
	}
	for i := range variants {
		variants[i].ID = 0
		variants[i].ProductID = productID
	}
	if len(variants) == 0 {
		return nil
	}
	return db.Create(&variants).Error
}

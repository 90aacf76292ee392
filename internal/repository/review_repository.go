package repository

import (
	"errors"

	"github.com/velora-shop/internal/models"

	"gorm.io/gorm"
)

// ReviewRepository 评价数据访问接口
type ReviewRepository interface {
	Create(review *models.Review) error
	GetByID(id uint) (*models.Review, error)
	GetByUserProductOrder(userID, productID, orderID uint) (*models.Review, error)
	ListByProduct(filter ReviewListFilter) ([]models.Review, int64, error)
	ListByUser(filter ReviewListFilter) ([]models.Review, int64, error)
	ProductRatingSummary(productID uint) (float64, int64, error)
	Update(review *models.Review) error
	Delete(id uint) error
	WithTx(tx *gorm.DB) *GormReviewRepository
}

// GormReviewRepository GORM 实现
type GormReviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓库
func NewReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// WithTx 绑定事务
func (r *GormReviewRepository) WithTx(tx *gorm.DB) *GormReviewRepository {
	if tx == nil {
		return r
	}
	return &GormReviewRepository{db: tx}
}

// Create 创建评价
func (r *GormReviewRepository) Create(review *models.Review) error {
	return r.db.Create(review).Error
}

// GetByID 根据 ID 获取评价
func (r *GormReviewRepository) GetByID(id uint) (*models.Review, error) {
	var review models.Review
	if err := r.db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &review, nil
}

// GetByUserProductOrder 按唯一键获取评价
func (r *GormReviewRepository) GetByUserProductOrder(userID, productID, orderID uint) (*models.Review, error) {
	var review models.Review
	err := r.db.Where("user_id = ? AND product_id = ? AND order_id = ?", userID, productID, orderID).
		First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// ListByProduct 商品评价列表
func (r *GormReviewRepository) ListByProduct(filter ReviewListFilter) ([]models.Review, int64, error) {
	query := r.db.Model(&models.Review{}).Where("product_id = ?", filter.ProductID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reviews []models.Review
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("User").Order("created_at desc").Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ListByUser 用户评价列表
func (r *GormReviewRepository) ListByUser(filter ReviewListFilter) ([]models.Review, int64, error) {
	query := r.db.Model(&models.Review{}).Where("user_id = ?", filter.UserID)
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reviews []models.Review
	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Product").Order("created_at desc").Find(&reviews).Error; err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

// ProductRatingSummary 商品评分均值与数量
func (r *GormReviewRepository) ProductRatingSummary(productID uint) (float64, int64, error) {
	var row struct {
		Average float64
		Total   int64
	}
	err := r.db.Model(&models.Review{}).
		Where("product_id = ?", productID).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Average, row.Total, nil
}

// Update 保存评价
func (r *GormReviewRepository) Update(review *models.Review) error {
	return r.db.Save(review).Error
}

// Delete 删除评价（软删除）
func (r *GormReviewRepository) Delete(id uint) error {
	return r.db.Delete(&models.Review{}, id).Error
}

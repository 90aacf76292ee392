package service

import (
	"fmt"

	"github.com/velora-shop/internal/logger"
	"github.com/velora-shop/internal/models"
	"github.com/velora-shop/internal/repository"

	"go.uber.org/zap"
)

// ReviewService 商品评价服务
type ReviewService struct {
	reviewRepo  repository.ReviewRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
}

// NewReviewService 创建评价服务
func NewReviewService(reviewRepo repository.ReviewRepository, orderRepo repository.OrderRepository, productRepo repository.ProductRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
	}
}

// CreateReviewInput 创建评价入参
type CreateReviewInput struct {
	UserID    uint
	ProductID uint
	Rating    int
	Comment   string
}

// CreateReview 创建评价。
// 仅限已送达订单中的商品，且同一用户对同一商品同一订单只能评价一次。
func (s *ReviewService) CreateReview(input CreateReviewInput) (*models.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrRatingInvalid
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	orderID, err := s.orderRepo.HasDeliveredProduct(input.UserID, input.ProductID)
	if err != nil {
		return nil, err
	}
	if orderID == 0 {
		return nil, ErrReviewNotAllowed
	}

	existing, err := s.reviewRepo.GetByUserProductOrder(input.UserID, input.ProductID, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrReviewDuplicate
	}

	review := &models.Review{
		UserID:    input.UserID,
		ProductID: input.ProductID,
		OrderID:   orderID,
		Rating:    input.Rating,
		Comment:   input.Comment,
	}
	if err := s.reviewRepo.Create(review); err != nil {
		return nil, err
	}

	reviewLogger("user_id", input.UserID, "product_id", input.ProductID, "order_id", orderID).
		Infow("review_created", "review_id", review.ID, "rating", input.Rating)
	return review, nil
}

// ProductReviewPage 商品评价列表与评分摘要
type ProductReviewPage struct {
	Reviews       []models.Review `json:"reviews"`
	Total         int64           `json:"total"`
	AverageRating float64         `json:"average_rating"`
	ReviewCount   int64           `json:"review_count"`
}

// ListProductReviews 查询商品评价与评分摘要
func (s *ReviewService) ListProductReviews(productID uint, page, pageSize int) (*ProductReviewPage, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	reviews, total, err := s.reviewRepo.ListByProduct(repository.ReviewListFilter{
		ProductID: productID,
		Page:      page,
		PageSize:  pageSize,
	})
	if err != nil {
		return nil, err
	}
	average, count, err := s.reviewRepo.ProductRatingSummary(productID)
	if err != nil {
		return nil, err
	}
	return &ProductReviewPage{
		Reviews:       reviews,
		Total:         total,
		AverageRating: average,
		ReviewCount:   count,
	}, nil
}

// ListUserReviews 查询用户自己的评价
func (s *ReviewService) ListUserReviews(userID uint, page, pageSize int) ([]models.Review, int64, error) {
	return s.reviewRepo.ListByUser(repository.ReviewListFilter{
		UserID:   userID,
		Page:     page,
		PageSize: pageSize,
	})
}

// UpdateReview 更新自己的评价
func (s *ReviewService) UpdateReview(id, userID uint, rating int, comment string) (*models.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrRatingInvalid
	}
	review, err := s.reviewRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if review == nil || review.UserID != userID {
		return nil, ErrReviewNotFound
	}
	review.Rating = rating
	review.Comment = comment
	if err := s.reviewRepo.Update(review); err != nil {
		return nil, err
	}
	return review, nil
}

// DeleteReview 删除评价（本人或管理员）
func (s *ReviewService) DeleteReview(id, userID uint, isAdmin bool) error {
	review, err := s.reviewRepo.GetByID(id)
	if err != nil {
		return err
	}
	if review == nil {
		return ErrReviewNotFound
	}
	if !isAdmin && review.UserID != userID {
		return ErrReviewNotFound
	}
	if err := s.reviewRepo.Delete(id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}

func reviewLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

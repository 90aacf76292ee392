package service

import (
	"strings"
	"time"

	"github.com/velora-shop/internal/models"
	"github.com/velora-shop/internal/repository"

	"github.com/shopspring/decimal"
)

func quantityDecimal(quantity int) decimal.Decimal {
	return decimal.NewFromInt(int64(quantity))
}

// CartItemDetail 购物车项详情（用于响应）
type CartItemDetail struct {
	ID        uint            `json:"id"`
	ProductID uint            `json:"product_id"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice models.Money    `json:"unit_price"`
	LineTotal models.Money    `json:"line_total"`
	Available int64           `json:"available"`
	Product   *models.Product `json:"product"`
}

// CartSummary 购物车汇总
type CartSummary struct {
	Items    []CartItemDetail `json:"items"`
	Subtotal models.Money     `json:"subtotal"`
	Count    int              `json:"count"`
}

// AddCartItemInput 加入购物车输入
type AddCartItemInput struct {
	UserID    uint
	ProductID uint
	Size      string
	Color     string
	Quantity  int
}

// CartService 购物车服务
type CartService struct {
	cartRepo     repository.CartRepository
	productRepo  repository.ProductRepository
	inventorySvc *InventoryService
}

// NewCartService 创建购物车服务
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository, inventorySvc *InventoryService) *CartService {
	return &CartService{
		cartRepo:     cartRepo,
		productRepo:  productRepo,
		inventorySvc: inventorySvc,
	}
}

// ListByUser 获取用户购物车
func (s *CartService) ListByUser(userID uint) (*CartSummary, error) {
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	summary := &CartSummary{Items: make([]CartItemDetail, 0, len(items))}
	for _, item := range items {
		product := item.Product
		if product == nil || product.ID == 0 {
			p, err := s.productRepo.GetByID(item.ProductID)
			if err != nil {
				return nil, err
			}
			product = p
		}
		// 商品下架或被删除时静默移除对应购物车项
		if product == nil || !product.IsActive {
			_ = s.cartRepo.Delete(item.ID)
			continue
		}

		available, err := s.inventorySvc.Available(product, item.Size, item.Color)
		if err != nil {
			// 规格被下掉同样移除
			_ = s.cartRepo.Delete(item.ID)
			continue
		}

		unitPrice := product.EffectivePrice()
		lineTotal := models.NewMoneyFromDecimal(unitPrice.Decimal.Mul(quantityDecimal(item.Quantity)))
		summary.Items = append(summary.Items, CartItemDetail{
			ID:        item.ID,
			ProductID: item.ProductID,
			Size:      item.Size,
			Color:     item.Color,
			Quantity:  item.Quantity,
			UnitPrice: unitPrice,
			LineTotal: lineTotal,
			Available: available,
			Product:   product,
		})
		summary.Subtotal = models.NewMoneyFromDecimal(summary.Subtotal.Decimal.Add(lineTotal.Decimal))
		summary.Count += item.Quantity
	}
	return summary, nil
}

// Add 加入购物车。相同（商品 + 规格）组合已存在时累加数量而非新增行。
func (s *CartService) Add(input AddCartItemInput) (*models.CartItem, error) {
	if input.Quantity <= 0 {
		return nil, ErrQuantityInvalid
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if !product.IsActive {
		return nil, ErrProductInactive
	}

	size := strings.TrimSpace(input.Size)
	color := strings.TrimSpace(input.Color)
	available, err := s.inventorySvc.Available(product, size, color)
	if err != nil {
		return nil, err
	}

	existing, err := s.cartRepo.GetBySelection(input.UserID, input.ProductID, size, color)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		newQuantity := existing.Quantity + input.Quantity
		if int64(newQuantity) > available {
			return nil, ErrInsufficientStock
		}
		if err := s.cartRepo.UpdateQuantity(existing.ID, newQuantity); err != nil {
			return nil, err
		}
		existing.Quantity = newQuantity
		existing.UpdatedAt = time.Now()
		return existing, nil
	}

	if int64(input.Quantity) > available {
		return nil, ErrInsufficientStock
	}
	item := &models.CartItem{
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Size:      size,
		Color:     color,
		Quantity:  input.Quantity,
	}
	if err := s.cartRepo.Create(item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateQuantity 更新购物车项数量。数量 <= 0 等价于移除该项。
func (s *CartService) UpdateQuantity(userID, itemID uint, quantity int) error {
	item, err := s.cartRepo.GetByID(itemID)
	if err != nil {
		return err
	}
	if item == nil || item.UserID != userID {
		return ErrCartItemNotFound
	}
	if quantity <= 0 {
		return s.cartRepo.Delete(itemID)
	}
	product, err := s.productRepo.GetByID(item.ProductID)
	if err != nil {
		return err
	}
	if product == nil || !product.IsActive {
		return ErrProductNotFound
	}
	available, err := s.inventorySvc.Available(product, item.Size, item.Color)
	if err != nil {
		return err
	}
	if int64(quantity) > available {
		return ErrInsufficientStock
	}
	return s.cartRepo.UpdateQuantity(itemID, quantity)
}

// Remove 移除购物车项（软删除）
func (s *CartService) Remove(userID, itemID uint) error {
	item, err := s.cartRepo.GetByID(itemID)
	if err != nil {
		return err
	}
	if item == nil || item.UserID != userID {
		return ErrCartItemNotFound
	}
	return s.cartRepo.Delete(itemID)
}

// Clear 清空购物车（软删除）
func (s *CartService) Clear(userID uint) error {
	return s.cartRepo.ClearByUser(userID)
}

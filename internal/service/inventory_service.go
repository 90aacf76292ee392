package service

import (
	"strings"

	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/models"
	"github.com/velora-shop/internal/repository"

	"gorm.io/gorm"
)

// InventoryService 库存服务。
// 四种库存类型按标签分派，所有分支显式列出，未知类型一律报错。
// 扣减走条件更新，汇总库存在分库存变更后的同一事务内重算。
type InventoryService struct {
	inventoryRepo repository.InventoryRepository
}

// NewInventoryService 创建库存服务
func NewInventoryService(inventoryRepo repository.InventoryRepository) *InventoryService {
	return &InventoryService{inventoryRepo: inventoryRepo}
}

// ValidateSelection 校验规格选择与库存类型是否匹配
func (s *InventoryService) ValidateSelection(product *models.Product, size, color string) error {
	if product == nil {
		return ErrProductNotFound
	}
	size = strings.TrimSpace(size)
	color = strings.TrimSpace(color)
	switch product.InventoryType {
	case constants.InventoryTypeRegular:
		if size != "" || color != "" {
			return ErrSelectionInvalid
		}
		return nil
	case constants.InventoryTypeSize:
		if size == "" {
			return ErrSelectionRequired
		}
		if color != "" {
			return ErrSelectionInvalid
		}
		return nil
	case constants.InventoryTypeColor:
		if color == "" {
			return ErrSelectionRequired
		}
		if size != "" {
			return ErrSelectionInvalid
		}
		return nil
	case constants.InventoryTypeBoth:
		if size == "" || color == "" {
			return ErrSelectionRequired
		}
		return nil
	default:
		return ErrInventoryTypeInvalid
	}
}

// Available 查询指定选择的可售数量
func (s *InventoryService) Available(product *models.Product, size, color string) (int64, error) {
	if err := s.ValidateSelection(product, size, color); err != nil {
		return 0, err
	}
	switch product.InventoryType {
	case constants.InventoryTypeRegular:
		return int64(product.StockCount), nil
	case constants.InventoryTypeSize:
		row, err := s.inventoryRepo.GetSize(product.ID, size)
		if err != nil {
			return 0, err
		}
		if row == nil {
			return 0, ErrVariantNotFound
		}
		return int64(row.StockCount), nil
	case constants.InventoryTypeColor:
		row, err := s.inventoryRepo.GetColor(product.ID, color)
		if err != nil {
			return 0, err
		}
		if row == nil {
			return 0, ErrVariantNotFound
		}
		return int64(row.StockCount), nil
	case constants.InventoryTypeBoth:
		row, err := s.inventoryRepo.GetVariant(product.ID, size, color)
		if err != nil {
			return 0, err
		}
		if row == nil {
			return 0, ErrVariantNotFound
		}
		return int64(row.StockCount), nil
	default:
		return 0, ErrInventoryTypeInvalid
	}
}

// DebitTx 事务内扣减库存。
// 条件更新未命中时区分“规格不存在”与“库存不足”，扣减后重算汇总库存。
func (s *InventoryService) DebitTx(tx *gorm.DB, product *models.Product, size, color string, quantity int) error {
	if quantity <= 0 {
		return ErrQuantityInvalid
	}
	if err := s.ValidateSelection(product, size, color); err != nil {
		return err
	}
	repo := s.inventoryRepo.WithTx(tx)

	switch product.InventoryType {
	case constants.InventoryTypeRegular:
		affected, err := repo.DebitProduct(product.ID, quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrInsufficientStock
		}
		return nil
	case constants.InventoryTypeSize:
		affected, err := repo.DebitSize(product.ID, size, quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			row, err := repo.GetSize(product.ID, size)
			if err != nil {
				return err
			}
			if row == nil {
				return ErrVariantNotFound
			}
			return ErrInsufficientStock
		}
		return s.recalcAggregate(repo, product)
	case constants.InventoryTypeColor:
		affected, err := repo.DebitColor(product.ID, color, quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			row, err := repo.GetColor(product.ID, color)
			if err != nil {
				return err
			}
			if row == nil {
				return ErrVariantNotFound
			}
			return ErrInsufficientStock
		}
		return s.recalcAggregate(repo, product)
	case constants.InventoryTypeBoth:
		affected, err := repo.DebitVariant(product.ID, size, color, quantity)
		if err != nil {
			return err
		}
		if affected == 0 {
			row, err := repo.GetVariant(product.ID, size, color)
			if err != nil {
				return err
			}
			if row == nil {
				return ErrVariantNotFound
			}
			return ErrInsufficientStock
		}
		return s.recalcAggregate(repo, product)
	default:
		return ErrInventoryTypeInvalid
	}
}

// CreditTx 事务内回补库存（取消/退款恢复）
func (s *InventoryService) CreditTx(tx *gorm.DB, product *models.Product, size, color string, quantity int) error {
	if quantity <= 0 {
		return ErrQuantityInvalid
	}
	if product == nil {
		return ErrProductNotFound
	}
	repo := s.inventoryRepo.WithTx(tx)

	switch product.InventoryType {
	case constants.InventoryTypeRegular:
		_, err := repo.CreditProduct(product.ID, quantity)
		return err
	case constants.InventoryTypeSize:
		if _, err := repo.CreditSize(product.ID, size, quantity); err != nil {
			return err
		}
		return s.recalcAggregate(repo, product)
	case constants.InventoryTypeColor:
		if _, err := repo.CreditColor(product.ID, color, quantity); err != nil {
			return err
		}
		return s.recalcAggregate(repo, product)
	case constants.InventoryTypeBoth:
		if _, err := repo.CreditVariant(product.ID, size, color, quantity); err != nil {
			return err
		}
		return s.recalcAggregate(repo, product)
	default:
		return ErrInventoryTypeInvalid
	}
}

// RecalcAggregateTx 事务内重算汇总库存（管理端整体替换分库存后调用）
func (s *InventoryService) RecalcAggregateTx(tx *gorm.DB, product *models.Product) error {
	if product == nil {
		return ErrProductNotFound
	}
	return s.recalcAggregate(s.inventoryRepo.WithTx(tx), product)
}

// recalcAggregate 将商品汇总库存写为当前分库存之和。
// regular 商品的汇总字段即权威库存，不在此处重算。
func (s *InventoryService) recalcAggregate(repo repository.InventoryRepository, product *models.Product) error {
	var total int64
	var err error
	switch product.InventoryType {
	case constants.InventoryTypeRegular:
		return nil
	case constants.InventoryTypeSize:
		total, err = repo.SumSizes(product.ID)
	case constants.InventoryTypeColor:
		total, err = repo.SumColors(product.ID)
	case constants.InventoryTypeBoth:
		total, err = repo.SumVariants(product.ID)
	default:
		return ErrInventoryTypeInvalid
	}
	if err != nil {
		return err
	}
	return repo.SetAggregate(product.ID, total)
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product 商品表
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                        // 主键
	CategoryID    uint           `gorm:"not null;index" json:"category_id"`                           // 分类ID
	Slug          string         `gorm:"uniqueIndex;not null" json:"slug"`                            // 唯一标识
	Name          string         `gorm:"type:varchar(200);not null" json:"name"`                      // 名称
	Description   string         `gorm:"type:text" json:"description"`                                // 描述
	Price         Money          `gorm:"type:decimal(20,0);not null;default:0" json:"price"`          // 原价
	DiscountPrice *Money         `gorm:"type:decimal(20,0)" json:"discount_price"`                    // 折扣价（为空表示无折扣）
	ImageURL      string         `gorm:"type:varchar(500)" json:"-"`                                  // 旧版单图字段（无图片记录时作主图兜底）
	InventoryType string         `gorm:"type:varchar(20);not null;default:'regular'" json:"inventory_type"` // 库存类型（regular/size/color/both）
	StockCount    int            `gorm:"not null;default:0" json:"stock_count"`                       // 汇总库存（分库存变更后重算）
	IsActive      bool           `gorm:"index" json:"is_active"`                                      // 是否上架（创建时由服务层显式赋值）
	SortOrder     int            `gorm:"default:0;index" json:"sort_order"`                           // 排序权重
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                                  // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间

	// 查询后计算字段（不落库）
	PrimaryImage    string `gorm:"-" json:"primary_image"`    // 主图地址（主图标记 > 首图 > 旧版单图）
	DiscountPercent int    `gorm:"-" json:"discount_percent"` // 折扣百分比（无折扣为 0）

	// 关联
	Category Category         `gorm:"foreignKey:CategoryID" json:"category,omitempty"` // 分类信息
	Images   []ProductImage   `gorm:"foreignKey:ProductID" json:"images,omitempty"`    // 图片列表
	Sizes    []ProductSize    `gorm:"foreignKey:ProductID" json:"sizes,omitempty"`     // 尺码分库存
	Colors   []ProductColor   `gorm:"foreignKey:ProductID" json:"colors,omitempty"`    // 颜色分库存
	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`  // 尺码+颜色分库存
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}

// EffectivePrice 返回下单单价（有折扣价时取折扣价）
func (p *Product) EffectivePrice() Money {
	if p.DiscountPrice != nil && p.DiscountPrice.Decimal.IsPositive() {
		return *p.DiscountPrice
	}
	return p.Price
}

// AfterFind 查询后填充计算字段
func (p *Product) AfterFind(*gorm.DB) error {
	p.PrimaryImage = p.resolvePrimaryImage()
	p.DiscountPercent = p.discountPercent()
	return nil
}

// resolvePrimaryImage 主图标记优先，其次首图，最后兜底旧版单图字段
func (p *Product) resolvePrimaryImage() string {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img.URL
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0].URL
	}
	return p.ImageURL
}

// discountPercent 折扣价低于原价时返回减价百分比
func (p *Product) discountPercent() int {
	if p.DiscountPrice == nil || !p.Price.Decimal.IsPositive() {
		return 0
	}
	discount := p.DiscountPrice.Decimal
	if !discount.IsPositive() || discount.GreaterThanOrEqual(p.Price.Decimal) {
		return 0
	}
	percent := p.Price.Decimal.Sub(discount).
		Div(p.Price.Decimal).
		Mul(decimal.NewFromInt(100)).
		Round(0)
	return int(percent.IntPart())
}

package main

import (
	"fmt"

	"github.com/velora-shop/internal/config"
	"github.com/velora-shop/internal/constants"
	"github.com/velora-shop/internal/logger"
	"github.com/velora-shop/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	db, err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	})
	if err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(db); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 添加分类
	categories := []models.Category{
		{Slug: "ao-thun", Name: "Áo Thun", Description: "Áo thun nam nữ các loại", SortOrder: 300},
		{Slug: "ao-khoac", Name: "Áo Khoác", Description: "Áo khoác, hoodie, cardigan", SortOrder: 200},
		{Slug: "phu-kien", Name: "Phụ Kiện", Description: "Mũ, túi, thắt lưng và phụ kiện khác", SortOrder: 100},
	}

	for _, cat := range categories {
		var existing models.Category
		if err := db.Where("slug = ?", cat.Slug).First(&existing).Error; err != nil {
			if err := db.Create(&cat).Error; err != nil {
				stdLog.Printf("Failed to create category %s: %v", cat.Slug, err)
			} else {
				stdLog.Printf("Created category: %s", cat.Slug)
			}
		} else {
			stdLog.Printf("Category already exists: %s", cat.Slug)
		}
	}

	categoryIDs := map[string]uint{}
	var categoryList []models.Category
	if err := db.Where("slug IN ?", []string{"ao-thun", "ao-khoac", "phu-kien"}).Find(&categoryList).Error; err != nil {
		stdLog.Printf("Failed to load categories: %v", err)
	}
	for _, cat := range categoryList {
		categoryIDs[cat.Slug] = cat.ID
	}

	price := func(v float64) models.Money {
		return models.NewMoneyFromDecimal(decimal.NewFromFloat(v))
	}
	pricePtr := func(v float64) *models.Money {
		m := price(v)
		return &m
	}

	// 覆盖四种库存形态的演示商品
	products := []models.Product{
		{
			CategoryID:    categoryIDs["phu-kien"],
			Slug:          "mu-luoi-trai-basic",
			Name:          "Mũ Lưỡi Trai Basic",
			Description:   "Mũ lưỡi trai trơn, một kích cỡ, phù hợp mọi phong cách.",
			Price:         price(120000),
			InventoryType: constants.InventoryTypeRegular,
			StockCount:    50,
			IsActive:      true,
			SortOrder:     400,
			Images: []models.ProductImage{
				{URL: "https://images.unsplash.com/photo-1588850561407-ed78c282e89b?w=800", IsPrimary: true},
			},
		},
		{
			CategoryID:    categoryIDs["ao-thun"],
			Slug:          "ao-thun-cotton-oversize",
			Name:          "Áo Thun Cotton Oversize",
			Description:   "Áo thun cotton 100%, form oversize, nhiều kích cỡ.",
			Price:         price(250000),
			DiscountPrice: pricePtr(199000),
			InventoryType: constants.InventoryTypeSize,
			IsActive:      true,
			SortOrder:     300,
			Images: []models.ProductImage{
				{URL: "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=800", IsPrimary: true},
				{URL: "https://images.unsplash.com/photo-1503341504253-dff4815485f1?w=800", SortOrder: 1},
			},
			Sizes: []models.ProductSize{
				{Size: "S", StockCount: 10},
				{Size: "M", StockCount: 20},
				{Size: "L", StockCount: 15},
				{Size: "XL", StockCount: 5},
			},
		},
		{
			CategoryID:    categoryIDs["phu-kien"],
			Slug:          "tui-tote-canvas",
			Name:          "Túi Tote Canvas",
			Description:   "Túi tote vải canvas dày dặn, nhiều màu lựa chọn.",
			Price:         price(180000),
			InventoryType: constants.InventoryTypeColor,
			IsActive:      true,
			SortOrder:     200,
			Images: []models.ProductImage{
				{URL: "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=800", IsPrimary: true},
			},
			Colors: []models.ProductColor{
				{Color: "Be", StockCount: 12},
				{Color: "Đen", StockCount: 8},
				{Color: "Xanh rêu", StockCount: 0},
			},
		},
		{
			CategoryID:    categoryIDs["ao-khoac"],
			Slug:          "hoodie-ni-premium",
			Name:          "Hoodie Nỉ Premium",
			Description:   "Hoodie nỉ bông dày, phối đủ size và màu.",
			Price:         price(450000),
			DiscountPrice: pricePtr(399000),
			InventoryType: constants.InventoryTypeBoth,
			IsActive:      true,
			SortOrder:     100,
			Images: []models.ProductImage{
				{URL: "https://images.unsplash.com/photo-1556821840-3a63f95609a7?w=800", IsPrimary: true},
			},
			Variants: []models.ProductVariant{
				{Size: "M", Color: "Đen", StockCount: 7},
				{Size: "M", Color: "Xám", StockCount: 4},
				{Size: "L", Color: "Đen", StockCount: 6},
				{Size: "L", Color: "Xám", StockCount: 0},
			},
		},
		{
			CategoryID:    categoryIDs["ao-thun"],
			Slug:          "ao-thun-het-hang",
			Name:          "Áo Thun Demo Hết Hàng",
			Description:   "Dùng để kiểm tra huy hiệu hết hàng và chặn mua.",
			Price:         price(150000),
			InventoryType: constants.InventoryTypeRegular,
			StockCount:    0,
			IsActive:      true,
			SortOrder:     50,
		},
	}

	for _, prod := range products {
		if prod.CategoryID == 0 {
			stdLog.Printf("Skip product %s: category_id missing", prod.Slug)
			continue
		}
		var existing models.Product
		if err := db.Where("slug = ?", prod.Slug).First(&existing).Error; err != nil {
			prod.StockCount = aggregateStock(&prod)
			if err := db.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", prod.Slug, err)
			} else {
				stdLog.Printf("Created product: %s", prod.Slug)
			}
		} else {
			stdLog.Printf("Product already exists: %s", prod.Slug)
		}
	}

	seedDemoUser(db, stdLog)

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Categories")
	fmt.Println("- 5 Products (regular / size / color / both + sold out)")
	fmt.Println("- 1 Demo customer account (customer@example.com / customer123)")
}

// aggregateStock 按库存形态汇总总库存
func aggregateStock(p *models.Product) int {
	switch p.InventoryType {
	case constants.InventoryTypeSize:
		total := 0
		for _, s := range p.Sizes {
			total += s.StockCount
		}
		return total
	case constants.InventoryTypeColor:
		total := 0
		for _, c := range p.Colors {
			total += c.StockCount
		}
		return total
	case constants.InventoryTypeBoth:
		total := 0
		for _, v := range p.Variants {
			total += v.StockCount
		}
		return total
	default:
		return p.StockCount
	}
}

func seedDemoUser(db *gorm.DB, stdLog interface{ Printf(string, ...interface{}) }) {
	const email = "customer@example.com"
	var existing models.User
	if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
		stdLog.Printf("Demo user already exists: %s", email)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("customer123"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Printf("Failed to hash demo user password: %v", err)
		return
	}
	user := models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         "Demo Customer",
		Role:         constants.UserRoleCustomer,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		stdLog.Printf("Failed to create demo user: %v", err)
		return
	}
	stdLog.Printf("Created demo user: %s", email)
}

package provider

import (
	"time"

	"github.com/velora-shop/internal/authz"
	"github.com/velora-shop/internal/cache"
	"github.com/velora-shop/internal/config"
	"github.com/velora-shop/internal/logger"
	"github.com/velora-shop/internal/notify"
	"github.com/velora-shop/internal/payment/payos"
	"github.com/velora-shop/internal/queue"
	"github.com/velora-shop/internal/repository"
	"github.com/velora-shop/internal/service"

	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client
	Hub         *notify.Hub

	// Repositories
	UserRepo         repository.UserRepository
	CategoryRepo     repository.CategoryRepository
	ProductRepo      repository.ProductRepository
	InventoryRepo    repository.InventoryRepository
	CartRepo         repository.CartRepository
	OrderRepo        repository.OrderRepository
	ReviewRepo       repository.ReviewRepository
	NotificationRepo repository.NotificationRepository
	DashboardRepo    repository.DashboardRepository

	// Services
	AuthzService        *authz.Service
	AuthService         *service.AuthService
	UserService         *service.UserService
	CaptchaService      *service.CaptchaService
	CategoryService     *service.CategoryService
	ProductService      *service.ProductService
	InventoryService    *service.InventoryService
	CartService         *service.CartService
	NotificationService *service.NotificationService
	OrderService        *service.OrderService
	PaymentService      *service.PaymentService
	ReviewService       *service.ReviewService
	DashboardService    *service.DashboardService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config, db *gorm.DB) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
		Hub:         notify.NewHub(),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := c.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.InventoryRepo = repository.NewInventoryRepository(db)
	c.CartRepo = repository.NewCartRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ReviewRepo = repository.NewReviewRepository(db)
	c.NotificationRepo = repository.NewNotificationRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(c.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.UserService = service.NewUserService(c.UserRepo)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo)
	c.InventoryService = service.NewInventoryService(c.InventoryRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CategoryRepo, c.InventoryRepo, c.InventoryService)
	c.CartService = service.NewCartService(c.CartRepo, c.ProductRepo, c.InventoryService)
	c.NotificationService = service.NewNotificationService(c.NotificationRepo, c.QueueClient)

	shipping := service.ShippingPolicy{
		FlatFee:       c.Config.Shipping.FlatFee,
		FreeThreshold: c.Config.Shipping.FreeThreshold,
	}
	paymentExpire := time.Duration(c.Config.Order.PaymentExpireMinutes) * time.Minute
	c.OrderService = service.NewOrderService(c.DB, c.OrderRepo, c.ProductRepo, c.CartRepo,
		c.InventoryService, c.NotificationService, c.QueueClient,
		shipping, c.Config.Site.Currency, paymentExpire)

	var payosCfg *payos.Config
	if c.Config.PayOS.Enabled {
		payosCfg = &payos.Config{
			ClientID:    c.Config.PayOS.ClientID,
			APIKey:      c.Config.PayOS.APIKey,
			ChecksumKey: c.Config.PayOS.ChecksumKey,
			Endpoint:    c.Config.PayOS.Endpoint,
		}
	}
	c.PaymentService = service.NewPaymentService(c.DB, c.OrderRepo, c.ProductRepo, c.CartRepo,
		c.InventoryService, c.NotificationService, payosCfg,
		c.Config.PayOS.ReturnURL, c.Config.PayOS.CancelURL)

	c.ReviewService = service.NewReviewService(c.ReviewRepo, c.OrderRepo, c.ProductRepo)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo, c.Config.Site.LowStockThreshold, c.Config.Site.Currency)
}

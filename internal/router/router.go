package router

import (
	"github.com/velora-shop/internal/config"
	adminhandlers "github.com/velora-shop/internal/http/handlers/admin"
	publichandlers "github.com/velora-shop/internal/http/handlers/public"
	"github.com/velora-shop/internal/logger"
	"github.com/velora-shop/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 组装全部路由与中间件
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	if logger.L == nil {
		logger.Init(cfg.Server.Mode, logger.Options{})
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(logger.L))
	r.Use(CORSMiddleware(cfg.CORS))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	loginLimit := RateLimitRule{
		Prefix:        "login",
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "too many login attempts",
	}

	apiV1 := r.Group("/api/v1")

	// 游客可访问
	public := apiV1.Group("/public")
	{
		public.GET("/products", publicHandler.ListProducts)
		public.GET("/products/:slug", publicHandler.GetProduct)
		public.GET("/products/:slug/reviews", publicHandler.ListProductReviews)
		public.GET("/categories", publicHandler.ListCategories)
		public.GET("/categories/:slug", publicHandler.GetCategory)
		public.GET("/captcha/image", publicHandler.GetImageCaptcha)
	}

	auth := apiV1.Group("/auth")
	{
		auth.POST("/register", publicHandler.UserRegister)
		auth.POST("/login",
			RateLimitMiddleware(loginLimit, KeyByIPAndJSONField("email")),
			publicHandler.UserLogin)
	}

	// 支付网关回调，不做登录鉴权，签名在 handler 内校验
	apiV1.POST("/payments/payos/webhook", publicHandler.PayOSWebhook)

	// 登录用户
	user := apiV1.Group("")
	user.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
	{
		user.GET("/me", publicHandler.GetProfile)
		user.PUT("/me/profile", publicHandler.UpdateProfile)
		user.PUT("/me/password", publicHandler.ChangePassword)

		user.GET("/cart", publicHandler.GetCart)
		user.POST("/cart/items", publicHandler.AddCartItem)
		user.PUT("/cart/items/:id", publicHandler.UpdateCartItem)
		user.DELETE("/cart/items/:id", publicHandler.DeleteCartItem)
		user.DELETE("/cart", publicHandler.ClearCart)

		user.POST("/checkout", publicHandler.Checkout)
		user.GET("/orders", publicHandler.ListMyOrders)
		user.GET("/orders/:id", publicHandler.GetMyOrder)
		user.POST("/orders/:id/cancel-request", publicHandler.RequestCancelOrder)
		user.GET("/payments/result/:order_code", publicHandler.GetPaymentResult)

		user.POST("/reviews", publicHandler.CreateReview)
		user.GET("/reviews", publicHandler.ListMyReviews)
		user.PUT("/reviews/:id", publicHandler.UpdateReview)
		user.DELETE("/reviews/:id", publicHandler.DeleteReview)

		user.GET("/notifications", publicHandler.ListNotifications)
		user.GET("/notifications/unread-count", publicHandler.GetUnreadCount)
		user.PUT("/notifications/:id/read", publicHandler.MarkNotificationRead)
		user.PUT("/notifications/read-all", publicHandler.MarkAllNotificationsRead)
		user.GET("/ws/notifications", publicHandler.NotificationSocket)
	}

	// 管理端
	admin := apiV1.Group("/admin")
	admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
	admin.Use(AdminRBACMiddleware(c.AuthzService))
	{
		admin.GET("/dashboard/overview", adminHandler.GetDashboardOverview)
		admin.GET("/dashboard/trends", adminHandler.GetDashboardTrends)
		admin.GET("/dashboard/rankings", adminHandler.GetDashboardRankings)

		admin.GET("/products", adminHandler.GetAdminProducts)
		admin.GET("/products/:id", adminHandler.GetAdminProduct)
		admin.POST("/products", adminHandler.CreateProduct)
		admin.PUT("/products/:id", adminHandler.UpdateProduct)
		admin.DELETE("/products/:id", adminHandler.DeleteProduct)

		admin.GET("/categories", adminHandler.GetAdminCategories)
		admin.POST("/categories", adminHandler.CreateCategory)
		admin.PUT("/categories/:id", adminHandler.UpdateCategory)
		admin.DELETE("/categories/:id", adminHandler.DeleteCategory)

		admin.GET("/orders", adminHandler.AdminListOrders)
		admin.GET("/orders/:id", adminHandler.AdminGetOrder)
		admin.PUT("/orders/:id/status", adminHandler.AdminUpdateOrderStatus)
		admin.POST("/orders/:id/cancel-request/approve", adminHandler.AdminApproveCancel)
		admin.POST("/orders/:id/cancel-request/reject", adminHandler.AdminRejectCancel)

		admin.GET("/users", adminHandler.GetAdminUsers)
		admin.GET("/users/:id", adminHandler.GetAdminUser)
		admin.PUT("/users/:id/status", adminHandler.UpdateAdminUserStatus)

		admin.GET("/reviews", adminHandler.GetAdminReviews)
		admin.DELETE("/reviews/:id", adminHandler.AdminDeleteReview)

		admin.GET("/authz/me", adminHandler.GetAuthzMe)
		admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
		admin.POST("/authz/roles", adminHandler.CreateAuthzRole)
		admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
		admin.POST("/authz/roles/:role/policies", adminHandler.GrantAuthzPolicy)
		admin.DELETE("/authz/roles/:role/policies", adminHandler.RevokeAuthzPolicy)
		admin.GET("/authz/users/:id/roles", adminHandler.GetAuthzUserRoles)
		admin.PUT("/authz/users/:id/roles", adminHandler.SetAuthzUserRoles)
	}

	return r
}

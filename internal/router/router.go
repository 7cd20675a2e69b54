package router

import (
	"net/http"
	"time"

	authentity "furnibles/internal/app/auth/entity"
	authhandler "furnibles/internal/app/auth/handler"
	ordershandler "furnibles/internal/app/orders/handler"
	reviewshandler "furnibles/internal/app/reviews/handler"
	"furnibles/pkg/logger"
	"furnibles/pkg/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes собирает HTTP-поверхность маркетплейса.
// Публичные маршруты живут вне защищённых групп, всё остальное
// проходит через Authenticate (проверка подписи + Revocation Gate).
func SetupRoutes(
	authHandler *authhandler.AuthHandler,
	authMiddleware *authhandler.AuthMiddleware,
	orderHandler *ordershandler.OrderHandler,
	reviewHandler *reviewshandler.ReviewHandler,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware("furnibles"))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposeHeaders:    []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300 * time.Second,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "furnibles",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Публичные маршруты аутентификации
	auth := router.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
		auth.POST("/verify-email", authHandler.VerifyEmail)
	}

	// Защищённые маршруты аутентификации
	authProtected := router.Group("/auth")
	authProtected.Use(authMiddleware.Authenticate())
	{
		authProtected.GET("/profile", authHandler.GetProfile)
		authProtected.POST("/refresh", authHandler.RefreshToken)
		authProtected.POST("/change-password", authHandler.ChangePassword)
		authProtected.POST("/logout", authHandler.Logout)
	}

	// Корзина
	cart := router.Group("/cart")
	cart.Use(authMiddleware.Authenticate())
	{
		cart.GET("", orderHandler.GetCart)
		cart.POST("/items", orderHandler.AddToCart)
		cart.DELETE("/items/:productId", orderHandler.RemoveFromCart)
	}

	// Заказы и скачивания
	orders := router.Group("/orders")
	orders.Use(authMiddleware.Authenticate())
	{
		orders.POST("/checkout", orderHandler.Checkout)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/:id/downloads", orderHandler.ListOrderDownloads)
		orders.POST("/:id/cancel", orderHandler.CancelOrder)
	}

	downloads := router.Group("/downloads")
	downloads.Use(authMiddleware.Authenticate())
	{
		downloads.POST("/:token", orderHandler.RedeemDownload)
	}

	// Callback платёжного провайдера, авторизация не требуется
	router.POST("/webhooks/payment", orderHandler.PaymentWebhook)

	// Леджер продавца
	seller := router.Group("/seller")
	seller.Use(authMiddleware.Authenticate(), authMiddleware.RequireRole(authentity.RoleSeller, authentity.RoleAdmin))
	{
		seller.GET("/transactions", orderHandler.ListSellerTransactions)
	}

	// Публичные рейтинги и отзывы
	router.GET("/products/:id/reviews", reviewHandler.GetProductReviews)
	router.GET("/products/:id/rating", reviewHandler.GetProductRating)
	router.GET("/sellers/:id/rating", reviewHandler.GetSellerRating)

	// Отзывы
	reviews := router.Group("/reviews")
	reviews.Use(authMiddleware.Authenticate())
	{
		reviews.POST("", reviewHandler.CreateReview)
		reviews.GET("/my", reviewHandler.GetMyReviews)
		reviews.PUT("/:id", reviewHandler.UpdateReview)
		reviews.POST("/:id/response", reviewHandler.RespondToReview)
		reviews.POST("/:id/vote", reviewHandler.VoteReview)
	}

	// Модерация, только admin
	admin := router.Group("/admin")
	admin.Use(authMiddleware.Authenticate(), authMiddleware.RequireRole(authentity.RoleAdmin))
	{
		admin.POST("/reviews/:id/moderate", reviewHandler.ModerateReview)
	}

	return router
}

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookreview-backend/internal/shared/middleware"
	"bookreview-backend/pkg/container"
)

func SetupRouter(c *container.Container, limiter *middleware.RateLimiter) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.ClientIP(),
		middleware.Logger(),
		middleware.CORS(c.Config.App.CORSOrigins),
	)

	auth := middleware.AuthMiddleware(c.JWTManager, c.Cache)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		limited := v1.Group("", limiter.Middleware())
		setupAuthRoutes(limited, c, auth)
		setupBookRoutes(limited, c, auth)
		setupReviewRoutes(limited, c, auth)
		setupAdminRoutes(limited, c, auth)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container, auth gin.HandlerFunc) {
	group := v1.Group("/auth")
	{
		group.POST("/signup", c.UserHandler.Signup)
		group.POST("/login", c.UserHandler.Login)
	}

	protected := v1.Group("/auth", auth)
	{
		protected.GET("/me", c.UserHandler.Me)
		protected.GET("/stats", c.UserHandler.Stats)
		protected.PUT("/updatedetails", c.UserHandler.UpdateDetails)
		protected.PUT("/updatepassword", c.UserHandler.UpdatePassword)
		protected.POST("/logout", c.UserHandler.Logout)
	}
}

// ========================================
// BOOK ROUTES
// ========================================
func setupBookRoutes(v1 *gin.RouterGroup, c *container.Container, auth gin.HandlerFunc) {
	h := c.BookHandler

	books := v1.Group("/books")
	{
		// Public: static paths trước /:id
		books.GET("", h.ListBooks)
		books.GET("/genres", h.Genres)
		books.GET("/popular", h.Popular)
		books.GET("/recent", h.Recent)
		books.GET("/search", h.SearchBooks)
		books.GET("/user/:userId", h.ListByOwner)
		books.GET("/:id", h.GetBook)
	}

	protected := v1.Group("/books", auth)
	{
		protected.POST("", h.CreateBook)
		protected.PUT("/:id", h.UpdateBook)
		protected.DELETE("/:id", h.DeleteBook)
		protected.POST("/:id/cover", h.UploadCover)
	}
}

// ========================================
// REVIEW ROUTES
// ========================================
func setupReviewRoutes(v1 *gin.RouterGroup, c *container.Container, auth gin.HandlerFunc) {
	h := c.ReviewHandler

	reviews := v1.Group("/reviews")
	{
		reviews.GET("/book/:bookId", h.ListForBook)
		reviews.GET("/user/:userId", h.ListByUser)
		reviews.GET("/average/:bookId", h.Average)
		reviews.GET("/helpful/:bookId", h.MostHelpful)
		reviews.GET("/:id", h.Get)
	}

	protected := v1.Group("/reviews", auth)
	{
		protected.GET("/my/reviews", h.ListMine)
		protected.GET("/check/:bookId", h.CheckMine)
		protected.POST("", h.Create)
		protected.PUT("/:id", h.Update)
		protected.DELETE("/:id", h.Delete)
		protected.POST("/:id/helpful", h.MarkHelpful)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container, auth gin.HandlerFunc) {
	admin := v1.Group("/admin", auth, middleware.AdminMiddleware())
	{
		admin.POST("/maintenance/reconcile-counters", c.UserHandler.ReconcileCounters)
		admin.GET("/reports/ratings", c.BookHandler.ExportRatings)
	}
}

// ========================================
// HEALTH
// ========================================

// healthCheckHandler: database lỗi → 503; Redis/MinIO lỗi chỉ làm status "degraded"
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := "ok"
		code := http.StatusOK

		dbStatus := "ok"
		if err := appCtx.DB.HealthCheck(ctx); err != nil {
			dbStatus = "error: " + err.Error()
			status = "unhealthy"
			code = http.StatusServiceUnavailable
		}

		redisStatus := "ok"
		if err := appCtx.Cache.Ping(ctx); err != nil {
			redisStatus = "error: " + err.Error()
			if status == "ok" {
				status = "degraded"
			}
		}

		storageStatus := "ok"
		if err := appCtx.Storage.Ping(ctx); err != nil {
			storageStatus = "error: " + err.Error()
			if status == "ok" {
				status = "degraded"
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
				"storage":  storageStatus,
			},
		})
	}
}

package handler

import (
	"github.com/SergeiKhy/linkpulse/internal/middleware"
	"github.com/SergeiKhy/linkpulse/internal/permission"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	Link      *LinkHandler
	Analytics *AnalyticsHandler
	Auth      *AuthHandler
	Admin     *AdminHandler
	Health    *HealthHandler
}

// RateLimiters: Global по IP на все запросы, Auth строже на вход и регистрацию,
// User по пользователю на защищённые маршруты. Nil отключает соответствующий лимит
type RateLimiters struct {
	Global *middleware.RateLimiter
	Auth   *middleware.RateLimiter
	User   *middleware.RateLimiter
}

func NewRouter(h Handlers, tokens middleware.TokenParser, limits RateLimiters, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	if limits.Global != nil {
		router.Use(limits.Global.Middleware())
	}

	v1 := router.Group("/api/v1")
	v1.GET("/health", h.Health.Check)

	auth := v1.Group("/auth")
	if limits.Auth != nil {
		auth.Use(limits.Auth.Middleware())
	}
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.GET("/google", h.Auth.GoogleLogin)
		auth.GET("/google/callback", h.Auth.GoogleCallback)
	}

	// Всё ниже требует access-токен
	api := v1.Group("", middleware.Authenticate(tokens))
	if limits.User != nil {
		api.Use(limits.User.MiddlewareWithKey(middleware.UserKey))
	}

	can := middleware.RequirePermission

	api.GET("/users/me", can(permission.UserGet), h.Auth.Me)

	links := api.Group("/links")
	{
		links.POST("", can(permission.LinkCreate), h.Link.CreateLink)
		links.GET("", can(permission.LinkGetOwn), h.Link.ListOwn)
		links.GET("/all", can(permission.LinkGetAll), h.Link.ListAll)
		links.GET("/:id", can(permission.LinkGetByID), h.Link.GetLink)
		links.PATCH("/:id", can(permission.LinkUpdate), h.Link.UpdateLink)
		links.DELETE("/:id", can(permission.LinkDelete), h.Link.DeleteLink)
		links.POST("/:id/restore", can(permission.LinkDelete), h.Link.RestoreLink)
		links.POST("/:id/archive", can(permission.LinkUpdate), h.Link.ArchiveLink)
		links.POST("/:id/unarchive", can(permission.LinkUpdate), h.Link.UnarchiveLink)
		links.DELETE("/:id/utm", can(permission.LinkUpdate), h.Link.RemoveUTM)
		links.GET("/:id/stats", can(permission.LinkGetByID), h.Link.GetStats)
	}

	api.GET("/analytics", can(permission.AnalyticsGet), h.Analytics.Summary)
	api.GET("/clicks", can(permission.ClicksGet), h.Analytics.Clicks)

	api.GET("/admin/insight", can(permission.AdminGetInsight), h.Admin.Insight)
	api.POST("/reviews", can(permission.ReviewCreate), h.Admin.SubmitReview)
	api.GET("/reviews", can(permission.ReviewGetAll), h.Admin.ListReviews)

	// Редирект (корневой путь) - без аутентификации
	router.GET("/:code", h.Link.Redirect)

	return router
}

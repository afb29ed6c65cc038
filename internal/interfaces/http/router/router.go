package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/auth"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// Dependencies bundles everything the router wires together.
type Dependencies struct {
	Config    *config.Config
	Log       *zap.Logger
	Auth      *handler.AuthHandler
	Catalog   *handler.CatalogHandler
	Orders    *handler.OrderHandler
	Tokens    *auth.JWTManager
	Blacklist auth.TokenBlacklist
}

// New builds the gin engine with all middleware and routes registered.
func New(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if len(deps.Config.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(deps.Config.HTTP.TrustedProxies)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinLogger(deps.Log))
	engine.Use(logger.GinRecovery(deps.Log))
	engine.Use(middleware.CORS(
		deps.Config.HTTP.CORSAllowOrigins,
		deps.Config.HTTP.CORSAllowMethods,
		deps.Config.HTTP.CORSAllowHeaders,
	))
	if deps.Config.Telemetry.Enabled {
		engine.Use(otelgin.Middleware(deps.Config.Telemetry.ServiceName))
	}

	authed := middleware.JWTAuth(deps.Tokens, deps.Blacklist)
	adminOnly := middleware.RequireRole(identity.RoleAdmin.String())

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		v1.POST("/auth/login", deps.Auth.Login)
		v1.POST("/auth/refresh", deps.Auth.Refresh)
		v1.POST("/auth/logout", authed, deps.Auth.Logout)
		v1.GET("/auth/me", authed, deps.Auth.Me)

		v1.GET("/products", deps.Catalog.ListProducts)
		v1.GET("/products/slug/:slug", deps.Catalog.GetProductBySlug)
		v1.GET("/products/:id", deps.Catalog.GetProduct)
		v1.GET("/categories", deps.Catalog.ListCategories)

		v1.POST("/products", authed, adminOnly, deps.Catalog.CreateProduct)
		v1.PUT("/products/:id", authed, adminOnly, deps.Catalog.UpdateProduct)
		v1.DELETE("/products/:id", authed, adminOnly, deps.Catalog.DeleteProduct)

		orders := v1.Group("/orders", authed)
		{
			orders.POST("", deps.Orders.Create)
			orders.GET("/my", deps.Orders.ListMine)
			orders.GET("/admin", adminOnly, deps.Orders.ListAdmin)
			orders.PUT("/admin/:id/status", adminOnly, deps.Orders.UpdateStatus)
			orders.PUT("/admin/:id/payment-status", adminOnly, deps.Orders.UpdatePaymentStatus)
			orders.GET("/:id", deps.Orders.Get)
			orders.POST("/:id/cancel", deps.Orders.Cancel)
		}
	}

	return engine
}

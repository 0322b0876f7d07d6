package handler

import (
	"ecommerce-backend/config"
	"ecommerce-backend/internal/adapter/http/middleware"
	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	UserSvc          ports.UserService
	WalletSvc        ports.WalletService
	CatalogSvc       ports.CatalogService
	PurchaseSvc      ports.PurchaseService
	TokenSvc         ports.TokenService
	AllowAdminSignup bool
	RateLimiter      ports.RateLimiter // nil = rate limiting disabled
	RateLimits       config.RateLimitConfig
	HealthCheckers   []ports.HealthChecker
	AuditSvc         ports.AuditService // nil = audit logging disabled
	ServiceName      string
	Logger           zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing(deps.ServiceName))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Audit logging (after response)
	if deps.AuditSvc != nil {
		r.Use(middleware.AuditLog(deps.AuditSvc))
	}

	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Returns the limiter for a rule, or a noop when limiting is off.
	rl := func(group string, rule config.RateLimitRule) gin.HandlerFunc {
		if deps.RateLimiter == nil || !deps.RateLimits.Enabled {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimiter, group, rule, deps.Logger)
	}

	v1 := r.Group("/api/v1")
	v1.GET("/health", HealthCheck(deps.HealthCheckers...))

	jwtAuth := middleware.JWTAuth(deps.TokenSvc)
	adminOnly := middleware.RequireRole(domain.UserRoleAdmin)
	customerOnly := middleware.RequireRole(domain.UserRoleCustomer)

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.UserSvc, deps.AllowAdminSignup)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register", deps.RateLimits.Register), authHandler.Register)
		auth.POST("/login", rl("auth_login", deps.RateLimits.Login), authHandler.Login)
	}

	userHandler := NewUserHandler(deps.UserSvc)
	users := v1.Group("/users", jwtAuth)
	{
		users.GET("/me", userHandler.GetMe)
		users.PATCH("/me", userHandler.UpdateMe)
	}

	walletHandler := NewWalletHandler(deps.WalletSvc)
	wallet := v1.Group("/wallet", jwtAuth, customerOnly)
	{
		wallet.GET("/balance", walletHandler.GetBalance)
		wallet.POST("/add-funds", rl("add_funds", deps.RateLimits.AddFunds), walletHandler.AddFunds)
		wallet.GET("/transactions", walletHandler.ListTransactions)
	}

	productHandler := NewProductHandler(deps.CatalogSvc)
	products := v1.Group("/products")
	{
		products.GET("", productHandler.List)
		products.GET("/:id", productHandler.Get)
		products.POST("", jwtAuth, adminOnly, productHandler.Create)
		products.POST("/bulk", jwtAuth, adminOnly, productHandler.BulkUpsert)
		products.PATCH("/:id", jwtAuth, adminOnly, productHandler.Update)
		products.DELETE("/:id", jwtAuth, adminOnly, productHandler.Delete)
		products.POST("/:id/stock", jwtAuth, adminOnly, productHandler.UpdateStock)
	}

	orderHandler := NewOrderHandler(deps.PurchaseSvc)
	orders := v1.Group("/orders", jwtAuth)
	{
		orders.POST("/purchase", customerOnly, rl("purchase", deps.RateLimits.Purchase), orderHandler.Purchase)
		orders.GET("", orderHandler.List)
		orders.GET("/stats", orderHandler.Stats)
		orders.GET("/:id", orderHandler.Get)
	}

	return r
}

package router

import (
	"fmt"
	"strings"

	"github.com/storefront-session/internal/cache"
	"github.com/storefront-session/internal/config"
	"github.com/storefront-session/internal/http/handlers"
	"github.com/storefront-session/internal/logger"
	"github.com/storefront-session/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	handler := handlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "sfs"
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 会话与认证
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", RateLimitMiddleware(cache.Client(), loginRule, KeyByIPAndJSONField("username")), handler.Login)
			auth.POST("/logout", handler.Logout)
		}
		apiV1.GET("/session", handler.GetSession)

		// 商品目录
		apiV1.GET("/products", handler.GetProducts)
		apiV1.GET("/products/:id", handler.GetProduct)
		apiV1.POST("/products", handler.CreateProduct)
		apiV1.PUT("/products/:id", handler.UpdateProduct)
		apiV1.DELETE("/products/:id", handler.DeleteProduct)

		// 购物车
		apiV1.GET("/cart", handler.GetCart)
		apiV1.GET("/cart/total", handler.GetCartTotal)
		apiV1.POST("/cart/items", handler.AddCartItem)
		apiV1.PUT("/cart/items/:product_id", handler.SetCartItemQuantity)
		apiV1.DELETE("/cart/items/:product_id", handler.RemoveCartItem)
		apiV1.POST("/cart/items/:product_id/increment", handler.IncrementCartItem)
		apiV1.POST("/cart/items/:product_id/decrement", handler.DecrementCartItem)
	}

	return r
}

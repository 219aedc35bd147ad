package router

import (
	"fmt"
	"strings"

	"github.com/anonic-next/internal/cache"
	"github.com/anonic-next/internal/config"
	"github.com/anonic-next/internal/constants"
	adminhandlers "github.com/anonic-next/internal/http/handlers/admin"
	publichandlers "github.com/anonic-next/internal/http/handlers/public"
	"github.com/anonic-next/internal/logger"
	"github.com/anonic-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按接入/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	messageRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:messages", redisPrefix),
		WindowSeconds: cfg.Security.APIRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.APIRateLimit.MaxAttempts,
		Message:       "too many requests",
	}
	identityRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:identity", redisPrefix),
		WindowSeconds: cfg.Security.APIRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.APIRateLimit.MaxAttempts,
		Message:       "too many requests",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 身份接口
		identities := apiV1.Group("/identities")
		{
			identities.POST("", publicHandler.EnsureIdentity)
			identities.GET("/:peer_id", publicHandler.GetIdentity)
			identities.POST("/:peer_id/rotate", RateLimitMiddleware(redisClient, identityRule, KeyByPathParam("peer_id")), publicHandler.RotateIdentity)
			identities.PUT("/:peer_id/language", publicHandler.SetLanguage)
			identities.PUT("/:peer_id/protect", publicHandler.SetProtectContent)
			identities.PUT("/:peer_id/tags", publicHandler.SetContentTag)
			identities.POST("/:peer_id/tags/reset", publicHandler.ResetContentTags)

			// 黑名单
			identities.GET("/:peer_id/blocks", publicHandler.ListBlocks)
			identities.POST("/:peer_id/blocks", publicHandler.CreateBlock)
			identities.POST("/:peer_id/blocks/remove", publicHandler.RemoveBlock)
			identities.POST("/:peer_id/blocks/clear", publicHandler.ClearBlocks)

			// 邀请链接
			identities.GET("/:peer_id/links", publicHandler.ListLinks)
			identities.POST("/:peer_id/links", publicHandler.IssueLink)
			identities.POST("/:peer_id/links/:code/revoke", publicHandler.RevokeLink)
			identities.DELETE("/:peer_id/links/:code", publicHandler.DeleteLink)
		}

		// 链接解析（不消耗次数）
		apiV1.GET("/links/:code", publicHandler.ResolveLink)

		// 路由接口
		apiV1.POST("/activations", publicHandler.Activate)
		apiV1.POST("/messages", RateLimitMiddleware(redisClient, messageRule, KeyByIP), publicHandler.RouteMessage)
		apiV1.POST("/disconnect", publicHandler.Disconnect)
		apiV1.POST("/reports", publicHandler.Report)

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(AdminTokenMiddleware(cfg.Security.AdminToken))
		{
			admin.GET("/users", adminHandler.GetUsers)
			admin.GET("/users/:peer_id", adminHandler.GetUser)
			admin.POST("/users/:peer_id/ban", adminHandler.BanUser)
			admin.POST("/users/:peer_id/unban", adminHandler.UnbanUser)
			admin.PUT("/users/:peer_id/status", adminHandler.SetUserStatus)
			admin.GET("/users/:peer_id/revocations", adminHandler.GetUserRevocations)
			admin.GET("/stats", adminHandler.GetStats)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

package router

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/techphorix/w-store-sub004/internal/authz"
	"github.com/techphorix/w-store-sub004/internal/cache"
	"github.com/techphorix/w-store-sub004/internal/config"
	"github.com/techphorix/w-store-sub004/internal/constants"
	adminhandlers "github.com/techphorix/w-store-sub004/internal/http/handlers/admin"
	publichandlers "github.com/techphorix/w-store-sub004/internal/http/handlers/public"
	sellerhandlers "github.com/techphorix/w-store-sub004/internal/http/handlers/seller"
	handlershared "github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/http/response"
	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/provider"
	"github.com/techphorix/w-store-sub004/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按访问面分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	sellerHandler := sellerhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ws"
	}
	redisClient := cache.Client()
	loginRule := NewRateLimitRule(fmt.Sprintf("%s:rate:login", redisPrefix), cfg.Security.LoginRateLimit)
	refreshRule := NewRateLimitRule(fmt.Sprintf("%s:rate:refresh", redisPrefix), cfg.Security.RefreshRateLimit)
	overrideRule := NewRateLimitRule(fmt.Sprintf("%s:rate:override", redisPrefix), cfg.Security.OverrideRateLimit)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	identityAuth := IdentityAuthMiddleware(c.TokenService, c.IdentityResolver, cfg.Session.CookieName)
	rbac := RoleRBACMiddleware(c.AuthzService)

	apiV1 := r.Group("/api/v1")
	{
		// 登录无需鉴权
		apiV1.POST("/auth/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)

		authed := apiV1.Group("")
		authed.Use(identityAuth, rbac)
		{
			authed.POST("/auth/refresh", RateLimitMiddleware(redisClient, refreshRule, KeyByIdentity), publicHandler.Refresh)
			authed.POST("/auth/logout", publicHandler.Logout)
			authed.GET("/me", publicHandler.GetCurrentUser)

			// 卖家接口（按生效身份归属过滤）
			seller := authed.Group("/seller")
			seller.Use(RequireRolesMiddleware(c.Gate, constants.RoleSeller))
			{
				seller.GET("/dashboard", sellerHandler.GetDashboard)
				seller.GET("/orders", sellerHandler.ListOrders)
				seller.GET("/orders/:id", sellerHandler.GetOrder)
			}

			// 管理端接口
			admin := authed.Group("/admin")
			admin.Use(RequireStandardTokenMiddleware())
			{
				overrideLimit := RateLimitMiddleware(redisClient, overrideRule, KeyByIdentity)

				// 卖家指标覆盖
				admin.GET("/seller/:id/overrides", adminHandler.ListSellerOverrides)
				admin.POST("/seller/:id/overrides", overrideLimit, adminHandler.PutSellerOverride)
				admin.DELETE("/seller/:id/overrides/:metric", overrideLimit, adminHandler.DeleteSellerOverride)
				admin.PUT("/seller/:id/overrides/:metric/clear", overrideLimit, adminHandler.ClearSellerOverride)
				admin.GET("/seller/:id/dashboard", adminHandler.GetSellerDashboard)
				admin.POST("/seller/:id/metrics/reconcile", adminHandler.ReconcileSellerMetrics)

				// 代登录
				admin.POST("/impersonate/:id", adminHandler.Impersonate)

				// 账号管理
				admin.GET("/users", adminHandler.ListPrincipals)
				admin.GET("/users/:id", adminHandler.GetPrincipal)
				admin.PUT("/users/:id/status", adminHandler.UpdatePrincipalStatus)

				// 审计日志
				admin.GET("/audit-logs", adminHandler.ListAuditLogs)

				// 权限管理
				admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildPermissionCatalog(r))
				})
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

// KeyByIdentity 使用生效身份作为限流 key，缺失时回退到 IP
func KeyByIdentity(c *gin.Context) string {
	value, ok := c.Get(handlershared.IdentityKey)
	if !ok {
		return c.ClientIP()
	}
	identity, ok := value.(*service.Identity)
	if !ok || identity == nil || identity.AuthorizingID() == 0 {
		return c.ClientIP()
	}
	return "principal:" + strconv.FormatUint(uint64(identity.AuthorizingID()), 10)
}

type permissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildPermissionCatalog(engine *gin.Engine) []permissionCatalogItem {
	if engine == nil {
		return []permissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]permissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/") {
			continue
		}
		if item.Path == "/api/v1/auth/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, permissionCatalogItem{
			Module:     derivePermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func derivePermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	return segments[1]
}

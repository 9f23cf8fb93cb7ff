package router

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/techphorix/w-store-sub004/internal/authz"
	"github.com/techphorix/w-store-sub004/internal/config"
	handlershared "github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/http/response"
	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = response.RequestIDKey
const requestIDHeader = "X-Request-ID"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-Request-ID",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Request = c.Request.WithContext(service.WithRequestID(c.Request.Context(), requestID))
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// TokenVerifier 校验 Token 签名与有效期
type TokenVerifier interface {
	Verify(tokenString string) (*service.SessionClaims, error)
}

// IdentityResolver 将声明解析为身份
type IdentityResolver interface {
	Resolve(ctx context.Context, claims *service.SessionClaims, rawToken string) (*service.Identity, error)
}

// IdentityAuthMiddleware 身份鉴权中间件
// 优先读取 Authorization: Bearer，缺失时回退到会话 Cookie；任何认证失败统一返回 401
func IdentityAuthMiddleware(verifier TokenVerifier, resolver IdentityResolver, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil || resolver == nil {
			logger.Errorw("identity_auth_unavailable")
			handlershared.RespondError(c, response.CodeUnauthorized, response.ErrInvalidCredential, "error.unauthorized", nil)
			c.Abort()
			return
		}

		tokenString, ok := extractToken(c, cookieName)
		if !ok {
			handlershared.RespondError(c, response.CodeUnauthorized, response.ErrInvalidCredential, "error.unauthorized", nil)
			c.Abort()
			return
		}

		claims, err := verifier.Verify(tokenString)
		if err != nil {
			respondAuthFailure(c, err)
			return
		}
		identity, err := resolver.Resolve(c.Request.Context(), claims, tokenString)
		if err != nil {
			respondAuthFailure(c, err)
			return
		}

		handlershared.SetIdentity(c, identity)
		c.Next()
	}
}

func extractToken(c *gin.Context, cookieName string) (string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}
	if cookieName == "" {
		return "", false
	}
	value, err := c.Cookie(cookieName)
	if err != nil || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func respondAuthFailure(c *gin.Context, err error) {
	rule, ok := handlershared.MatchErrorRule(err)
	if !ok || !handlershared.IsAuthError(err) {
		logger.Warnw("identity_auth_unexpected_error", "path", c.Request.URL.Path, "error", err)
		rule = handlershared.AuthErrorRules[0]
	}
	handlershared.RespondError(c, rule.Status, rule.Code, rule.Key, nil)
	c.Abort()
}

// RoleRBACMiddleware 基于生效身份角色的路由授权
func RoleRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := handlershared.CurrentIdentity(c)
		if !ok {
			c.Abort()
			return
		}
		if authzService == nil {
			logger.Errorw("role_rbac_service_unavailable")
			handlershared.RespondError(c, response.CodeForbidden, response.ErrInsufficientPermissions, "error.insufficient_permissions", nil)
			c.Abort()
			return
		}

		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}
		allowed, err := authzService.EnforceRole(identity.EffectiveRole(), resource, c.Request.Method)
		if err != nil {
			logger.Errorw("role_rbac_enforce_failed",
				"principal_id", identity.EffectiveID(),
				"role", identity.EffectiveRole(),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			handlershared.RespondError(c, response.CodeForbidden, response.ErrInsufficientPermissions, "error.insufficient_permissions", nil)
			c.Abort()
			return
		}
		if !allowed {
			logger.Warnw("role_rbac_permission_denied",
				"principal_id", identity.EffectiveID(),
				"authorizing_id", identity.AuthorizingID(),
				"impersonating", identity.Impersonating,
				"role", identity.EffectiveRole(),
				"method", c.Request.Method,
				"resource", authz.NormalizeObject(resource),
			)
			handlershared.RespondError(c, response.CodeForbidden, response.ErrInsufficientPermissions, "error.insufficient_permissions", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRolesMiddleware 生效身份角色必须在给定集合内
func RequireRolesMiddleware(gate *authz.Gate, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := handlershared.CurrentIdentity(c)
		if !ok {
			c.Abort()
			return
		}
		if err := gate.RequireRoles(identity, roles...); err != nil {
			handlershared.RespondServiceError(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStandardTokenMiddleware 拒绝代登录 Token（管理端与会话续期只接受标准 Token）
func RequireStandardTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := handlershared.CurrentIdentity(c)
		if !ok {
			c.Abort()
			return
		}
		if identity.Impersonating {
			handlershared.RespondError(c, response.CodeForbidden, response.ErrInsufficientPermissions, "error.insufficient_permissions", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

package shared

import (
	"context"

	"github.com/techphorix/w-store-sub004/internal/http/response"
	"github.com/techphorix/w-store-sub004/internal/service"

	"github.com/gin-gonic/gin"
)

// IdentityKey gin 上下文中已解析身份的键
const IdentityKey = "identity"

// SetIdentity 写入已解析身份
func SetIdentity(c *gin.Context, identity *service.Identity) {
	c.Set(IdentityKey, identity)
}

// CurrentIdentity 读取已解析身份，缺失时返回 401。
func CurrentIdentity(c *gin.Context) (*service.Identity, bool) {
	value, exists := c.Get(IdentityKey)
	if !exists {
		RespondError(c, response.CodeUnauthorized, response.ErrInvalidCredential, "error.unauthorized", nil)
		return nil, false
	}
	identity, ok := value.(*service.Identity)
	if !ok || identity == nil || identity.Effective == nil {
		RespondError(c, response.CodeUnauthorized, response.ErrInvalidCredential, "error.unauthorized", nil)
		return nil, false
	}
	return identity, true
}

// RequestContext 返回携带 request_id 的请求上下文
func RequestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if value, ok := c.Get(response.RequestIDKey); ok {
		if id, ok := value.(string); ok {
			ctx = service.WithRequestID(ctx, id)
		}
	}
	return ctx
}

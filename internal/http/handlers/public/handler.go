package public

import "github.com/techphorix/w-store-sub004/internal/provider"

// Handler 认证与个人信息接口处理器入口
// 说明：登录、续期、登出与 /me，任何角色均可访问。
type Handler struct {
	*provider.Container
}

// New 创建处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

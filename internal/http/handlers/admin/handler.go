package admin

import "github.com/techphorix/w-store-sub004/internal/provider"

// Handler 后台管理接口处理器入口
// 说明：该处理器仅用于管理端 API，调用方必须持有管理员标准 Token。
type Handler struct {
	*provider.Container
}

// New 创建后台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

package seller

import (
	handlershared "github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/provider"

	"github.com/gin-gonic/gin"
)

// Handler 卖家面板接口处理器入口
// 说明：生效身份为卖家本人或被管理员代登录的卖家。
type Handler struct {
	*provider.Container
}

// New 创建卖家处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}

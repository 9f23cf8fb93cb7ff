package admin

import (
	handlershared "github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/http/response"

	"github.com/gin-gonic/gin"
)

// getAdminID 当前管理员ID（管理端路由只接受标准 Token，生效身份即管理员本人）
func getAdminID(c *gin.Context) (uint, bool) {
	identity, ok := handlershared.CurrentIdentity(c)
	if !ok {
		return 0, false
	}
	return identity.EffectiveID(), true
}

func parseSellerID(c *gin.Context) (uint, bool) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return id, true
}

package public

import (
	handlershared "github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/service"

	"github.com/gin-gonic/gin"
)

func currentIdentity(c *gin.Context) (*service.Identity, bool) {
	return handlershared.CurrentIdentity(c)
}

func respondError(c *gin.Context, status int, code, key string, err error) {
	handlershared.RespondError(c, status, code, key, err)
}

func respondServiceError(c *gin.Context, err error) {
	handlershared.RespondServiceError(c, err)
}

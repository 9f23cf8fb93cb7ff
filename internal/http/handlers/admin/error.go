package admin

import (
	handlershared "github.com/techphorix/w-store-sub004/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, status int, code, key string, err error) {
	handlershared.RespondError(c, status, code, key, err)
}

func respondServiceError(c *gin.Context, err error, args ...interface{}) {
	handlershared.RespondServiceError(c, err, args...)
}

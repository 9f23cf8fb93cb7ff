package admin

import (
	"time"

	"github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/http/response"

	"github.com/gin-gonic/gin"
)

// Impersonate 管理员代登录目标账号
func (h *Handler) Impersonate(c *gin.Context) {
	identity, ok := shared.CurrentIdentity(c)
	if !ok {
		return
	}
	targetID, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.AuthService.Impersonate(shared.RequestContext(c), identity, targetID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, gin.H{
		"impersonation_token": result.Token,
		"expires_at":          result.ExpiresAt.UTC().Format(time.RFC3339),
		"user": gin.H{
			"id":           result.Target.ID,
			"email":        result.Target.Email,
			"display_name": result.Target.DisplayName,
			"role":         result.Target.Role,
			"status":       result.Target.Status,
		},
	})
}

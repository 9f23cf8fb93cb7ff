package admin

import (
	"strings"

	"github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/http/response"
	"github.com/techphorix/w-store-sub004/internal/repository"

	"github.com/gin-gonic/gin"
)

// UpdatePrincipalStatusRequest 更新账号状态请求
type UpdatePrincipalStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListPrincipals 账号列表
func (h *Handler) ListPrincipals(c *gin.Context) {
	page, pageSize := shared.QueryPagination(c)
	users, total, err := h.PrincipalService.List(shared.RequestContext(c), repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  strings.TrimSpace(c.Query("keyword")),
		Role:     strings.TrimSpace(c.Query("role")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.SuccessWithPage(c, users, response.BuildPagination(page, pageSize, total))
}

// GetPrincipal 账号详情
func (h *Handler) GetPrincipal(c *gin.Context) {
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}
	user, err := h.PrincipalService.Get(shared.RequestContext(c), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	response.Success(c, user)
}

// UpdatePrincipalStatus 更新账号状态，离开 active 时会失效该账号全部会话
func (h *Handler) UpdatePrincipalStatus(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, ok := shared.ParseUintParam(c, "id")
	if !ok {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}
	var req UpdatePrincipalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}

	user, err := h.PrincipalService.UpdateStatus(shared.RequestContext(c), adminID, id, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	requestLog(c).Infow("admin_principal_status_updated",
		"admin_id", adminID,
		"principal_id", id,
		"status", user.Status,
	)
	response.Success(c, user)
}

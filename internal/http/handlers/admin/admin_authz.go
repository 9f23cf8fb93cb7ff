package admin

import (
	"net/url"
	"strings"

	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/http/response"
	"github.com/techphorix/w-store-sub004/internal/service"

	"github.com/gin-gonic/gin"
)

type authzPolicyPayload struct {
	Role   string `json:"role" binding:"required"`
	Object string `json:"object" binding:"required"`
	Action string `json:"action" binding:"required"`
}

// GetAuthzRolePolicies 获取角色策略（含继承）
func (h *Handler) GetAuthzRolePolicies(c *gin.Context) {
	role := decodeRoleParam(c.Param("role"))
	if strings.TrimSpace(role) == "" {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}

	policies, err := h.AuthzService.GetRolePolicies(role)
	if err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", err)
		return
	}
	response.Success(c, policies)
}

// GrantAuthzPolicy 授予角色策略
func (h *Handler) GrantAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.AuthzService.GrantRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", err)
		return
	}
	adminID, _ := getAdminID(c)
	requestLog(c).Infow("admin_authz_policy_granted",
		"operator_admin_id", adminID,
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)
	h.recordAuthzChange(c, adminID, constants.AuditActionAuthzPolicyGrant, req)
	response.Success(c, nil)
}

// RevokeAuthzPolicy 撤销角色策略
func (h *Handler) RevokeAuthzPolicy(c *gin.Context) {
	var req authzPolicyPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}
	if err := h.AuthzService.RevokeRolePolicy(req.Role, req.Object, req.Action); err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", err)
		return
	}
	adminID, _ := getAdminID(c)
	requestLog(c).Infow("admin_authz_policy_revoked",
		"operator_admin_id", adminID,
		"role", req.Role,
		"object", req.Object,
		"action", req.Action,
	)
	h.recordAuthzChange(c, adminID, constants.AuditActionAuthzPolicyRevoke, req)
	response.Success(c, nil)
}

func decodeRoleParam(raw string) string {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(decoded)
}

func (h *Handler) recordAuthzChange(c *gin.Context, adminID uint, action string, req authzPolicyPayload) {
	err := h.AuditService.Record(shared.RequestContext(c), service.AuditEntry{
		ActorID: adminID,
		Action:  action,
		Detail: map[string]interface{}{
			"role":   req.Role,
			"object": req.Object,
			"action": req.Action,
		},
	})
	if err != nil {
		requestLog(c).Warnw("admin_authz_audit_failed", "action", action, "error", err)
	}
}

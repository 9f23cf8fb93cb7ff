package public

import (
	"net/http"
	"time"

	"github.com/techphorix/w-store-sub004/internal/http/handlers/shared"
	"github.com/techphorix/w-store-sub004/internal/http/response"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/service"

	"github.com/gin-gonic/gin"
)

// LoginRequest 登录请求
type LoginRequest struct {
	Email      string `json:"email" binding:"required"`
	Password   string `json:"password" binding:"required"`
	RememberMe bool   `json:"remember_me"`
}

// PrincipalView 账号对外展示字段
type PrincipalView struct {
	ID              uint       `json:"id"`
	Email           string     `json:"email"`
	DisplayName     string     `json:"display_name"`
	Role            string     `json:"role"`
	Status          string     `json:"status"`
	Locale          string     `json:"locale"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
}

// NewPrincipalView 构建账号展示结构
func NewPrincipalView(user *models.User) *PrincipalView {
	if user == nil {
		return nil
	}
	return &PrincipalView{
		ID:              user.ID,
		Email:           user.Email,
		DisplayName:     user.DisplayName,
		Role:            user.Role,
		Status:          user.Status,
		Locale:          user.Locale,
		EmailVerifiedAt: user.EmailVerifiedAt,
	}
}

// Login 邮箱密码登录
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, response.ErrBadRequest, "error.bad_request", nil)
		return
	}

	result, err := h.AuthService.Login(shared.RequestContext(c), service.LoginInput{
		Email:      req.Email,
		Password:   req.Password,
		RememberMe: req.RememberMe,
		ClientIP:   c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	if err != nil {
		shared.RequestLog(c).Infow("auth_login_rejected", "email", req.Email, "error", err)
		respondServiceError(c, err)
		return
	}

	h.setSessionCookie(c, result.Token, result.RememberMe)
	response.Success(c, gin.H{
		"token":       result.Token,
		"expires_at":  result.ExpiresAt.UTC().Format(time.RFC3339),
		"remember_me": result.RememberMe,
		"user":        NewPrincipalView(result.User),
	})
}

// Refresh 续期标准会话
func (h *Handler) Refresh(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	result, err := h.AuthService.Refresh(shared.RequestContext(c), identity, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	h.setSessionCookie(c, result.Token, result.RememberMe)
	response.Success(c, gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout 登出并失效当前会话记录
func (h *Handler) Logout(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	if err := h.AuthService.Logout(shared.RequestContext(c), identity); err != nil {
		respondServiceError(c, err)
		return
	}
	h.clearSessionCookie(c)
	response.Success(c, gin.H{"logged_out": true})
}

// GetCurrentUser 当前身份信息
func (h *Handler) GetCurrentUser(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}
	data := gin.H{
		"user":          NewPrincipalView(identity.Effective),
		"impersonating": identity.Impersonating,
	}
	if identity.Impersonating {
		data["authorizing_user"] = NewPrincipalView(identity.Authorizing)
	}
	if identity.Claims != nil && identity.Claims.ExpiresAt != nil {
		data["expires_at"] = identity.Claims.ExpiresAt.Time.UTC().Format(time.RFC3339)
	}
	response.Success(c, data)
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, rememberMe bool) {
	session := h.Config.Session
	days := session.CookieDays
	if rememberMe {
		days = session.RememberMeCookieDays
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, token, days*24*60*60, "/", "", session.CookieSecure, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	session := h.Config.Session
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", "", session.CookieSecure, true)
}

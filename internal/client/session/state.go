package session

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/techphorix/w-store-sub004/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

const (
	apiPrefix   = "/api/v1"
	adminPrefix = apiPrefix + "/admin"
	refreshPath = apiPrefix + "/auth/refresh"
	logoutPath  = apiPrefix + "/auth/logout"
)

// Principal 服务端返回的账号视图
type Principal struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

// State 客户端会话状态：一个标准 Token，外加可选的代登录 Token
type State struct {
	StandardToken     string     `json:"standard_token,omitempty"`
	StandardExpiresAt time.Time  `json:"standard_expires_at"`
	Principal         *Principal `json:"principal,omitempty"`

	ImpersonationToken     string     `json:"impersonation_token,omitempty"`
	ImpersonationExpiresAt time.Time  `json:"impersonation_expires_at"`
	Impersonated           *Principal `json:"impersonated,omitempty"`
}

// LoggedIn 是否持有标准 Token
func (s State) LoggedIn() bool {
	return s.StandardToken != ""
}

// Impersonating 是否处于代登录
func (s State) Impersonating() bool {
	return s.ImpersonationToken != ""
}

// IsAdmin 标准身份是否为管理员
func (s State) IsAdmin() bool {
	return s.Principal != nil && s.Principal.Role == constants.RoleAdmin
}

// Effective 当前生效身份
func (s State) Effective() *Principal {
	if s.Impersonating() && s.Impersonated != nil {
		return s.Impersonated
	}
	return s.Principal
}

// SelectToken 按请求路径选择 Token
// 管理端接口与会话接口（续期、登出）始终使用标准 Token，其余接口优先使用代登录 Token
func SelectToken(path string, state State) string {
	if usesStandardToken(path) {
		return state.StandardToken
	}
	if state.ImpersonationToken != "" {
		return state.ImpersonationToken
	}
	return state.StandardToken
}

func usesStandardToken(raw string) bool {
	path := raw
	if parsed, err := url.Parse(raw); err == nil {
		path = parsed.Path
	}
	path = "/" + strings.Trim(path, "/")
	if path == adminPrefix || strings.HasPrefix(path, adminPrefix+"/") {
		return true
	}
	return path == refreshPath || path == logoutPath
}

type tokenClaims struct {
	Role            string `json:"role"`
	IsImpersonation bool   `json:"is_impersonation"`
	jwt.RegisteredClaims
}

// parseUnverified 读取 Token 声明，不校验签名（签名由服务端负责）
func parseUnverified(token string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// TokenExpiry 读取 Token 的 exp
func TokenExpiry(token string) (time.Time, error) {
	claims, err := parseUnverified(token)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, errors.New("token has no exp claim")
	}
	return claims.ExpiresAt.Time, nil
}

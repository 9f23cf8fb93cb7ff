package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/techphorix/w-store-sub004/internal/client/session"
)

// AuthBackend 会话接口调用，Token 由会话管理器显式传入，不做续期与重试
type AuthBackend struct {
	client *Client
}

// NewAuthBackend 创建会话接口调用方
func NewAuthBackend(baseURL string, opts Options) *AuthBackend {
	return &AuthBackend{client: NewClient(baseURL, nil, opts)}
}

type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type tokenResponse struct {
	Token              string             `json:"token"`
	ImpersonationToken string             `json:"impersonation_token"`
	ExpiresAt          time.Time          `json:"expires_at"`
	User               *session.Principal `json:"user"`
}

func (r *tokenResponse) grant() *session.Grant {
	token := r.Token
	if token == "" {
		token = r.ImpersonationToken
	}
	return &session.Grant{Token: token, ExpiresAt: r.ExpiresAt, User: r.User}
}

// Login 登录
func (b *AuthBackend) Login(ctx context.Context, email, password string, rememberMe bool) (*session.Grant, error) {
	var resp tokenResponse
	err := b.client.send(ctx, http.MethodPost, "/api/v1/auth/login", "", mustEncode(loginRequest{
		Email:      email,
		Password:   password,
		RememberMe: rememberMe,
	}), &resp)
	if err != nil {
		return nil, err
	}
	return resp.grant(), nil
}

// Refresh 续期标准 Token
func (b *AuthBackend) Refresh(ctx context.Context, token string) (*session.Grant, error) {
	var resp tokenResponse
	if err := b.client.send(ctx, http.MethodPost, "/api/v1/auth/refresh", token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.grant(), nil
}

// Logout 失效服务端会话
func (b *AuthBackend) Logout(ctx context.Context, token string) error {
	return b.client.send(ctx, http.MethodPost, "/api/v1/auth/logout", token, nil, nil)
}

// Impersonate 申请代登录 Token
func (b *AuthBackend) Impersonate(ctx context.Context, token string, targetID uint) (*session.Grant, error) {
	var resp tokenResponse
	path := fmt.Sprintf("/api/v1/admin/impersonate/%d", targetID)
	if err := b.client.send(ctx, http.MethodPost, path, token, nil, &resp); err != nil {
		return nil, err
	}
	return resp.grant(), nil
}

func mustEncode(body interface{}) []byte {
	payload, err := encodeBody(body)
	if err != nil {
		return nil
	}
	return payload
}

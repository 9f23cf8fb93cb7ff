package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/techphorix/w-store-sub004/internal/config"
	"github.com/techphorix/w-store-sub004/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims 会话 Token 声明
// sub 为账号ID，jti 为会话ID；代登录 Token 额外携带 origin_admin_id
type SessionClaims struct {
	Role            string `json:"role"`
	IsImpersonation bool   `json:"is_impersonation"`
	OriginAdminID   uint   `json:"origin_admin_id,omitempty"`
	jwt.RegisteredClaims
}

// PrincipalID 解析 sub 为账号ID
func (c *SessionClaims) PrincipalID() uint {
	if c == nil {
		return 0
	}
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// IssuedToken 签发结果
type IssuedToken struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
	Claims    *SessionClaims
}

// TokenService 会话 Token 签发与校验（HS256）
type TokenService struct {
	secret           []byte
	standardTTL      time.Duration
	rememberMeTTL    time.Duration
	impersonationTTL time.Duration
	now              func() time.Time
}

// NewTokenService 创建 Token 服务
func NewTokenService(cfg *config.Config) *TokenService {
	s := &TokenService{
		standardTTL:      24 * time.Hour,
		rememberMeTTL:    30 * 24 * time.Hour,
		impersonationTTL: time.Hour,
		now:              time.Now,
	}
	if cfg == nil {
		return s
	}
	s.secret = []byte(cfg.JWT.SecretKey)
	if cfg.JWT.ExpireHours > 0 {
		s.standardTTL = time.Duration(cfg.JWT.ExpireHours) * time.Hour
	}
	if cfg.JWT.RememberMeExpireHours > 0 {
		s.rememberMeTTL = time.Duration(cfg.JWT.RememberMeExpireHours) * time.Hour
	}
	if cfg.Impersonation.ExpireMinutes > 0 {
		s.impersonationTTL = time.Duration(cfg.Impersonation.ExpireMinutes) * time.Minute
	}
	return s
}

// IssueStandard 签发标准登录 Token，调用方负责写入对应的会话记录
func (s *TokenService) IssueStandard(principal *models.User, rememberMe bool) (*IssuedToken, error) {
	if principal == nil || principal.ID == 0 {
		return nil, ErrInvalidCredential
	}
	ttl := s.standardTTL
	if rememberMe {
		ttl = s.rememberMeTTL
	}
	claims := s.baseClaims(principal, ttl)
	return s.sign(claims)
}

// IssueImpersonation 签发代登录 Token（不落库，仅作用于 target）
func (s *TokenService) IssueImpersonation(target, admin *models.User) (*IssuedToken, error) {
	if target == nil || target.ID == 0 || admin == nil || admin.ID == 0 {
		return nil, ErrImpersonationTargetInvalid
	}
	claims := s.baseClaims(target, s.impersonationTTL)
	claims.IsImpersonation = true
	claims.OriginAdminID = admin.ID
	return s.sign(claims)
}

// Verify 校验签名与有效期，不访问存储
func (s *TokenService) Verify(tokenString string) (*SessionClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidCredential
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	token, err := parser.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrCredentialExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredential
	}
	if claims.PrincipalID() == 0 || claims.ID == "" {
		return nil, ErrInvalidCredential
	}
	if claims.IsImpersonation && claims.OriginAdminID == 0 {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

func (s *TokenService) baseClaims(principal *models.User, ttl time.Duration) *SessionClaims {
	now := s.now()
	return &SessionClaims{
		Role: principal.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(principal.ID), 10),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
}

func (s *TokenService) sign(claims *SessionClaims) (*IssuedToken, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, err
	}
	return &IssuedToken{
		Token:     tokenString,
		SessionID: claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
		Claims:    claims,
	}, nil
}

// HashToken 计算 Token 的 SHA-256 十六进制摘要
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

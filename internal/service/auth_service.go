package service

import (
	"context"
	"strings"
	"time"

	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

// AuthService 登录、续期、登出与代登录
type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokens      *TokenService
	audit       *AuditService
	now         func() time.Time
}

// NewAuthService 创建认证服务实例
func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, tokens *TokenService, audit *AuditService) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		audit:       audit,
		now:         time.Now,
	}
}

// LoginInput 登录参数
type LoginInput struct {
	Email      string
	Password   string
	RememberMe bool
	ClientIP   string
	UserAgent  string
}

// SessionResult 标准会话签发结果
type SessionResult struct {
	Token      string
	ExpiresAt  time.Time
	SessionID  string
	RememberMe bool
	User       *models.User
}

// ImpersonationResult 代登录签发结果
type ImpersonationResult struct {
	Token     string
	ExpiresAt time.Time
	Target    *models.User
}

// HashPassword 使用 bcrypt 加密密码
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Login 邮箱密码登录，成功后写入会话记录
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*SessionResult, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, ErrInvalidLogin
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidLogin
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidLogin
	}
	if !user.IsActive() {
		return nil, ErrPrincipalInactive
	}

	result, err := s.openSession(ctx, user, input.RememberMe, input.ClientIP, input.UserAgent)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		logger.Warnw("auth_touch_last_login_failed", "principal_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = &now
	}
	logger.Infow("auth_login_succeeded", "principal_id", user.ID, "session_id", result.SessionID, "remember_me", input.RememberMe)
	return result, nil
}

// Refresh 续期标准会话：签发新 Token 并失效旧会话记录
func (s *AuthService) Refresh(ctx context.Context, identity *Identity, clientIP, userAgent string) (*SessionResult, error) {
	if identity == nil || identity.Effective == nil {
		return nil, ErrInvalidCredential
	}
	if identity.Impersonating {
		return nil, ErrInvalidCredential
	}

	rememberMe := false
	if record, err := s.sessionRepo.GetByID(ctx, identity.SessionID); err != nil {
		logger.Warnw("auth_refresh_session_lookup_failed", "session_id", identity.SessionID, "error", err)
	} else if record != nil {
		rememberMe = record.RememberMe
	}

	result, err := s.openSession(ctx, identity.Effective, rememberMe, clientIP, userAgent)
	if err != nil {
		return nil, err
	}
	if err := s.sessionRepo.Deactivate(ctx, identity.SessionID); err != nil {
		logger.Warnw("auth_refresh_deactivate_old_failed", "session_id", identity.SessionID, "error", err)
	}
	return result, nil
}

// Logout 失效当前标准会话；代登录 Token 无服务端状态
func (s *AuthService) Logout(ctx context.Context, identity *Identity) error {
	if identity == nil || identity.Impersonating || identity.SessionID == "" {
		return nil
	}
	return s.sessionRepo.Deactivate(ctx, identity.SessionID)
}

// Impersonate 管理员以目标账号身份签发短期 Token
func (s *AuthService) Impersonate(ctx context.Context, caller *Identity, targetID uint) (*ImpersonationResult, error) {
	if caller == nil || caller.Impersonating || caller.EffectiveRole() != constants.RoleAdmin {
		return nil, ErrInsufficientPermissions
	}
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrNotFound
	}
	if target.IsAdmin() {
		return nil, ErrNotImpersonable
	}
	if !target.IsActive() {
		return nil, ErrImpersonationTargetInvalid
	}

	issued, err := s.tokens.IssueImpersonation(target, caller.Effective)
	if err != nil {
		return nil, err
	}

	recordAudit(ctx, s.audit, AuditEntry{
		ActorID:   caller.EffectiveID(),
		SubjectID: target.ID,
		Action:    constants.AuditActionImpersonationStart,
		Detail: map[string]interface{}{
			"token_id":   issued.SessionID,
			"expires_at": issued.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
	logger.Infow("auth_impersonation_started", "admin_id", caller.EffectiveID(), "target_id", target.ID)

	return &ImpersonationResult{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
		Target:    target,
	}, nil
}

func (s *AuthService) openSession(ctx context.Context, user *models.User, rememberMe bool, clientIP, userAgent string) (*SessionResult, error) {
	issued, err := s.tokens.IssueStandard(user, rememberMe)
	if err != nil {
		return nil, err
	}
	now := s.now()
	record := &models.SessionRecord{
		ID:           issued.SessionID,
		PrincipalID:  user.ID,
		TokenHash:    HashToken(issued.Token),
		ExpiresAt:    issued.ExpiresAt,
		IsActive:     true,
		LastActivity: now,
		ClientIP:     strings.TrimSpace(clientIP),
		UserAgent:    strings.TrimSpace(userAgent),
		RememberMe:   rememberMe,
		CreatedAt:    now,
	}
	if err := s.sessionRepo.Create(ctx, record); err != nil {
		return nil, err
	}
	return &SessionResult{
		Token:      issued.Token,
		ExpiresAt:  issued.ExpiresAt,
		SessionID:  issued.SessionID,
		RememberMe: rememberMe,
		User:       user,
	}, nil
}

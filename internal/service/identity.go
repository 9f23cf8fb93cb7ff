package service

import (
	"context"
	"time"

	"github.com/techphorix/w-store-sub004/internal/cache"
	"github.com/techphorix/w-store-sub004/internal/config"
	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/repository"
)

// Identity 一次请求的身份解析结果
// Effective 为业务读写使用的账号；Authorizing 为实际操作人（代登录时为发起的管理员）
type Identity struct {
	Effective     *models.User
	Authorizing   *models.User
	Impersonating bool
	SessionID     string
	Claims        *SessionClaims
}

// EffectiveID 生效账号ID
func (i *Identity) EffectiveID() uint {
	if i == nil || i.Effective == nil {
		return 0
	}
	return i.Effective.ID
}

// EffectiveRole 生效账号角色
func (i *Identity) EffectiveRole() string {
	if i == nil || i.Effective == nil {
		return ""
	}
	return i.Effective.Role
}

// AuthorizingID 实际操作人ID
func (i *Identity) AuthorizingID() uint {
	if i == nil || i.Authorizing == nil {
		return 0
	}
	return i.Authorizing.ID
}

// IdentityResolver 将已验签的声明解析为账号身份
type IdentityResolver struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	degraded    bool
	now         func() time.Time
}

// NewIdentityResolver 创建身份解析器
func NewIdentityResolver(cfg *config.Config, userRepo repository.UserRepository, sessionRepo repository.SessionRepository) *IdentityResolver {
	degraded := true
	if cfg != nil {
		degraded = cfg.Session.Degraded()
	}
	return &IdentityResolver{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		degraded:    degraded,
		now:         time.Now,
	}
}

// Resolve 解析身份
func (r *IdentityResolver) Resolve(ctx context.Context, claims *SessionClaims, rawToken string) (*Identity, error) {
	if claims == nil {
		return nil, ErrInvalidCredential
	}
	if claims.IsImpersonation {
		return r.resolveImpersonation(ctx, claims)
	}
	return r.resolveStandard(ctx, claims, rawToken)
}

func (r *IdentityResolver) resolveImpersonation(ctx context.Context, claims *SessionClaims) (*Identity, error) {
	target, err := r.loadPrincipal(ctx, claims.PrincipalID())
	if err != nil {
		logger.Warnw("identity_impersonation_target_lookup_failed",
			"principal_id", claims.PrincipalID(),
			"error", err,
		)
		return nil, ErrImpersonationTargetInvalid
	}
	if target == nil || !target.IsActive() {
		return nil, ErrImpersonationTargetInvalid
	}

	// 发起人仅用于审计与展示，查询失败不影响本次请求
	origin, err := r.loadPrincipal(ctx, claims.OriginAdminID)
	if err != nil || origin == nil {
		logger.Warnw("identity_origin_admin_lookup_failed",
			"origin_admin_id", claims.OriginAdminID,
			"error", err,
		)
		origin = &models.User{ID: claims.OriginAdminID, Role: constants.RoleAdmin}
	}

	return &Identity{
		Effective:     target,
		Authorizing:   origin,
		Impersonating: true,
		SessionID:     claims.ID,
		Claims:        claims,
	}, nil
}

func (r *IdentityResolver) resolveStandard(ctx context.Context, claims *SessionClaims, rawToken string) (*Identity, error) {
	principalID := claims.PrincipalID()
	principal, err := r.loadPrincipal(ctx, principalID)
	if err != nil {
		logger.Warnw("identity_principal_lookup_failed", "principal_id", principalID, "error", err)
		return nil, ErrInvalidCredential
	}
	if principal == nil {
		return nil, ErrInvalidCredential
	}
	if !principal.IsActive() {
		return nil, ErrPrincipalInactive
	}

	if err := r.checkSession(ctx, claims, principalID, rawToken); err != nil {
		return nil, err
	}

	return &Identity{
		Effective:   principal,
		Authorizing: principal,
		SessionID:   claims.ID,
		Claims:      claims,
	}, nil
}

func (r *IdentityResolver) checkSession(ctx context.Context, claims *SessionClaims, principalID uint, rawToken string) error {
	record, err := r.sessionRepo.GetByID(ctx, claims.ID)
	if err != nil {
		if repository.IsTableMissing(err) {
			logger.Errorw("identity_session_table_missing", "session_id", claims.ID, "error", err)
			return ErrSessionInvalid
		}
		if !r.degraded {
			logger.Warnw("identity_session_check_failed", "session_id", claims.ID, "error", err)
			return ErrSessionInvalid
		}
		logger.Warnw("identity_session_check_degraded",
			"session_id", claims.ID,
			"principal_id", principalID,
			"error", err,
		)
		return nil
	}

	now := r.now()
	if record == nil ||
		record.PrincipalID != principalID ||
		record.TokenHash != HashToken(rawToken) ||
		!record.Usable(now) {
		return ErrSessionInvalid
	}

	if err := r.sessionRepo.Touch(ctx, record.ID, now); err != nil {
		logger.Debugw("identity_session_touch_failed", "session_id", record.ID, "error", err)
	}
	return nil
}

// loadPrincipal 优先读取鉴权缓存，未命中时回源数据库并回写
func (r *IdentityResolver) loadPrincipal(ctx context.Context, id uint) (*models.User, error) {
	if id == 0 {
		return nil, nil
	}
	if state, hit, err := cache.GetPrincipalAuthState(ctx, id); err == nil && hit {
		return state.ToUser(), nil
	} else if err != nil {
		logger.Debugw("identity_auth_state_cache_read_failed", "principal_id", id, "error", err)
	}

	user, err := r.userRepo.GetByID(ctx, id)
	if err != nil || user == nil {
		return user, err
	}
	if err := cache.SetPrincipalAuthState(ctx, cache.BuildPrincipalAuthState(user)); err != nil {
		logger.Debugw("identity_auth_state_cache_write_failed", "principal_id", id, "error", err)
	}
	return user, nil
}

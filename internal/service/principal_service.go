package service

import (
	"context"
	"strings"

	"github.com/techphorix/w-store-sub004/internal/cache"
	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/repository"

	"gorm.io/gorm"
)

// PrincipalService 账号状态管理
type PrincipalService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	audit       *AuditService
}

// NewPrincipalService 创建账号服务
func NewPrincipalService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, audit *AuditService) *PrincipalService {
	return &PrincipalService{userRepo: userRepo, sessionRepo: sessionRepo, audit: audit}
}

// UpdateStatus 变更账号状态；离开 active 时同一事务内失效全部会话，并清理鉴权缓存
func (s *PrincipalService) UpdateStatus(ctx context.Context, actorID, principalID uint, status string) (*models.User, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case constants.UserStatusActive, constants.UserStatusInactive, constants.UserStatusSuspended, constants.UserStatusPending:
	default:
		return nil, ErrInvalidStatus
	}

	user, err := s.userRepo.GetByID(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	previous := user.Status

	var revoked int64
	err = s.userRepo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).UpdateStatus(ctx, principalID, status); err != nil {
			return err
		}
		if status == constants.UserStatusActive {
			return nil
		}
		n, err := s.sessionRepo.WithTx(tx).DeactivateByPrincipal(ctx, principalID)
		revoked = n
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := cache.DelPrincipalAuthState(ctx, principalID); err != nil {
		logger.Warnw("principal_auth_state_invalidate_failed", "principal_id", principalID, "error", err)
	}

	recordAudit(ctx, s.audit, AuditEntry{
		ActorID:   actorID,
		SubjectID: principalID,
		Action:    constants.AuditActionPrincipalStatusUpdate,
		Detail: map[string]interface{}{
			"from":             previous,
			"to":               status,
			"revoked_sessions": revoked,
		},
	})
	user.Status = status
	return user, nil
}

// Get 查询账号
func (s *PrincipalService) Get(ctx context.Context, principalID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, principalID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

// List 账号列表
func (s *PrincipalService) List(ctx context.Context, filter repository.UserListFilter) ([]models.User, int64, error) {
	return s.userRepo.List(ctx, filter)
}

package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/techphorix/w-store-sub004/internal/models"

	"gorm.io/gorm"
)

// SessionRepository 会话记录数据访问接口
type SessionRepository interface {
	WithTx(tx *gorm.DB) SessionRepository

	Create(ctx context.Context, record *models.SessionRecord) error
	GetByID(ctx context.Context, id string) (*models.SessionRecord, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Deactivate(ctx context.Context, id string) error
	DeactivateByPrincipal(ctx context.Context, principalID uint) (int64, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// GormSessionRepository GORM 实现
type GormSessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository 创建会话记录仓库
func NewSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormSessionRepository) WithTx(tx *gorm.DB) SessionRepository {
	if tx == nil {
		return r
	}
	return &GormSessionRepository{db: tx}
}

// Create 写入会话记录
func (r *GormSessionRepository) Create(ctx context.Context, record *models.SessionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

// GetByID 按会话ID读取，不存在返回 nil
func (r *GormSessionRepository) GetByID(ctx context.Context, id string) (*models.SessionRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	var record models.SessionRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Touch 刷新最近活跃时间
func (r *GormSessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.SessionRecord{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("last_activity", at).Error
}

// Deactivate 失效单个会话
func (r *GormSessionRepository) Deactivate(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&models.SessionRecord{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}

// DeactivateByPrincipal 失效账号下全部会话
func (r *GormSessionRepository) DeactivateByPrincipal(ctx context.Context, principalID uint) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.SessionRecord{}).
		Where("principal_id = ? AND is_active = ?", principalID, true).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

// DeactivateExpired 失效已过期但仍标记有效的会话
func (r *GormSessionRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.SessionRecord{}).
		Where("is_active = ? AND expires_at <= ?", true, now).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

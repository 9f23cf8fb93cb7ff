package repository

import (
	"context"
	"errors"

	"github.com/techphorix/w-store-sub004/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OverrideRepository 指标覆盖数据访问接口
type OverrideRepository interface {
	WithTx(tx *gorm.DB) OverrideRepository

	ListBySeller(ctx context.Context, sellerID uint) ([]models.MetricOverride, error)
	Get(ctx context.Context, sellerID uint, metricName string) (*models.MetricOverride, error)
	Upsert(ctx context.Context, entry *models.MetricOverride) error
	Delete(ctx context.Context, sellerID uint, metricName string) (int64, error)
}

// GormOverrideRepository GORM 实现
type GormOverrideRepository struct {
	db *gorm.DB
}

// NewOverrideRepository 创建指标覆盖仓库
func NewOverrideRepository(db *gorm.DB) *GormOverrideRepository {
	return &GormOverrideRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOverrideRepository) WithTx(tx *gorm.DB) OverrideRepository {
	if tx == nil {
		return r
	}
	return &GormOverrideRepository{db: tx}
}

// ListBySeller 查询卖家全部覆盖值
func (r *GormOverrideRepository) ListBySeller(ctx context.Context, sellerID uint) ([]models.MetricOverride, error) {
	var entries []models.MetricOverride
	if err := r.db.WithContext(ctx).
		Where("seller_id = ?", sellerID).
		Order("metric_name ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Get 查询单个覆盖值，不存在返回 nil
func (r *GormOverrideRepository) Get(ctx context.Context, sellerID uint, metricName string) (*models.MetricOverride, error) {
	var entry models.MetricOverride
	if err := r.db.WithContext(ctx).
		Where("seller_id = ? AND metric_name = ?", sellerID, metricName).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

// Upsert 按 (seller_id, metric_name) 写入，冲突时只更新覆盖值、修改人与修改时间
func (r *GormOverrideRepository) Upsert(ctx context.Context, entry *models.MetricOverride) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "seller_id"}, {Name: "metric_name"}},
		DoUpdates: clause.AssignmentColumns([]string{"override_value", "updated_by", "updated_at"}),
	}).Create(entry).Error
}

// Delete 删除覆盖值，返回删除行数
func (r *GormOverrideRepository) Delete(ctx context.Context, sellerID uint, metricName string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("seller_id = ? AND metric_name = ?", sellerID, metricName).
		Delete(&models.MetricOverride{})
	return result.RowsAffected, result.Error
}

package repository

import (
	"context"
	"errors"

	"github.com/techphorix/w-store-sub004/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SellerStatsRepository 卖家真实指标读取接口
// 说明：统计数据由外部任务写入，这里只读取与测试数据写入。
type SellerStatsRepository interface {
	GetBySeller(ctx context.Context, sellerID uint) (*models.SellerStats, error)
	Save(ctx context.Context, stats *models.SellerStats) error
}

// GormSellerStatsRepository GORM 实现
type GormSellerStatsRepository struct {
	db *gorm.DB
}

// NewSellerStatsRepository 创建卖家指标仓库
func NewSellerStatsRepository(db *gorm.DB) *GormSellerStatsRepository {
	return &GormSellerStatsRepository{db: db}
}

// GetBySeller 读取卖家统计行，不存在返回 nil
func (r *GormSellerStatsRepository) GetBySeller(ctx context.Context, sellerID uint) (*models.SellerStats, error) {
	var stats models.SellerStats
	if err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).First(&stats).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &stats, nil
}

// Save 按 seller_id 写入或整体覆盖统计行
func (r *GormSellerStatsRepository) Save(ctx context.Context, stats *models.SellerStats) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "seller_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"orders_sold",
			"total_sales",
			"profit_forecast",
			"visitors",
			"shop_followers",
			"shop_rating",
			"credit_score",
			"computed_at",
			"updated_at",
		}),
	}).Create(stats).Error
}

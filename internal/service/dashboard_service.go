package service

import (
	"context"

	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/repository"

	"golang.org/x/sync/errgroup"
)

// DashboardService 卖家指标看板
type DashboardService struct {
	statsRepo    repository.SellerStatsRepository
	overrideRepo repository.OverrideRepository
	userRepo     repository.UserRepository
}

// NewDashboardService 创建看板服务
func NewDashboardService(statsRepo repository.SellerStatsRepository, overrideRepo repository.OverrideRepository, userRepo repository.UserRepository) *DashboardService {
	return &DashboardService{
		statsRepo:    statsRepo,
		overrideRepo: overrideRepo,
		userRepo:     userRepo,
	}
}

// GetSellerMetrics 并发读取真实值与覆盖值，两者都返回后合并一次
func (s *DashboardService) GetSellerMetrics(ctx context.Context, sellerID uint) (*MetricSnapshot, error) {
	if err := ensureSellerPrincipal(ctx, s.userRepo, sellerID); err != nil {
		return nil, err
	}

	var (
		stats   *models.SellerStats
		entries []models.MetricOverride
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.statsRepo.GetBySeller(gctx, sellerID)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = s.overrideRepo.ListBySeller(gctx, sellerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := ApplyOverrides(BaseSnapshot(sellerID, stats), entries)
	return &snapshot, nil
}

package service

import (
	"context"
	"strings"
	"time"

	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/repository"

	"github.com/shopspring/decimal"
)

// OverrideService 管理员指标覆盖
type OverrideService struct {
	overrideRepo repository.OverrideRepository
	userRepo     repository.UserRepository
	statsRepo    repository.SellerStatsRepository
	audit        *AuditService
	now          func() time.Time
}

// NewOverrideService 创建指标覆盖服务
func NewOverrideService(
	overrideRepo repository.OverrideRepository,
	userRepo repository.UserRepository,
	statsRepo repository.SellerStatsRepository,
	audit *AuditService,
) *OverrideService {
	return &OverrideService{
		overrideRepo: overrideRepo,
		userRepo:     userRepo,
		statsRepo:    statsRepo,
		audit:        audit,
		now:          time.Now,
	}
}

// Put 写入覆盖值（按卖家+指标 upsert）
func (s *OverrideService) Put(ctx context.Context, sellerID uint, metric string, value decimal.Decimal, adminID uint) (*models.MetricOverride, error) {
	metric, err := normalizeMetric(metric)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSeller(ctx, sellerID); err != nil {
		return nil, err
	}
	clamped := constants.ClampMetricValue(metric, value)
	if !clamped.Equal(value) {
		logger.Infow("override_value_clamped", "seller_id", sellerID, "metric_name", metric, "input", value.String(), "stored", clamped.String())
	}
	return s.upsert(ctx, sellerID, metric, clamped, adminID, constants.AuditActionOverridePut)
}

// List 查询卖家全部覆盖值
func (s *OverrideService) List(ctx context.Context, sellerID uint) ([]models.MetricOverride, error) {
	if err := s.ensureSeller(ctx, sellerID); err != nil {
		return nil, err
	}
	return s.overrideRepo.ListBySeller(ctx, sellerID)
}

// Delete 删除覆盖值，读者恢复看到真实值；不存在时视为成功
func (s *OverrideService) Delete(ctx context.Context, sellerID uint, metric string, adminID uint) error {
	metric, err := normalizeMetric(metric)
	if err != nil {
		return err
	}
	if err := s.ensureSeller(ctx, sellerID); err != nil {
		return err
	}
	affected, err := s.overrideRepo.Delete(ctx, sellerID, metric)
	if err != nil {
		return err
	}
	if affected == 0 {
		return nil
	}
	recordAudit(ctx, s.audit, AuditEntry{
		ActorID:    adminID,
		SubjectID:  sellerID,
		Action:     constants.AuditActionOverrideDelete,
		MetricName: metric,
	})
	return nil
}

// Clear 将指标覆盖为中性值（信用分 300，其余 0），读者看到的是中性值而不是真实值
func (s *OverrideService) Clear(ctx context.Context, sellerID uint, metric string, adminID uint) (*models.MetricOverride, error) {
	metric, err := normalizeMetric(metric)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSeller(ctx, sellerID); err != nil {
		return nil, err
	}
	return s.upsert(ctx, sellerID, metric, constants.NeutralMetricValue(metric), adminID, constants.AuditActionOverrideClear)
}

func (s *OverrideService) upsert(ctx context.Context, sellerID uint, metric string, value decimal.Decimal, adminID uint, action string) (*models.MetricOverride, error) {
	previous, err := s.overrideRepo.Get(ctx, sellerID, metric)
	if err != nil {
		return nil, err
	}
	original, err := s.baseValue(ctx, sellerID, metric)
	if err != nil {
		return nil, err
	}

	now := s.now()
	entry := &models.MetricOverride{
		SellerID:      sellerID,
		MetricName:    metric,
		OverrideValue: models.NewMetricValue(value),
		OriginalValue: original,
		UpdatedBy:     adminID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.overrideRepo.Upsert(ctx, entry); err != nil {
		return nil, err
	}
	stored, err := s.overrideRepo.Get(ctx, sellerID, metric)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = entry
	}

	detail := map[string]interface{}{"value": stored.OverrideValue.String()}
	if previous != nil {
		detail["previous_value"] = previous.OverrideValue.String()
	}
	recordAudit(ctx, s.audit, AuditEntry{
		ActorID:    adminID,
		SubjectID:  sellerID,
		Action:     action,
		MetricName: metric,
		Detail:     detail,
	})
	return stored, nil
}

func (s *OverrideService) baseValue(ctx context.Context, sellerID uint, metric string) (models.MetricValue, error) {
	stats, err := s.statsRepo.GetBySeller(ctx, sellerID)
	if err != nil {
		return models.MetricValue{}, err
	}
	value, _ := BaseSnapshot(sellerID, stats).Value(metric)
	return value, nil
}

func (s *OverrideService) ensureSeller(ctx context.Context, sellerID uint) error {
	return ensureSellerPrincipal(ctx, s.userRepo, sellerID)
}

func ensureSellerPrincipal(ctx context.Context, userRepo repository.UserRepository, sellerID uint) error {
	seller, err := userRepo.GetByID(ctx, sellerID)
	if err != nil {
		return err
	}
	if seller == nil || !seller.IsSeller() {
		return ErrSellerNotFound
	}
	return nil
}

func normalizeMetric(metric string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(metric))
	if !constants.IsMetricName(normalized) {
		return "", ErrUnknownMetric
	}
	return normalized, nil
}

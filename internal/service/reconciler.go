package service

import (
	"context"
	"time"

	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/repository"
)

// MetricSnapshot 卖家指标快照（真实值叠加覆盖值后的结果，只在单次读取中存在）
type MetricSnapshot struct {
	SellerID       uint               `json:"seller_id"`
	OrdersSold     models.MetricValue `json:"orders_sold"`
	TotalSales     models.MetricValue `json:"total_sales"`
	ProfitForecast models.MetricValue `json:"profit_forecast"`
	Visitors       models.MetricValue `json:"visitors"`
	ShopFollowers  models.MetricValue `json:"shop_followers"`
	ShopRating     models.MetricValue `json:"shop_rating"`
	CreditScore    models.MetricValue `json:"credit_score"`
	ComputedAt     *time.Time         `json:"computed_at"`
	Overridden     []string           `json:"overridden"`
}

// metricFields 指标名称到快照字段的固定映射
var metricFields = map[string]func(*MetricSnapshot) *models.MetricValue{
	constants.MetricOrdersSold:     func(s *MetricSnapshot) *models.MetricValue { return &s.OrdersSold },
	constants.MetricTotalSales:     func(s *MetricSnapshot) *models.MetricValue { return &s.TotalSales },
	constants.MetricProfitForecast: func(s *MetricSnapshot) *models.MetricValue { return &s.ProfitForecast },
	constants.MetricVisitors:       func(s *MetricSnapshot) *models.MetricValue { return &s.Visitors },
	constants.MetricShopFollowers:  func(s *MetricSnapshot) *models.MetricValue { return &s.ShopFollowers },
	constants.MetricShopRating:     func(s *MetricSnapshot) *models.MetricValue { return &s.ShopRating },
	constants.MetricCreditScore:    func(s *MetricSnapshot) *models.MetricValue { return &s.CreditScore },
}

// Value 按指标名称读取快照值
func (s MetricSnapshot) Value(metric string) (models.MetricValue, bool) {
	field, ok := metricFields[metric]
	if !ok {
		return models.MetricValue{}, false
	}
	return *field(&s), true
}

// IsOverridden 指标是否被覆盖
func (s MetricSnapshot) IsOverridden(metric string) bool {
	for _, name := range s.Overridden {
		if name == metric {
			return true
		}
	}
	return false
}

// BaseSnapshot 由统计行构建真实值快照，缺失统计行时全部为零
func BaseSnapshot(sellerID uint, stats *models.SellerStats) MetricSnapshot {
	snapshot := MetricSnapshot{SellerID: sellerID, Overridden: []string{}}
	if stats == nil {
		return snapshot
	}
	snapshot.OrdersSold = stats.OrdersSold
	snapshot.TotalSales = stats.TotalSales
	snapshot.ProfitForecast = stats.ProfitForecast
	snapshot.Visitors = stats.Visitors
	snapshot.ShopFollowers = stats.ShopFollowers
	snapshot.ShopRating = stats.ShopRating
	snapshot.CreditScore = stats.CreditScore
	snapshot.ComputedAt = stats.ComputedAt
	return snapshot
}

// ApplyOverrides 将覆盖值按名称替换到快照中，未知名称跳过并记录日志
// 纯函数：不修改入参，Overridden 按固定指标顺序输出
func ApplyOverrides(base MetricSnapshot, entries []models.MetricOverride) MetricSnapshot {
	result := base
	result.Overridden = []string{}

	applied := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		field, ok := metricFields[entry.MetricName]
		if !ok {
			logger.Warnw("reconcile_unknown_metric_skipped",
				"seller_id", base.SellerID,
				"metric_name", entry.MetricName,
			)
			continue
		}
		*field(&result) = entry.OverrideValue
		applied[entry.MetricName] = struct{}{}
	}
	for _, name := range constants.MetricNames() {
		if _, ok := applied[name]; ok {
			result.Overridden = append(result.Overridden, name)
		}
	}
	return result
}

// MetricReconciler 读取最新覆盖值并合并到真实值快照
type MetricReconciler struct {
	overrideRepo repository.OverrideRepository
}

// NewMetricReconciler 创建指标合并器
func NewMetricReconciler(overrideRepo repository.OverrideRepository) *MetricReconciler {
	return &MetricReconciler{overrideRepo: overrideRepo}
}

// Reconcile 读取卖家覆盖值（不缓存）并合并
func (r *MetricReconciler) Reconcile(ctx context.Context, sellerID uint, base MetricSnapshot) (MetricSnapshot, error) {
	entries, err := r.overrideRepo.ListBySeller(ctx, sellerID)
	if err != nil {
		return MetricSnapshot{}, err
	}
	return ApplyOverrides(base, entries), nil
}

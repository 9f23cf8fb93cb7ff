package constants

import "github.com/shopspring/decimal"

var (
	shopRatingMax  = decimal.NewFromInt(5)
	creditScoreMin = decimal.NewFromInt(300)
	creditScoreMax = decimal.NewFromInt(850)
)

// ClampMetricValue 按指标约束修正取值
// 计数类取整且不小于 0；销售额不小于 0；利润预测不限；评分 [0,5]；信用分取整且在 [300,850]
func ClampMetricValue(metric string, value decimal.Decimal) decimal.Decimal {
	switch metric {
	case MetricOrdersSold, MetricVisitors, MetricShopFollowers:
		return decimal.Max(value.Truncate(0), decimal.Zero)
	case MetricTotalSales:
		return decimal.Max(value, decimal.Zero).Round(2)
	case MetricShopRating:
		return decimal.Min(decimal.Max(value, decimal.Zero), shopRatingMax).Round(2)
	case MetricCreditScore:
		return decimal.Min(decimal.Max(value.Truncate(0), creditScoreMin), creditScoreMax)
	default:
		return value.Round(2)
	}
}

// NeutralMetricValue 清零操作写入的中性值
func NeutralMetricValue(metric string) decimal.Decimal {
	if metric == MetricCreditScore {
		return creditScoreMin
	}
	return decimal.Zero
}

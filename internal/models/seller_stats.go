package models

import "time"

// SellerStats 卖家真实指标，由外部统计任务写入
type SellerStats struct {
	ID             uint        `gorm:"primarykey" json:"id"`
	SellerID       uint        `gorm:"uniqueIndex;not null" json:"seller_id"`
	OrdersSold     MetricValue `gorm:"type:decimal(20,2);not null;default:0" json:"orders_sold"`
	TotalSales     MetricValue `gorm:"type:decimal(20,2);not null;default:0" json:"total_sales"`
	ProfitForecast MetricValue `gorm:"type:decimal(20,2);not null;default:0" json:"profit_forecast"`
	Visitors       MetricValue `gorm:"type:decimal(20,2);not null;default:0" json:"visitors"`
	ShopFollowers  MetricValue `gorm:"type:decimal(20,2);not null;default:0" json:"shop_followers"`
	ShopRating     MetricValue `gorm:"type:decimal(20,2);not null;default:0" json:"shop_rating"`
	CreditScore    MetricValue `gorm:"type:decimal(20,2);not null;default:0" json:"credit_score"`
	ComputedAt     *time.Time  `json:"computed_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TableName 指定表名
func (SellerStats) TableName() string {
	return "seller_stats"
}

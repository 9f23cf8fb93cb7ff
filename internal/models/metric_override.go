package models

import "time"

// MetricOverride 卖家指标覆盖值，(seller_id, metric_name) 唯一
type MetricOverride struct {
	ID            uint        `gorm:"primarykey" json:"id"`
	SellerID      uint        `gorm:"not null;uniqueIndex:idx_seller_metric" json:"seller_id"`
	MetricName    string      `gorm:"type:varchar(40);not null;uniqueIndex:idx_seller_metric" json:"metric_name"`
	OverrideValue MetricValue `gorm:"type:decimal(20,2);not null;default:0" json:"override_value"`
	// OriginalValue 首次覆盖时的真实值，之后的 upsert 不再改写
	OriginalValue MetricValue `gorm:"type:decimal(20,2);not null;default:0" json:"original_value"`
	UpdatedBy     uint        `gorm:"index;not null" json:"updated_by"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `gorm:"index" json:"updated_at"`
}

// TableName 指定表名
func (MetricOverride) TableName() string {
	return "seller_metric_overrides"
}

package models

import "time"

// Order 订单表（仅卖家订单列表与归属校验使用的字段）
type Order struct {
	ID          uint        `gorm:"primarykey" json:"id"`                                      // 主键
	OrderNo     string      `gorm:"uniqueIndex;not null" json:"order_no"`                      // 订单编号
	SellerID    uint        `gorm:"index;not null" json:"seller_id"`                           // 卖家ID
	UserID      uint        `gorm:"index;not null" json:"user_id"`                             // 买家ID
	TotalAmount MetricValue `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"` // 实付金额
	Status      string      `gorm:"type:varchar(32);index;not null" json:"status"`             // 订单状态
	PaidAt      *time.Time  `gorm:"index" json:"paid_at"`                                      // 支付时间
	CreatedAt   time.Time   `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt   time.Time   `json:"updated_at"`                                                // 更新时间
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}

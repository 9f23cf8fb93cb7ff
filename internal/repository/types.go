package repository

import "time"

// UserListFilter 查询账号列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Keyword  string
	Role     string
	Status   string
}

// OrderListFilter 查询卖家订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	SellerID    uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AuditLogListFilter 查询审计日志列表的过滤条件
type AuditLogListFilter struct {
	Page        int
	PageSize    int
	ActorID     uint
	SubjectID   uint
	Action      string
	MetricName  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

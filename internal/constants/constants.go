package constants

// 账号角色常量
const (
	RoleUser   = "user"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// 账号状态常量
const (
	UserStatusActive    = "active"
	UserStatusInactive  = "inactive"
	UserStatusSuspended = "suspended"
	UserStatusPending   = "pending"
)

// 会话查询失败策略
const (
	SessionLookupPolicyStrict   = "strict"
	SessionLookupPolicyDegraded = "degraded"
)

// 卖家指标名称（覆盖值仅允许以下枚举）
const (
	MetricOrdersSold     = "orders_sold"
	MetricTotalSales     = "total_sales"
	MetricProfitForecast = "profit_forecast"
	MetricVisitors       = "visitors"
	MetricShopFollowers  = "shop_followers"
	MetricShopRating     = "shop_rating"
	MetricCreditScore    = "credit_score"
)

// MetricNames 返回全部受支持的指标名称，顺序固定
func MetricNames() []string {
	return []string{
		MetricOrdersSold,
		MetricTotalSales,
		MetricProfitForecast,
		MetricVisitors,
		MetricShopFollowers,
		MetricShopRating,
		MetricCreditScore,
	}
}

// IsMetricName 判断是否为受支持的指标名称
func IsMetricName(name string) bool {
	for _, item := range MetricNames() {
		if item == name {
			return true
		}
	}
	return false
}

// 审计动作常量
const (
	AuditActionImpersonationStart    = "impersonation_start"
	AuditActionOverridePut           = "override_put"
	AuditActionOverrideDelete        = "override_delete"
	AuditActionOverrideClear         = "override_clear"
	AuditActionPrincipalStatusUpdate = "principal_status_update"
	AuditActionAuthzPolicyGrant      = "authz_policy_grant"
	AuditActionAuthzPolicyRevoke     = "authz_policy_revoke"
)

// 订单状态常量（仅用于卖家订单列表展示）
const (
	OrderStatusPendingPayment = "pending_payment"
	OrderStatusPaid           = "paid"
	OrderStatusCompleted      = "completed"
	OrderStatusCanceled       = "canceled"
)

// 异步任务常量
const (
	TaskAuditRecord = "audit:record"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)

// 会话 Cookie 默认名称
const SessionCookieName = "ws_session"

package models

import "time"

// AuditLog 管理操作审计日志
// 说明：记录代登录、指标覆盖与账号状态变更，支持按操作人、对象与动作检索。
type AuditLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ActorID    uint      `gorm:"index;not null" json:"actor_id"`
	SubjectID  uint      `gorm:"index;not null;default:0" json:"subject_id"`
	Action     string    `gorm:"type:varchar(64);index;not null" json:"action"`
	MetricName string    `gorm:"type:varchar(40);not null;default:''" json:"metric_name,omitempty"`
	RequestID  string    `gorm:"type:varchar(64);index;not null;default:''" json:"request_id"`
	Detail     JSON      `gorm:"type:json" json:"detail"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

// TableName 指定表名
func (AuditLog) TableName() string {
	return "audit_logs"
}

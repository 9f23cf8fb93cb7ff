package models

import "time"

// SessionRecord 标准登录会话记录（代登录 Token 不落库）
type SessionRecord struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`        // 会话ID，与 Token jti 一致
	PrincipalID  uint      `gorm:"index;not null" json:"principal_id"`           // 账号ID
	TokenHash    string    `gorm:"type:varchar(64);index;not null" json:"-"`     // Token SHA-256
	ExpiresAt    time.Time `gorm:"index;not null" json:"expires_at"`             // 过期时间
	IsActive     bool      `gorm:"index;not null;default:true" json:"is_active"` // 是否有效
	LastActivity time.Time `json:"last_activity"`                                // 最近活跃时间
	ClientIP     string    `gorm:"type:varchar(64)" json:"client_ip"`            // 客户端IP
	UserAgent    string    `gorm:"type:text" json:"user_agent"`                  // 客户端UA
	RememberMe   bool      `gorm:"not null;default:false" json:"remember_me"`    // 记住我
	CreatedAt    time.Time `gorm:"index" json:"created_at"`                      // 创建时间
}

// TableName 指定表名
func (SessionRecord) TableName() string {
	return "session_records"
}

// Usable 会话在给定时间是否可用
func (s *SessionRecord) Usable(now time.Time) bool {
	return s != nil && s.IsActive && now.Before(s.ExpiresAt)
}

package models

import (
	"time"

	"github.com/techphorix/w-store-sub004/internal/constants"
)

// User 账号表（买家、卖家与管理员共用，只做状态流转不删除）
type User struct {
	ID              uint       `gorm:"primarykey" json:"id"`                                       // 主键
	Email           string     `gorm:"uniqueIndex;not null" json:"email"`                          // 邮箱
	PasswordHash    string     `gorm:"not null" json:"-"`                                          // 密码哈希（不返回给前端）
	DisplayName     string     `gorm:"default:''" json:"display_name"`                             // 昵称
	Role            string     `gorm:"type:varchar(20);index;not null;default:'user'" json:"role"` // 角色 user/seller/admin
	Status          string     `gorm:"type:varchar(20);index;default:'active'" json:"status"`      // 账号状态
	Locale          string     `gorm:"default:'zh-CN'" json:"locale"`                              // 语言偏好
	EmailVerifiedAt *time.Time `json:"email_verified_at"`                                          // 邮箱验证时间
	LastLoginAt     *time.Time `json:"last_login_at"`                                              // 最后登录时间
	CreatedAt       time.Time  `gorm:"index" json:"created_at"`                                    // 创建时间
	UpdatedAt       time.Time  `gorm:"index" json:"updated_at"`                                    // 更新时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// IsActive 账号是否可用
func (u *User) IsActive() bool {
	return u != nil && u.Status == constants.UserStatusActive
}

// IsAdmin 是否管理员
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == constants.RoleAdmin
}

// IsSeller 是否卖家
func (u *User) IsSeller() bool {
	return u != nil && u.Role == constants.RoleSeller
}

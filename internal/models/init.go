package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/logger"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin123"
)

// BootstrapOptions 初始化数据参数
type BootstrapOptions struct {
	AdminEmail    string
	AdminPassword string
}

// SeedFunc 在初始化事务中执行的附加写入
type SeedFunc func(tx *gorm.DB) error

// Bootstrap 在同一事务中写入默认管理员、附加种子与卖家指标占位行，任一步失败整体回滚
func Bootstrap(db *gorm.DB, opts BootstrapOptions, seeds ...SeedFunc) error {
	if db == nil {
		return fmt.Errorf("database is not initialized")
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := ensureDefaultAdmin(tx, opts); err != nil {
			return fmt.Errorf("ensure default admin: %w", err)
		}
		for _, seed := range seeds {
			if seed == nil {
				continue
			}
			if err := seed(tx); err != nil {
				return err
			}
		}
		if err := ensureSellerStatsRows(tx); err != nil {
			return fmt.Errorf("ensure seller stats: %w", err)
		}
		return nil
	})
}

func ensureDefaultAdmin(tx *gorm.DB, opts BootstrapOptions) error {
	var count int64
	if err := tx.Model(&User{}).Where("role = ?", constants.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" {
		email = defaultAdminEmail
	}
	password := opts.AdminPassword
	if password == "" {
		password = defaultAdminPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now()
	admin := User{
		Email:           email,
		PasswordHash:    string(hash),
		DisplayName:     "admin",
		Role:            constants.RoleAdmin,
		Status:          constants.UserStatusActive,
		EmailVerifiedAt: &now,
	}
	if err := tx.Create(&admin).Error; err != nil {
		return err
	}

	if password == defaultAdminPassword {
		logger.Warnw("default_admin_created_with_default_password", "email", email)
		logger.Warnw("default_admin_password_change_required", "email", email)
	} else {
		logger.Warnw("default_admin_created", "email", email, "password_hidden", true)
	}
	return nil
}

// ensureSellerStatsRows 为尚无统计行的卖家补全零值行
func ensureSellerStatsRows(tx *gorm.DB) error {
	var sellerIDs []uint
	if err := tx.Model(&User{}).
		Where("role = ?", constants.RoleSeller).
		Where("id NOT IN (?)", tx.Model(&SellerStats{}).Select("seller_id")).
		Pluck("id", &sellerIDs).Error; err != nil {
		return err
	}
	for _, id := range sellerIDs {
		if err := tx.Create(&SellerStats{SellerID: id}).Error; err != nil {
			return err
		}
	}
	if len(sellerIDs) > 0 {
		logger.Infow("seller_stats_rows_created", "count", len(sellerIDs))
	}
	return nil
}

package models

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/techphorix/w-store-sub004/internal/constants"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openModelsTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func TestBootstrapCreatesAdminAndSellerStats(t *testing.T) {
	db := openModelsTestDB(t)
	seller := User{Email: "seller@example.com", PasswordHash: "x", Role: constants.RoleSeller, Status: constants.UserStatusActive}
	if err := db.Create(&seller).Error; err != nil {
		t.Fatalf("create seller failed: %v", err)
	}

	if err := Bootstrap(db, BootstrapOptions{AdminEmail: "Root@Example.com", AdminPassword: "secret-pass"}); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	// 再次执行保持幂等
	if err := Bootstrap(db, BootstrapOptions{}); err != nil {
		t.Fatalf("second bootstrap failed: %v", err)
	}

	var admins []User
	if err := db.Where("role = ?", constants.RoleAdmin).Find(&admins).Error; err != nil {
		t.Fatalf("query admins failed: %v", err)
	}
	if len(admins) != 1 || admins[0].Email != "root@example.com" {
		t.Fatalf("want one admin root@example.com, got %+v", admins)
	}

	var statsCount int64
	db.Model(&SellerStats{}).Where("seller_id = ?", seller.ID).Count(&statsCount)
	if statsCount != 1 {
		t.Fatalf("want one stats row for seller, got %d", statsCount)
	}
}

func TestBootstrapRollsBackOnSeedFailure(t *testing.T) {
	db := openModelsTestDB(t)
	seedErr := errors.New("seed failed")

	err := Bootstrap(db, BootstrapOptions{AdminPassword: "secret-pass"}, func(tx *gorm.DB) error {
		return seedErr
	})
	if !errors.Is(err, seedErr) {
		t.Fatalf("want seed error, got %v", err)
	}

	var count int64
	db.Model(&User{}).Count(&count)
	if count != 0 {
		t.Fatalf("admin insert should be rolled back, got %d users", count)
	}
}

package app

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/techphorix/w-store-sub004/internal/config"
	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/provider"
	"github.com/techphorix/w-store-sub004/internal/service"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupBootstrapTest(t *testing.T, password string) (*config.Config, *provider.Container) {
	t.Helper()
	dsn := fmt.Sprintf("file:app_bootstrap_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	cfg := &config.Config{}
	cfg.JWT.SecretKey = "bootstrap-test-secret"
	cfg.Bootstrap.AdminEmail = "admin@example.com"
	cfg.Bootstrap.AdminPassword = password
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{MinLength: 8, RequireUpper: true, RequireLower: true, RequireNumber: true}

	container, err := provider.Build(cfg, db, nil)
	if err != nil {
		t.Fatalf("build container failed: %v", err)
	}
	return cfg, container
}

func TestBootstrapDataRejectsWeakAdminPassword(t *testing.T) {
	cfg, container := setupBootstrapTest(t, "admin")
	err := bootstrapData(cfg, container)
	if !errors.Is(err, service.ErrWeakPassword) {
		t.Fatalf("weak password want ErrWeakPassword got %v", err)
	}
	var count int64
	container.DB.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Fatalf("no admin should be created for a weak password")
	}
}

func TestBootstrapDataCreatesAdminAndPolicies(t *testing.T) {
	cfg, container := setupBootstrapTest(t, "Passw0rd!")
	if err := bootstrapData(cfg, container); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	var admin models.User
	if err := container.DB.Where("email = ?", "admin@example.com").First(&admin).Error; err != nil {
		t.Fatalf("admin should exist: %v", err)
	}
	if admin.Role != constants.RoleAdmin {
		t.Fatalf("bootstrap principal role want admin got %s", admin.Role)
	}
	allowed, err := container.AuthzService.EnforceRole(constants.RoleAdmin, "/api/v1/admin/users", "GET")
	if err != nil || !allowed {
		t.Fatalf("seeded policies should allow admin routes, err=%v", err)
	}
}

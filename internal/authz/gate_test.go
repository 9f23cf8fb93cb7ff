package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/techphorix/w-store-sub004/internal/constants"
)

type testActor struct {
	id   uint
	role string
}

func (a testActor) EffectiveID() uint     { return a.id }
func (a testActor) EffectiveRole() string { return a.role }

type ownedOrder struct {
	ID       uint `gorm:"primarykey"`
	SellerID uint
}

func (ownedOrder) TableName() string { return "orders" }

func TestRequireRoles(t *testing.T) {
	gate := NewGate(nil)
	if err := gate.RequireRoles(testActor{id: 1, role: constants.RoleAdmin}, constants.RoleAdmin); err != nil {
		t.Fatalf("admin should pass: %v", err)
	}
	err := gate.RequireRoles(testActor{id: 2, role: constants.RoleSeller}, constants.RoleAdmin)
	if !errors.Is(err, ErrInsufficientPermissions) {
		t.Fatalf("seller should be rejected, got %v", err)
	}
	if err := gate.RequireRoles(nil, constants.RoleAdmin); !errors.Is(err, ErrInsufficientPermissions) {
		t.Fatalf("nil actor should be rejected, got %v", err)
	}
}

func TestCheckOwnership(t *testing.T) {
	db := setupAuthzTestDB(t)
	if err := db.AutoMigrate(&ownedOrder{}); err != nil {
		t.Fatalf("migrate orders failed: %v", err)
	}
	if err := db.Create(&ownedOrder{ID: 10, SellerID: 5}).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	gate := NewGate(db)
	ctx := context.Background()

	if err := gate.CheckOwnership(ctx, testActor{id: 5, role: constants.RoleSeller}, "orders", 10); err != nil {
		t.Fatalf("owner should pass: %v", err)
	}
	if err := gate.CheckOwnership(ctx, testActor{id: 6, role: constants.RoleSeller}, "orders", 10); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("other seller should be denied, got %v", err)
	}
	if err := gate.CheckOwnership(ctx, testActor{id: 5, role: constants.RoleSeller}, "orders", 99); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("missing row should be denied, got %v", err)
	}
	if err := gate.CheckOwnership(ctx, testActor{id: 5, role: constants.RoleSeller}, "users", 5); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("unregistered table should be denied, got %v", err)
	}
	if err := gate.CheckOwnership(ctx, testActor{id: 1, role: constants.RoleAdmin}, "orders", 10); err != nil {
		t.Fatalf("admin should bypass ownership: %v", err)
	}
}

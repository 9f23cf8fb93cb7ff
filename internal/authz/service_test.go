package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthzTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	return db
}

func setupAuthzServiceTest(t *testing.T) *Service {
	t.Helper()
	db := setupAuthzTestDB(t)
	svc, err := NewService(db)
	if err != nil {
		t.Fatalf("new authz service failed: %v", err)
	}
	if err := SeedRolePolicies(db); err != nil {
		t.Fatalf("seed role policies failed: %v", err)
	}
	// 重复写入不产生重复规则
	if err := SeedRolePolicies(db); err != nil {
		t.Fatalf("reseed role policies failed: %v", err)
	}
	if err := svc.ReloadPolicy(); err != nil {
		t.Fatalf("reload policy failed: %v", err)
	}
	return svc
}

func TestEnforceRoleMatrix(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	cases := []struct {
		role   string
		object string
		action string
		want   bool
	}{
		{role: "admin", object: "/api/v1/admin/seller/5/overrides", action: "post", want: true},
		{role: "admin", object: "/api/v1/me", action: "GET", want: true},
		{role: "admin", object: "/api/v1/seller/dashboard", action: "GET", want: false},
		{role: "seller", object: "/api/v1/seller/orders/12", action: "GET", want: true},
		{role: "seller", object: "/api/v1/admin/seller/5/overrides", action: "GET", want: false},
		{role: "seller", object: "/api/v1/auth/refresh", action: "POST", want: true},
		{role: "user", object: "/api/v1/me", action: "GET", want: true},
		{role: "user", object: "/api/v1/seller/dashboard", action: "GET", want: false},
	}
	for _, item := range cases {
		allow, err := svc.EnforceRole(item.role, item.object, item.action)
		if err != nil {
			t.Fatalf("enforce %s %s failed: %v", item.role, item.object, err)
		}
		if allow != item.want {
			t.Fatalf("role=%s obj=%s act=%s want %v got %v", item.role, item.object, item.action, item.want, allow)
		}
	}
}

func TestGetRolePoliciesIncludesInherited(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	policies, err := svc.GetRolePolicies("seller")
	if err != nil {
		t.Fatalf("get role policies failed: %v", err)
	}
	objects := map[string]bool{}
	for _, item := range policies {
		objects[item.Object] = true
	}
	for _, want := range []string{"/seller/*", "/me", "/auth/*"} {
		if !objects[want] {
			t.Fatalf("seller policies missing %s: %+v", want, policies)
		}
	}
}

func TestGrantAndRevokeRolePolicy(t *testing.T) {
	svc := setupAuthzServiceTest(t)
	if err := svc.GrantRolePolicy("user", "/reports/:id", "GET"); err != nil {
		t.Fatalf("grant failed: %v", err)
	}
	allow, err := svc.EnforceRole("user", "/api/v1/reports/3", "GET")
	if err != nil || !allow {
		t.Fatalf("want allow after grant, allow=%v err=%v", allow, err)
	}
	if err := svc.RevokeRolePolicy("user", "/reports/:id", "GET"); err != nil {
		t.Fatalf("revoke failed: %v", err)
	}
	allow, err = svc.EnforceRole("user", "/api/v1/reports/3", "GET")
	if err != nil || allow {
		t.Fatalf("want deny after revoke, allow=%v err=%v", allow, err)
	}
}

func TestNormalizeObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{in: "/api/v1/admin/seller/:id/overrides", want: "/admin/seller/:id/overrides"},
		{in: "/seller/orders/:id", want: "/seller/orders/:id"},
		{in: "seller/orders", want: "/seller/orders"},
		{in: "/api/v1", want: "/"},
		{in: "", want: "/"},
	}
	for _, item := range cases {
		got := NormalizeObject(item.in)
		if got != item.want {
			t.Fatalf("normalize object failed, in=%q want=%q got=%q", item.in, item.want, got)
		}
	}
}

package service

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/techphorix/w-store-sub004/internal/authz"
	"github.com/techphorix/w-store-sub004/internal/cache"
	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func TestPrincipalUpdateStatusRevokesSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.UseClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "svc")
	t.Cleanup(func() { _ = cache.Close() })

	env := setupServiceTest(t)
	admin := env.createPrincipal(t, "admin@example.com", constants.RoleAdmin, constants.UserStatusActive)
	seller := env.createPrincipal(t, "seller@example.com", constants.RoleSeller, constants.UserStatusActive)
	result, _ := env.loginIdentity(t, "seller@example.com")
	if !mr.Exists("svc:auth:principal:" + strconv.FormatUint(uint64(seller.ID), 10)) {
		t.Fatalf("resolve should populate the auth state cache")
	}

	svc := NewPrincipalService(env.users, env.sessions, env.audit)
	ctx := context.Background()
	updated, err := svc.UpdateStatus(ctx, admin.ID, seller.ID, " Suspended ")
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if updated.Status != constants.UserStatusSuspended {
		t.Fatalf("status want suspended got %s", updated.Status)
	}
	if mr.Exists("svc:auth:principal:" + strconv.FormatUint(uint64(seller.ID), 10)) {
		t.Fatalf("auth state cache should be invalidated")
	}

	record, err := env.sessions.GetByID(ctx, result.SessionID)
	if err != nil || record == nil {
		t.Fatalf("session lookup failed: %v", err)
	}
	if record.IsActive {
		t.Fatalf("sessions should be deactivated when leaving active status")
	}

	claims, _ := env.tokens.Verify(result.Token)
	if _, err := env.resolver().Resolve(ctx, claims, result.Token); !errors.Is(err, ErrPrincipalInactive) {
		t.Fatalf("suspended principal want ErrPrincipalInactive got %v", err)
	}
	if env.countAudit(t, constants.AuditActionPrincipalStatusUpdate) != 1 {
		t.Fatalf("status change should be audited")
	}
}

func TestPrincipalUpdateStatusValidation(t *testing.T) {
	env := setupServiceTest(t)
	seller := env.createPrincipal(t, "seller@example.com", constants.RoleSeller, constants.UserStatusActive)
	svc := NewPrincipalService(env.users, env.sessions, env.audit)
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, 1, seller.ID, "banned"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("unknown status want ErrInvalidStatus got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, 1, 9999, constants.UserStatusActive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing principal want ErrNotFound got %v", err)
	}
}

func TestPrincipalReactivateKeepsSessionsUntouched(t *testing.T) {
	env := setupServiceTest(t)
	env.createPrincipal(t, "seller@example.com", constants.RoleSeller, constants.UserStatusActive)
	result, identity := env.loginIdentity(t, "seller@example.com")
	svc := NewPrincipalService(env.users, env.sessions, env.audit)
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, 1, identity.EffectiveID(), constants.UserStatusActive); err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	record, _ := env.sessions.GetByID(ctx, result.SessionID)
	if record == nil || !record.IsActive {
		t.Fatalf("staying active should not revoke sessions")
	}
}

func TestSellerOrderServiceOwnership(t *testing.T) {
	env := setupServiceTest(t)
	sellerA := env.createPrincipal(t, "a@example.com", constants.RoleSeller, constants.UserStatusActive)
	sellerB := env.createPrincipal(t, "b@example.com", constants.RoleSeller, constants.UserStatusActive)
	admin := env.createPrincipal(t, "admin@example.com", constants.RoleAdmin, constants.UserStatusActive)
	ctx := context.Background()

	now := time.Now()
	orders := []*models.Order{
		{OrderNo: "WS-A-1", SellerID: sellerA.ID, UserID: 100, TotalAmount: models.NewMetricValue(decimal.NewFromInt(30)), Status: constants.OrderStatusPaid, CreatedAt: now},
		{OrderNo: "WS-A-2", SellerID: sellerA.ID, UserID: 101, TotalAmount: models.NewMetricValue(decimal.NewFromInt(45)), Status: constants.OrderStatusCompleted, CreatedAt: now},
		{OrderNo: "WS-B-1", SellerID: sellerB.ID, UserID: 100, TotalAmount: models.NewMetricValue(decimal.NewFromInt(12)), Status: constants.OrderStatusPaid, CreatedAt: now},
	}
	for _, order := range orders {
		if err := env.orders.Create(ctx, order); err != nil {
			t.Fatalf("create order failed: %v", err)
		}
	}

	svc := NewSellerOrderService(env.orders, authz.NewGate(env.db))
	asA := &Identity{Effective: sellerA, Authorizing: sellerA}

	list, total, err := svc.List(ctx, asA, repository.OrderListFilter{SellerID: sellerB.ID, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 2 || len(list) != 2 {
		t.Fatalf("seller A should only see own orders, got total=%d", total)
	}
	for _, order := range list {
		if order.SellerID != sellerA.ID {
			t.Fatalf("foreign order leaked: %+v", order)
		}
	}

	if _, err := svc.Get(ctx, asA, orders[0].ID); err != nil {
		t.Fatalf("own order should be readable: %v", err)
	}
	if _, err := svc.Get(ctx, asA, orders[2].ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("foreign order want ErrAccessDenied got %v", err)
	}

	// 代登录时按被代登录卖家校验归属
	impersonating := &Identity{Effective: sellerB, Authorizing: admin, Impersonating: true}
	if _, err := svc.Get(ctx, impersonating, orders[2].ID); err != nil {
		t.Fatalf("impersonated seller should read own order: %v", err)
	}
	if _, err := svc.Get(ctx, impersonating, orders[0].ID); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("impersonation must not widen access, got %v", err)
	}
}

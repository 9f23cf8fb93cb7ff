package cache

import (
	"context"
	"testing"

	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupMiniRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	UseClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "test")
	t.Cleanup(func() {
		_ = Close()
	})
	return mr
}

func TestPrincipalAuthStateRoundTrip(t *testing.T) {
	mr := setupMiniRedis(t)
	ctx := context.Background()
	user := &models.User{ID: 9, Email: "s@example.com", Role: constants.RoleSeller, Status: constants.UserStatusActive}

	if err := SetPrincipalAuthState(ctx, BuildPrincipalAuthState(user)); err != nil {
		t.Fatalf("set auth state failed: %v", err)
	}
	if !mr.Exists("test:auth:principal:9") {
		t.Fatalf("expected prefixed key to exist")
	}

	state, hit, err := GetPrincipalAuthState(ctx, 9)
	if err != nil || !hit {
		t.Fatalf("want cache hit, hit=%v err=%v", hit, err)
	}
	restored := state.ToUser()
	if restored.Role != constants.RoleSeller || !restored.IsActive() {
		t.Fatalf("unexpected restored user: %+v", restored)
	}

	if err := DelPrincipalAuthState(ctx, 9); err != nil {
		t.Fatalf("del auth state failed: %v", err)
	}
	if _, hit, _ := GetPrincipalAuthState(ctx, 9); hit {
		t.Fatalf("auth state should be removed")
	}
}

func TestCacheDisabledIsNoop(t *testing.T) {
	UseClient(nil, "")
	ctx := context.Background()
	if err := SetPrincipalAuthState(ctx, &PrincipalAuthState{PrincipalID: 1}); err != nil {
		t.Fatalf("disabled cache should not error: %v", err)
	}
	if _, hit, err := GetPrincipalAuthState(ctx, 1); hit || err != nil {
		t.Fatalf("disabled cache should miss without error, hit=%v err=%v", hit, err)
	}
}

package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupRepositoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func TestOverrideUpsertKeepsSingleRowAndOriginalValue(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOverrideRepository(db)
	ctx := context.Background()

	first := &models.MetricOverride{
		SellerID:      7,
		MetricName:    constants.MetricOrdersSold,
		OverrideValue: models.NewMetricValueFromInt(100),
		OriginalValue: models.NewMetricValueFromInt(12),
		UpdatedBy:     1,
	}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}

	second := &models.MetricOverride{
		SellerID:      7,
		MetricName:    constants.MetricOrdersSold,
		OverrideValue: models.NewMetricValueFromInt(250),
		OriginalValue: models.NewMetricValueFromInt(99),
		UpdatedBy:     2,
		UpdatedAt:     time.Now().Add(time.Minute),
	}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	entries, err := repo.ListBySeller(ctx, 7)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("want exactly one row, got %d", len(entries))
	}
	got := entries[0]
	if !got.OverrideValue.Equal(models.NewMetricValueFromInt(250)) {
		t.Fatalf("override value want 250 got %s", got.OverrideValue)
	}
	if !got.OriginalValue.Equal(models.NewMetricValueFromInt(12)) {
		t.Fatalf("original value must stay 12, got %s", got.OriginalValue)
	}
	if got.UpdatedBy != 2 {
		t.Fatalf("updated_by want 2 got %d", got.UpdatedBy)
	}
}

func TestOverrideDeleteIsIdempotent(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewOverrideRepository(db)
	ctx := context.Background()

	entry := &models.MetricOverride{
		SellerID:      3,
		MetricName:    constants.MetricShopRating,
		OverrideValue: models.NewMetricValue(decimal.RequireFromString("4.5")),
		UpdatedBy:     1,
	}
	if err := repo.Upsert(ctx, entry); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	affected, err := repo.Delete(ctx, 3, constants.MetricShopRating)
	if err != nil || affected != 1 {
		t.Fatalf("first delete want 1 row, got %d err=%v", affected, err)
	}
	affected, err = repo.Delete(ctx, 3, constants.MetricShopRating)
	if err != nil || affected != 0 {
		t.Fatalf("second delete want 0 rows, got %d err=%v", affected, err)
	}
	got, err := repo.Get(ctx, 3, constants.MetricShopRating)
	if err != nil || got != nil {
		t.Fatalf("entry should be gone, got %+v err=%v", got, err)
	}
}

func TestSessionDeactivateExpired(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewSessionRepository(db)
	ctx := context.Background()
	now := time.Now()

	records := []*models.SessionRecord{
		{ID: "expired", PrincipalID: 1, TokenHash: "a", ExpiresAt: now.Add(-time.Minute), IsActive: true},
		{ID: "live", PrincipalID: 1, TokenHash: "b", ExpiresAt: now.Add(time.Hour), IsActive: true},
	}
	for _, record := range records {
		if err := repo.Create(ctx, record); err != nil {
			t.Fatalf("create session failed: %v", err)
		}
	}

	affected, err := repo.DeactivateExpired(ctx, now)
	if err != nil {
		t.Fatalf("deactivate expired failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("want 1 expired session, got %d", affected)
	}
	live, err := repo.GetByID(ctx, "live")
	if err != nil || !live.Usable(now) {
		t.Fatalf("live session should stay usable, got %+v err=%v", live, err)
	}

	affected, err = repo.DeactivateByPrincipal(ctx, 1)
	if err != nil || affected != 1 {
		t.Fatalf("deactivate by principal want 1, got %d err=%v", affected, err)
	}
}

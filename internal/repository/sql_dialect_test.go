package repository

import (
	"context"
	"testing"

	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/models"
)

func TestBuildKeywordConditionByDialect(t *testing.T) {
	condition, argCount := buildKeywordConditionByDialect("sqlite", []string{"email", " ", "display_name"})
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	want := `email LIKE ? ESCAPE '\' OR display_name LIKE ? ESCAPE '\'`
	if condition != want {
		t.Fatalf("sqlite condition mismatch, want %s got %s", want, condition)
	}

	condition, _ = buildKeywordConditionByDialect("postgres", []string{"email"})
	if condition != `email ILIKE ? ESCAPE '\'` {
		t.Fatalf("postgres condition mismatch, got %s", condition)
	}
}

func TestLikePatternEscapesWildcards(t *testing.T) {
	if got := likePattern(" 50%_off "); got != `%50\%\_off%` {
		t.Fatalf("unexpected pattern: %s", got)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}

func TestUserListKeywordDoesNotTreatUnderscoreAsWildcard(t *testing.T) {
	db := setupRepositoryTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	for _, email := range []string{"seller_a@wstore.local", "sellerxa@wstore.local"} {
		user := &models.User{
			Email:        email,
			PasswordHash: "x",
			DisplayName:  email,
			Role:         constants.RoleSeller,
			Status:       constants.UserStatusActive,
		}
		if err := db.Create(user).Error; err != nil {
			t.Fatalf("create user failed: %v", err)
		}
	}

	users, total, err := repo.List(ctx, UserListFilter{Page: 1, PageSize: 10, Keyword: "seller_a"})
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if total != 1 || len(users) != 1 || users[0].Email != "seller_a@wstore.local" {
		t.Fatalf("unexpected keyword result: total=%d users=%+v", total, users)
	}
}

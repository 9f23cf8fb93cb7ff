package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

func TestIsTableMissing(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"postgres undefined table", &pgconn.PgError{Code: "42P01", Message: `relation "session_records" does not exist`}, true},
		{"wrapped postgres undefined table", fmt.Errorf("lookup session: %w", &pgconn.PgError{Code: "42P01"}), true},
		{"postgres other relation error", &pgconn.PgError{Code: "42704", Message: `relation "x" does not exist in schema`}, false},
		{"plain text relation message", errors.New(`relation "session_records" does not exist`), false},
		{"sqlite missing table", errors.New("no such table: session_records"), true},
		{"connection refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), false},
	}
	for _, tc := range cases {
		if got := IsTableMissing(tc.err); got != tc.want {
			t.Fatalf("%s: want %v got %v", tc.name, tc.want, got)
		}
	}
}

func TestIsTableMissingOnSQLite(t *testing.T) {
	db := setupRepositoryTestDB(t)
	if err := db.Migrator().DropTable("session_records"); err != nil {
		t.Fatalf("drop table failed: %v", err)
	}
	_, err := NewSessionRepository(db).GetByID(context.Background(), "missing")
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected missing table error, got %v", err)
	}
	if !IsTableMissing(err) {
		t.Fatalf("sqlite missing table not detected: %v", err)
	}
}

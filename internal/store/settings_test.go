package store

import (
	"context"
	"testing"

	"github.com/erazemk/fixitforward/internal/db"
)

func TestGetJWTSecret(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatalf("GetJWTSecret: %v", err)
	}
	if len(first) != 64 {
		t.Fatalf("secret length = %d, want 64 hex chars", len(first))
	}

	again, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatalf("GetJWTSecret: %v", err)
	}
	if again != first {
		t.Fatalf("secret changed between calls: %q then %q", first, again)
	}
}

func TestSettings(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v, err := GetSetting(ctx, database, "currency")
	if err != nil {
		t.Fatalf("GetSetting: %v", err)
	}
	if v != "" {
		t.Fatalf("unset setting = %q, want empty", v)
	}

	v, err = EnsureSetting(ctx, database, "currency", "IDR")
	if err != nil {
		t.Fatalf("EnsureSetting: %v", err)
	}
	if v != "IDR" {
		t.Fatalf("EnsureSetting = %q, want IDR", v)
	}

	// The first value sticks.
	v, err = EnsureSetting(ctx, database, "currency", "USD")
	if err != nil {
		t.Fatalf("EnsureSetting: %v", err)
	}
	if v != "IDR" {
		t.Fatalf("EnsureSetting overwrote value: got %q", v)
	}
}

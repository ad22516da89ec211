package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db, err := Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.RunMigrations(context.Background()); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

// TestDatabaseIntegration tests the complete database lifecycle
func TestDatabaseIntegration(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	var name string
	err := db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name=?", "kv_store").Scan(&name)
	if err != nil {
		t.Fatalf("Table kv_store not found: %v", err)
	}

	// A second run applies nothing
	applied, err := db.RunMigrations(ctx)
	if err != nil {
		t.Fatalf("Failed to rerun migrations: %v", err)
	}
	if len(applied) != 0 {
		t.Errorf("Expected no migrations on rerun, got %v", applied)
	}
}

// TestDatabaseTransactions tests commit and rollback through WithTx
func TestDatabaseTransactions(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	upsert := db.Dialect.UpsertKVQuery()

	err := db.WithTx(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, upsert, "crackle-date-stats", "{}")
		return err
	})
	if err != nil {
		t.Fatalf("Failed to commit transaction: %v", err)
	}

	boom := errors.New("boom")
	err = db.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, upsert, "crackle-date-game", "{}"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want %v", err, boom)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM kv_store").Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row after rollback, got %d", count)
	}
}

// TestUpsertReplaces checks the dialect upsert overwrites an existing key
func TestUpsertReplaces(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	for _, v := range []string{"first", "second"} {
		if _, err := db.ExecContext(ctx, db.Dialect.UpsertKVQuery(), "k", v); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	var value string
	if err := db.QueryRowContext(ctx, "SELECT store_value FROM kv_store WHERE store_key = ?", "k").Scan(&value); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if value != "second" {
		t.Errorf("value = %q, want %q", value, "second")
	}
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"crackledate/internal/database"
)

// KVRepository stores string blobs in the kv_store table
type KVRepository struct {
	db *database.DB
}

func NewKVRepository(db *database.DB) *KVRepository {
	return &KVRepository{db: db}
}

// Get retrieves a value by key. ok is false when the key is absent.
func (r *KVRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	query := `SELECT store_value FROM kv_store WHERE store_key = ?`
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, true, nil
}

// Set updates or inserts a value
func (r *KVRepository) Set(ctx context.Context, key, value string) error {
	return upsert(ctx, r.db, key, value)
}

func upsert(ctx context.Context, q database.DBTX, key, value string) error {
	if _, err := q.ExecContext(ctx, q.GetDialect().UpsertKVQuery(), key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// SetMany writes every pair in one transaction
func (r *KVRepository) SetMany(ctx context.Context, values map[string]string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		for key, value := range values {
			if err := upsert(ctx, tx, key, value); err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes keys; missing keys are ignored
func (r *KVRepository) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		for _, key := range keys {
			if _, err := tx.ExecContext(ctx, `DELETE FROM kv_store WHERE store_key = ?`, key); err != nil {
				return fmt.Errorf("delete %s: %w", key, err)
			}
		}
		return nil
	})
}

// Keys lists stored keys starting with prefix, sorted
func (r *KVRepository) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT store_key FROM kv_store ORDER BY store_key`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, rows.Err()
}

// Close closes the underlying database
func (r *KVRepository) Close() error {
	return r.db.Close()
}

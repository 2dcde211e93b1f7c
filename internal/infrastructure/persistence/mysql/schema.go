package mysql

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS save_slots (
		name VARCHAR(64) NOT NULL PRIMARY KEY,
		data LONGBLOB NOT NULL,
		size INT NOT NULL,
		version INT NOT NULL DEFAULT 0,
		saved_at DATETIME(6) NOT NULL,
		INDEX idx_save_slots_saved_at (saved_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS shop_transactions (
		event_id VARCHAR(255) NOT NULL PRIMARY KEY,
		shop_id VARCHAR(255) NOT NULL,
		player_id VARCHAR(255) NOT NULL,
		item_id VARCHAR(128) NOT NULL,
		item_category VARCHAR(128) NOT NULL DEFAULT '',
		transaction_type VARCHAR(8) NOT NULL,
		quantity INT NOT NULL,
		unit_price BIGINT NOT NULL,
		occurred_at DATETIME(6) NOT NULL,
		INDEX idx_shop_transactions_shop (shop_id, occurred_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate 必要なテーブルを作成する（既存の場合は何もしない）
func (db *DB) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate schema: %w", err)
		}
	}
	return nil
}

// Package sqlite ローカルファイルへのセーブスロット・取引履歴の保存を提供する
package sqlite

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB SQLite接続
type DB struct {
	conn *sqlx.DB
}

// Open SQLiteデータベースを開き、スキーマを作成する
func Open(ctx context.Context, dsn string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// SQLiteは単一ライターのため接続を1本に絞る
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to migrate sqlite: %w", err)
	}
	return db, nil
}

// Close 接続を閉じる
func (db *DB) Close() error {
	return db.conn.Close()
}

// HealthCheck 接続確認
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func (db *DB) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS save_slots (
		name TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		size INTEGER NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		saved_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_save_slots_saved_at ON save_slots(saved_at);

	CREATE TABLE IF NOT EXISTS shop_transactions (
		event_id TEXT PRIMARY KEY,
		shop_id TEXT NOT NULL,
		player_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		item_category TEXT NOT NULL DEFAULT '',
		transaction_type TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price INTEGER NOT NULL,
		occurred_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shop_transactions_shop ON shop_transactions(shop_id, occurred_at);
	`
	_, err := db.conn.ExecContext(ctx, schema)
	return err
}

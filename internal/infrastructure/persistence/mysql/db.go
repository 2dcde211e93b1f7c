// Package mysql はセーブスロットと取引履歴のMySQL保存を提供する
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"shop-economy/internal/infrastructure/config"
)

// connectTimeout 起動時の疎通確認の上限
const connectTimeout = 10 * time.Second

// DB MySQL接続
type DB struct {
	*sql.DB
}

// NewDB 新しいデータベース接続を作成
// 疎通確認に失敗した場合は接続を閉じてエラーを返す
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	conn, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 接続プールの設定
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	conn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	db := &DB{DB: conn}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.HealthCheck(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// HealthCheck 接続確認
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// InTx トランザクション内でfnを実行する
// fnがエラーを返すかpanicした場合はロールバックし、それ以外はコミットする
func (db *DB) InTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	return fn(tx)
}

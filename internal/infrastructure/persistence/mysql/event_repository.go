package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shop-economy/internal/domain/item"
	"shop-economy/internal/domain/transaction"
)

// EventRepository MySQL実装のEventRepository
type EventRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewEventRepository 新しいEventRepositoryを作成
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{
		db:     db,
		tracer: otel.Tracer("event-repository"),
	}
}

const eventColumns = `event_id, shop_id, player_id, item_id, item_category,
			transaction_type, quantity, unit_price, occurred_at`

// Save 取引イベントを保存
// 同じイベントIDの再保存は無視される
func (r *EventRepository) Save(ctx context.Context, ev *transaction.Event) error {
	ctx, span := r.tracer.Start(ctx, "EventRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.event_id", ev.EventID()),
		attribute.String("db.shop_id", ev.ShopID()),
		attribute.String("db.transaction_type", ev.TransactionType().String()),
		attribute.Int64("db.total", ev.Total()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "shop_transactions"),
	)

	query := `
		INSERT IGNORE INTO shop_transactions (
			` + eventColumns + `
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		ev.EventID(),
		ev.ShopID(),
		ev.PlayerID(),
		ev.Item().ID,
		ev.Item().Category,
		ev.TransactionType().String(),
		ev.Quantity(),
		ev.EffectivePrice(),
		ev.OccurredAt().UTC(),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save transaction event: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "transaction event saved")
	return nil
}

// FindByEventID イベントIDで取引イベントを取得
func (r *EventRepository) FindByEventID(ctx context.Context, eventID string) (*transaction.Event, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.FindByEventID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.event_id", eventID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "shop_transactions"),
	)

	query := `SELECT ` + eventColumns + ` FROM shop_transactions WHERE event_id = ?`

	ev, err := scanEvent(r.db.QueryRowContext(ctx, query, eventID))
	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "transaction event not found")
		return nil, transaction.ErrEventNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find transaction event: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "transaction event found")
	return ev, nil
}

// FindByShopID ショップIDで取引イベント一覧を新しい順に取得（ページネーション対応）
func (r *EventRepository) FindByShopID(ctx context.Context, shopID string, limit, offset int) ([]*transaction.Event, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.FindByShopID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.shop_id", shopID),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "shop_transactions"),
	)

	query := `
		SELECT ` + eventColumns + `
		FROM shop_transactions
		WHERE shop_id = ?
		ORDER BY occurred_at DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, shopID, limit, offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query transaction events: %w", err)
	}
	defer rows.Close()

	var events []*transaction.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan transaction event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("error iterating transaction events: %w", err)
	}

	span.SetAttributes(attribute.Int("db.count", len(events)))
	span.SetStatus(otelcodes.Ok, "transaction events found")
	return events, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEvent(row rowScanner) (*transaction.Event, error) {
	var eventID, shopID, playerID, itemID, itemCategory, txType string
	var quantity int
	var unitPrice int64
	var occurredAt time.Time

	if err := row.Scan(
		&eventID,
		&shopID,
		&playerID,
		&itemID,
		&itemCategory,
		&txType,
		&quantity,
		&unitPrice,
		&occurredAt,
	); err != nil {
		return nil, err
	}

	tt, err := transaction.NewTransactionType(txType)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction type: %w", err)
	}

	return transaction.NewEvent(
		eventID,
		shopID,
		playerID,
		item.Ref{ID: itemID, Category: itemCategory},
		tt,
		quantity,
		unitPrice,
		occurredAt,
	)
}

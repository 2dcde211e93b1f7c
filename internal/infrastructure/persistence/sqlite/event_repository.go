package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shop-economy/internal/domain/item"
	"shop-economy/internal/domain/transaction"
)

// EventRepository SQLite実装のEventRepository
type EventRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewEventRepository 新しいEventRepositoryを作成
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{
		db:     db,
		tracer: otel.Tracer("sqlite-event-repository"),
	}
}

// occurred_atはUnixナノ秒で保存する
type eventRow struct {
	EventID         string `db:"event_id"`
	ShopID          string `db:"shop_id"`
	PlayerID        string `db:"player_id"`
	ItemID          string `db:"item_id"`
	ItemCategory    string `db:"item_category"`
	TransactionType string `db:"transaction_type"`
	Quantity        int    `db:"quantity"`
	UnitPrice       int64  `db:"unit_price"`
	OccurredAt      int64  `db:"occurred_at"`
}

func (row eventRow) toEvent() (*transaction.Event, error) {
	tt, err := transaction.NewTransactionType(row.TransactionType)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction type: %w", err)
	}
	return transaction.NewEvent(
		row.EventID,
		row.ShopID,
		row.PlayerID,
		item.Ref{ID: row.ItemID, Category: row.ItemCategory},
		tt,
		row.Quantity,
		row.UnitPrice,
		time.Unix(0, row.OccurredAt).UTC(),
	)
}

// Save 取引イベントを保存
// 同じイベントIDの再保存は無視される
func (r *EventRepository) Save(ctx context.Context, ev *transaction.Event) error {
	ctx, span := r.tracer.Start(ctx, "EventRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.event_id", ev.EventID()),
		attribute.String("db.shop_id", ev.ShopID()),
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.table", "shop_transactions"),
	)

	row := eventRow{
		EventID:         ev.EventID(),
		ShopID:          ev.ShopID(),
		PlayerID:        ev.PlayerID(),
		ItemID:          ev.Item().ID,
		ItemCategory:    ev.Item().Category,
		TransactionType: ev.TransactionType().String(),
		Quantity:        ev.Quantity(),
		UnitPrice:       ev.EffectivePrice(),
		OccurredAt:      ev.OccurredAt().UnixNano(),
	}

	_, err := r.db.conn.NamedExecContext(ctx, `
		INSERT INTO shop_transactions (
			event_id, shop_id, player_id, item_id, item_category,
			transaction_type, quantity, unit_price, occurred_at
		) VALUES (
			:event_id, :shop_id, :player_id, :item_id, :item_category,
			:transaction_type, :quantity, :unit_price, :occurred_at
		)
		ON CONFLICT(event_id) DO NOTHING
	`, row)
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
		attribute.String("db.system", "sqlite"),
		attribute.String("db.event_id", eventID),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "shop_transactions"),
	)

	var row eventRow
	err := r.db.conn.GetContext(ctx, &row, `SELECT * FROM shop_transactions WHERE event_id = ?`, eventID)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "transaction event not found")
		return nil, transaction.ErrEventNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to find transaction event: %w", err)
	}

	ev, err := row.toEvent()
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct transaction event: %w", err)
	}
	span.SetStatus(otelcodes.Ok, "transaction event found")
	return ev, nil
}

// FindByShopID ショップIDで取引イベント一覧を新しい順に取得（ページネーション対応）
func (r *EventRepository) FindByShopID(ctx context.Context, shopID string, limit, offset int) ([]*transaction.Event, error) {
	ctx, span := r.tracer.Start(ctx, "EventRepository.FindByShopID")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.shop_id", shopID),
		attribute.Int("db.limit", limit),
		attribute.Int("db.offset", offset),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "shop_transactions"),
	)

	var rows []eventRow
	if err := r.db.conn.SelectContext(ctx, &rows, `
		SELECT * FROM shop_transactions
		WHERE shop_id = ?
		ORDER BY occurred_at DESC, event_id ASC
		LIMIT ? OFFSET ?
	`, shopID, limit, offset); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query transaction events: %w", err)
	}

	events := make([]*transaction.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := row.toEvent()
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to reconstruct transaction event: %w", err)
		}
		events = append(events, ev)
	}

	span.SetAttributes(attribute.Int("db.count", len(events)))
	span.SetStatus(otelcodes.Ok, "transaction events found")
	return events, nil
}

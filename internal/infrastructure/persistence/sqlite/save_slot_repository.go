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

	"shop-economy/internal/domain/savegame"
)

// SaveSlotRepository SQLite実装のSaveSlotRepository
type SaveSlotRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewSaveSlotRepository 新しいSaveSlotRepositoryを作成
func NewSaveSlotRepository(db *DB) *SaveSlotRepository {
	return &SaveSlotRepository{
		db:     db,
		tracer: otel.Tracer("sqlite-save-slot-repository"),
	}
}

// saved_atはUnixナノ秒で保存する
type slotRow struct {
	Name    string `db:"name"`
	Data    []byte `db:"data"`
	Size    int    `db:"size"`
	SavedAt int64  `db:"saved_at"`
}

// Save スロットを保存（同名は上書き）
func (r *SaveSlotRepository) Save(ctx context.Context, slot *savegame.SaveSlot) error {
	ctx, span := r.tracer.Start(ctx, "SaveSlotRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.slot_name", slot.Name()),
		attribute.Int("db.size", slot.Size()),
		attribute.String("db.operation", "UPSERT"),
		attribute.String("db.table", "save_slots"),
	)

	row := slotRow{
		Name:    slot.Name(),
		Data:    slot.Data(),
		Size:    slot.Size(),
		SavedAt: slot.SavedAt().UnixNano(),
	}

	_, err := r.db.conn.NamedExecContext(ctx, `
		INSERT INTO save_slots (name, data, size, version, saved_at)
		VALUES (:name, :data, :size, 0, :saved_at)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			size = excluded.size,
			saved_at = excluded.saved_at,
			version = save_slots.version + 1
	`, row)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to save slot: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "slot saved")
	return nil
}

// Load スロット名で取得
func (r *SaveSlotRepository) Load(ctx context.Context, name string) (*savegame.SaveSlot, error) {
	ctx, span := r.tracer.Start(ctx, "SaveSlotRepository.Load")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.slot_name", name),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "save_slots"),
	)

	var row slotRow
	err := r.db.conn.GetContext(ctx, &row,
		`SELECT name, data, size, saved_at FROM save_slots WHERE name = ?`, name)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(otelcodes.Ok, "slot not found")
		return nil, savegame.ErrSlotNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}

	slot, err := savegame.NewSaveSlot(row.Name, row.Data, time.Unix(0, row.SavedAt).UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct save slot: %w", err)
	}

	span.SetStatus(otelcodes.Ok, "slot loaded")
	return slot, nil
}

// List スロット一覧を保存時刻の新しい順で取得
func (r *SaveSlotRepository) List(ctx context.Context) ([]savegame.SlotInfo, error) {
	ctx, span := r.tracer.Start(ctx, "SaveSlotRepository.List")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "save_slots"),
	)

	var rows []slotRow
	if err := r.db.conn.SelectContext(ctx, &rows,
		`SELECT name, size, saved_at FROM save_slots ORDER BY saved_at DESC, name ASC`); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}

	infos := make([]savegame.SlotInfo, 0, len(rows))
	for _, row := range rows {
		infos = append(infos, savegame.SlotInfo{
			Name:    row.Name,
			Size:    row.Size,
			SavedAt: time.Unix(0, row.SavedAt).UTC(),
		})
	}

	span.SetAttributes(attribute.Int("db.count", len(infos)))
	span.SetStatus(otelcodes.Ok, "slots listed")
	return infos, nil
}

// Delete スロットを削除
func (r *SaveSlotRepository) Delete(ctx context.Context, name string) error {
	ctx, span := r.tracer.Start(ctx, "SaveSlotRepository.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "sqlite"),
		attribute.String("db.slot_name", name),
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.table", "save_slots"),
	)

	result, err := r.db.conn.ExecContext(ctx, `DELETE FROM save_slots WHERE name = ?`, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to delete slot: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		span.SetStatus(otelcodes.Ok, "slot not found")
		return savegame.ErrSlotNotFound
	}

	span.SetStatus(otelcodes.Ok, "slot deleted")
	return nil
}

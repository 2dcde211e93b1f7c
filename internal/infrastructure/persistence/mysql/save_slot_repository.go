package mysql

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

// SaveSlotRepository MySQL実装のSaveSlotRepository
type SaveSlotRepository struct {
	db     *DB
	tracer trace.Tracer
}

// NewSaveSlotRepository 新しいSaveSlotRepositoryを作成
func NewSaveSlotRepository(db *DB) *SaveSlotRepository {
	return &SaveSlotRepository{
		db:     db,
		tracer: otel.Tracer("save-slot-repository"),
	}
}

// Save スロットを保存
// 既存スロットは行ロックを取ってからバージョンを進めて上書きする
func (r *SaveSlotRepository) Save(ctx context.Context, slot *savegame.SaveSlot) error {
	ctx, span := r.tracer.Start(ctx, "SaveSlotRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.slot_name", slot.Name()),
		attribute.Int("db.size", slot.Size()),
		attribute.String("db.table", "save_slots"),
	)

	err := r.db.InTx(ctx, func(tx *sql.Tx) error {
		var version int
		err := tx.QueryRowContext(ctx,
			`SELECT version FROM save_slots WHERE name = ? FOR UPDATE`,
			slot.Name(),
		).Scan(&version)

		if errors.Is(err, sql.ErrNoRows) {
			span.SetAttributes(attribute.String("db.operation", "INSERT"))
			_, err = tx.ExecContext(ctx,
				`INSERT INTO save_slots (name, data, size, version, saved_at) VALUES (?, ?, ?, ?, ?)`,
				slot.Name(), slot.Data(), slot.Size(), 0, slot.SavedAt().UTC(),
			)
			return err
		}
		if err != nil {
			return err
		}

		span.SetAttributes(
			attribute.String("db.operation", "UPDATE"),
			attribute.Int("db.version", version),
		)
		result, err := tx.ExecContext(ctx,
			`UPDATE save_slots SET data = ?, size = ?, saved_at = ?, version = version + 1 WHERE name = ? AND version = ?`,
			slot.Data(), slot.Size(), slot.SavedAt().UTC(), slot.Name(), version,
		)
		if err != nil {
			return err
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if rowsAffected == 0 {
			return fmt.Errorf("save slot was modified concurrently")
		}
		return nil
	})
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
		attribute.String("db.slot_name", name),
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "save_slots"),
	)

	var data []byte
	var savedAt time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT data, saved_at FROM save_slots WHERE name = ?`,
		name,
	).Scan(&data, &savedAt)

	if err == sql.ErrNoRows {
		span.SetStatus(otelcodes.Ok, "slot not found")
		return nil, savegame.ErrSlotNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to load slot: %w", err)
	}

	slot, err := savegame.NewSaveSlot(name, data, savedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct save slot: %w", err)
	}

	span.SetAttributes(attribute.Int("db.size", slot.Size()))
	span.SetStatus(otelcodes.Ok, "slot loaded")
	return slot, nil
}

// List スロット一覧を保存時刻の新しい順で取得
func (r *SaveSlotRepository) List(ctx context.Context) ([]savegame.SlotInfo, error) {
	ctx, span := r.tracer.Start(ctx, "SaveSlotRepository.List")
	defer span.End()

	span.SetAttributes(
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.table", "save_slots"),
	)

	rows, err := r.db.QueryContext(ctx,
		`SELECT name, size, saved_at FROM save_slots ORDER BY saved_at DESC`,
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("failed to query slots: %w", err)
	}
	defer rows.Close()

	var infos []savegame.SlotInfo
	for rows.Next() {
		var info savegame.SlotInfo
		if err := rows.Scan(&info.Name, &info.Size, &info.SavedAt); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("failed to scan slot: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, fmt.Errorf("error iterating slots: %w", err)
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
		attribute.String("db.slot_name", name),
		attribute.String("db.operation", "DELETE"),
		attribute.String("db.table", "save_slots"),
	)

	result, err := r.db.ExecContext(ctx, `DELETE FROM save_slots WHERE name = ?`, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to delete slot: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		span.SetStatus(otelcodes.Ok, "slot not found")
		return savegame.ErrSlotNotFound
	}

	span.SetStatus(otelcodes.Ok, "slot deleted")
	return nil
}

package savegame

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domainsave "shop-economy/internal/domain/savegame"
	"shop-economy/internal/domain/shop"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// SaveSlotApplicationService セーブスロットアプリケーションサービス
type SaveSlotApplicationService struct {
	gateway *Gateway
	repo    domainsave.SaveSlotRepository
	logger  *otelinfra.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewSaveSlotApplicationService 新しいSaveSlotApplicationServiceを作成
func NewSaveSlotApplicationService(
	gateway *Gateway,
	repo domainsave.SaveSlotRepository,
	logger *otelinfra.Logger,
) *SaveSlotApplicationService {
	return &SaveSlotApplicationService{
		gateway: gateway,
		repo:    repo,
		logger:  logger,
		tracer:  otel.Tracer("savegame-service"),
		now:     time.Now,
	}
}

// Save 現在の状態をスロットに保存
func (s *SaveSlotApplicationService) Save(ctx context.Context, name string) (*SaveResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SaveSlotApplicationService.Save")
	defer span.End()

	span.SetAttributes(attribute.String("slot", name))

	blob, err := s.gateway.SaveAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, "save", name, err)
	}

	slot, err := domainsave.NewSaveSlot(name, blob, s.now().UTC())
	if err != nil {
		return nil, s.fail(ctx, span, "save", name, err)
	}
	if err := s.repo.Save(ctx, slot); err != nil {
		return nil, s.fail(ctx, span, "save", name, err)
	}

	s.logger.Info(ctx, "Save slot written", map[string]interface{}{
		"slot": name,
		"size": slot.Size(),
	})
	return &SaveResponse{
		Slot:    name,
		Size:    slot.Size(),
		Shops:   len(s.gateway.registry.IDs()),
		SavedAt: slot.SavedAt(),
	}, nil
}

// Load スロットを読み込み、レジストリを置き換える
func (s *SaveSlotApplicationService) Load(ctx context.Context, name string) (*LoadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SaveSlotApplicationService.Load")
	defer span.End()

	span.SetAttributes(attribute.String("slot", name))

	slot, err := s.repo.Load(ctx, name)
	if err != nil {
		return nil, s.fail(ctx, span, "load", name, err)
	}

	result, err := s.gateway.LoadAll(ctx, slot.Data())
	if err != nil {
		return nil, s.fail(ctx, span, "load", name, err)
	}

	s.logger.Info(ctx, "Save slot loaded", map[string]interface{}{
		"slot":    name,
		"loaded":  len(result.Loaded),
		"corrupt": result.Failed(),
	})
	return &LoadResponse{Slot: name, Result: result}, nil
}

// List スロット一覧を取得
func (s *SaveSlotApplicationService) List(ctx context.Context) (*ListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "SaveSlotApplicationService.List")
	defer span.End()

	slots, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, "list", "", err)
	}
	span.SetAttributes(attribute.Int("slots", len(slots)))
	return &ListResponse{Slots: slots}, nil
}

// Delete スロットを削除
func (s *SaveSlotApplicationService) Delete(ctx context.Context, name string) error {
	ctx, span := s.tracer.Start(ctx, "SaveSlotApplicationService.Delete")
	defer span.End()

	span.SetAttributes(attribute.String("slot", name))

	if err := s.repo.Delete(ctx, name); err != nil {
		return s.fail(ctx, span, "delete", name, err)
	}
	s.logger.Info(ctx, "Save slot deleted", map[string]interface{}{
		"slot": name,
	})
	return nil
}

func (s *SaveSlotApplicationService) fail(ctx context.Context, span trace.Span, op, name string, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	fields := map[string]interface{}{
		"op":   op,
		"slot": name,
	}
	if errors.Is(err, domainsave.ErrSlotNotFound) ||
		errors.Is(err, domainsave.ErrInvalidSlotName) ||
		errors.Is(err, domainsave.ErrCorruptSave) ||
		errors.Is(err, shop.ErrShopInUse) {
		fields["error"] = err.Error()
		s.logger.Warn(ctx, "Save slot request rejected", fields)
		return err
	}
	s.logger.Error(ctx, "Save slot request failed", err, fields)
	return fmt.Errorf("failed to %s save slot: %w", op, err)
}

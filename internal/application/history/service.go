package history

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shop-economy/internal/domain/transaction"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// HistoryApplicationService 取引履歴アプリケーションサービス
type HistoryApplicationService struct {
	eventRepo transaction.EventRepository
	logger    *otelinfra.Logger
	metrics   *otelinfra.Metrics
	tracer    trace.Tracer
}

// NewHistoryApplicationService 新しいHistoryApplicationServiceを作成
func NewHistoryApplicationService(
	eventRepo transaction.EventRepository,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *HistoryApplicationService {
	return &HistoryApplicationService{
		eventRepo: eventRepo,
		logger:    logger,
		metrics:   metrics,
		tracer:    otel.Tracer("history-service"),
	}
}

// Handle 取引イベントを履歴に記録する（transaction.Subscriber）
func (s *HistoryApplicationService) Handle(ctx context.Context, ev *transaction.Event) error {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.Record")
	defer span.End()

	span.SetAttributes(
		attribute.String("event_id", ev.EventID()),
		attribute.String("shop_id", ev.ShopID()),
	)

	if err := s.eventRepo.Save(ctx, ev); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to record transaction event", err, map[string]interface{}{
			"event_id": ev.EventID(),
			"shop_id":  ev.ShopID(),
		})
		return fmt.Errorf("failed to record transaction event: %w", err)
	}
	return nil
}

// GetShopHistory ショップの取引履歴を新しい順で取得
func (s *HistoryApplicationService) GetShopHistory(ctx context.Context, req *GetShopHistoryRequest) (*GetShopHistoryResponse, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetShopHistory")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.Int("limit", req.Limit),
		attribute.Int("offset", req.Offset),
	)

	s.logger.Info(ctx, "Getting shop history", map[string]interface{}{
		"shop_id":          req.ShopID,
		"limit":            req.Limit,
		"offset":           req.Offset,
		"player_id":        req.PlayerID,
		"item_id":          req.ItemID,
		"transaction_type": req.TransactionType,
	})

	// バリデーション
	if req.Limit <= 0 {
		req.Limit = 50 // デフォルト値
	}
	if req.Limit > 100 {
		req.Limit = 100 // 最大値
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	var txType transaction.TransactionType
	if req.TransactionType != "" {
		t, err := transaction.NewTransactionType(req.TransactionType)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, err
		}
		txType = t
	}

	events, err := s.eventRepo.FindByShopID(ctx, req.ShopID, req.Limit, req.Offset)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Error(ctx, "Failed to get shop history", err, map[string]interface{}{
			"shop_id": req.ShopID,
		})
		return nil, fmt.Errorf("failed to get shop history: %w", err)
	}

	// フィルタリング
	filtered := make([]*transaction.Event, 0, len(events))
	for _, ev := range events {
		if req.PlayerID != "" && ev.PlayerID() != req.PlayerID {
			continue
		}
		if req.ItemID != "" && ev.Item().ID != req.ItemID {
			continue
		}
		if txType != "" && ev.TransactionType() != txType {
			continue
		}
		filtered = append(filtered, ev)
	}

	return &GetShopHistoryResponse{
		Events: filtered,
		Total:  len(filtered),
		Limit:  req.Limit,
		Offset: req.Offset,
	}, nil
}

// GetEvent イベントIDで取引イベントを取得
func (s *HistoryApplicationService) GetEvent(ctx context.Context, eventID string) (*transaction.Event, error) {
	ctx, span := s.tracer.Start(ctx, "HistoryApplicationService.GetEvent")
	defer span.End()

	span.SetAttributes(attribute.String("event_id", eventID))

	ev, err := s.eventRepo.FindByEventID(ctx, eventID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if errors.Is(err, transaction.ErrEventNotFound) {
			s.logger.Warn(ctx, "Transaction event not found", map[string]interface{}{
				"event_id": eventID,
			})
			return nil, err
		}
		s.logger.Error(ctx, "Failed to get transaction event", err, map[string]interface{}{
			"event_id": eventID,
		})
		return nil, fmt.Errorf("failed to get transaction event: %w", err)
	}
	return ev, nil
}

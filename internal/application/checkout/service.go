package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shop-economy/internal/domain/currency"
	"shop-economy/internal/domain/item"
	"shop-economy/internal/domain/service"
	"shop-economy/internal/domain/shop"
	"shop-economy/internal/domain/transaction"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// PriceQuoter 実効価格を計算する
type PriceQuoter interface {
	EffectivePrice(ctx context.Context, shopID string, ref item.Ref, txType transaction.TransactionType, now time.Time) (*service.Quote, error)
}

// CheckoutApplicationService 売買アプリケーションサービス
type CheckoutApplicationService struct {
	registry   *shop.Registry
	quoter     PriceQuoter
	settlement *service.SettlementService
	publisher  *transaction.Publisher
	logger     *otelinfra.Logger
	metrics    *otelinfra.Metrics
	tracer     trace.Tracer
	newID      func() string
}

// NewCheckoutApplicationService 新しいCheckoutApplicationServiceを作成
// publisherには台帳反映（settlement）が最初の購読者として登録済みであること
func NewCheckoutApplicationService(
	registry *shop.Registry,
	quoter PriceQuoter,
	settlement *service.SettlementService,
	publisher *transaction.Publisher,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *CheckoutApplicationService {
	return &CheckoutApplicationService{
		registry:   registry,
		quoter:     quoter,
		settlement: settlement,
		publisher:  publisher,
		logger:     logger,
		metrics:    metrics,
		tracer:     otel.Tracer("checkout-service"),
		newID:      uuid.NewString,
	}
}

// Purchase プレイヤーがショップからアイテムを購入
func (s *CheckoutApplicationService) Purchase(ctx context.Context, req *TradeRequest) (*TradeResponse, error) {
	return s.trade(ctx, req, transaction.TransactionTypeBuy)
}

// Sell プレイヤーがショップにアイテムを売却
func (s *CheckoutApplicationService) Sell(ctx context.Context, req *TradeRequest) (*TradeResponse, error) {
	return s.trade(ctx, req, transaction.TransactionTypeSell)
}

func (s *CheckoutApplicationService) trade(ctx context.Context, req *TradeRequest, txType transaction.TransactionType) (*TradeResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutApplicationService.Trade")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.String("player_id", req.PlayerID),
		attribute.String("item_id", req.ItemID),
		attribute.String("transaction_type", txType.String()),
		attribute.Int("quantity", req.Quantity),
	)

	s.logger.Info(ctx, "Processing trade", map[string]interface{}{
		"shop_id":          req.ShopID,
		"player_id":        req.PlayerID,
		"item_id":          req.ItemID,
		"transaction_type": txType.String(),
		"quantity":         req.Quantity,
	})

	if req.Quantity <= 0 || req.Quantity > transaction.MaxQuantity {
		err := transaction.ErrInvalidQuantity
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	// 取引中はショップを削除できない
	lease, err := s.registry.BeginTransaction(req.ShopID, req.PlayerID)
	if err != nil {
		return nil, s.fail(ctx, span, req, err)
	}
	defer lease.Release()

	q, err := s.quoter.EffectivePrice(ctx, req.ShopID, item.Ref{ID: req.ItemID, Category: req.Category}, txType, req.Now)
	if err != nil {
		return nil, s.fail(ctx, span, req, err)
	}

	ev, err := transaction.NewEvent(
		s.newID(),
		req.ShopID,
		req.PlayerID,
		q.Item,
		txType,
		req.Quantity,
		q.Price,
		req.Now,
	)
	if err != nil {
		return nil, s.fail(ctx, span, req, err)
	}
	span.SetAttributes(
		attribute.String("event_id", ev.EventID()),
		attribute.Int64("unit_price", ev.EffectivePrice()),
		attribute.Int64("total", ev.Total()),
	)

	if txType.IsBuy() && !s.settlement.HasSufficientBalance(ctx, req.PlayerID, ev.Total()) {
		return nil, s.fail(ctx, span, req, fmt.Errorf("%w: need %d", currency.ErrInsufficientBalance, ev.Total()))
	}

	if err := s.publisher.Publish(ctx, ev); err != nil {
		if errors.Is(err, transaction.ErrNotSettled) {
			return nil, s.fail(ctx, span, req, err)
		}
		// 台帳反映後の購読者の失敗は取引を取り消さない
		s.logger.Error(ctx, "Trade settled but a subscriber failed", err, map[string]interface{}{
			"event_id": ev.EventID(),
			"shop_id":  req.ShopID,
		})
	}

	inst := lease.Instance()
	s.metrics.RecordTransaction(ctx, txType.String())
	s.metrics.RecordShopBalance(ctx, inst.ID(), inst.Balance())

	s.logger.Info(ctx, "Trade completed", map[string]interface{}{
		"event_id":   ev.EventID(),
		"shop_id":    req.ShopID,
		"player_id":  req.PlayerID,
		"unit_price": ev.EffectivePrice(),
		"total":      ev.Total(),
	})

	return &TradeResponse{
		EventID:         ev.EventID(),
		ShopID:          req.ShopID,
		PlayerID:        req.PlayerID,
		ItemID:          ev.Item().ID,
		TransactionType: txType.String(),
		Quantity:        ev.Quantity(),
		UnitPrice:       ev.EffectivePrice(),
		Total:           ev.Total(),
		PlayerBalance:   s.registry.Wallets().Balance(req.PlayerID),
		ShopBalance:     inst.Balance(),
		AppliedIDs:      q.Applied,
	}, nil
}

// GrantFunds プレイヤーに所持金を付与
func (s *CheckoutApplicationService) GrantFunds(ctx context.Context, req *GrantFundsRequest) (*FundsResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CheckoutApplicationService.GrantFunds")
	defer span.End()

	span.SetAttributes(
		attribute.String("player_id", req.PlayerID),
		attribute.Int64("amount", req.Amount),
	)

	if err := s.registry.Wallets().Grant(req.PlayerID, req.Amount); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logger.Warn(ctx, "Grant funds rejected", map[string]interface{}{
			"player_id": req.PlayerID,
			"amount":    req.Amount,
			"error":     err.Error(),
		})
		return nil, err
	}

	s.logger.Info(ctx, "Funds granted", map[string]interface{}{
		"player_id": req.PlayerID,
		"amount":    req.Amount,
	})
	return &FundsResponse{
		PlayerID: req.PlayerID,
		Balance:  s.registry.Wallets().Balance(req.PlayerID),
	}, nil
}

// GetFunds プレイヤーの所持金を取得
func (s *CheckoutApplicationService) GetFunds(ctx context.Context, playerID string) (*FundsResponse, error) {
	_, span := s.tracer.Start(ctx, "CheckoutApplicationService.GetFunds")
	defer span.End()

	span.SetAttributes(attribute.String("player_id", playerID))

	return &FundsResponse{
		PlayerID: playerID,
		Balance:  s.registry.Wallets().Balance(playerID),
	}, nil
}

func (s *CheckoutApplicationService) fail(ctx context.Context, span trace.Span, req *TradeRequest, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	fields := map[string]interface{}{
		"shop_id":   req.ShopID,
		"player_id": req.PlayerID,
		"item_id":   req.ItemID,
	}
	if errors.Is(err, item.ErrUnknownItem) ||
		errors.Is(err, item.ErrItemNotTradable) ||
		errors.Is(err, shop.ErrUnknownShop) ||
		errors.Is(err, currency.ErrInsufficientBalance) ||
		errors.Is(err, transaction.ErrInvalidEvent) {
		fields["error"] = err.Error()
		s.logger.Warn(ctx, "Trade rejected", fields)
		return err
	}
	s.logger.Error(ctx, "Trade failed", err, fields)
	return fmt.Errorf("failed to complete trade: %w", err)
}

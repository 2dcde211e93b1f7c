package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"shop-economy/internal/domain/item"
	"shop-economy/internal/domain/modifier"
	"shop-economy/internal/domain/service"
	"shop-economy/internal/domain/shop"
	"shop-economy/internal/domain/transaction"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// ItemLister カタログの全エントリを列挙する
type ItemLister interface {
	Entries() []*item.Entry
}

const priceListConcurrency = 8

// PricingApplicationService 価格アプリケーションサービス
type PricingApplicationService struct {
	pricing *service.PricingService
	items   ItemLister
	cache   *PriceCache
	logger  *otelinfra.Logger
	metrics *otelinfra.Metrics
	tracer  trace.Tracer
}

// NewPricingApplicationService 新しいPricingApplicationServiceを作成
func NewPricingApplicationService(
	pricing *service.PricingService,
	items ItemLister,
	cache *PriceCache,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *PricingApplicationService {
	return &PricingApplicationService{
		pricing: pricing,
		items:   items,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("pricing-service"),
	}
}

// GetEffectivePrice 実効価格を取得
func (s *PricingApplicationService) GetEffectivePrice(ctx context.Context, req *GetPriceRequest) (*GetPriceResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PricingApplicationService.GetEffectivePrice")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.String("item_id", req.ItemID),
		attribute.String("transaction_type", req.TransactionType),
	)

	txType, err := transaction.NewTransactionType(req.TransactionType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	// 世代は計算前に一度だけ読む
	gen := s.cache.Generation(req.ShopID)
	if q, ok := s.cache.Get(gen, req.ShopID, req.ItemID, txType, req.Now); ok {
		s.metrics.RecordPriceCacheHit(ctx)
		span.SetAttributes(attribute.Bool("cache_hit", true), attribute.Int64("price", q.Price))
		return &GetPriceResponse{Quote: q, Cached: true}, nil
	}

	q, err := s.pricing.EffectivePrice(ctx, req.ShopID, item.Ref{ID: req.ItemID, Category: req.Category}, txType, req.Now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logPriceError(ctx, err, req.ShopID, req.ItemID)
		return nil, err
	}

	s.cache.Add(gen, req.ShopID, req.ItemID, txType, q)
	s.metrics.RecordPriceComputation(ctx, txType.String())
	span.SetAttributes(attribute.Bool("cache_hit", false), attribute.Int64("price", q.Price))

	return &GetPriceResponse{Quote: q}, nil
}

// GetPriceList カタログの全アイテムについて実効価格を取得
// 売買不可のアイテムはTradable=falseで返す
func (s *PricingApplicationService) GetPriceList(ctx context.Context, req *PriceListRequest) (*PriceListResponse, error) {
	ctx, span := s.tracer.Start(ctx, "PricingApplicationService.GetPriceList")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.String("transaction_type", req.TransactionType),
	)

	txType, err := transaction.NewTransactionType(req.TransactionType)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}

	entries := s.items.Entries()
	out := make([]PriceListEntry, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(priceListConcurrency)
	for i, e := range entries {
		g.Go(func() error {
			ref := e.Ref()
			out[i] = PriceListEntry{ItemID: ref.ID, Category: ref.Category}
			q, err := s.pricing.EffectivePrice(gctx, req.ShopID, ref, txType, req.Now)
			if errors.Is(err, item.ErrItemNotTradable) {
				return nil
			}
			if err != nil {
				return err
			}
			out[i].Quote = q
			out[i].Tradable = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		s.logPriceError(ctx, err, req.ShopID, "")
		return nil, fmt.Errorf("failed to build price list: %w", err)
	}

	s.metrics.RecordPriceComputation(ctx, txType.String())
	span.SetAttributes(attribute.Int("count", len(out)))

	return &PriceListResponse{ShopID: req.ShopID, Entries: out}, nil
}

// Preview candidateを仮に適用した実効価格を計算する。ストアもキャッシュも変更しない
func (s *PricingApplicationService) Preview(ctx context.Context, shopID string, ref item.Ref, txType transaction.TransactionType, now time.Time, candidate *modifier.Modifier) (*service.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "PricingApplicationService.Preview")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", shopID),
		attribute.String("item_id", ref.ID),
		attribute.String("modifier_id", candidate.ID()),
	)

	q, err := s.pricing.PreviewWith(ctx, shopID, ref, txType, now, candidate)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		return nil, err
	}
	return q, nil
}

// InvalidateShop ショップの価格が変わった可能性を通知する
func (s *PricingApplicationService) InvalidateShop(ctx context.Context, shopID string, scope modifier.Scope) {
	s.cache.InvalidateShop(shopID)
	s.logger.Debug(ctx, "Price cache invalidated", map[string]interface{}{
		"shop_id": shopID,
		"scope":   scope.String(),
	})
}

// InvalidateAll 全ショップのキャッシュを破棄する
func (s *PricingApplicationService) InvalidateAll(ctx context.Context) {
	s.cache.Purge()
	s.logger.Debug(ctx, "Price cache purged", nil)
}

func (s *PricingApplicationService) logPriceError(ctx context.Context, err error, shopID, itemID string) {
	fields := map[string]interface{}{
		"shop_id": shopID,
		"item_id": itemID,
	}
	// 呼び出し元の入力誤りはWARN
	if errors.Is(err, item.ErrUnknownItem) || errors.Is(err, shop.ErrUnknownShop) || errors.Is(err, item.ErrItemNotTradable) {
		fields["error"] = err.Error()
		s.logger.Warn(ctx, "Price lookup rejected", fields)
		return
	}
	s.logger.Error(ctx, "Failed to compute price", err, fields)
}

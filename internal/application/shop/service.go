package shop

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shop-economy/internal/domain/modifier"
	"shop-economy/internal/domain/shop"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// CacheInvalidator ショップ単位で価格キャッシュを破棄する
type CacheInvalidator interface {
	InvalidateShop(ctx context.Context, shopID string, scope modifier.Scope)
}

// ShopApplicationService ショップインスタンスアプリケーションサービス
type ShopApplicationService struct {
	registry *shop.Registry
	cache    CacheInvalidator
	logger   *otelinfra.Logger
	metrics  *otelinfra.Metrics
	tracer   trace.Tracer
}

// NewShopApplicationService 新しいShopApplicationServiceを作成
func NewShopApplicationService(
	registry *shop.Registry,
	cache CacheInvalidator,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *ShopApplicationService {
	return &ShopApplicationService{
		registry: registry,
		cache:    cache,
		logger:   logger,
		metrics:  metrics,
		tracer:   otel.Tracer("shop-service"),
	}
}

// GetOrCreate ショップを取得し、存在しなければ作成
func (s *ShopApplicationService) GetOrCreate(ctx context.Context, req *GetOrCreateRequest) (*ShopInfo, error) {
	ctx, span := s.tracer.Start(ctx, "ShopApplicationService.GetOrCreate")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.Bool("shared", req.Shared),
	)

	inst, created, err := s.registry.GetOrCreate(req.ShopID, req.Shared)
	if err != nil {
		return nil, s.fail(ctx, span, "get_or_create", req.ShopID, err)
	}

	if created {
		s.logger.Info(ctx, "Shop instance created", map[string]interface{}{
			"shop_id": req.ShopID,
			"shared":  req.Shared,
		})
		s.metrics.RecordShopBalance(ctx, inst.ID(), inst.Balance())
	}

	info := describe(inst)
	info.Created = created
	return &info, nil
}

// Get ショップの概要を取得
func (s *ShopApplicationService) Get(ctx context.Context, shopID string) (*ShopInfo, error) {
	ctx, span := s.tracer.Start(ctx, "ShopApplicationService.Get")
	defer span.End()

	span.SetAttributes(attribute.String("shop_id", shopID))

	inst, err := s.registry.Get(shopID)
	if err != nil {
		return nil, s.fail(ctx, span, "get", shopID, err)
	}
	info := describe(inst)
	return &info, nil
}

// List 全ショップの概要をID順で取得
func (s *ShopApplicationService) List(ctx context.Context) (*ListResponse, error) {
	_, span := s.tracer.Start(ctx, "ShopApplicationService.List")
	defer span.End()

	instances := s.registry.Instances()
	resp := &ListResponse{Shops: make([]ShopInfo, 0, len(instances))}
	for _, inst := range instances {
		resp.Shops = append(resp.Shops, describe(inst))
	}
	span.SetAttributes(attribute.Int("shops", len(resp.Shops)))
	return resp, nil
}

// Delete ショップと修飾子ストアを削除
// 他の呼び出し元が取引中の場合はshop.ErrShopInUse
func (s *ShopApplicationService) Delete(ctx context.Context, req *DeleteRequest) error {
	ctx, span := s.tracer.Start(ctx, "ShopApplicationService.Delete")
	defer span.End()

	span.SetAttributes(
		attribute.String("shop_id", req.ShopID),
		attribute.String("requester", req.Requester),
	)

	if err := s.registry.Delete(req.ShopID, req.Requester); err != nil {
		return s.fail(ctx, span, "delete", req.ShopID, err)
	}
	if s.cache != nil {
		s.cache.InvalidateShop(ctx, req.ShopID, modifier.ShopScope())
	}

	s.logger.Info(ctx, "Shop instance deleted", map[string]interface{}{
		"shop_id":   req.ShopID,
		"requester": req.Requester,
	})
	return nil
}

func describe(inst *shop.Instance) ShopInfo {
	return ShopInfo{
		ShopID:       inst.ID(),
		Shared:       inst.Shared(),
		Balance:      inst.Balance(),
		Modifiers:    inst.Store().Len(),
		ActiveLeases: inst.ActiveLeases(),
	}
}

func (s *ShopApplicationService) fail(ctx context.Context, span trace.Span, op, shopID string, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())

	fields := map[string]interface{}{
		"op":      op,
		"shop_id": shopID,
	}
	switch {
	case errors.Is(err, shop.ErrShopInUse):
		// 取引終了後に再試行できる
		fields["error"] = err.Error()
		s.logger.Warn(ctx, "Shop is in use", fields)
		return err
	case errors.Is(err, shop.ErrUnknownShop), errors.Is(err, shop.ErrInvalidShopID):
		fields["error"] = err.Error()
		s.logger.Warn(ctx, "Shop request rejected", fields)
		return err
	}
	s.logger.Error(ctx, "Shop request failed", err, fields)
	return fmt.Errorf("failed to %s shop: %w", op, err)
}

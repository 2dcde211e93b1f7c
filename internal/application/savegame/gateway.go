package savegame

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"shop-economy/internal/domain/audit"
	domainsave "shop-economy/internal/domain/savegame"
	"shop-economy/internal/domain/shop"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// decodeConcurrency ショップ単位の復元を並行して行う最大数
const decodeConcurrency = 8

// Invalidator ロード後に価格キャッシュを破棄する
type Invalidator interface {
	InvalidateAll(ctx context.Context)
}

// Gateway レジストリ全体と保存データを相互変換する
type Gateway struct {
	registry    *shop.Registry
	auditLog    *audit.Log
	invalidator Invalidator
	logger      *otelinfra.Logger
	metrics     *otelinfra.Metrics
	tracer      trace.Tracer
	now         func() time.Time
}

// NewGateway 新しいGatewayを作成
// invalidatorはnilでもよい
func NewGateway(
	registry *shop.Registry,
	auditLog *audit.Log,
	invalidator Invalidator,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
) *Gateway {
	return &Gateway{
		registry:    registry,
		auditLog:    auditLog,
		invalidator: invalidator,
		logger:      logger,
		metrics:     metrics,
		tracer:      otel.Tracer("savegame-gateway"),
		now:         time.Now,
	}
}

// SaveAll 全ショップ・所持金・監査ログを1つのblobに書き出す
func (g *Gateway) SaveAll(ctx context.Context) ([]byte, error) {
	ctx, span := g.tracer.Start(ctx, "Gateway.SaveAll")
	defer span.End()

	instances := g.registry.Instances()
	env := envelope{
		Version: FormatVersion,
		SavedAt: g.now().UTC(),
		Shops:   make(map[string][]byte, len(instances)),
		Wallets: g.registry.Wallets().Snapshot(),
	}

	live := make(map[string]struct{}, len(instances))
	for _, inst := range instances {
		live[inst.ID()] = struct{}{}
		rec := shopRecord{
			ID:        inst.ID(),
			Shared:    inst.Shared(),
			Modifiers: inst.Store().Snapshot(),
			Takings:   inst.Takings().Snapshot(),
			Audit:     g.auditLog.ForShop(inst.ID()),
		}
		raw, err := json.Marshal(rec)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			g.logger.Error(ctx, "Failed to encode shop state", err, map[string]interface{}{
				"shop_id": inst.ID(),
			})
			return nil, fmt.Errorf("failed to encode shop %s: %w", inst.ID(), err)
		}
		env.Shops[inst.ID()] = raw
	}

	// 削除済みショップの監査履歴も残す
	for _, e := range g.auditLog.Entries() {
		if _, ok := live[e.ShopID]; !ok {
			env.Archived = append(env.Archived, e)
		}
	}

	blob, err := json.Marshal(env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		g.logger.Error(ctx, "Failed to encode save data", err, nil)
		return nil, fmt.Errorf("failed to encode save data: %w", err)
	}

	span.SetAttributes(
		attribute.Int("shops", len(instances)),
		attribute.Int("bytes", len(blob)),
	)
	g.logger.Info(ctx, "Save data written", map[string]interface{}{
		"shops": len(instances),
		"bytes": len(blob),
	})
	return blob, nil
}

// LoadAll blobからレジストリを復元する
// 壊れたショップはShopErrorsに記録し、残りのショップは読み込む
// blob全体が読めない場合はErrCorruptSaveを返し、現在の状態は変更しない
func (g *Gateway) LoadAll(ctx context.Context, blob []byte) (*LoadResult, error) {
	ctx, span := g.tracer.Start(ctx, "Gateway.LoadAll")
	defer span.End()

	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return nil, g.failLoad(ctx, span, fmt.Errorf("%w: %v", domainsave.ErrCorruptSave, err))
	}
	if env.Version != FormatVersion {
		return nil, g.failLoad(ctx, span, fmt.Errorf("%w: unsupported version %d", domainsave.ErrCorruptSave, env.Version))
	}

	ids := make([]string, 0, len(env.Shops))
	for id := range env.Shops {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var (
		mu        sync.Mutex
		instances []*shop.Instance
		entries   []audit.Entry
		shopErrs  []*domainsave.CorruptShopStateError
	)

	// 各ショップの失敗はグループを止めずに記録する
	var eg errgroup.Group
	eg.SetLimit(decodeConcurrency)
	for _, id := range ids {
		raw := env.Shops[id]
		eg.Go(func() error {
			inst, shopAudit, err := g.decodeShop(id, raw)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				shopErrs = append(shopErrs, &domainsave.CorruptShopStateError{ShopID: id, Err: err})
				return nil
			}
			instances = append(instances, inst)
			entries = append(entries, shopAudit...)
			return nil
		})
	}
	_ = eg.Wait()

	sort.Slice(instances, func(i, j int) bool { return instances[i].ID() < instances[j].ID() })
	sort.Slice(shopErrs, func(i, j int) bool { return shopErrs[i].ShopID < shopErrs[j].ShopID })

	if err := g.registry.Replace(instances, env.Wallets); err != nil {
		return nil, g.failLoad(ctx, span, err)
	}
	g.auditLog.Restore(append(entries, env.Archived...))
	if g.invalidator != nil {
		g.invalidator.InvalidateAll(ctx)
	}

	result := &LoadResult{
		Version:     env.Version,
		SavedAt:     env.SavedAt,
		Loaded:      make([]string, 0, len(instances)),
		ShopErrors:  shopErrs,
		WalletCount: len(env.Wallets),
	}
	for _, inst := range instances {
		result.Loaded = append(result.Loaded, inst.ID())
	}

	for _, se := range shopErrs {
		g.metrics.RecordCorruptShopState(ctx)
		span.RecordError(se)
		g.logger.Warn(ctx, "Shop state could not be loaded", map[string]interface{}{
			"shop_id": se.ShopID,
			"error":   se.Err.Error(),
		})
	}

	span.SetAttributes(
		attribute.Int("loaded", len(result.Loaded)),
		attribute.Int("corrupt", len(shopErrs)),
	)
	g.logger.Info(ctx, "Save data loaded", map[string]interface{}{
		"loaded":  len(result.Loaded),
		"corrupt": len(shopErrs),
	})
	return result, nil
}

func (g *Gateway) decodeShop(id string, raw []byte) (*shop.Instance, []audit.Entry, error) {
	var rec shopRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, nil, err
	}
	if rec.ID != id {
		return nil, nil, fmt.Errorf("record id %q does not match key", rec.ID)
	}

	inst, err := g.registry.NewInstance(id, rec.Shared)
	if err != nil {
		return nil, nil, err
	}
	if err := inst.Store().Restore(rec.Modifiers); err != nil {
		return nil, nil, fmt.Errorf("modifiers: %w", err)
	}
	if err := inst.Takings().Restore(rec.Takings); err != nil {
		return nil, nil, fmt.Errorf("takings: %w", err)
	}
	for _, e := range rec.Audit {
		if e.ShopID != id {
			return nil, nil, fmt.Errorf("audit entry %s belongs to shop %q", e.ID, e.ShopID)
		}
	}
	return inst, rec.Audit, nil
}

func (g *Gateway) failLoad(ctx context.Context, span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(otelcodes.Error, err.Error())
	g.logger.Error(ctx, "Failed to load save data", err, nil)
	return err
}

// Package economy はショップ経済の各アプリケーションサービスを組み立てる。
//
// 価格計算・スペシャル編集・売買・セーブは同じRegistryと監査ログを共有し、
// スペシャルの変更は価格キャッシュへ、取引は台帳と履歴へ通知される。
package economy

import (
	"fmt"

	"shop-economy/internal/application/checkout"
	"shop-economy/internal/application/devtools"
	"shop-economy/internal/application/history"
	"shop-economy/internal/application/pricing"
	"shop-economy/internal/application/savegame"
	shopapp "shop-economy/internal/application/shop"
	"shop-economy/internal/application/specials"
	"shop-economy/internal/domain/audit"
	"shop-economy/internal/domain/devmenu"
	"shop-economy/internal/domain/item"
	"shop-economy/internal/domain/modifier"
	domainsave "shop-economy/internal/domain/savegame"
	"shop-economy/internal/domain/service"
	"shop-economy/internal/domain/shop"
	"shop-economy/internal/domain/transaction"
	otelinfra "shop-economy/internal/infrastructure/observability/otel"
)

// Catalog アイテムカタログ
type Catalog interface {
	item.Catalog
	Entries() []*item.Entry
	BasePrices(itemID string) (buy, sell int64, ok bool)
}

// Options 価格ポリシーと開発者ツールの設定
type Options struct {
	PriceFloor      int64
	PriceCeiling    int64
	PriceCacheSize  int
	DevToolsEnabled bool
}

// Dependencies 外部から渡す依存
type Dependencies struct {
	Catalog Catalog
	Events  transaction.EventRepository
	Slots   domainsave.SaveSlotRepository
	Logger  *otelinfra.Logger
	Metrics *otelinfra.Metrics
}

// Engine 組み立て済みのサービス群
type Engine struct {
	Registry    *shop.Registry
	AuditLog    *audit.Log
	Pricing     *pricing.PricingApplicationService
	Specials    *specials.SpecialsEditorService
	Checkout    *checkout.CheckoutApplicationService
	Shops       *shopapp.ShopApplicationService
	History     *history.HistoryApplicationService
	Gateway     *savegame.Gateway
	Saves       *savegame.SaveSlotApplicationService
	DevTools    *devtools.DevToolsApplicationService
	DevServices *devmenu.ServiceRegistry
}

// New サービス群を組み立てる
func New(opts Options, deps Dependencies) (*Engine, error) {
	if deps.Catalog == nil || deps.Events == nil || deps.Slots == nil {
		return nil, fmt.Errorf("catalog, event repository and save slot repository are required")
	}
	if opts.PriceCacheSize <= 0 {
		opts.PriceCacheSize = 1024
	}

	registry := shop.NewRegistry(shop.WithStoreOptions(
		modifier.WithFloorCheck(opts.PriceFloor, deps.Catalog.BasePrices),
	))
	policy := service.PricePolicy{Floor: opts.PriceFloor, Ceiling: opts.PriceCeiling}
	pricingService := service.NewPricingService(registry, deps.Catalog, policy)

	cache, err := pricing.NewPriceCache(opts.PriceCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create price cache: %w", err)
	}
	pricingApp := pricing.NewPricingApplicationService(pricingService, deps.Catalog, cache, deps.Logger, deps.Metrics)

	auditLog := audit.NewLog()
	editor := specials.NewSpecialsEditorService(registry, pricingApp, auditLog, deps.Logger, deps.Metrics)
	editor.Subscribe(pricingApp)

	historyApp := history.NewHistoryApplicationService(deps.Events, deps.Logger, deps.Metrics)

	// 台帳反映を最初に登録する。失敗した取引は履歴に残さない
	settlement := service.NewSettlementService(registry, registry.Wallets())
	publisher := transaction.NewPublisher()
	publisher.Subscribe("ledger", settlement)
	publisher.Subscribe("history", historyApp)

	checkoutApp := checkout.NewCheckoutApplicationService(registry, pricingService, settlement, publisher, deps.Logger, deps.Metrics)
	shopApp := shopapp.NewShopApplicationService(registry, pricingApp, deps.Logger, deps.Metrics)

	gateway := savegame.NewGateway(registry, auditLog, pricingApp, deps.Logger, deps.Metrics)
	saves := savegame.NewSaveSlotApplicationService(gateway, deps.Slots, deps.Logger)

	devServices := devmenu.NewServiceRegistry()
	host := devtools.NewHostMenu(registry, saves, pricingApp)
	devApp, err := devtools.NewDevToolsApplicationService(host.Build, devmenu.NewExtensionPoint(), devServices, deps.Logger)
	if err != nil {
		return nil, err
	}
	if opts.DevToolsEnabled {
		devServices.Register(devmenu.SpecialsEditorName, devtools.NewSpecialsCreatorLauncher(editor, registry))
	}

	return &Engine{
		Registry:    registry,
		AuditLog:    auditLog,
		Pricing:     pricingApp,
		Specials:    editor,
		Checkout:    checkoutApp,
		Shops:       shopApp,
		History:     historyApp,
		Gateway:     gateway,
		Saves:       saves,
		DevTools:    devApp,
		DevServices: devServices,
	}, nil
}

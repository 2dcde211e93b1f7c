package devtools

import (
	"context"
	"fmt"

	"shop-economy/internal/application/savegame"
	"shop-economy/internal/domain/devmenu"
)

// QuickSlot クイックセーブに使うスロット名
const QuickSlot = "quicksave"

// ShopDirectory 登録済みショップの一覧
type ShopDirectory interface {
	IDs() []string
}

// SlotStore セーブスロットの保存と読み込み
type SlotStore interface {
	Save(ctx context.Context, name string) (*savegame.SaveResponse, error)
	Load(ctx context.Context, name string) (*savegame.LoadResponse, error)
}

// PriceCachePurger 価格キャッシュを全て破棄する
type PriceCachePurger interface {
	InvalidateAll(ctx context.Context)
}

// HostMenu ホスト側の開発者メニュー
type HostMenu struct {
	shops ShopDirectory
	slots SlotStore
	cache PriceCachePurger
}

// NewHostMenu 新しいHostMenuを作成
func NewHostMenu(shops ShopDirectory, slots SlotStore, cache PriceCachePurger) *HostMenu {
	return &HostMenu{shops: shops, slots: slots, cache: cache}
}

// Build メニューを組み立てる（devmenu.Builder）
func (h *HostMenu) Build() (*devmenu.Menu, error) {
	return devmenu.NewMenu("Developer Tools",
		devmenu.Option{
			Key:         "list_shops",
			Label:       "List Shops",
			Description: "Show every registered shop instance",
			Action:      h.listShops,
		},
		devmenu.Option{
			Key:         "quick_save",
			Label:       "Quick Save",
			Description: "Write the current economy to the quick save slot",
			Action:      h.quickSave,
		},
		devmenu.Option{
			Key:         "quick_load",
			Label:       "Quick Load",
			Description: "Restore the economy from the quick save slot",
			Action:      h.quickLoad,
		},
		devmenu.Option{
			Key:         "purge_price_cache",
			Label:       "Purge Price Cache",
			Description: "Drop every cached effective price",
			Action:      h.purgeCache,
		},
	)
}

func (h *HostMenu) listShops(ctx context.Context, args map[string]string) (*devmenu.Result, error) {
	ids := h.shops.IDs()
	return &devmenu.Result{
		Message: fmt.Sprintf("%d shops registered", len(ids)),
		Data:    map[string]interface{}{"shops": ids},
	}, nil
}

func (h *HostMenu) quickSave(ctx context.Context, args map[string]string) (*devmenu.Result, error) {
	resp, err := h.slots.Save(ctx, slotArg(args))
	if err != nil {
		return nil, err
	}
	return &devmenu.Result{
		Message: fmt.Sprintf("Saved %d shops to %s", resp.Shops, resp.Slot),
		Data: map[string]interface{}{
			"slot": resp.Slot,
			"size": resp.Size,
		},
	}, nil
}

func (h *HostMenu) quickLoad(ctx context.Context, args map[string]string) (*devmenu.Result, error) {
	resp, err := h.slots.Load(ctx, slotArg(args))
	if err != nil {
		return nil, err
	}
	res := &devmenu.Result{
		Message: fmt.Sprintf("Loaded %d shops from %s", len(resp.Result.Loaded), resp.Slot),
		Data: map[string]interface{}{
			"loaded": resp.Result.Loaded,
			"failed": resp.Result.Failed(),
		},
	}
	if n := len(resp.Result.ShopErrors); n > 0 {
		res.Notice = fmt.Sprintf("%d shops could not be loaded", n)
	}
	return res, nil
}

func (h *HostMenu) purgeCache(ctx context.Context, args map[string]string) (*devmenu.Result, error) {
	h.cache.InvalidateAll(ctx)
	return &devmenu.Result{Message: "Price cache purged"}, nil
}

func slotArg(args map[string]string) string {
	if s := args["slot"]; s != "" {
		return s
	}
	return QuickSlot
}

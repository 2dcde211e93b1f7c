package devtools

import (
	"context"
	"fmt"
	"time"

	"shop-economy/internal/application/specials"
	"shop-economy/internal/domain/devmenu"
)

// SpecialsLister スペシャル一覧の取得
type SpecialsLister interface {
	List(ctx context.Context, req *specials.ListRequest) (*specials.ListResponse, error)
}

// SpecialsCreatorLauncher スペシャル作成ツールの入口
// 対象ショップの現在のスペシャルを返し、編集はスペシャルAPIで行う
type SpecialsCreatorLauncher struct {
	editor SpecialsLister
	shops  ShopDirectory
	now    func() time.Time
}

// NewSpecialsCreatorLauncher 新しいSpecialsCreatorLauncherを作成
func NewSpecialsCreatorLauncher(editor SpecialsLister, shops ShopDirectory) *SpecialsCreatorLauncher {
	return &SpecialsCreatorLauncher{editor: editor, shops: shops, now: time.Now}
}

// Launch devmenu.Launcher
// shop_id省略時は選択可能なショップ一覧を返す
func (l *SpecialsCreatorLauncher) Launch(ctx context.Context, args map[string]string) (*devmenu.Result, error) {
	shopID := args["shop_id"]
	if shopID == "" {
		return &devmenu.Result{
			Message: "Specials Creator: choose a shop",
			Data:    map[string]interface{}{"shops": l.shops.IDs()},
		}, nil
	}

	resp, err := l.editor.List(ctx, &specials.ListRequest{ShopID: shopID, Now: l.now()})
	if err != nil {
		return nil, err
	}
	return &devmenu.Result{
		Message: fmt.Sprintf("Specials Creator: %d specials in %s", len(resp.Modifiers), shopID),
		Data: map[string]interface{}{
			"shop_id":   shopID,
			"modifiers": resp.Modifiers,
		},
	}, nil
}

package transaction

import (
	"context"
)

// EventRepository 取引イベントリポジトリインターフェース
type EventRepository interface {
	// Save 取引イベントを保存
	Save(ctx context.Context, event *Event) error

	// FindByEventID イベントIDで取引イベントを取得
	FindByEventID(ctx context.Context, eventID string) (*Event, error)

	// FindByShopID ショップIDで取引イベント一覧を取得（ページネーション対応）
	FindByShopID(ctx context.Context, shopID string, limit, offset int) ([]*Event, error)
}

package savegame

import (
	"context"
)

// SaveSlotRepository セーブスロットリポジトリインターフェース
type SaveSlotRepository interface {
	// Save スロットを保存（同名は上書き）
	Save(ctx context.Context, slot *SaveSlot) error

	// Load スロット名で取得
	Load(ctx context.Context, name string) (*SaveSlot, error)

	// List スロット一覧を保存時刻の新しい順で取得
	List(ctx context.Context) ([]SlotInfo, error)

	// Delete スロットを削除
	Delete(ctx context.Context, name string) error
}

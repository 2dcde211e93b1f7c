package savegame

import (
	"errors"
	"fmt"
)

var (
	// ErrSlotNotFound セーブスロットが見つからない
	ErrSlotNotFound = errors.New("save slot not found")
	// ErrInvalidSlotName スロット名が無効
	ErrInvalidSlotName = errors.New("invalid save slot name")
	// ErrCorruptShopState ショップ単位の保存データが壊れている
	ErrCorruptShopState = errors.New("corrupt shop state")
	// ErrCorruptSave セーブデータ全体が読めない
	ErrCorruptSave = errors.New("corrupt save data")
)

// CorruptShopStateError ショップ単位のロード失敗
type CorruptShopStateError struct {
	ShopID string
	Err    error
}

func (e *CorruptShopStateError) Error() string {
	return fmt.Sprintf("corrupt shop state %s: %v", e.ShopID, e.Err)
}

// Is errors.Is(err, ErrCorruptShopState) を満たす
func (e *CorruptShopStateError) Is(target error) bool {
	return target == ErrCorruptShopState
}

func (e *CorruptShopStateError) Unwrap() error {
	return e.Err
}

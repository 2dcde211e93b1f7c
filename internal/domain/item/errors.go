package item

import "errors"

var (
	// ErrUnknownItem カタログに存在しないアイテム
	ErrUnknownItem = errors.New("unknown item")
	// ErrItemNotTradable 売買できないアイテム
	ErrItemNotTradable = errors.New("item not tradable")
	// ErrInvalidItemID アイテムIDが無効
	ErrInvalidItemID = errors.New("invalid item id")
	// ErrInvalidBasePrice 基本価格が無効
	ErrInvalidBasePrice = errors.New("invalid base price")
)

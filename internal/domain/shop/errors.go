package shop

import "errors"

var (
	// ErrUnknownShop ショップが見つからない
	ErrUnknownShop = errors.New("unknown shop")
	// ErrShopInUse 他の呼び出し元が取引中
	ErrShopInUse = errors.New("shop in use")
	// ErrInvalidShopID ショップIDが無効
	ErrInvalidShopID = errors.New("invalid shop id")
)

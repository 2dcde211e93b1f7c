package transaction

import "errors"

var (
	// ErrInvalidEvent 無効な取引イベント
	ErrInvalidEvent = errors.New("invalid transaction event")
	// ErrInvalidQuantity 数量が無効
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrEventNotFound 取引イベントが見つからない
	ErrEventNotFound = errors.New("transaction event not found")
	// ErrNotSettled 最初の購読者（台帳）が失敗し、取引が成立しなかった
	ErrNotSettled = errors.New("transaction not settled")
)

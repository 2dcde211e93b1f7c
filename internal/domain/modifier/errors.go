package modifier

import "errors"

var (
	// ErrInvalidModifier 修飾子定義が無効
	ErrInvalidModifier = errors.New("invalid modifier")
	// ErrNoopModifier 効果のない修飾子（倍率0など）
	ErrNoopModifier = errors.New("noop modifier")
	// ErrAlreadyExpired 有効期間が既に終了している
	ErrAlreadyExpired = errors.New("modifier already expired")
	// ErrModifierNotFound 修飾子が見つからない
	ErrModifierNotFound = errors.New("modifier not found")
)

package devmenu

import "errors"

var (
	// ErrOptionNotFound メニュー項目が見つからない
	ErrOptionNotFound = errors.New("menu option not found")
	// ErrInvalidOption メニュー項目が無効
	ErrInvalidOption = errors.New("invalid menu option")
	// ErrDuplicateOption 同じキーの項目が既に存在する
	ErrDuplicateOption = errors.New("duplicate menu option")
)

package currency

import (
	"fmt"
)

// AccountKind 口座の種別を表す値オブジェクト
type AccountKind string

const (
	AccountKindShopTakings AccountKind = "shop_takings" // ショップの売上
	AccountKindPlayerFunds AccountKind = "player_funds" // プレイヤーの所持金
)

// NewAccountKind 新しいAccountKindを作成
func NewAccountKind(s string) (AccountKind, error) {
	switch s {
	case "shop_takings", "player_funds":
		return AccountKind(s), nil
	default:
		return "", fmt.Errorf("invalid account kind: %s", s)
	}
}

// String 文字列表現を返す
func (k AccountKind) String() string {
	return string(k)
}

// Valid 有効な口座種別かどうかを返す
func (k AccountKind) Valid() bool {
	return k == AccountKindShopTakings || k == AccountKindPlayerFunds
}

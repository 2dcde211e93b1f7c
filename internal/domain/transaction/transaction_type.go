package transaction

import (
	"fmt"
)

// TransactionType 取引タイプを表す値オブジェクト
type TransactionType string

const (
	TransactionTypeBuy  TransactionType = "buy"  // 購入（プレイヤーがショップから買う）
	TransactionTypeSell TransactionType = "sell" // 売却（プレイヤーがショップに売る）
)

// NewTransactionType 新しいTransactionTypeを作成
func NewTransactionType(s string) (TransactionType, error) {
	switch s {
	case "buy", "sell":
		return TransactionType(s), nil
	default:
		return "", fmt.Errorf("%w: transaction type %q", ErrInvalidEvent, s)
	}
}

// String 文字列表現を返す
func (tt TransactionType) String() string {
	return string(tt)
}

// Valid 有効な取引タイプかどうかを返す
func (tt TransactionType) Valid() bool {
	switch tt {
	case TransactionTypeBuy, TransactionTypeSell:
		return true
	default:
		return false
	}
}

// IsBuy 購入かどうかを返す
func (tt TransactionType) IsBuy() bool {
	return tt == TransactionTypeBuy
}

// IsSell 売却かどうかを返す
func (tt TransactionType) IsSell() bool {
	return tt == TransactionTypeSell
}

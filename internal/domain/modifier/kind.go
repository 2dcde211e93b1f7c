package modifier

import (
	"fmt"

	"shop-economy/internal/domain/transaction"
)

// Kind 修飾子の種類
type Kind string

const (
	KindMarkup        Kind = "markup"         // 値上げ
	KindMarkdown      Kind = "markdown"       // 値下げ
	KindFixedOverride Kind = "fixed_override" // 固定価格
)

// NewKind 新しいKindを作成
func NewKind(s string) (Kind, error) {
	switch s {
	case "markup", "markdown", "fixed_override":
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: kind %q", ErrInvalidModifier, s)
	}
}

// String 文字列表現を返す
func (k Kind) String() string {
	return string(k)
}

// Valid 有効な種類かどうかを返す
func (k Kind) Valid() bool {
	switch k {
	case KindMarkup, KindMarkdown, KindFixedOverride:
		return true
	default:
		return false
	}
}

// Side 修飾子が適用される取引方向
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
	SideBoth Side = "both"
)

// NewSide 新しいSideを作成。空文字はSideBoth
func NewSide(s string) (Side, error) {
	switch s {
	case "":
		return SideBoth, nil
	case "buy", "sell", "both":
		return Side(s), nil
	default:
		return "", fmt.Errorf("%w: side %q", ErrInvalidModifier, s)
	}
}

// String 文字列表現を返す
func (s Side) String() string {
	return string(s)
}

// Valid 有効な方向かどうかを返す
func (s Side) Valid() bool {
	switch s {
	case SideBuy, SideSell, SideBoth:
		return true
	default:
		return false
	}
}

// Applies 取引タイプに適用されるかを返す
func (s Side) Applies(t transaction.TransactionType) bool {
	switch s {
	case SideBoth:
		return true
	case SideBuy:
		return t == transaction.TransactionTypeBuy
	case SideSell:
		return t == transaction.TransactionTypeSell
	default:
		return false
	}
}

// Overlaps 2つの方向が共通の取引タイプを持つかを返す
func (s Side) Overlaps(other Side) bool {
	return s == SideBoth || other == SideBoth || s == other
}

// TransactionTypes 適用される取引タイプを返す
func (s Side) TransactionTypes() []transaction.TransactionType {
	switch s {
	case SideBuy:
		return []transaction.TransactionType{transaction.TransactionTypeBuy}
	case SideSell:
		return []transaction.TransactionType{transaction.TransactionTypeSell}
	case SideBoth:
		return []transaction.TransactionType{transaction.TransactionTypeBuy, transaction.TransactionTypeSell}
	default:
		return nil
	}
}

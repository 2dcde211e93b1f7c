package modifier

import (
	"fmt"

	"shop-economy/internal/domain/item"
)

// ScopeKind 適用範囲の種別
type ScopeKind string

const (
	ScopeKindItem     ScopeKind = "item"     // 単一アイテム
	ScopeKindCategory ScopeKind = "category" // アイテムカテゴリ
	ScopeKindShop     ScopeKind = "shop"     // ショップ全体
)

// NewScopeKind 新しいScopeKindを作成
func NewScopeKind(s string) (ScopeKind, error) {
	switch s {
	case "item", "category", "shop":
		return ScopeKind(s), nil
	default:
		return "", fmt.Errorf("%w: scope kind %q", ErrInvalidModifier, s)
	}
}

// String 文字列表現を返す
func (k ScopeKind) String() string {
	return string(k)
}

// Valid 有効な種別かどうかを返す
func (k ScopeKind) Valid() bool {
	switch k {
	case ScopeKindItem, ScopeKindCategory, ScopeKindShop:
		return true
	default:
		return false
	}
}

// Scope 修飾子の適用範囲
// Itemの場合Targetはアイテム ID、Categoryの場合はカテゴリ名、Shopの場合は空
type Scope struct {
	Kind   ScopeKind `json:"kind"`
	Target string    `json:"target,omitempty"`
}

// ItemScope アイテム単位のScopeを作成
func ItemScope(itemID string) Scope {
	return Scope{Kind: ScopeKindItem, Target: itemID}
}

// CategoryScope カテゴリ単位のScopeを作成
func CategoryScope(category string) Scope {
	return Scope{Kind: ScopeKindCategory, Target: category}
}

// ShopScope ショップ全体のScopeを作成
func ShopScope() Scope {
	return Scope{Kind: ScopeKindShop}
}

// IsZero 未指定かどうかを返す
func (s Scope) IsZero() bool {
	return s.Kind == "" && s.Target == ""
}

// Valid 有効なScopeかどうかを返す
func (s Scope) Valid() bool {
	switch s.Kind {
	case ScopeKindItem, ScopeKindCategory:
		return s.Target != ""
	case ScopeKindShop:
		return s.Target == ""
	default:
		return false
	}
}

// Matches アイテムがこのScopeに含まれるかを返す
func (s Scope) Matches(ref item.Ref) bool {
	switch s.Kind {
	case ScopeKindItem:
		return s.Target == ref.ID
	case ScopeKindCategory:
		return ref.Category != "" && s.Target == ref.Category
	case ScopeKindShop:
		return true
	default:
		return false
	}
}

// Covers other の範囲がこのScopeと重なる可能性があるかを返す
// カテゴリとアイテムの対応はカタログを見ないと分からないため、Item/Category間は重なるものとして扱う
func (s Scope) Covers(other Scope) bool {
	if s.Kind == ScopeKindShop || other.Kind == ScopeKindShop {
		return true
	}
	if s.Kind == other.Kind {
		return s.Target == other.Target
	}
	return true
}

// Specificity 具体性（大きいほど具体的）を返す
func (s Scope) Specificity() int {
	switch s.Kind {
	case ScopeKindItem:
		return 3
	case ScopeKindCategory:
		return 2
	case ScopeKindShop:
		return 1
	default:
		return 0
	}
}

// String 文字列表現を返す
func (s Scope) String() string {
	if s.Target == "" {
		return string(s.Kind)
	}
	return string(s.Kind) + ":" + s.Target
}

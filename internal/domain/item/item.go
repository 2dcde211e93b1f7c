package item

import (
	"context"
	"regexp"
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.:]{1,128}$`)

// Ref アイテム参照（不透明な識別子とカテゴリタグ）
type Ref struct {
	ID       string
	Category string
}

// String 文字列表現を返す
func (r Ref) String() string {
	if r.Category == "" {
		return r.ID
	}
	return r.Category + "/" + r.ID
}

// Valid 有効な参照かどうかを返す
func (r Ref) Valid() bool {
	return idRegex.MatchString(r.ID)
}

// Entry カタログエントリ（基本価格と売買可否）
type Entry struct {
	ref           Ref
	buyBasePrice  int64
	sellBasePrice int64
	buyable       bool
	sellable      bool
}

// NewEntry 新しいEntryを作成
// 購入基本価格は正の整数、売却基本価格は0以上でなければならない
func NewEntry(ref Ref, buyBasePrice, sellBasePrice int64, buyable, sellable bool) (*Entry, error) {
	if !ref.Valid() {
		return nil, ErrInvalidItemID
	}
	if buyBasePrice <= 0 || sellBasePrice < 0 {
		return nil, ErrInvalidBasePrice
	}
	return &Entry{
		ref:           ref,
		buyBasePrice:  buyBasePrice,
		sellBasePrice: sellBasePrice,
		buyable:       buyable,
		sellable:      sellable,
	}, nil
}

// Ref アイテム参照を返す
func (e *Entry) Ref() Ref {
	return e.ref
}

// Category カテゴリを返す
func (e *Entry) Category() string {
	return e.ref.Category
}

// BuyBasePrice 購入基本価格を返す
func (e *Entry) BuyBasePrice() int64 {
	return e.buyBasePrice
}

// SellBasePrice 売却基本価格を返す
func (e *Entry) SellBasePrice() int64 {
	return e.sellBasePrice
}

// Buyable 購入可能かどうかを返す
func (e *Entry) Buyable() bool {
	return e.buyable
}

// Sellable 売却可能かどうかを返す
func (e *Entry) Sellable() bool {
	return e.sellable
}

// MustNewEntry テスト用ヘルパー: NewEntryを呼び出し、エラーが発生した場合はpanicする
func MustNewEntry(ref Ref, buyBasePrice, sellBasePrice int64, buyable, sellable bool) *Entry {
	e, err := NewEntry(ref, buyBasePrice, sellBasePrice, buyable, sellable)
	if err != nil {
		panic(err)
	}
	return e
}

// Catalog アイテムカタログアダプタインターフェース（ホスト側が所有する読み取り専用カタログ）
type Catalog interface {
	// Lookup アイテム参照から基本価格とカテゴリを取得（存在しない場合はErrUnknownItem）
	Lookup(ctx context.Context, ref Ref) (*Entry, error)
}

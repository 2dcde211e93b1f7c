// Package catalog TOMLファイルからアイテムカタログを読み込む
package catalog

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"shop-economy/internal/domain/item"
)

type fileFormat struct {
	Items []itemRecord `toml:"items"`
}

type itemRecord struct {
	ID        string `toml:"id"`
	Category  string `toml:"category"`
	BuyPrice  int64  `toml:"buy_price"`
	SellPrice *int64 `toml:"sell_price"`
	Buyable   *bool  `toml:"buyable"`
	Sellable  *bool  `toml:"sellable"`
}

// Catalog メモリ上のアイテムカタログ
// 読み込み後は不変のため並行アクセス可能
type Catalog struct {
	entries map[string]*item.Entry
}

// LoadFile パスからカタログを読み込む
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse TOMLを解析してカタログを作成する
// sell_priceを省略した場合はbuy_priceの半額（端数切り上げ）になる
func Parse(r io.Reader) (*Catalog, error) {
	var ff fileFormat
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&ff); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	entries := make(map[string]*item.Entry, len(ff.Items))
	for i, rec := range ff.Items {
		if _, dup := entries[rec.ID]; dup {
			return nil, fmt.Errorf("duplicate item %q at index %d", rec.ID, i)
		}

		sell := (rec.BuyPrice + 1) / 2
		if rec.SellPrice != nil {
			sell = *rec.SellPrice
		}
		buyable, sellable := true, true
		if rec.Buyable != nil {
			buyable = *rec.Buyable
		}
		if rec.Sellable != nil {
			sellable = *rec.Sellable
		}

		entry, err := item.NewEntry(item.Ref{ID: rec.ID, Category: rec.Category}, rec.BuyPrice, sell, buyable, sellable)
		if err != nil {
			return nil, fmt.Errorf("item %q: %w", rec.ID, err)
		}
		entries[rec.ID] = entry
	}

	return &Catalog{entries: entries}, nil
}

// New エントリ一覧からカタログを作成する
func New(entries ...*item.Entry) *Catalog {
	m := make(map[string]*item.Entry, len(entries))
	for _, e := range entries {
		m[e.Ref().ID] = e
	}
	return &Catalog{entries: m}
}

// Lookup アイテムIDでエントリを取得する
// カテゴリはカタログ側の値が正となる
func (c *Catalog) Lookup(ctx context.Context, ref item.Ref) (*item.Entry, error) {
	e, ok := c.entries[ref.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", item.ErrUnknownItem, ref.ID)
	}
	return e, nil
}

// BasePrices modifier.BasePriceLookupとして使える基準価格の参照
func (c *Catalog) BasePrices(itemID string) (buy, sell int64, ok bool) {
	e, ok := c.entries[itemID]
	if !ok {
		return 0, 0, false
	}
	return e.BuyBasePrice(), e.SellBasePrice(), true
}

// Entries ID順のエントリ一覧を返す
func (c *Catalog) Entries() []*item.Entry {
	out := make([]*item.Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Ref().ID < out[j].Ref().ID
	})
	return out
}

// Len エントリ数を返す
func (c *Catalog) Len() int {
	return len(c.entries)
}

package pricing

import (
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"shop-economy/internal/domain/service"
	"shop-economy/internal/domain/transaction"
)

// PriceCache 計算済み価格のキャッシュ
// ショップ単位の世代番号をキーに含め、世代を進めることで無効化する
// エントリは Quote の有効区間内の時刻に対してのみヒットする
type PriceCache struct {
	cache *lru.Cache

	mu          sync.Mutex
	epoch       uint64
	generations map[string]uint64
}

// Generation キャッシュの世代。InvalidateShopとPurgeで進む
type Generation struct {
	epoch uint64
	shop  uint64
}

// NewPriceCache 新しいPriceCacheを作成
func NewPriceCache(size int) (*PriceCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create price cache: %w", err)
	}
	return &PriceCache{
		cache:       c,
		generations: make(map[string]uint64),
	}, nil
}

// Generation ショップの現在の世代を返す
// 計算の前に一度だけ読み、GetとAddに同じ値を渡す
func (c *PriceCache) Generation(shopID string) Generation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generationLocked(shopID)
}

func (c *PriceCache) generationLocked(shopID string) Generation {
	return Generation{epoch: c.epoch, shop: c.generations[shopID]}
}

func key(gen Generation, shopID, itemID string, txType transaction.TransactionType) string {
	return fmt.Sprintf("%d|%s|%d|%s|%s", gen.epoch, shopID, gen.shop, itemID, txType)
}

// Get キャッシュ済みの価格を返す
func (c *PriceCache) Get(gen Generation, shopID, itemID string, txType transaction.TransactionType, now time.Time) (*service.Quote, bool) {
	v, ok := c.cache.Get(key(gen, shopID, itemID, txType))
	if !ok {
		return nil, false
	}
	cached := v.(*service.Quote)
	if !cached.ValidAt(now) {
		return nil, false
	}
	q := *cached
	q.Applied = append([]string(nil), cached.Applied...)
	return &q, true
}

// Add 価格をキャッシュする
// genが現在の世代と異なる場合は計算中に無効化されているため保存しない
func (c *PriceCache) Add(gen Generation, shopID, itemID string, txType transaction.TransactionType, q *service.Quote) bool {
	stored := *q
	stored.Applied = append([]string(nil), q.Applied...)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generationLocked(shopID) != gen {
		return false
	}
	c.cache.Add(key(gen, shopID, itemID, txType), &stored)
	return true
}

// InvalidateShop ショップのキャッシュを無効化する
// 古い世代のエントリはLRUにより追い出される
func (c *PriceCache) InvalidateShop(shopID string) {
	c.mu.Lock()
	c.generations[shopID]++
	c.mu.Unlock()
}

// Purge 全てのキャッシュを破棄する
func (c *PriceCache) Purge() {
	c.mu.Lock()
	c.epoch++
	c.cache.Purge()
	c.mu.Unlock()
}

// Len キャッシュ件数を返す
func (c *PriceCache) Len() int {
	return c.cache.Len()
}

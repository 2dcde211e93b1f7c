package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"shop-economy/internal/domain/item"
	"shop-economy/internal/domain/modifier"
	"shop-economy/internal/domain/shop"
	"shop-economy/internal/domain/transaction"
)

// ShopFinder ショップIDからInstanceを引く
type ShopFinder interface {
	Get(id string) (*shop.Instance, error)
}

// PricePolicy 実効価格の下限・上限
type PricePolicy struct {
	Floor   int64 // 下限（既定1）
	Ceiling int64 // 上限。0は上限なし
}

// DefaultPricePolicy 既定のPricePolicy
func DefaultPricePolicy() PricePolicy {
	return PricePolicy{Floor: 1}
}

// Quote 価格計算の結果
type Quote struct {
	ShopID          string
	Item            item.Ref
	TransactionType transaction.TransactionType
	BasePrice       int64
	Price           int64
	Applied         []string // 適用された修飾子ID（適用順）
	OverrideID      string   // 固定価格が採用された場合のID
	Clamped         bool     // 下限・上限で丸められたか

	// 修飾子の期間の境界から求めた、同じ結果が得られる時刻の区間 [ValidFrom, ValidUntil)
	// ゼロ値は境界なし。有効化・無効化など期間以外の変更は含まない
	ValidFrom  time.Time
	ValidUntil time.Time
}

// ValidAt now でもこの結果が使えるかどうかを返す
func (q *Quote) ValidAt(now time.Time) bool {
	if !q.ValidFrom.IsZero() && now.Before(q.ValidFrom) {
		return false
	}
	return q.ValidUntil.IsZero() || now.Before(q.ValidUntil)
}

// PricingService 実効価格を計算するドメインサービス
// 現在時刻は読まず、呼び出し元から受け取る
type PricingService struct {
	shops   ShopFinder
	catalog item.Catalog
	policy  PricePolicy
}

// NewPricingService 新しいPricingServiceを作成
func NewPricingService(shops ShopFinder, catalog item.Catalog, policy PricePolicy) *PricingService {
	return &PricingService{
		shops:   shops,
		catalog: catalog,
		policy:  policy,
	}
}

// Policy 価格ポリシーを返す
func (s *PricingService) Policy() PricePolicy {
	return s.policy
}

// EffectivePrice ショップ・アイテム・取引タイプ・時刻から実効価格を計算する
func (s *PricingService) EffectivePrice(ctx context.Context, shopID string, ref item.Ref, txType transaction.TransactionType, now time.Time) (*Quote, error) {
	return s.quote(ctx, shopID, ref, txType, now, nil)
}

// PreviewWith candidateがストアに追加（同じIDなら置換）された場合の実効価格を計算する。ストアは変更しない
func (s *PricingService) PreviewWith(ctx context.Context, shopID string, ref item.Ref, txType transaction.TransactionType, now time.Time, candidate *modifier.Modifier) (*Quote, error) {
	return s.quote(ctx, shopID, ref, txType, now, candidate)
}

func (s *PricingService) quote(ctx context.Context, shopID string, ref item.Ref, txType transaction.TransactionType, now time.Time, candidate *modifier.Modifier) (*Quote, error) {
	if !txType.Valid() {
		return nil, fmt.Errorf("invalid transaction type: %s", txType)
	}

	inst, err := s.shops.Get(shopID)
	if err != nil {
		return nil, err
	}

	entry, err := s.catalog.Lookup(ctx, ref)
	if err != nil {
		return nil, err
	}

	resolved := entry.Ref()
	filter := modifier.Filter{
		Item: &resolved,
		Side: txType,
	}

	var matched []modifier.Modifier
	if candidate != nil {
		matched = inst.Store().QueryWith(candidate, filter, now)
	} else {
		matched = inst.Store().Query(filter, now)
	}

	// 期間外の修飾子も境界の計算には使う
	mods := make([]modifier.Modifier, 0, len(matched))
	var validFrom, validUntil time.Time
	for i := range matched {
		m := &matched[i]
		if !m.Enabled() {
			continue
		}
		from, until := m.Window().Bounds(now)
		if from.After(validFrom) {
			validFrom = from
		}
		if !until.IsZero() && (validUntil.IsZero() || until.Before(validUntil)) {
			validUntil = until
		}
		if m.IsActive(now) {
			mods = append(mods, *m)
		}
	}

	q, err := Evaluate(entry, txType, mods, s.policy)
	if err != nil {
		return nil, err
	}
	q.ShopID = shopID
	q.ValidFrom = validFrom
	q.ValidUntil = validUntil
	return q, nil
}

// Evaluate 基準価格と有効な修飾子から実効価格を計算する
// modsは対象アイテム・取引タイプ・時刻で絞り込み済みであること
func Evaluate(entry *item.Entry, txType transaction.TransactionType, mods []modifier.Modifier, policy PricePolicy) (*Quote, error) {
	var base int64
	switch txType {
	case transaction.TransactionTypeBuy:
		if !entry.Buyable() {
			return nil, fmt.Errorf("%w: %s cannot be bought", item.ErrItemNotTradable, entry.Ref())
		}
		base = entry.BuyBasePrice()
	case transaction.TransactionTypeSell:
		if !entry.Sellable() {
			return nil, fmt.Errorf("%w: %s cannot be sold", item.ErrItemNotTradable, entry.Ref())
		}
		base = entry.SellBasePrice()
	default:
		return nil, fmt.Errorf("invalid transaction type: %s", txType)
	}

	q := &Quote{
		Item:            entry.Ref(),
		TransactionType: txType,
		BasePrice:       base,
		Price:           base,
		Applied:         []string{},
	}

	// 固定価格: 優先度最大、同じ優先度なら後から作成されたもの
	var winner *modifier.Modifier
	for i := range mods {
		m := &mods[i]
		if m.Kind() != modifier.KindFixedOverride {
			continue
		}
		if winner == nil ||
			m.Priority() > winner.Priority() ||
			(m.Priority() == winner.Priority() && m.Sequence() > winner.Sequence()) {
			winner = m
		}
	}
	if winner != nil {
		q.Price = capPrice(winner.Magnitude().Value).Round(0).IntPart()
		q.OverrideID = winner.ID()
		q.Applied = append(q.Applied, winner.ID())
		return q, nil
	}

	// 値上げ・値下げ: 優先度の昇順、同じ優先度なら作成順に複利で適用
	adjusters := make([]*modifier.Modifier, 0, len(mods))
	for i := range mods {
		k := mods[i].Kind()
		if k == modifier.KindMarkup || k == modifier.KindMarkdown {
			adjusters = append(adjusters, &mods[i])
		}
	}
	if len(adjusters) == 0 {
		return q, nil
	}
	sort.SliceStable(adjusters, func(i, j int) bool {
		if adjusters[i].Priority() != adjusters[j].Priority() {
			return adjusters[i].Priority() < adjusters[j].Priority()
		}
		return adjusters[i].Sequence() < adjusters[j].Sequence()
	})

	running := decimal.NewFromInt(base)
	for _, m := range adjusters {
		running = m.Magnitude().Apply(running, m.Kind())
		q.Applied = append(q.Applied, m.ID())
	}

	if capped := capPrice(running); !capped.Equal(running) {
		running = capped
		q.Clamped = true
	}

	floor := decimal.NewFromInt(policy.Floor)
	if running.LessThan(floor) {
		running = floor
		q.Clamped = true
	}
	if policy.Ceiling > 0 {
		ceiling := decimal.NewFromInt(policy.Ceiling)
		if running.GreaterThan(ceiling) {
			running = ceiling
			q.Clamped = true
		}
	}

	// 下限以上なので Round(0) は四捨五入（half-up）になる
	q.Price = running.Round(0).IntPart()
	return q, nil
}

// capPrice int64への変換で桁あふれしないようMaxPriceで頭打ちにする
func capPrice(v decimal.Decimal) decimal.Decimal {
	if limit := decimal.NewFromInt(modifier.MaxPrice); v.GreaterThan(limit) {
		return limit
	}
	return v
}

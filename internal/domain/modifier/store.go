package modifier

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"shop-economy/internal/domain/item"
	"shop-economy/internal/domain/transaction"
)

// BasePriceLookup アイテムIDから売買の基準価格を引く関数
// 見つからない場合はokがfalse
type BasePriceLookup func(itemID string) (buy, sell int64, ok bool)

// Option Storeの設定
type Option func(*Store)

// WithFloorCheck 追加時にアイテム単位の値下げが下限価格を割り込まないか検証する
func WithFloorCheck(floor int64, lookup BasePriceLookup) Option {
	return func(s *Store) {
		s.floor = floor
		s.lookup = lookup
	}
}

// Filter Queryの絞り込み条件
type Filter struct {
	Item       *item.Ref                   // 指定時はこのアイテムに適用されるものに限る
	Scope      *Scope                      // 指定時は同一Scopeのものに限る
	Side       transaction.TransactionType // 指定時はこの取引タイプに適用されるものに限る
	ActiveOnly bool                        // now 時点で有効なものに限る
	Kinds      []Kind                      // 指定時はこれらの種類に限る
}

func (f Filter) accepts(m *Modifier, now time.Time) bool {
	if f.Item != nil && !m.def.Scope.Matches(*f.Item) {
		return false
	}
	if f.Scope != nil && m.def.Scope != *f.Scope {
		return false
	}
	if f.Side != "" && !m.def.Side.Applies(f.Side) {
		return false
	}
	if f.ActiveOnly && !m.IsActive(now) {
		return false
	}
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if m.def.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Store 1ショップ分の修飾子集合
type Store struct {
	mu      sync.RWMutex
	byID    map[string]*Modifier
	order   []string
	nextSeq uint64
	floor   int64
	lookup  BasePriceLookup
}

// NewStore 新しいStoreを作成
func NewStore(opts ...Option) *Store {
	s := &Store{
		byID: make(map[string]*Modifier),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add 修飾子を追加する
// アイテム単位の固定価格を有効状態で追加した場合、同じアイテムの既存の固定価格は無効化され、そのIDを返す
func (s *Store) Add(m *Modifier) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[m.id]; exists {
		return nil, fmt.Errorf("%w: id %q already present", ErrInvalidModifier, m.id)
	}
	if err := s.checkFloor(m.def); err != nil {
		return nil, err
	}

	stored := *m
	s.nextSeq++
	stored.sequence = s.nextSeq
	s.byID[stored.id] = &stored
	s.order = append(s.order, stored.id)

	return s.supersedeLocked(&stored), nil
}

// Update 定義を置き換える。ID・作成順・有効フラグは維持される
func (s *Store) Update(id string, def Definition) (Modifier, []string, error) {
	def = def.Normalize()
	if err := def.Validate(); err != nil {
		return Modifier{}, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return Modifier{}, nil, fmt.Errorf("%w: %s", ErrModifierNotFound, id)
	}
	if err := s.checkFloor(def); err != nil {
		return Modifier{}, nil, err
	}

	m.def = def
	superseded := s.supersedeLocked(m)
	return *m, superseded, nil
}

// Remove 修飾子を削除する。存在しないIDは何もしない
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Enable 修飾子を有効化する
func (s *Store) Enable(id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModifierNotFound, id)
	}
	m.enabled = true
	return s.supersedeLocked(m), nil
}

// Disable 修飾子を無効化する
func (s *Store) Disable(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrModifierNotFound, id)
	}
	m.enabled = false
	return nil
}

// Get IDで修飾子を取得する
func (s *Store) Get(id string) (Modifier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok {
		return Modifier{}, fmt.Errorf("%w: %s", ErrModifierNotFound, id)
	}
	return *m, nil
}

// Len 修飾子の数を返す
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Query 条件に合う修飾子を返す。状態は変更しない
// Itemを指定した場合は具体性の高い順、同じ具体性の中では優先度の昇順・作成順に並ぶ
// それ以外は作成順
func (s *Store) Query(f Filter, now time.Time) []Modifier {
	s.mu.RLock()
	out := make([]Modifier, 0, len(s.order))
	for _, id := range s.order {
		m := s.byID[id]
		if f.accepts(m, now) {
			out = append(out, *m)
		}
	}
	s.mu.RUnlock()

	sortForFilter(out, f)
	return out
}

// QueryWith candidateを追加（同じIDがあれば置換）した状態を仮定してQueryを行う。状態は変更しない
func (s *Store) QueryWith(candidate *Modifier, f Filter, now time.Time) []Modifier {
	s.mu.RLock()
	all := make([]Modifier, 0, len(s.order)+1)
	seq := s.nextSeq + 1
	for _, id := range s.order {
		m := s.byID[id]
		if m.id == candidate.id {
			seq = m.sequence
			continue
		}
		all = append(all, *m)
	}
	s.mu.RUnlock()

	c := *candidate
	c.sequence = seq
	if c.enabled && c.def.IsItemOverride() {
		for i := range all {
			if all[i].enabled && conflictingOverride(&c, &all[i]) {
				all[i].enabled = false
			}
		}
	}
	all = append(all, c)
	sort.SliceStable(all, func(i, j int) bool { return all[i].sequence < all[j].sequence })

	out := make([]Modifier, 0, len(all))
	for i := range all {
		if f.accepts(&all[i], now) {
			out = append(out, all[i])
		}
	}
	sortForFilter(out, f)
	return out
}

func sortForFilter(mods []Modifier, f Filter) {
	if f.Item == nil {
		return
	}
	sort.SliceStable(mods, func(i, j int) bool {
		a, b := mods[i], mods[j]
		if sa, sb := a.def.Scope.Specificity(), b.def.Scope.Specificity(); sa != sb {
			return sa > sb
		}
		if a.def.Priority != b.def.Priority {
			return a.def.Priority < b.def.Priority
		}
		return a.sequence < b.sequence
	})
}

// Snapshot 全修飾子の状態を作成順で返す
func (s *Store) Snapshot() []State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]State, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].State())
	}
	return out
}

// Restore スナップショットから状態を復元する。既存の修飾子は破棄される
// 下限価格の検証は行わない
func (s *Store) Restore(states []State) error {
	byID := make(map[string]*Modifier, len(states))
	mods := make([]*Modifier, 0, len(states))
	var maxSeq uint64
	for _, st := range states {
		m, err := FromState(st)
		if err != nil {
			return err
		}
		if _, dup := byID[m.id]; dup {
			return fmt.Errorf("%w: id %q already present", ErrInvalidModifier, m.id)
		}
		byID[m.id] = m
		mods = append(mods, m)
		if m.sequence > maxSeq {
			maxSeq = m.sequence
		}
	}
	sort.SliceStable(mods, func(i, j int) bool { return mods[i].sequence < mods[j].sequence })

	// 同一アイテムに有効な固定価格が重複していないこと
	for i, a := range mods {
		if !a.enabled || !a.def.IsItemOverride() {
			continue
		}
		for _, b := range mods[i+1:] {
			if b.enabled && conflictingOverride(a, b) {
				return fmt.Errorf("%w: overrides %q and %q both enabled for %s", ErrInvalidModifier, a.id, b.id, a.def.Scope)
			}
		}
	}

	order := make([]string, 0, len(mods))
	for _, m := range mods {
		order = append(order, m.id)
	}

	s.mu.Lock()
	s.byID = byID
	s.order = order
	s.nextSeq = maxSeq
	s.mu.Unlock()
	return nil
}

func conflictingOverride(a, b *Modifier) bool {
	return a.id != b.id &&
		a.def.IsItemOverride() && b.def.IsItemOverride() &&
		a.def.Scope == b.def.Scope &&
		a.def.Side.Overlaps(b.def.Side)
}

// supersedeLocked mが有効なアイテム単位の固定価格なら、競合する他の固定価格を無効化する
func (s *Store) supersedeLocked(m *Modifier) []string {
	if !m.enabled || !m.def.IsItemOverride() {
		return nil
	}
	var superseded []string
	for _, id := range s.order {
		other := s.byID[id]
		if other.enabled && conflictingOverride(m, other) {
			other.enabled = false
			superseded = append(superseded, other.id)
		}
	}
	return superseded
}

// checkFloor アイテム単位の値下げが単独で下限価格を割り込まないか検証する
func (s *Store) checkFloor(def Definition) error {
	if s.lookup == nil || def.Kind != KindMarkdown || def.Scope.Kind != ScopeKindItem {
		return nil
	}
	buy, sell, ok := s.lookup(def.Scope.Target)
	if !ok {
		return nil
	}
	floor := decimal.NewFromInt(s.floor)
	for _, t := range def.Side.TransactionTypes() {
		base := buy
		if t == transaction.TransactionTypeSell {
			base = sell
		}
		if base < s.floor {
			continue
		}
		price := def.Magnitude.Apply(decimal.NewFromInt(base), def.Kind).Round(0)
		if price.LessThan(floor) {
			return fmt.Errorf("%w: markdown of %s drives %s price of %s below floor %d",
				ErrInvalidModifier, def.Magnitude, t, def.Scope.Target, s.floor)
		}
	}
	return nil
}

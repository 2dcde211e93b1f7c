package modifier

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-economy/internal/domain/item"
	"shop-economy/internal/domain/transaction"
)

func markup(id string, scope Scope, pct float64, priority int) *Modifier {
	return MustNewModifier(id, Definition{Scope: scope, Kind: KindMarkup, Magnitude: Percent(pct), Priority: priority, Window: ManualWindow()}, true, t0)
}

func override(id, itemID string, price int64, priority int) *Modifier {
	return MustNewModifier(id, Definition{Scope: ItemScope(itemID), Kind: KindFixedOverride, Magnitude: Absolute(price), Priority: priority, Window: ManualWindow()}, true, t0)
}

func TestStore_Add(t *testing.T) {
	t.Run("正常系: 作成順が振られる", func(t *testing.T) {
		s := NewStore()
		_, err := s.Add(markup("a", ShopScope(), 10, 0))
		require.NoError(t, err)
		_, err = s.Add(markup("b", ShopScope(), 10, 0))
		require.NoError(t, err)

		a, err := s.Get("a")
		require.NoError(t, err)
		b, err := s.Get("b")
		require.NoError(t, err)
		assert.Less(t, a.Sequence(), b.Sequence())
	})

	t.Run("異常系: 重複ID", func(t *testing.T) {
		s := NewStore()
		_, err := s.Add(markup("a", ShopScope(), 10, 0))
		require.NoError(t, err)
		_, err = s.Add(markup("a", ShopScope(), 20, 0))
		assert.ErrorIs(t, err, ErrInvalidModifier)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("正常系: 固定価格は後から追加したものが優先され、既存は無効化される", func(t *testing.T) {
		s := NewStore()
		_, err := s.Add(override("old", "potion", 30, 1))
		require.NoError(t, err)
		superseded, err := s.Add(override("new", "potion", 40, 1))
		require.NoError(t, err)
		assert.Equal(t, []string{"old"}, superseded)

		old, err := s.Get("old")
		require.NoError(t, err)
		assert.False(t, old.Enabled())
		assert.Equal(t, 2, s.Len())
	})

	t.Run("正常系: 取引方向が重ならない固定価格は共存する", func(t *testing.T) {
		s := NewStore()
		buyOnly := MustNewModifier("buy", Definition{Scope: ItemScope("potion"), Kind: KindFixedOverride, Magnitude: Absolute(10), Window: ManualWindow(), Side: SideBuy}, true, t0)
		sellOnly := MustNewModifier("sell", Definition{Scope: ItemScope("potion"), Kind: KindFixedOverride, Magnitude: Absolute(5), Window: ManualWindow(), Side: SideSell}, true, t0)
		_, err := s.Add(buyOnly)
		require.NoError(t, err)
		superseded, err := s.Add(sellOnly)
		require.NoError(t, err)
		assert.Empty(t, superseded)
	})

	t.Run("異常系: アイテム単位の値下げが下限を割り込む", func(t *testing.T) {
		lookup := func(itemID string) (int64, int64, bool) {
			if itemID == "potion" {
				return 100, 50, true
			}
			return 0, 0, false
		}
		s := NewStore(WithFloorCheck(1, lookup))
		deep := MustNewModifier("deep", Definition{Scope: ItemScope("potion"), Kind: KindMarkdown, Magnitude: Absolute(100), Window: ManualWindow()}, true, t0)
		_, err := s.Add(deep)
		assert.ErrorIs(t, err, ErrInvalidModifier)

		sellOK := MustNewModifier("ok", Definition{Scope: ItemScope("potion"), Kind: KindMarkdown, Magnitude: Absolute(99), Window: ManualWindow(), Side: SideBuy}, true, t0)
		_, err = s.Add(sellOK)
		assert.NoError(t, err)

		unknown := MustNewModifier("unknown", Definition{Scope: ItemScope("elixir"), Kind: KindMarkdown, Magnitude: Absolute(1000), Window: ManualWindow()}, true, t0)
		_, err = s.Add(unknown)
		assert.NoError(t, err)
	})
}

func TestStore_Remove(t *testing.T) {
	s := NewStore()
	_, err := s.Add(markup("a", ShopScope(), 10, 0))
	require.NoError(t, err)

	assert.True(t, s.Remove("a"))
	once := s.Snapshot()
	assert.False(t, s.Remove("a"))
	assert.Equal(t, once, s.Snapshot())
	assert.False(t, s.Remove("never"))
}

func TestStore_EnableDisable(t *testing.T) {
	s := NewStore()
	_, err := s.Add(override("a", "potion", 10, 0))
	require.NoError(t, err)
	_, err = s.Add(override("b", "potion", 20, 0))
	require.NoError(t, err)

	superseded, err := s.Enable("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, superseded)

	require.NoError(t, s.Disable("a"))
	a, err := s.Get("a")
	require.NoError(t, err)
	assert.False(t, a.Enabled())

	_, err = s.Enable("missing")
	assert.ErrorIs(t, err, ErrModifierNotFound)
	assert.ErrorIs(t, s.Disable("missing"), ErrModifierNotFound)
}

func TestStore_Update(t *testing.T) {
	s := NewStore()
	_, err := s.Add(markup("a", ShopScope(), 10, 0))
	require.NoError(t, err)
	_, err = s.Add(markup("b", ShopScope(), 10, 0))
	require.NoError(t, err)
	before, err := s.Get("a")
	require.NoError(t, err)

	updated, _, err := s.Update("a", Definition{Name: "renamed", Scope: CategoryScope("herb"), Kind: KindMarkdown, Magnitude: Percent(5), Window: ManualWindow()})
	require.NoError(t, err)
	assert.Equal(t, before.Sequence(), updated.Sequence())
	assert.Equal(t, "renamed", updated.Name())
	assert.Equal(t, SideBoth, updated.Side())

	_, _, err = s.Update("missing", Definition{Scope: ShopScope(), Kind: KindMarkup, Magnitude: Percent(1), Window: ManualWindow()})
	assert.ErrorIs(t, err, ErrModifierNotFound)

	end := t0
	_, _, err = s.Update("a", Definition{Scope: ShopScope(), Kind: KindMarkup, Magnitude: Percent(1), Window: Window{Start: t0, End: &end}})
	assert.ErrorIs(t, err, ErrInvalidModifier)
}

func TestStore_Query(t *testing.T) {
	s := NewStore()
	_, _ = s.Add(markup("shop", ShopScope(), 1, 0))
	_, _ = s.Add(markup("cat", CategoryScope("weapon"), 1, 5))
	_, _ = s.Add(markup("item-high", ItemScope("sword"), 1, 9))
	_, _ = s.Add(markup("item-low", ItemScope("sword"), 1, 2))
	_, _ = s.Add(markup("other", ItemScope("shield"), 1, 0))
	sellOnly := MustNewModifier("sell", Definition{Scope: ShopScope(), Kind: KindMarkdown, Magnitude: Percent(1), Window: ManualWindow(), Side: SideSell}, true, t0)
	_, _ = s.Add(sellOnly)
	later := MustNewModifier("later", Definition{Scope: ShopScope(), Kind: KindMarkup, Magnitude: Percent(1), Window: From(t0.Add(time.Hour))}, true, t0)
	_, _ = s.Add(later)

	sword := item.Ref{ID: "sword", Category: "weapon"}

	ids := func(mods []Modifier) []string {
		out := make([]string, 0, len(mods))
		for _, m := range mods {
			out = append(out, m.ID())
		}
		return out
	}

	t.Run("正常系: 具体性・優先度・作成順で並ぶ", func(t *testing.T) {
		got := s.Query(Filter{Item: &sword, Side: transaction.TransactionTypeBuy, ActiveOnly: true}, t0)
		assert.Equal(t, []string{"item-low", "item-high", "cat", "shop"}, ids(got))
	})

	t.Run("正常系: 期間外は除かれ、期間内になると含まれる", func(t *testing.T) {
		got := s.Query(Filter{Item: &sword, Side: transaction.TransactionTypeBuy, ActiveOnly: true}, t0.Add(2*time.Hour))
		assert.Contains(t, ids(got), "later")
	})

	t.Run("正常系: 売却側のみの修飾子", func(t *testing.T) {
		got := s.Query(Filter{Item: &sword, Side: transaction.TransactionTypeSell, ActiveOnly: true, Kinds: []Kind{KindMarkdown}}, t0)
		assert.Equal(t, []string{"sell"}, ids(got))
	})

	t.Run("正常系: 条件なしは作成順", func(t *testing.T) {
		got := s.Query(Filter{}, t0)
		assert.Equal(t, []string{"shop", "cat", "item-high", "item-low", "other", "sell", "later"}, ids(got))
	})

	t.Run("正常系: Scope指定", func(t *testing.T) {
		scope := ItemScope("shield")
		got := s.Query(Filter{Scope: &scope}, t0)
		assert.Equal(t, []string{"other"}, ids(got))
	})
}

func TestStore_SnapshotRestore(t *testing.T) {
	s := NewStore()
	_, _ = s.Add(markup("a", ShopScope(), 10, 0))
	_, _ = s.Add(override("b", "potion", 10, 0))
	require.NoError(t, s.Disable("a"))

	restored := NewStore()
	require.NoError(t, restored.Restore(s.Snapshot()))
	assert.Equal(t, s.Snapshot(), restored.Snapshot())

	_, err := restored.Add(markup("c", ShopScope(), 1, 0))
	require.NoError(t, err)
	c, err := restored.Get("c")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), c.Sequence())

	t.Run("異常系: 有効な固定価格の重複", func(t *testing.T) {
		a := override("x", "potion", 1, 0).State()
		b := override("y", "potion", 2, 0).State()
		b.Sequence = 2
		err := NewStore().Restore([]State{a, b})
		assert.ErrorIs(t, err, ErrInvalidModifier)
	})

	t.Run("異常系: 重複ID", func(t *testing.T) {
		a := markup("x", ShopScope(), 1, 0).State()
		err := NewStore().Restore([]State{a, a})
		assert.ErrorIs(t, err, ErrInvalidModifier)
	})
}

func TestStore_ConcurrentReadsAndWrites(t *testing.T) {
	s := NewStore()
	sword := item.Ref{ID: "sword"}
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_, _ = s.Add(markup(fmt.Sprintf("m%d", i), ShopScope(), 1, i))
		}(i)
		go func() {
			defer wg.Done()
			_ = s.Query(Filter{Item: &sword, ActiveOnly: true}, t0)
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, s.Len())
}

func TestStore_QueryWith(t *testing.T) {
	s := NewStore()
	_, _ = s.Add(override("old", "potion", 30, 1))
	_, _ = s.Add(markup("m", ShopScope(), 10, 0))
	potion := item.Ref{ID: "potion"}
	before := s.Snapshot()

	t.Run("正常系: 追加を仮定すると既存の固定価格は無効として扱われる", func(t *testing.T) {
		got := s.QueryWith(override("new", "potion", 40, 0), Filter{Item: &potion, ActiveOnly: true, Kinds: []Kind{KindFixedOverride}}, t0)
		require.Len(t, got, 1)
		assert.Equal(t, "new", got[0].ID())
		assert.Equal(t, uint64(3), got[0].Sequence())
	})

	t.Run("正常系: 同じIDは置換として扱われ作成順が維持される", func(t *testing.T) {
		got := s.QueryWith(markup("m", ShopScope(), 50, 0), Filter{Item: &potion, Kinds: []Kind{KindMarkup}}, t0)
		require.Len(t, got, 1)
		assert.Equal(t, uint64(2), got[0].Sequence())
		assert.Equal(t, "50", got[0].Magnitude().Value.String())
	})

	assert.Equal(t, before, s.Snapshot())
}

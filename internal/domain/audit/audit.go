package audit

import (
	"sort"
	"sync"
	"time"

	"shop-economy/internal/domain/modifier"
)

// Action 監査対象の操作
type Action string

const (
	ActionCreate  Action = "create"
	ActionEdit    Action = "edit"
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
	ActionRemove  Action = "remove"
	// ActionSupersede 固定価格の追加により自動で無効化された
	ActionSupersede Action = "supersede"
)

// Entry 監査ログの1件
// Before は作成時、After は削除時に nil
type Entry struct {
	ID         string          `json:"id"`
	Seq        uint64          `json:"seq"`
	ShopID     string          `json:"shop_id"`
	ModifierID string          `json:"modifier_id"`
	Actor      string          `json:"actor"`
	Action     Action          `json:"action"`
	At         time.Time       `json:"at"`
	Before     *modifier.State `json:"before,omitempty"`
	After      *modifier.State `json:"after,omitempty"`
}

// Log 追記専用の監査ログ
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	seq     uint64
}

// NewLog 新しいLogを作成
func NewLog() *Log {
	return &Log{}
}

// Append 追記し、採番済みのEntryを返す
func (l *Log) Append(e Entry) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seq++
	e.Seq = l.seq
	l.entries = append(l.entries, e)
	return e
}

// Entries 全件を追記順で返す
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ForShop 指定ショップの全件を追記順で返す
func (l *Log) ForShop(shopID string) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Entry
	for _, e := range l.entries {
		if e.ShopID == shopID {
			out = append(out, e)
		}
	}
	return out
}

// Len 件数を返す
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Restore 保存済みのEntryで置き換える。Seq順に並べ直す
func (l *Log) Restore(entries []Entry) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Seq < sorted[j].Seq })

	var maxSeq uint64
	for _, e := range sorted {
		if e.Seq > maxSeq {
			maxSeq = e.Seq
		}
	}

	l.mu.Lock()
	l.entries = sorted
	l.seq = maxSeq
	l.mu.Unlock()
}

package currency

import (
	"sort"
	"sync"
)

// AccountState 永続化用の口座スナップショット
type AccountState struct {
	OwnerID string      `json:"owner_id"`
	Kind    AccountKind `json:"kind"`
	Balance int64       `json:"balance"`
	Version int         `json:"version"`
}

// Ledger 同一種別の口座をまとめて管理する台帳
type Ledger struct {
	mu       sync.Mutex
	kind     AccountKind
	accounts map[string]*Account
}

// NewLedger 新しいLedgerを作成
func NewLedger(kind AccountKind) *Ledger {
	return &Ledger{
		kind:     kind,
		accounts: make(map[string]*Account),
	}
}

// Kind 台帳の口座種別を返す
func (l *Ledger) Kind() AccountKind {
	return l.kind
}

// Balance 残高を返す。口座が存在しない場合は0
func (l *Ledger) Balance(ownerID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	if a, ok := l.accounts[ownerID]; ok {
		return a.Balance()
	}
	return 0
}

// Grant 口座に付与する。口座が無ければ作成する
func (l *Ledger) Grant(ownerID string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.accountLocked(ownerID)
	if err != nil {
		return err
	}
	return a.Grant(amount)
}

// Consume 口座から消費する（マイナス不可）
func (l *Ledger) Consume(ownerID string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, ok := l.accounts[ownerID]
	if !ok {
		if amount > 0 {
			return ErrInsufficientBalance
		}
		return ErrInvalidAmount
	}
	return a.Consume(amount)
}

// ConsumeAllowNegative 口座から消費する（マイナス許容）
func (l *Ledger) ConsumeAllowNegative(ownerID string, amount int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	a, err := l.accountLocked(ownerID)
	if err != nil {
		return err
	}
	return a.ConsumeAllowNegative(amount)
}

func (l *Ledger) accountLocked(ownerID string) (*Account, error) {
	if a, ok := l.accounts[ownerID]; ok {
		return a, nil
	}
	a, err := NewAccount(ownerID, l.kind, 0, 0)
	if err != nil {
		return nil, err
	}
	l.accounts[ownerID] = a
	return a, nil
}

// Snapshot 全口座の状態を所有者ID順で返す
func (l *Ledger) Snapshot() []AccountState {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AccountState, 0, len(l.accounts))
	for _, a := range l.accounts {
		out = append(out, AccountState{
			OwnerID: a.ownerID,
			Kind:    a.kind,
			Balance: a.balance,
			Version: a.version,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OwnerID < out[j].OwnerID })
	return out
}

// Restore スナップショットから台帳を復元する。既存の口座は破棄される
func (l *Ledger) Restore(states []AccountState) error {
	accounts := make(map[string]*Account, len(states))
	for _, s := range states {
		a, err := NewAccount(s.OwnerID, l.kind, s.Balance, s.Version)
		if err != nil {
			return err
		}
		accounts[s.OwnerID] = a
	}
	l.mu.Lock()
	l.accounts = accounts
	l.mu.Unlock()
	return nil
}

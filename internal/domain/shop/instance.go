package shop

import (
	"regexp"
	"sync"

	"shop-economy/internal/domain/currency"
	"shop-economy/internal/domain/modifier"
)

var shopIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.:]{1,128}$`)

// ValidID ショップIDとして有効かを返す
func ValidID(id string) bool {
	return shopIDRegex.MatchString(id)
}

// Instance ショップインスタンス
// 共有ショップでも参加者ごとのコピーは作らず、全員が同じInstanceを参照する
type Instance struct {
	id      string
	shared  bool
	store   *modifier.Store
	takings *currency.Ledger

	mutation sync.Mutex // 構造変更の直列化

	leaseMu sync.Mutex
	leases  map[string]int // 取引中の保持者ごとの件数
	deleted bool
}

// NewInstance 新しいInstanceを作成
func NewInstance(id string, shared bool, opts ...modifier.Option) (*Instance, error) {
	if !ValidID(id) {
		return nil, ErrInvalidShopID
	}
	return &Instance{
		id:      id,
		shared:  shared,
		store:   modifier.NewStore(opts...),
		takings: currency.NewLedger(currency.AccountKindShopTakings),
		leases:  make(map[string]int),
	}, nil
}

// ID ショップIDを返す
func (i *Instance) ID() string {
	return i.id
}

// Shared 共有ショップかどうかを返す
func (i *Instance) Shared() bool {
	return i.shared
}

// Store 修飾子ストアを返す
func (i *Instance) Store() *modifier.Store {
	return i.store
}

// Takings 売上台帳を返す。口座の所有者はショップID
func (i *Instance) Takings() *currency.Ledger {
	return i.takings
}

// Balance ショップの売上残高を返す
func (i *Instance) Balance() int64 {
	return i.takings.Balance(i.id)
}

// ActiveLeases 取引中の件数を返す
func (i *Instance) ActiveLeases() int {
	i.leaseMu.Lock()
	defer i.leaseMu.Unlock()
	n := 0
	for _, c := range i.leases {
		n += c
	}
	return n
}

func (i *Instance) heldByOthersLocked(requester string) bool {
	for holder, c := range i.leases {
		if holder != requester && c > 0 {
			return true
		}
	}
	return false
}

func (i *Instance) acquireLease(holder string) error {
	i.leaseMu.Lock()
	defer i.leaseMu.Unlock()
	if i.deleted {
		return ErrUnknownShop
	}
	i.leases[holder]++
	return nil
}

func (i *Instance) releaseLease(holder string) {
	i.leaseMu.Lock()
	defer i.leaseMu.Unlock()
	i.leases[holder]--
	if i.leases[holder] <= 0 {
		delete(i.leases, holder)
	}
}

// Lease 取引中であることを示す参照
type Lease struct {
	instance *Instance
	holder   string
	once     sync.Once
}

// Instance 対象のショップを返す
func (l *Lease) Instance() *Instance {
	return l.instance
}

// Holder 保持者を返す
func (l *Lease) Holder() string {
	return l.holder
}

// Release 取引の終了を通知する。複数回呼んでも1回分のみ解放される
func (l *Lease) Release() {
	l.once.Do(func() {
		l.instance.releaseLease(l.holder)
	})
}

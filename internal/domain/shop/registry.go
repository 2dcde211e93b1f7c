package shop

import (
	"fmt"
	"sort"
	"sync"

	"shop-economy/internal/domain/currency"
	"shop-economy/internal/domain/modifier"
)

// Registry ショップIDとInstanceの対応を管理する
// ロック順序は Instance.mutation → Registry → Instance.leaseMu
type Registry struct {
	mu        sync.RWMutex
	shops     map[string]*Instance
	wallets   *currency.Ledger
	storeOpts []modifier.Option
}

// RegistryOption Registryの設定
type RegistryOption func(*Registry)

// WithStoreOptions 新規作成するInstanceの修飾子ストアに渡す設定
func WithStoreOptions(opts ...modifier.Option) RegistryOption {
	return func(r *Registry) {
		r.storeOpts = append(r.storeOpts, opts...)
	}
}

// NewRegistry 新しいRegistryを作成
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		shops:   make(map[string]*Instance),
		wallets: currency.NewLedger(currency.AccountKindPlayerFunds),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewInstance このRegistryの設定でInstanceを作成する（登録はしない）
func (r *Registry) NewInstance(id string, shared bool) (*Instance, error) {
	return NewInstance(id, shared, r.storeOpts...)
}

// GetOrCreate IDに対応するInstanceを返す。存在しなければ作成する
// 既存のInstanceの共有フラグは作成時のものが維持される
func (r *Registry) GetOrCreate(id string, shared bool) (*Instance, bool, error) {
	if !ValidID(id) {
		return nil, false, fmt.Errorf("%w: %q", ErrInvalidShopID, id)
	}

	r.mu.RLock()
	inst, ok := r.shops[id]
	r.mu.RUnlock()
	if ok {
		return inst, false, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if inst, ok := r.shops[id]; ok {
		return inst, false, nil
	}
	inst, err := r.NewInstance(id, shared)
	if err != nil {
		return nil, false, err
	}
	r.shops[id] = inst
	return inst, true, nil
}

// Get IDに対応するInstanceを返す
func (r *Registry) Get(id string) (*Instance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.shops[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShop, id)
	}
	return inst, nil
}

// Delete Instanceと修飾子ストアを削除する
// requester以外が取引中の場合はErrShopInUse
func (r *Registry) Delete(id, requester string) error {
	return r.WithShop(id, func(inst *Instance) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.shops[id] != inst {
			return fmt.Errorf("%w: %s", ErrUnknownShop, id)
		}

		inst.leaseMu.Lock()
		defer inst.leaseMu.Unlock()
		if inst.heldByOthersLocked(requester) {
			return fmt.Errorf("%w: %s", ErrShopInUse, id)
		}
		inst.deleted = true
		delete(r.shops, id)
		return nil
	})
}

// BeginTransaction 取引の開始を登録し、Leaseを返す
// 呼び出し元は全ての経路でLease.Releaseを呼ぶこと
func (r *Registry) BeginTransaction(id, holder string) (*Lease, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	inst, ok := r.shops[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownShop, id)
	}
	if err := inst.acquireLease(holder); err != nil {
		return nil, fmt.Errorf("%w: %s", err, id)
	}
	return &Lease{instance: inst, holder: holder}, nil
}

// WithShop ショップの状態を排他的に取得してfnを実行する
// 同一ショップへの構造変更は同時に1つだけ実行され、panicを含む全ての経路で解放される
func (r *Registry) WithShop(id string, fn func(inst *Instance) error) error {
	inst, err := r.Get(id)
	if err != nil {
		return err
	}

	inst.mutation.Lock()
	defer inst.mutation.Unlock()

	inst.leaseMu.Lock()
	deleted := inst.deleted
	inst.leaseMu.Unlock()
	if deleted {
		return fmt.Errorf("%w: %s", ErrUnknownShop, id)
	}

	return fn(inst)
}

// IDs 登録済みのショップIDを昇順で返す
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.shops))
	for id := range r.shops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Instances 登録済みのInstanceをID順で返す
func (r *Registry) Instances() []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Instance, 0, len(r.shops))
	for _, inst := range r.shops {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Wallets プレイヤー所持金の台帳を返す
func (r *Registry) Wallets() *currency.Ledger {
	return r.wallets
}

// Replace 登録内容を丸ごと置き換える（ロード用）
// 取引中のショップがある場合はErrShopInUse
func (r *Registry) Replace(instances []*Instance, wallets []currency.AccountState) error {
	shops := make(map[string]*Instance, len(instances))
	for _, inst := range instances {
		if _, dup := shops[inst.id]; dup {
			return fmt.Errorf("%w: duplicate %s", ErrInvalidShopID, inst.id)
		}
		shops[inst.id] = inst
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, inst := range r.shops {
		if inst.ActiveLeases() > 0 {
			return fmt.Errorf("%w: %s", ErrShopInUse, id)
		}
	}
	if err := r.wallets.Restore(wallets); err != nil {
		return err
	}
	for _, inst := range r.shops {
		inst.leaseMu.Lock()
		inst.deleted = true
		inst.leaseMu.Unlock()
	}
	r.shops = shops
	return nil
}

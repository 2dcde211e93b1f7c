package devmenu

import (
	"context"
	"sort"
	"sync"
)

// SpecialsEditorName スペシャル編集ツールのサービス名
const SpecialsEditorName = "specials-editor"

// NotLoadedNotice ツールが登録されていない場合の通知文
const NotLoadedNotice = "Specials Creator is not loaded."

// Launcher メニューから起動されるツールの入口
type Launcher interface {
	Launch(ctx context.Context, args map[string]string) (*Result, error)
}

// LauncherFunc 関数をLauncherとして扱うアダプタ
type LauncherFunc func(ctx context.Context, args map[string]string) (*Result, error)

// Launch fを呼び出す
func (f LauncherFunc) Launch(ctx context.Context, args map[string]string) (*Result, error) {
	return f(ctx, args)
}

// ServiceRegistry ツールの登録先
// ホストは名前で問い合わせ、登録の有無で動作を切り替える
type ServiceRegistry struct {
	mu       sync.RWMutex
	services map[string]Launcher
}

// NewServiceRegistry 新しいServiceRegistryを作成
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{services: make(map[string]Launcher)}
}

// Register ツールを登録する。同名は置き換える
func (r *ServiceRegistry) Register(name string, l Launcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.services[name] = l
}

// Unregister 登録を解除する
func (r *ServiceRegistry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.services, name)
}

// Lookup 名前でツールを取得
func (r *ServiceRegistry) Lookup(name string) (Launcher, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.services[name]
	return l, ok
}

// Has 登録済みかどうか
func (r *ServiceRegistry) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names 登録済みの名前を昇順で返す
func (r *ServiceRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.services))
	for n := range r.services {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SpecialsCreatorContribution スペシャル作成ツールのメニュー項目
// 既存の2件目の直後に入る。実行時に登録を確認し、無ければ通知を返す
func SpecialsCreatorContribution(services *ServiceRegistry) Contribution {
	return Contribution{
		Option: Option{
			Key:         "specials_creator",
			Label:       "Specials Creator",
			Description: "Create and edit shop sales and markups",
			Action: func(ctx context.Context, args map[string]string) (*Result, error) {
				l, ok := services.Lookup(SpecialsEditorName)
				if !ok {
					return &Result{Notice: NotLoadedNotice}, nil
				}
				return l.Launch(ctx, args)
			},
		},
		Position: AfterEntry(2),
	}
}

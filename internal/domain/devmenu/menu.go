// Package devmenu ホストの開発者メニューと拡張ポイントを扱う
package devmenu

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

var keyRegex = regexp.MustCompile(`^[a-z0-9_\-]{1,64}$`)

// Result メニュー項目の実行結果
// Noticeはユーザーへの通知文（ツール未ロードなど）
type Result struct {
	Message string
	Notice  string
	Data    map[string]interface{}
}

// Action メニュー項目の処理
type Action func(ctx context.Context, args map[string]string) (*Result, error)

// Option メニュー項目
type Option struct {
	Key         string
	Label       string
	Description string
	Action      Action
}

// Validate 項目の妥当性を検証する
func (o Option) Validate() error {
	if !keyRegex.MatchString(o.Key) {
		return fmt.Errorf("%w: key %q", ErrInvalidOption, o.Key)
	}
	if strings.TrimSpace(o.Label) == "" {
		return fmt.Errorf("%w: empty label for %q", ErrInvalidOption, o.Key)
	}
	if o.Action == nil {
		return fmt.Errorf("%w: no action for %q", ErrInvalidOption, o.Key)
	}
	return nil
}

// Menu 順序付きのメニュー
type Menu struct {
	title   string
	options []Option
}

// NewMenu 新しいMenuを作成
func NewMenu(title string, options ...Option) (*Menu, error) {
	m := &Menu{title: title}
	for _, o := range options {
		if err := m.Add(o); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Title タイトルを返す
func (m *Menu) Title() string {
	return m.title
}

// Add 末尾に項目を追加
func (m *Menu) Add(o Option) error {
	return m.Insert(len(m.options), o)
}

// Insert index番目に項目を挿入する。indexが範囲外の場合は末尾に追加する
func (m *Menu) Insert(index int, o Option) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if m.Has(o.Key) {
		return fmt.Errorf("%w: %q", ErrDuplicateOption, o.Key)
	}
	if index < 0 || index > len(m.options) {
		index = len(m.options)
	}
	m.options = append(m.options, Option{})
	copy(m.options[index+1:], m.options[index:])
	m.options[index] = o
	return nil
}

// Options 項目を表示順で返す
func (m *Menu) Options() []Option {
	out := make([]Option, len(m.options))
	copy(out, m.options)
	return out
}

// Len 項目数を返す
func (m *Menu) Len() int {
	return len(m.options)
}

// Has キーに対応する項目があるか
func (m *Menu) Has(key string) bool {
	_, ok := m.lookup(key)
	return ok
}

func (m *Menu) lookup(key string) (Option, bool) {
	key = strings.ToLower(key)
	for _, o := range m.options {
		if o.Key == key {
			return o, true
		}
	}
	return Option{}, false
}

// Exec キーに対応する項目を実行する
func (m *Menu) Exec(ctx context.Context, key string, args map[string]string) (*Result, error) {
	o, ok := m.lookup(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrOptionNotFound, key)
	}
	return o.Action(ctx, args)
}

// Builder 既存のメニューを組み立てるホスト側のコンポーネント
type Builder func() (*Menu, error)

// Position 拡張項目の挿入位置
// After件目の既存項目の直後に挿入する。既存項目がAfter件未満なら末尾
type Position struct {
	After int
}

// Append 末尾に追加する位置
var Append = Position{After: -1}

// AfterEntry n件目の既存項目の直後
func AfterEntry(n int) Position {
	return Position{After: n}
}

// Contribution 拡張ポイントに登録する項目
type Contribution struct {
	Option   Option
	Position Position
}

// ExtensionPoint ホストのメニューに項目を差し込むための登録先
type ExtensionPoint struct {
	mu            sync.RWMutex
	contributions []Contribution
}

// NewExtensionPoint 新しいExtensionPointを作成
func NewExtensionPoint() *ExtensionPoint {
	return &ExtensionPoint{}
}

// Register 項目を登録する。登録順に適用される
func (e *ExtensionPoint) Register(c Contribution) error {
	if err := c.Option.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, existing := range e.contributions {
		if existing.Option.Key == c.Option.Key {
			return fmt.Errorf("%w: %q", ErrDuplicateOption, c.Option.Key)
		}
	}
	e.contributions = append(e.contributions, c)
	return nil
}

// Contributions 登録済みの項目を登録順で返す
func (e *ExtensionPoint) Contributions() []Contribution {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Contribution, len(e.contributions))
	copy(out, e.contributions)
	return out
}

// Build builderでメニューを組み立て、登録済みの項目を差し込む
// 挿入位置は差し込み前の既存項目の件数で決まる
func (e *ExtensionPoint) Build(builder Builder) (*Menu, error) {
	menu, err := builder()
	if err != nil {
		return nil, err
	}
	base := menu.Len()

	contributions := e.Contributions()
	for _, c := range contributions {
		index := -1
		if c.Position.After >= 0 && c.Position.After <= base {
			index = c.Position.After + countBefore(contributions, c, base)
		}
		if err := menu.Insert(index, c.Option); err != nil {
			return nil, err
		}
	}
	return menu, nil
}

// countBefore cより前に登録され、同じかより前の位置に挿入された項目数
func countBefore(all []Contribution, c Contribution, base int) int {
	n := 0
	for _, other := range all {
		if other.Option.Key == c.Option.Key {
			break
		}
		after := other.Position.After
		if after < 0 || after > base {
			continue
		}
		if after <= c.Position.After {
			n++
		}
	}
	return n
}

package modifier

import (
	"fmt"
	"regexp"
	"time"
	"unicode/utf8"
)

const (
	// MaxNameLength 名前の最大文字数
	MaxNameLength = 128
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.:]{1,128}$`)

// Definition 修飾子の編集可能な定義部分
type Definition struct {
	Name      string    `json:"name"`
	Scope     Scope     `json:"scope"`
	Kind      Kind      `json:"kind"`
	Magnitude Magnitude `json:"magnitude"`
	Priority  int       `json:"priority"`
	Window    Window    `json:"window"`
	Side      Side      `json:"side"`
}

// Normalize 省略可能な項目に既定値を補う
func (d Definition) Normalize() Definition {
	if d.Side == "" {
		d.Side = SideBoth
	}
	return d
}

// Validate 構造上の妥当性を検証する
func (d Definition) Validate() error {
	if utf8.RuneCountInString(d.Name) > MaxNameLength {
		return fmt.Errorf("%w: name longer than %d characters", ErrInvalidModifier, MaxNameLength)
	}
	if !d.Scope.Valid() {
		return fmt.Errorf("%w: scope %q", ErrInvalidModifier, d.Scope.String())
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: kind %q", ErrInvalidModifier, d.Kind)
	}
	if !d.Magnitude.Unit.Valid() {
		return fmt.Errorf("%w: unit %q", ErrInvalidModifier, d.Magnitude.Unit)
	}
	if !d.Side.Valid() {
		return fmt.Errorf("%w: side %q", ErrInvalidModifier, d.Side)
	}
	if !d.Window.Valid() {
		return fmt.Errorf("%w: activation window must end after it starts", ErrInvalidModifier)
	}

	if d.Magnitude.Unit == UnitAbsolute && d.Magnitude.Value.Abs().GreaterThan(maxPrice) {
		return fmt.Errorf("%w: absolute magnitude %s exceeds %d", ErrInvalidModifier, d.Magnitude, MaxPrice)
	}

	switch d.Kind {
	case KindFixedOverride:
		if d.Magnitude.Unit != UnitAbsolute {
			return fmt.Errorf("%w: fixed override must be an absolute price", ErrInvalidModifier)
		}
		if d.Magnitude.Value.IsNegative() {
			return fmt.Errorf("%w: fixed override must be a non-negative price", ErrInvalidModifier)
		}
	case KindMarkdown:
		if d.Magnitude.Unit == UnitPercent && d.Magnitude.Value.Abs().GreaterThanOrEqual(hundred) {
			return fmt.Errorf("%w: markdown of %s removes the whole price", ErrInvalidModifier, d.Magnitude)
		}
	}
	return nil
}

// IsItemOverride アイテム単位の固定価格かどうかを返す
func (d Definition) IsItemOverride() bool {
	return d.Kind == KindFixedOverride && d.Scope.Kind == ScopeKindItem
}

// Modifier 価格修飾子（スペシャル）エンティティ
type Modifier struct {
	id        string
	def       Definition
	enabled   bool
	sequence  uint64    // ストア内での作成順
	createdAt time.Time // 作成時のシミュレーション時刻
}

// NewModifier 新しいModifierを作成
func NewModifier(id string, def Definition, enabled bool, createdAt time.Time) (*Modifier, error) {
	if !idRegex.MatchString(id) {
		return nil, fmt.Errorf("%w: id %q", ErrInvalidModifier, id)
	}
	def = def.Normalize()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &Modifier{
		id:        id,
		def:       def,
		enabled:   enabled,
		createdAt: createdAt,
	}, nil
}

// ID IDを返す
func (m *Modifier) ID() string {
	return m.id
}

// Definition 定義を返す
func (m *Modifier) Definition() Definition {
	return m.def
}

// Name 名前を返す
func (m *Modifier) Name() string {
	return m.def.Name
}

// Scope 適用範囲を返す
func (m *Modifier) Scope() Scope {
	return m.def.Scope
}

// Kind 種類を返す
func (m *Modifier) Kind() Kind {
	return m.def.Kind
}

// Magnitude 大きさを返す
func (m *Modifier) Magnitude() Magnitude {
	return m.def.Magnitude
}

// Priority 優先度を返す
func (m *Modifier) Priority() int {
	return m.def.Priority
}

// Window 有効期間を返す
func (m *Modifier) Window() Window {
	return m.def.Window
}

// Side 取引方向を返す
func (m *Modifier) Side() Side {
	return m.def.Side
}

// Enabled 有効フラグを返す
func (m *Modifier) Enabled() bool {
	return m.enabled
}

// Sequence 作成順を返す
func (m *Modifier) Sequence() uint64 {
	return m.sequence
}

// CreatedAt 作成時刻を返す
func (m *Modifier) CreatedAt() time.Time {
	return m.createdAt
}

// IsActive now 時点で価格計算に参加するかを返す
func (m *Modifier) IsActive(now time.Time) bool {
	return m.enabled && m.def.Window.Contains(now)
}

// State 永続化・監査用のスナップショット
type State struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Scope     Scope     `json:"scope"`
	Kind      Kind      `json:"kind"`
	Magnitude Magnitude `json:"magnitude"`
	Priority  int       `json:"priority"`
	Window    Window    `json:"window"`
	Side      Side      `json:"side"`
	Enabled   bool      `json:"enabled"`
	Sequence  uint64    `json:"sequence"`
	CreatedAt time.Time `json:"created_at"`
}

// State スナップショットを返す
func (m *Modifier) State() State {
	return State{
		ID:        m.id,
		Name:      m.def.Name,
		Scope:     m.def.Scope,
		Kind:      m.def.Kind,
		Magnitude: m.def.Magnitude,
		Priority:  m.def.Priority,
		Window:    m.def.Window,
		Side:      m.def.Side,
		Enabled:   m.enabled,
		Sequence:  m.sequence,
		CreatedAt: m.createdAt,
	}
}

// FromState スナップショットからModifierを復元する
func FromState(s State) (*Modifier, error) {
	m, err := NewModifier(s.ID, Definition{
		Name:      s.Name,
		Scope:     s.Scope,
		Kind:      s.Kind,
		Magnitude: s.Magnitude,
		Priority:  s.Priority,
		Window:    s.Window,
		Side:      s.Side,
	}, s.Enabled, s.CreatedAt)
	if err != nil {
		return nil, err
	}
	m.sequence = s.Sequence
	return m, nil
}

// MustNewModifier テスト用ヘルパー: NewModifierを呼び出し、エラーが発生した場合はpanicする
func MustNewModifier(id string, def Definition, enabled bool, createdAt time.Time) *Modifier {
	m, err := NewModifier(id, def, enabled, createdAt)
	if err != nil {
		panic(err)
	}
	return m
}

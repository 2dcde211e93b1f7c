package specials

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"shop-economy/internal/domain/modifier"
)

// toDefinition 入力値から修飾子定義を組み立てる
func (d Draft) toDefinition(now time.Time) (modifier.Definition, error) {
	if d.ScopeKind == "" {
		return modifier.Definition{}, fmt.Errorf("%w: empty scope", modifier.ErrInvalidModifier)
	}
	scopeKind, err := modifier.NewScopeKind(d.ScopeKind)
	if err != nil {
		return modifier.Definition{}, err
	}
	kind, err := modifier.NewKind(d.Kind)
	if err != nil {
		return modifier.Definition{}, err
	}
	unit := d.Unit
	if unit == "" && kind == modifier.KindFixedOverride {
		unit = string(modifier.UnitAbsolute)
	}
	u, err := modifier.NewUnit(unit)
	if err != nil {
		return modifier.Definition{}, err
	}
	value, err := parseValue(d.Value)
	if err != nil {
		return modifier.Definition{}, err
	}
	side, err := modifier.NewSide(d.Side)
	if err != nil {
		return modifier.Definition{}, err
	}

	return modifier.Definition{
		Name:      d.Name,
		Scope:     modifier.Scope{Kind: scopeKind, Target: d.ScopeTarget},
		Kind:      kind,
		Magnitude: modifier.Magnitude{Value: value, Unit: u},
		Priority:  d.Priority,
		Window:    buildWindow(d.Manual, d.Start, d.End, now),
		Side:      side,
	}, nil
}

// apply 既存の定義に変更を適用する
func (c Changes) apply(def modifier.Definition, now time.Time) (modifier.Definition, error) {
	if c.Name != nil {
		def.Name = *c.Name
	}
	if c.ScopeKind != nil {
		if *c.ScopeKind == "" {
			return def, fmt.Errorf("%w: empty scope", modifier.ErrInvalidModifier)
		}
		k, err := modifier.NewScopeKind(*c.ScopeKind)
		if err != nil {
			return def, err
		}
		def.Scope.Kind = k
		if k == modifier.ScopeKindShop {
			def.Scope.Target = ""
		}
	}
	if c.ScopeTarget != nil {
		def.Scope.Target = *c.ScopeTarget
	}
	if c.Kind != nil {
		k, err := modifier.NewKind(*c.Kind)
		if err != nil {
			return def, err
		}
		def.Kind = k
	}
	if c.Value != nil {
		v, err := parseValue(*c.Value)
		if err != nil {
			return def, err
		}
		def.Magnitude.Value = v
	}
	if c.Unit != nil {
		u, err := modifier.NewUnit(*c.Unit)
		if err != nil {
			return def, err
		}
		def.Magnitude.Unit = u
	}
	if c.Priority != nil {
		def.Priority = *c.Priority
	}
	if c.Side != nil {
		s, err := modifier.NewSide(*c.Side)
		if err != nil {
			return def, err
		}
		def.Side = s
	}

	if c.Manual != nil {
		if *c.Manual {
			def.Window = modifier.ManualWindow()
		} else if def.Window.Manual {
			def.Window = modifier.From(now)
		}
	}
	if c.Start != nil {
		def.Window.Manual = false
		def.Window.Start = *c.Start
	}
	if c.ClearEnd {
		def.Window.End = nil
	} else if c.End != nil {
		end := *c.End
		def.Window.Manual = false
		def.Window.End = &end
	}
	return def, nil
}

func parseValue(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: magnitude %q is not a number", modifier.ErrInvalidModifier, s)
	}
	return v, nil
}

func buildWindow(manual bool, start, end *time.Time, now time.Time) modifier.Window {
	if manual {
		return modifier.ManualWindow()
	}
	w := modifier.From(now)
	if start != nil {
		w.Start = *start
	}
	if end != nil {
		e := *end
		w.End = &e
	}
	return w
}

// validateDraft ストアに渡す前の編集者向け検証
func validateDraft(def modifier.Definition, now time.Time, allowExpired bool) error {
	if def.Scope.IsZero() {
		return fmt.Errorf("%w: empty scope", modifier.ErrInvalidModifier)
	}
	if err := def.Normalize().Validate(); err != nil {
		return err
	}
	// 0円の固定価格は贈与として有効
	if def.Kind != modifier.KindFixedOverride && def.Magnitude.IsZero() {
		return fmt.Errorf("%w: %s of zero has no effect", modifier.ErrNoopModifier, def.Kind)
	}
	if !allowExpired && def.Window.ExpiredAt(now) {
		return fmt.Errorf("%w: window ended at %s", modifier.ErrAlreadyExpired, def.Window.End.Format(time.RFC3339))
	}
	return nil
}

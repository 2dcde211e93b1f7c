package modifier

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Unit 倍率の単位
type Unit string

const (
	UnitPercent  Unit = "percent"  // 現在価格に対する百分率
	UnitAbsolute Unit = "absolute" // 通貨単位の絶対額
)

// NewUnit 新しいUnitを作成
func NewUnit(s string) (Unit, error) {
	switch s {
	case "percent", "absolute":
		return Unit(s), nil
	default:
		return "", fmt.Errorf("%w: unit %q", ErrInvalidModifier, s)
	}
}

// Valid 有効な単位かどうかを返す
func (u Unit) Valid() bool {
	return u == UnitPercent || u == UnitAbsolute
}

// MaxPrice 価格として扱える上限
// 数量を掛けた合計もint64に収まるよう余裕を持たせている
const MaxPrice int64 = 1_000_000_000_000

var (
	hundred  = decimal.NewFromInt(100)
	maxPrice = decimal.NewFromInt(MaxPrice)
)

// Magnitude 修飾子の大きさ
// 値上げ・値下げの方向はKindで決まり、Valueの符号は無視される
type Magnitude struct {
	Value decimal.Decimal `json:"value"`
	Unit  Unit            `json:"unit"`
}

// Percent 百分率のMagnitudeを作成
func Percent(v float64) Magnitude {
	return Magnitude{Value: decimal.NewFromFloat(v), Unit: UnitPercent}
}

// Absolute 絶対額のMagnitudeを作成
func Absolute(v int64) Magnitude {
	return Magnitude{Value: decimal.NewFromInt(v), Unit: UnitAbsolute}
}

// IsZero 大きさが0かどうかを返す
func (m Magnitude) IsZero() bool {
	return m.Value.IsZero()
}

// Apply 現在価格にこの大きさを適用した価格を返す
// FixedOverrideの場合はValueそのもの
func (m Magnitude) Apply(running decimal.Decimal, kind Kind) decimal.Decimal {
	v := m.Value.Abs()
	switch kind {
	case KindMarkup:
		if m.Unit == UnitPercent {
			return running.Mul(hundred.Add(v)).Div(hundred)
		}
		return running.Add(v)
	case KindMarkdown:
		if m.Unit == UnitPercent {
			return running.Mul(hundred.Sub(v)).Div(hundred)
		}
		return running.Sub(v)
	case KindFixedOverride:
		return m.Value
	default:
		return running
	}
}

// String 文字列表現を返す
func (m Magnitude) String() string {
	if m.Unit == UnitPercent {
		return m.Value.String() + "%"
	}
	return m.Value.String()
}

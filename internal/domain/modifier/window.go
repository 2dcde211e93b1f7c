package modifier

import (
	"time"
)

// Window 有効期間
// Manualの場合は時刻を持たず、enabledフラグのみで有効性が決まる
// End が nil の場合は終了しない
type Window struct {
	Start  time.Time  `json:"start,omitempty"`
	End    *time.Time `json:"end,omitempty"`
	Manual bool       `json:"manual,omitempty"`
}

// ManualWindow 手動切替のWindowを作成
func ManualWindow() Window {
	return Window{Manual: true}
}

// Between 開始・終了時刻付きのWindowを作成
func Between(start, end time.Time) Window {
	return Window{Start: start, End: &end}
}

// From 開始時刻のみのWindowを作成
func From(start time.Time) Window {
	return Window{Start: start}
}

// Valid 終了時刻が開始時刻より後であるかなどを検証する
func (w Window) Valid() bool {
	if w.Manual {
		return w.Start.IsZero() && w.End == nil
	}
	if w.End != nil && !w.End.After(w.Start) {
		return false
	}
	return true
}

// Contains now が期間内かどうかを返す（開始時刻を含み、終了時刻を含まない）
func (w Window) Contains(now time.Time) bool {
	if w.Manual {
		return true
	}
	if now.Before(w.Start) {
		return false
	}
	return w.End == nil || now.Before(*w.End)
}

// Bounds now を含み、Containsの結果が変わらない区間 [from, until) を返す
// ゼロ値はその側に境界がないことを表す
func (w Window) Bounds(now time.Time) (from, until time.Time) {
	if w.Manual {
		return time.Time{}, time.Time{}
	}
	edges := make([]time.Time, 0, 2)
	if !w.Start.IsZero() {
		edges = append(edges, w.Start)
	}
	if w.End != nil {
		edges = append(edges, *w.End)
	}
	for _, t := range edges {
		if t.After(now) {
			if until.IsZero() || t.Before(until) {
				until = t
			}
			continue
		}
		if t.After(from) {
			from = t
		}
	}
	return from, until
}

// ExpiredAt now 時点で期間が完全に過去かどうかを返す
func (w Window) ExpiredAt(now time.Time) bool {
	return !w.Manual && w.End != nil && !w.End.After(now)
}

// Equal 同じ期間かどうかを返す
func (w Window) Equal(other Window) bool {
	if w.Manual != other.Manual || !w.Start.Equal(other.Start) {
		return false
	}
	if w.End == nil || other.End == nil {
		return w.End == nil && other.End == nil
	}
	return w.End.Equal(*other.End)
}

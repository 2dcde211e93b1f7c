package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"shop-economy/internal/domain/modifier"
	"shop-economy/internal/domain/service"
)

// Clock 現在時刻の取得
// ホストがシミュレーション時刻を渡さない場合に使う
type Clock func() time.Time

// ErrorResponse エラーレスポンス
// @Description エラーレスポンス
type ErrorResponse struct {
	Error   string `json:"error" example:"unknown_shop"`
	Message string `json:"message" example:"unknown shop: village"`
}

// resolveTime クエリまたはボディの時刻を解釈する。空なら現在時刻
func resolveTime(raw string, clock Clock) (time.Time, error) {
	if raw == "" {
		return clock().UTC(), nil
	}
	at, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "at must be RFC3339")
	}
	return at, nil
}

// queryInt 整数クエリパラメータを取得。空ならdef
func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be an integer")
	}
	return v, nil
}

// bind リクエストボディを読み込む
func bind(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

// QuoteView 実効価格
// @Description 実効価格
type QuoteView struct {
	ShopID          string   `json:"shop_id" example:"village"`
	ItemID          string   `json:"item_id" example:"sword"`
	Category        string   `json:"category" example:"weapons"`
	TransactionType string   `json:"transaction_type" example:"buy"`
	BasePrice       int64    `json:"base_price" example:"100"`
	Price           int64    `json:"price" example:"120"`
	Applied         []string `json:"applied"`
	OverrideID      string   `json:"override_id,omitempty"`
	Clamped         bool     `json:"clamped"`
}

func toQuoteView(q *service.Quote) *QuoteView {
	if q == nil {
		return nil
	}
	applied := q.Applied
	if applied == nil {
		applied = []string{}
	}
	return &QuoteView{
		ShopID:          q.ShopID,
		ItemID:          q.Item.ID,
		Category:        q.Item.Category,
		TransactionType: q.TransactionType.String(),
		BasePrice:       q.BasePrice,
		Price:           q.Price,
		Applied:         applied,
		OverrideID:      q.OverrideID,
		Clamped:         q.Clamped,
	}
}

// ModifierView スペシャル
// @Description スペシャル（価格修飾子）
type ModifierView struct {
	ID          string     `json:"id" example:"6f1c2d3e-0000-4000-8000-000000000001"`
	Name        string     `json:"name" example:"Sword Rush"`
	ScopeKind   string     `json:"scope_kind" example:"item" enums:"item,category,shop"`
	ScopeTarget string     `json:"scope_target,omitempty" example:"sword"`
	Kind        string     `json:"kind" example:"markup" enums:"markup,markdown,fixed_override"`
	Value       string     `json:"value" example:"20"`
	Unit        string     `json:"unit" example:"percent" enums:"percent,absolute"`
	Priority    int        `json:"priority" example:"1"`
	Side        string     `json:"side" example:"both" enums:"buy,sell,both"`
	Manual      bool       `json:"manual"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Enabled     bool       `json:"enabled"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toModifierView(s modifier.State) ModifierView {
	v := ModifierView{
		ID:          s.ID,
		Name:        s.Name,
		ScopeKind:   s.Scope.Kind.String(),
		ScopeTarget: s.Scope.Target,
		Kind:        s.Kind.String(),
		Value:       s.Magnitude.Value.String(),
		Unit:        string(s.Magnitude.Unit),
		Priority:    s.Priority,
		Side:        s.Side.String(),
		Manual:      s.Window.Manual,
		End:         s.Window.End,
		Enabled:     s.Enabled,
		CreatedAt:   s.CreatedAt,
	}
	if !s.Window.Manual && !s.Window.Start.IsZero() {
		start := s.Window.Start
		v.Start = &start
	}
	return v
}

func toModifierViews(states []modifier.State) []ModifierView {
	views := make([]ModifierView, 0, len(states))
	for _, s := range states {
		views = append(views, toModifierView(s))
	}
	return views
}

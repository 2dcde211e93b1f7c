package handler

import (
	"time"

	"shop-economy/internal/application/specials"
	"shop-economy/internal/domain/modifier"
	"shop-economy/internal/domain/service"
	"shop-economy/internal/domain/transaction"
)

type priceRequest struct {
	ShopID          string `json:"shop_id"`
	ItemID          string `json:"item_id"`
	Category        string `json:"category"`
	TransactionType string `json:"transaction_type"`
	At              string `json:"at"`
}

type tradeRequest struct {
	ShopID   string `json:"shop_id"`
	ItemID   string `json:"item_id"`
	Category string `json:"category"`
	Quantity int    `json:"quantity"`
	At       string `json:"at"`
}

type tradeResponse struct {
	EventID         string   `json:"event_id"`
	ShopID          string   `json:"shop_id"`
	PlayerID        string   `json:"player_id"`
	ItemID          string   `json:"item_id"`
	TransactionType string   `json:"transaction_type"`
	Quantity        int      `json:"quantity"`
	UnitPrice       int64    `json:"unit_price"`
	Total           int64    `json:"total"`
	PlayerBalance   int64    `json:"player_balance"`
	ShopBalance     int64    `json:"shop_balance"`
	Applied         []string `json:"applied"`
}

type fundsMessage struct {
	PlayerID string `json:"player_id"`
	Amount   int64  `json:"amount,omitempty"`
	Balance  int64  `json:"balance"`
}

type quoteMessage struct {
	ShopID          string   `json:"shop_id"`
	ItemID          string   `json:"item_id"`
	Category        string   `json:"category"`
	TransactionType string   `json:"transaction_type"`
	BasePrice       int64    `json:"base_price"`
	Price           int64    `json:"price"`
	Applied         []string `json:"applied"`
	OverrideID      string   `json:"override_id,omitempty"`
	Clamped         bool     `json:"clamped"`
}

func toQuoteMessage(q *service.Quote) *quoteMessage {
	if q == nil {
		return nil
	}
	applied := q.Applied
	if applied == nil {
		applied = []string{}
	}
	return &quoteMessage{
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

type priceListEntry struct {
	ItemID   string        `json:"item_id"`
	Category string        `json:"category"`
	Tradable bool          `json:"tradable"`
	Quote    *quoteMessage `json:"quote"`
}

type shopRequest struct {
	ShopID    string `json:"shop_id"`
	Shared    bool   `json:"shared"`
	Requester string `json:"requester"`
}

type shopMessage struct {
	ShopID       string `json:"shop_id"`
	Shared       bool   `json:"shared"`
	Created      bool   `json:"created"`
	Balance      int64  `json:"balance"`
	Modifiers    int    `json:"modifiers"`
	ActiveLeases int    `json:"active_leases"`
}

type specialDraft struct {
	Name        string     `json:"name"`
	ScopeKind   string     `json:"scope_kind"`
	ScopeTarget string     `json:"scope_target"`
	Kind        string     `json:"kind"`
	Value       string     `json:"value"`
	Unit        string     `json:"unit"`
	Priority    int        `json:"priority"`
	Start       *time.Time `json:"start"`
	End         *time.Time `json:"end"`
	Manual      bool       `json:"manual"`
	Side        string     `json:"side"`
}

func (d specialDraft) toDraft() specials.Draft {
	return specials.Draft{
		Name:        d.Name,
		ScopeKind:   d.ScopeKind,
		ScopeTarget: d.ScopeTarget,
		Kind:        d.Kind,
		Value:       d.Value,
		Unit:        d.Unit,
		Priority:    d.Priority,
		Start:       d.Start,
		End:         d.End,
		Manual:      d.Manual,
		Side:        d.Side,
	}
}

type createSpecialRequest struct {
	specialDraft
	ShopID       string `json:"shop_id"`
	Disabled     bool   `json:"disabled"`
	AllowExpired bool   `json:"allow_expired"`
	Actor        string `json:"actor"`
	At           string `json:"at"`
}

type editSpecialRequest struct {
	ShopID       string     `json:"shop_id"`
	ModifierID   string     `json:"modifier_id"`
	Name         *string    `json:"name"`
	ScopeKind    *string    `json:"scope_kind"`
	ScopeTarget  *string    `json:"scope_target"`
	Kind         *string    `json:"kind"`
	Value        *string    `json:"value"`
	Unit         *string    `json:"unit"`
	Priority     *int       `json:"priority"`
	Start        *time.Time `json:"start"`
	End          *time.Time `json:"end"`
	ClearEnd     bool       `json:"clear_end"`
	Manual       *bool      `json:"manual"`
	Side         *string    `json:"side"`
	AllowExpired bool       `json:"allow_expired"`
	Actor        string     `json:"actor"`
	At           string     `json:"at"`
}

func (r editSpecialRequest) toChanges() specials.Changes {
	return specials.Changes{
		Name:        r.Name,
		ScopeKind:   r.ScopeKind,
		ScopeTarget: r.ScopeTarget,
		Kind:        r.Kind,
		Value:       r.Value,
		Unit:        r.Unit,
		Priority:    r.Priority,
		Start:       r.Start,
		End:         r.End,
		ClearEnd:    r.ClearEnd,
		Manual:      r.Manual,
		Side:        r.Side,
	}
}

// specialTarget 既存スペシャルを指す操作の共通リクエスト
type specialTarget struct {
	ShopID     string `json:"shop_id"`
	ModifierID string `json:"modifier_id"`
	Actor      string `json:"actor"`
	ItemID     string `json:"item_id"`
	Category   string `json:"category"`
	Side       string `json:"side"`
	ActiveOnly bool   `json:"active_only"`
	At         string `json:"at"`
}

type previewDraftRequest struct {
	ShopID   string       `json:"shop_id"`
	Draft    specialDraft `json:"draft"`
	ItemID   string       `json:"item_id"`
	Category string       `json:"category"`
	Side     string       `json:"side"`
	At       string       `json:"at"`
}

type modifierMessage struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	ScopeKind   string     `json:"scope_kind"`
	ScopeTarget string     `json:"scope_target,omitempty"`
	Kind        string     `json:"kind"`
	Value       string     `json:"value"`
	Unit        string     `json:"unit"`
	Priority    int        `json:"priority"`
	Side        string     `json:"side"`
	Manual      bool       `json:"manual"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`
	Enabled     bool       `json:"enabled"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toModifierMessage(s modifier.State) modifierMessage {
	m := modifierMessage{
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
		m.Start = &start
	}
	return m
}

type specialResponse struct {
	Special    modifierMessage `json:"special"`
	Superseded []string        `json:"superseded"`
}

func toSpecialResponse(resp *specials.MutationResponse) specialResponse {
	superseded := resp.Superseded
	if superseded == nil {
		superseded = []string{}
	}
	return specialResponse{Special: toModifierMessage(resp.Modifier), Superseded: superseded}
}

type previewResponse struct {
	Baseline *quoteMessage `json:"baseline"`
	With     *quoteMessage `json:"with"`
	Delta    int64         `json:"delta"`
}

func toPreviewResponse(resp *specials.PreviewResponse) previewResponse {
	out := previewResponse{
		Baseline: toQuoteMessage(resp.Baseline),
		With:     toQuoteMessage(resp.With),
	}
	if resp.Baseline != nil && resp.With != nil {
		out.Delta = resp.With.Price - resp.Baseline.Price
	}
	return out
}

type historyRequest struct {
	ShopID          string `json:"shop_id"`
	Limit           int    `json:"limit"`
	Offset          int    `json:"offset"`
	PlayerID        string `json:"player_id"`
	ItemID          string `json:"item_id"`
	TransactionType string `json:"transaction_type"`
}

type eventMessage struct {
	EventID         string    `json:"event_id"`
	ShopID          string    `json:"shop_id"`
	PlayerID        string    `json:"player_id"`
	ItemID          string    `json:"item_id"`
	Category        string    `json:"category"`
	TransactionType string    `json:"transaction_type"`
	Quantity        int       `json:"quantity"`
	UnitPrice       int64     `json:"unit_price"`
	Total           int64     `json:"total"`
	OccurredAt      time.Time `json:"occurred_at"`
}

func toEventMessage(ev *transaction.Event) eventMessage {
	return eventMessage{
		EventID:         ev.EventID(),
		ShopID:          ev.ShopID(),
		PlayerID:        ev.PlayerID(),
		ItemID:          ev.Item().ID,
		Category:        ev.Item().Category,
		TransactionType: ev.TransactionType().String(),
		Quantity:        ev.Quantity(),
		UnitPrice:       ev.EffectivePrice(),
		Total:           ev.Total(),
		OccurredAt:      ev.OccurredAt(),
	}
}

type slotRequest struct {
	Slot string `json:"slot"`
}

type slotMessage struct {
	Slot    string    `json:"slot"`
	Size    int       `json:"size"`
	Shops   int       `json:"shops,omitempty"`
	SavedAt time.Time `json:"saved_at"`
}

type shopLoadError struct {
	ShopID string `json:"shop_id"`
	Error  string `json:"error"`
}

type loadResponse struct {
	Slot        string          `json:"slot"`
	Version     int             `json:"version"`
	SavedAt     time.Time       `json:"saved_at"`
	Loaded      []string        `json:"loaded"`
	Failed      []shopLoadError `json:"failed"`
	WalletCount int             `json:"wallet_count"`
}

type menuOption struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type invokeRequest struct {
	Key  string            `json:"key"`
	Args map[string]string `json:"args"`
}

type invokeResponse struct {
	Key     string                 `json:"key"`
	Message string                 `json:"message"`
	Notice  string                 `json:"notice,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

package transaction

import (
	"fmt"
	"regexp"
	"time"

	"shop-economy/internal/domain/item"
)

const (
	// MaxQuantity 1取引あたりの最大数量
	MaxQuantity = 9_999
	// MaxTotal 1取引あたりの最大金額 (10兆)
	MaxTotal = 10_000_000_000_000
)

var idRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-\.\@:]{1,255}$`)

// Event 完了した売買の取引イベント
// 価格計算そのものには関与せず、通貨台帳などの購読者が消費する
type Event struct {
	eventID         string
	shopID          string
	playerID        string
	item            item.Ref
	transactionType TransactionType
	quantity        int
	unitPrice       int64
	occurredAt      time.Time // ホストが渡すシミュレーション時刻
}

// NewEvent 新しいEventを作成
func NewEvent(
	eventID string,
	shopID string,
	playerID string,
	ref item.Ref,
	transactionType TransactionType,
	quantity int,
	unitPrice int64,
	occurredAt time.Time,
) (*Event, error) {
	if !idRegex.MatchString(eventID) {
		return nil, fmt.Errorf("%w: event id", ErrInvalidEvent)
	}
	if !idRegex.MatchString(shopID) {
		return nil, fmt.Errorf("%w: shop id", ErrInvalidEvent)
	}
	if !idRegex.MatchString(playerID) {
		return nil, fmt.Errorf("%w: player id", ErrInvalidEvent)
	}
	if !ref.Valid() {
		return nil, fmt.Errorf("%w: item", ErrInvalidEvent)
	}
	if !transactionType.Valid() {
		return nil, fmt.Errorf("%w: transaction type", ErrInvalidEvent)
	}
	if quantity <= 0 || quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	if unitPrice < 0 || unitPrice > MaxTotal/int64(quantity) {
		return nil, fmt.Errorf("%w: unit price", ErrInvalidEvent)
	}

	return &Event{
		eventID:         eventID,
		shopID:          shopID,
		playerID:        playerID,
		item:            ref,
		transactionType: transactionType,
		quantity:        quantity,
		unitPrice:       unitPrice,
		occurredAt:      occurredAt,
	}, nil
}

// EventID イベントIDを返す
func (e *Event) EventID() string {
	return e.eventID
}

// ShopID ショップIDを返す
func (e *Event) ShopID() string {
	return e.shopID
}

// PlayerID プレイヤーIDを返す
func (e *Event) PlayerID() string {
	return e.playerID
}

// Item アイテム参照を返す
func (e *Event) Item() item.Ref {
	return e.item
}

// TransactionType 取引タイプを返す
func (e *Event) TransactionType() TransactionType {
	return e.transactionType
}

// Quantity 数量を返す
func (e *Event) Quantity() int {
	return e.quantity
}

// EffectivePrice 取引時の単価（実効価格）を返す
func (e *Event) EffectivePrice() int64 {
	return e.unitPrice
}

// Total 合計金額を返す
func (e *Event) Total() int64 {
	return e.unitPrice * int64(e.quantity)
}

// OccurredAt 発生時刻を返す
func (e *Event) OccurredAt() time.Time {
	return e.occurredAt
}

// MustNewEvent テスト用ヘルパー: NewEventを呼び出し、エラーが発生した場合はpanicする
func MustNewEvent(
	eventID string,
	shopID string,
	playerID string,
	ref item.Ref,
	transactionType TransactionType,
	quantity int,
	unitPrice int64,
	occurredAt time.Time,
) *Event {
	ev, err := NewEvent(eventID, shopID, playerID, ref, transactionType, quantity, unitPrice, occurredAt)
	if err != nil {
		panic(err)
	}
	return ev
}

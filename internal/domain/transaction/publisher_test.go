package transaction

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-economy/internal/domain/item"
)

func newTestEvent() *Event {
	return MustNewEvent("ev1", "shop1", "player1", item.Ref{ID: "sword"}, TransactionTypeBuy, 1, 100, time.Unix(0, 0))
}

func TestPublisher_Publish(t *testing.T) {
	t.Run("正常系: 登録順に配送される", func(t *testing.T) {
		p := NewPublisher()
		var order []string
		p.Subscribe("ledger", SubscriberFunc(func(ctx context.Context, ev *Event) error {
			order = append(order, "ledger")
			return nil
		}))
		p.Subscribe("history", SubscriberFunc(func(ctx context.Context, ev *Event) error {
			order = append(order, "history")
			return nil
		}))

		require.NoError(t, p.Publish(context.Background(), newTestEvent()))
		assert.Equal(t, []string{"ledger", "history"}, order)
	})

	t.Run("異常系: 最初の購読者が失敗すると後続は呼ばれない", func(t *testing.T) {
		p := NewPublisher()
		sentinel := errors.New("insufficient")
		called := false
		p.Subscribe("ledger", SubscriberFunc(func(ctx context.Context, ev *Event) error {
			return sentinel
		}))
		p.Subscribe("history", SubscriberFunc(func(ctx context.Context, ev *Event) error {
			called = true
			return nil
		}))

		err := p.Publish(context.Background(), newTestEvent())
		assert.ErrorIs(t, err, sentinel)
		assert.ErrorIs(t, err, ErrNotSettled)
		assert.False(t, called)
	})

	t.Run("異常系: 後続購読者のエラーはまとめて返る", func(t *testing.T) {
		p := NewPublisher()
		errA := errors.New("a")
		errB := errors.New("b")
		p.Subscribe("ledger", SubscriberFunc(func(ctx context.Context, ev *Event) error { return nil }))
		p.Subscribe("history", SubscriberFunc(func(ctx context.Context, ev *Event) error { return errA }))
		p.Subscribe("metrics", SubscriberFunc(func(ctx context.Context, ev *Event) error { return errB }))

		err := p.Publish(context.Background(), newTestEvent())
		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, errB)
		assert.NotErrorIs(t, err, ErrNotSettled)
	})
}

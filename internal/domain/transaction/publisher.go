package transaction

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Subscriber 取引イベントの購読者
type Subscriber interface {
	Handle(ctx context.Context, event *Event) error
}

// SubscriberFunc 関数をSubscriberとして扱うアダプタ
type SubscriberFunc func(ctx context.Context, event *Event) error

// Handle fを呼び出す
func (f SubscriberFunc) Handle(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// Publisher 取引イベントを登録順に購読者へ配送する
type Publisher struct {
	mu          sync.RWMutex
	subscribers []namedSubscriber
}

type namedSubscriber struct {
	name string
	sub  Subscriber
}

// NewPublisher 新しいPublisherを作成
func NewPublisher() *Publisher {
	return &Publisher{}
}

// Subscribe 購読者を登録
func (p *Publisher) Subscribe(name string, sub Subscriber) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, namedSubscriber{name: name, sub: sub})
}

// Publish イベントを全購読者へ配送する
// 最初の購読者（台帳）が失敗した場合はErrNotSettledを返し、後続へ配送しない。それ以外の失敗はまとめて返す
func (p *Publisher) Publish(ctx context.Context, event *Event) error {
	p.mu.RLock()
	subs := make([]namedSubscriber, len(p.subscribers))
	copy(subs, p.subscribers)
	p.mu.RUnlock()

	var errs []error
	for i, s := range subs {
		if err := s.sub.Handle(ctx, event); err != nil {
			if i == 0 {
				return fmt.Errorf("%w: subscriber %s: %w", ErrNotSettled, s.name, err)
			}
			errs = append(errs, fmt.Errorf("subscriber %s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

// Package bus delivers tenant lifecycle events to an explicit subscriber
// list. Delivery is synchronous and in registration order, but the
// publisher never fails because of a subscriber: handler errors are
// logged and panics are contained.
package bus

import (
	"context"
	"sort"
	"sync"

	"github.com/Harshitk-cp/tenantry/internal/domain"
	"go.uber.org/zap"
)

// Handler consumes one lifecycle event. A returned error is logged, never
// propagated to the publisher.
type Handler func(ctx context.Context, e domain.Event) error

type Bus struct {
	logger *zap.Logger

	mu     sync.RWMutex
	nextID int
	subs   map[int]Handler
}

func New(logger *zap.Logger) *Bus {
	return &Bus{
		logger: logger,
		subs:   make(map[int]Handler),
	}
}

// Subscribe registers h for all future events and returns a function that
// removes the subscription. Events published before Subscribe are not
// replayed.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = h
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers e to the subscribers registered at call time, in
// registration order.
func (b *Bus) Publish(ctx context.Context, e domain.Event) {
	b.mu.RLock()
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	handlers := make([]Handler, len(ids))
	for i, id := range ids {
		handlers[i] = b.subs[id]
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(ctx, h, e)
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, e domain.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event subscriber panicked",
				zap.String("kind", string(e.Kind)),
				zap.String("schema_name", e.Tenant.SchemaName),
				zap.Any("panic", r),
			)
		}
	}()

	if err := h(ctx, e); err != nil {
		b.logger.Warn("event subscriber failed",
			zap.String("kind", string(e.Kind)),
			zap.String("schema_name", e.Tenant.SchemaName),
			zap.Error(err),
		)
	}
}

// Verify interface compliance at compile time
var _ domain.Publisher = (*Bus)(nil)

package snapshot

import (
	"context"
	"sync"

	"github.com/EvgeniBursov/table-whispers/internal/queue"
)

// Source is a restaurant-scoped event stream the reconciler can
// subscribe to.  The broker consumer is the production
// implementation; tests substitute an in-memory one.
type Source interface {
	// Run delivers decoded delta events for one restaurant to the
	// handler until the context is cancelled.
	Run(ctx context.Context, restaurantID uint64, handler queue.Handler)
}

// BrokerSource adapts the RabbitMQ consumer to the Source interface.
type BrokerSource struct{}

// Run starts the reconnecting broker consumer.
func (BrokerSource) Run(ctx context.Context, restaurantID uint64, handler queue.Handler) {
	queue.RunConsumer(ctx, restaurantID, handler)
}

// subscription ties a reconciler to an event source with an explicit
// start/stop lifecycle, independent of any UI framework hooks.
// Starting again for the same restaurant is a no-op; starting for a
// different restaurant cancels the old stream and subscribes to the
// new one.  Stopping cancels the stream and waits for nothing (the
// source goroutine drains on its own).
type subscription struct {
	mu           sync.Mutex
	source       Source
	cancel       context.CancelFunc
	running      bool
	restaurantID uint64
}

func (s *subscription) start(parent context.Context, restaurantID uint64, handler queue.Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.source == nil {
		return
	}
	if s.running {
		if s.restaurantID == restaurantID {
			return
		}
		// Restaurant switch: events from the old queue would only be
		// dropped by the restaurant-id guard, so cut the old stream
		// and subscribe to the right one.
		s.cancel()
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	s.running = true
	s.restaurantID = restaurantID
	go s.source.Run(ctx, restaurantID, handler)
}

func (s *subscription) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cancel()
	s.cancel = nil
	s.running = false
}

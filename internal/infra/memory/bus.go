package memory

import (
	"context"
	"sync"

	"party-quiz-service/internal/domain"
)

// Bus is an in-process party-scoped event bus. It backs tests and redis-less
// single-instance runs; the redis notifier replaces it for anything
// distributed.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[chan domain.Event]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[chan domain.Event]struct{})}
}

// Publish fans the event out to the party's subscribers. Slow subscribers
// lose their oldest pending event rather than blocking the publisher.
func (b *Bus) Publish(_ context.Context, partyID string, event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[partyID] {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
	return nil
}

// Subscribe returns a channel of events for one party. The caller must
// invoke the returned cancel function to avoid leaks.
func (b *Bus) Subscribe(_ context.Context, partyID string) (<-chan domain.Event, func(), error) {
	ch := make(chan domain.Event, 16)

	b.mu.Lock()
	if b.subs[partyID] == nil {
		b.subs[partyID] = make(map[chan domain.Event]struct{})
	}
	b.subs[partyID][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[partyID][ch]; ok {
			delete(b.subs[partyID], ch)
			if len(b.subs[partyID]) == 0 {
				delete(b.subs, partyID)
			}
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel, nil
}

package feed

import (
	"context"
	"sync"
)

// LocalBus is an in-process Notifier and Signal for single-instance deployments
// and tests.
type LocalBus struct {
	mu        sync.Mutex
	listeners map[chan Kind]struct{}
}

// NewLocalBus creates an empty bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{listeners: make(map[chan Kind]struct{})}
}

// Notify fans the change out to every listener. A listener that already has a
// pending notification of any kind is skipped: it will reload everything anyway.
func (b *LocalBus) Notify(_ context.Context, kind Kind) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.listeners {
		select {
		case ch <- kind:
		default:
		}
	}
	return nil
}

// Listen registers a listener removed when ctx is done.
func (b *LocalBus) Listen(ctx context.Context) (<-chan Kind, error) {
	ch := make(chan Kind, 1)

	b.mu.Lock()
	b.listeners[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.listeners, ch)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}

// Relay forwards every change from src to the bus listeners until ctx is done.
// The subscription to src is in place when Relay returns, so a process holds one
// upstream subscription however many clients listen on the bus.
func (b *LocalBus) Relay(ctx context.Context, src Signal) error {
	changes, err := src.Listen(ctx)
	if err != nil {
		return err
	}

	go func() {
		for kind := range changes {
			_ = b.Notify(ctx, kind)
		}
	}()
	return nil
}

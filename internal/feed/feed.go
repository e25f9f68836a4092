// Package feed delivers the marksheet to live clients as full-replace snapshots.
//
// Writers call a Notifier after every change; subscribers get the whole current
// state again, never a diff. The transport between the two is a Signal, backed by
// Redis pub/sub in production and by an in-process bus otherwise.
package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/marksheet-backend/internal/model"
)

// Kind names the collection that changed.
type Kind string

const (
	KindStudents Kind = "students"
	KindSubjects Kind = "subjects"
)

// Valid reports whether k is a known change kind.
func (k Kind) Valid() bool {
	return k == KindStudents || k == KindSubjects
}

// Snapshot is the complete marksheet state at one moment.
type Snapshot struct {
	Students []model.Student
	Subjects []model.Subject
	At       time.Time
}

// Notifier is told about every committed write.
type Notifier interface {
	Notify(ctx context.Context, kind Kind) error
}

// Signal streams change notifications until ctx is done, then closes the channel.
type Signal interface {
	Listen(ctx context.Context) (<-chan Kind, error)
}

// Loader reads the complete current state.
type Loader interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
}

// Feed turns change notifications into snapshot subscriptions.
type Feed struct {
	signal Signal
	loader Loader
	log    zerolog.Logger
}

// New creates a Feed.
func New(signal Signal, loader Loader, log zerolog.Logger) *Feed {
	return &Feed{
		signal: signal,
		loader: loader,
		log:    log.With().Str("component", "feed").Logger(),
	}
}

// Subscribe starts listening before loading the first snapshot so no change made
// in between is lost. The returned channel carries the current snapshot first and
// a fresh one after every change. It holds at most one pending snapshot: a slow
// reader skips straight to the latest state. The channel closes when ctx is done.
func (f *Feed) Subscribe(ctx context.Context) (<-chan Snapshot, error) {
	changes, err := f.signal.Listen(ctx)
	if err != nil {
		return nil, err
	}

	first, err := f.loader.LoadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Snapshot, 1)
	out <- first

	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case kind, ok := <-changes:
				if !ok {
					return
				}
				snap, err := f.loader.LoadSnapshot(ctx)
				if err != nil {
					if ctx.Err() == nil {
						f.log.Warn().Err(err).Str("kind", string(kind)).Msg("Snapshot reload failed")
					}
					continue
				}
				// This goroutine is the only sender, so after draining the
				// stale snapshot the send below cannot block.
				select {
				case <-out:
				default:
				}
				out <- snap
			}
		}
	}()

	return out, nil
}

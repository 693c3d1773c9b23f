package store

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Collection names the four record collections for change notification.
type Collection string

const (
	CollectionWorkspaces Collection = "workspaces"
	CollectionTemplates  Collection = "templates"
	CollectionItems      Collection = "items"
	CollectionRecords    Collection = "records"
)

type watcher struct {
	collections map[Collection]bool
	signal      chan struct{} // cap 1; pending notifications coalesce
}

// notify wakes every watcher interested in one of the touched collections.
// Called after a successful commit; delivery itself happens on each
// subscription's own goroutine, so writers never block on subscribers.
func (s *Store) notify(cols ...Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.watchers {
		for _, c := range cols {
			if !w.collections[c] {
				continue
			}
			select {
			case w.signal <- struct{}{}:
			default:
			}
			break
		}
	}
}

func (s *Store) addWatcher(w *watcher) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = w
	return id
}

func (s *Store) removeWatcher(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchers, id)
}

// Live is a cancellable handle on a live query. C carries the current result
// followed by a fresh result after every committed write touching the
// query's collections.
type Live[T any] struct {
	C <-chan []T

	store    *Store
	id       int
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// Watch computes the query's current result and re-delivers an up-to-date
// result set whenever a write touching one of cols commits. The initial
// result is buffered on C before Watch returns.
func Watch[T any](ctx context.Context, s *Store, query func(context.Context) ([]T, error), cols ...Collection) (*Live[T], error) {
	initial, err := query(ctx)
	if err != nil {
		return nil, err
	}

	ch := make(chan []T, 1)
	ch <- initial

	w := &watcher{collections: map[Collection]bool{}, signal: make(chan struct{}, 1)}
	for _, c := range cols {
		w.collections[c] = true
	}

	l := &Live[T]{
		C:     ch,
		store: s,
		id:    s.addWatcher(w),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go l.run(w.signal, query, ch)
	return l, nil
}

func (l *Live[T]) run(signal <-chan struct{}, query func(context.Context) ([]T, error), ch chan<- []T) {
	defer close(l.done)
	for {
		select {
		case <-l.stop:
			return
		case <-signal:
			res, err := query(context.Background())
			if err != nil {
				log.Warn().Err(err).Msg("live query re-run failed; keeping previous result")
				continue
			}
			select {
			case ch <- res:
			case <-l.stop:
				return
			}
		}
	}
}

// Stop cancels the subscription. It deregisters the watcher, then waits for
// the delivery goroutine to exit, so no value is sent on C after Stop
// returns. Safe to call more than once, including concurrently.
func (l *Live[T]) Stop() {
	l.store.removeWatcher(l.id)
	l.stopOnce.Do(func() { close(l.stop) })
	<-l.done
}

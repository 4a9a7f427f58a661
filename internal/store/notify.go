package store

import (
	"sync"

	"github.com/dukerupert/groceryhub/internal/model"
)

// Notifier fans change notifications for a list out to its live item
// subscriptions. Stores call Publish after a write commits; each subscription
// then reloads the complete snapshot on its own goroutine.
type Notifier struct {
	mu   sync.Mutex
	subs map[string]map[*subscription]struct{}
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[string]map[*subscription]struct{})}
}

// Publish wakes every subscription watching listID. Pending wake-ups coalesce,
// which is safe because every delivery carries the full snapshot.
func (n *Notifier) Publish(listID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for s := range n.subs[listID] {
		select {
		case s.wake <- struct{}{}:
		default:
		}
	}
}

// Active returns the number of live subscriptions across all lists.
func (n *Notifier) Active() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, set := range n.subs {
		count += len(set)
	}
	return count
}

func (n *Notifier) subscribe(listID string, load func() ([]model.GroceryItem, error), onUpdate func([]model.GroceryItem), onError func(error)) func() {
	s := &subscription{
		notifier: n,
		listID:   listID,
		load:     load,
		onUpdate: onUpdate,
		onError:  onError,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	n.mu.Lock()
	set, ok := n.subs[listID]
	if !ok {
		set = make(map[*subscription]struct{})
		n.subs[listID] = set
	}
	set[s] = struct{}{}
	n.mu.Unlock()

	s.wake <- struct{}{} // initial snapshot
	go s.run()

	return s.stop
}

func (n *Notifier) remove(s *subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	set := n.subs[s.listID]
	delete(set, s)
	if len(set) == 0 {
		delete(n.subs, s.listID)
	}
}

type subscription struct {
	notifier *Notifier
	listID   string
	load     func() ([]model.GroceryItem, error)
	onUpdate func([]model.GroceryItem)
	onError  func(error)

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	// mu is held while onUpdate or onError runs so that stop waits for an
	// in-flight delivery. Callbacks must not call stop themselves.
	mu     sync.Mutex
	closed bool
}

func (s *subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		items, err := s.load()
		if err != nil {
			s.fail(err)
			return
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.onUpdate(items)
		s.mu.Unlock()
	}
}

// fail terminates the subscription and reports err exactly once.
func (s *subscription) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.notifier.remove(s)
	if s.onError != nil {
		s.onError(err)
	}
}

func (s *subscription) stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.done)
		s.notifier.remove(s)
	})
}

// Package session holds the single authenticated identity for the process.
package session

import (
	"sync"

	"github.com/quotachat/quotachat/internal/models"
)

// Store is the single holder of the live Identity. It performs no
// validation; callers that complete an authenticating or billable round trip
// replace the whole Identity rather than patching fields, which keeps
// balance and token quota from ever mixing across operations.
//
// All methods are safe for concurrent use: Bubble Tea commands resolve on
// goroutines outside the UI loop.
type Store struct {
	mu       sync.RWMutex
	identity *models.Identity
	watchers []chan struct{}
}

// NewStore creates an empty (unauthenticated) store.
func NewStore() *Store {
	return &Store{}
}

// Get returns a copy of the current Identity and whether one is present.
func (s *Store) Get() (models.Identity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return models.Identity{}, false
	}
	return *s.identity, true
}

// Set replaces the Identity wholesale and notifies watchers.
func (s *Store) Set(identity models.Identity) {
	s.mu.Lock()
	s.identity = &identity
	s.mu.Unlock()
	s.notify()
}

// Clear removes the Identity (logout) and notifies watchers.
func (s *Store) Clear() {
	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()
	s.notify()
}

// Watch registers an observer. The returned channel receives a coalesced
// signal after every change; the observer re-reads the snapshot with Get.
// The cancel function unregisters the observer and closes the channel.
func (s *Store) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// notify signals all watchers without blocking. A watcher that already has
// a pending signal is skipped; it will re-read the latest snapshot anyway.
func (s *Store) notify() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.watchers {
		select {
		case w <- struct{}{}:
		default:
		}
	}
}

// Package collection keeps an in-memory copy of one remote resource list in sync
// with the platform API. A Store holds the entities plus loading/error status, a
// Loader fills it from a Fetcher, and a Synchronizer reconciles it after each
// remote mutation so callers never need a full refetch.
package collection

import (
	"errors"
	"fmt"
	"sync"
)

// Entity is any resource with a unique numeric id
type Entity interface {
	GetID() int64
}

// ErrStaleState reports a reconciliation that referenced an id the store does not hold
// (or, for Insert, already holds). It is logged, never surfaced to users.
var ErrStaleState = errors.New("stale collection state")

func staleErr(op string, id int64) error {
	return fmt.Errorf("%w: %s id %d", ErrStaleState, op, id)
}

// Snapshot is a consistent copy of a store's state
type Snapshot[T Entity] struct {
	Items   []T
	Loading bool
	Err     error
	Version uint64
}

// Store holds an ordered, id-unique list of entities plus loading/error status.
// All methods are safe for concurrent use.
type Store[T Entity] struct {
	mu        sync.RWMutex
	items     []T
	index     map[int64]int
	loading   bool
	err       error
	version   uint64
	listeners map[int]func(Snapshot[T])
	nextSub   int
}

// NewStore returns an empty store
func NewStore[T Entity]() *Store[T] {
	return &Store[T]{
		index:     make(map[int64]int),
		listeners: make(map[int]func(Snapshot[T])),
	}
}

// SetAll replaces the whole collection. Duplicate ids in items collapse into one
// entry at the first position holding the last value. It returns the number of
// duplicates dropped.
func (s *Store[T]) SetAll(items []T) int {
	s.mu.Lock()
	next := make([]T, 0, len(items))
	index := make(map[int64]int, len(items))
	dups := 0
	for _, item := range items {
		id := item.GetID()
		if pos, ok := index[id]; ok {
			next[pos] = item
			dups++
			continue
		}
		index[id] = len(next)
		next = append(next, item)
	}
	s.items = next
	s.index = index
	s.loading = false
	s.err = nil
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return dups
}

// Insert appends item. If its id is already present the entry is replaced in
// place and ErrStaleState is returned.
func (s *Store[T]) Insert(item T) error {
	id := item.GetID()

	s.mu.Lock()
	var err error
	if pos, ok := s.index[id]; ok {
		s.items[pos] = item
		err = staleErr("insert", id)
	} else {
		s.index[id] = len(s.items)
		s.items = append(s.items, item)
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return err
}

// Replace overwrites the entry with the given id at its current position.
// If no entry matches the store is untouched and ErrStaleState is returned.
func (s *Store[T]) Replace(id int64, item T) error {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return staleErr("replace", id)
	}

	newID := item.GetID()
	if newID != id {
		// The backend re-keyed the entity; keep ids unique.
		if other, exists := s.index[newID]; exists {
			s.removeAtLocked(other)
			pos = s.index[id]
		}
		delete(s.index, id)
		s.index[newID] = pos
	}
	s.items[pos] = item
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Patch applies fn to the entry with the given id in place
func (s *Store[T]) Patch(id int64, fn func(*T)) error {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return staleErr("patch", id)
	}
	orig := s.items[pos]
	fn(&s.items[pos])
	if got := s.items[pos].GetID(); got != id {
		s.items[pos] = orig
		s.mu.Unlock()
		return fmt.Errorf("patch of id %d changed the id to %d", id, got)
	}
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

// Remove drops the entry with the given id. Removing a missing id leaves the
// store unchanged and returns ErrStaleState, so repeated removes are idempotent.
func (s *Store[T]) Remove(id int64) error {
	s.mu.Lock()
	pos, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return staleErr("remove", id)
	}
	s.removeAtLocked(pos)
	snap := s.commitLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

func (s *Store[T]) removeAtLocked(pos int) {
	delete(s.index, s.items[pos].GetID())
	s.items = append(s.items[:pos], s.items[pos+1:]...)
	for i := pos; i < len(s.items); i++ {
		s.index[s.items[i].GetID()] = i
	}
}

// BeginLoad marks a fetch as outstanding and clears the previous error
func (s *Store[T]) BeginLoad() {
	s.mu.Lock()
	s.loading = true
	s.err = nil
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Fail ends an outstanding fetch with err, leaving the items untouched
func (s *Store[T]) Fail(err error) {
	s.mu.Lock()
	s.loading = false
	s.err = err
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// EndLoad ends an outstanding fetch whose result was discarded, leaving the
// items and error untouched
func (s *Store[T]) EndLoad() {
	s.mu.Lock()
	if !s.loading {
		s.mu.Unlock()
		return
	}
	s.loading = false
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// SetError records a failed mutation without touching the items or the loading flag
func (s *Store[T]) SetError(err error) {
	s.mu.Lock()
	s.err = err
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// ClearError resets the error at the start of a new attempt
func (s *Store[T]) ClearError() {
	s.mu.Lock()
	if s.err == nil {
		s.mu.Unlock()
		return
	}
	s.err = nil
	snap := s.commitLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Get returns the entity with the given id
func (s *Store[T]) Get(id int64) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.index[id]
	if !ok {
		var zero T
		return zero, false
	}
	return s.items[pos], true
}

// Items returns a copy of the entities in store order
func (s *Store[T]) Items() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of entities
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Snapshot returns a copy of the full state
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive a snapshot after every change.
// The returned func unregisters it.
func (s *Store[T]) Subscribe(fn func(Snapshot[T])) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(s.items))
	copy(items, s.items)
	return Snapshot[T]{Items: items, Loading: s.loading, Err: s.err, Version: s.version}
}

// commitLocked bumps the version and captures what listeners should see
func (s *Store[T]) commitLocked() *Snapshot[T] {
	s.version++
	if len(s.listeners) == 0 {
		return nil
	}
	snap := s.snapshotLocked()
	return &snap
}

func (s *Store[T]) notify(snap *Snapshot[T]) {
	if snap == nil {
		return
	}
	s.mu.RLock()
	fns := make([]func(Snapshot[T]), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(*snap)
	}
}

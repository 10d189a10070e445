// Package store holds the most recent successful poll results.
package store

import (
	"sync/atomic"

	"github.com/listical/ga4-realtime/internal/model"
)

// State is one consistent view of the store. Either field may be nil until
// its refresher first succeeds. Values reachable from a State must not be
// modified.
type State struct {
	Snapshot *model.Snapshot
	Total    *model.TotalVisitors
}

// Store is safe for concurrent use. Readers never block writers and vice versa.
type Store struct {
	state atomic.Pointer[State]
}

// New returns an empty Store.
func New() *Store {
	s := &Store{}
	s.state.Store(&State{})
	return s
}

// Read returns the current state with a single atomic load.
func (s *Store) Read() State {
	return *s.state.Load()
}

// Publish replaces the realtime snapshot. A nil snapshot is ignored so the
// store never goes back to empty.
func (s *Store) Publish(snap *model.Snapshot) {
	if snap == nil {
		return
	}
	s.update(func(st *State) { st.Snapshot = snap })
}

// PublishTotal replaces the total-visitors value.
func (s *Store) PublishTotal(total model.TotalVisitors) {
	s.update(func(st *State) { st.Total = &total })
}

// update copies the current state, applies fn and swaps it in. It retries
// when another writer got there first so neither half is lost.
func (s *Store) update(fn func(*State)) {
	for {
		old := s.state.Load()
		next := *old
		fn(&next)
		if s.state.CompareAndSwap(old, &next) {
			return
		}
	}
}

package lifecycle

import "sync"

// Slot names one logical request position in the view, typically a
// recipe. A slot holds at most one state; starting a new request for
// the slot supersedes whatever was there.
type Slot string

// Store holds the per-slot lifecycle states the display loop reads.
// Build and send tasks report back by replacing a slot's state; they
// never mutate a state in place. Transitions for one identifier are
// produced by a single linear task, so ordering within a slot is
// guaranteed by construction; the store only has to defend against
// results from superseded tasks arriving late.
type Store struct {
	mu    sync.RWMutex
	slots map[Slot]RequestState
}

func NewStore() *Store {
	return &Store{slots: make(map[Slot]RequestState)}
}

// Begin installs a fresh Building state for the slot, superseding any
// previous request. The orphaned task's eventual result will fail the
// identifier check in Apply and be discarded.
func (s *Store) Begin(slot Slot, state Building) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot] = state
}

// Apply replaces the slot's state with the next stage of the same
// request. It reports false, without touching the slot, when the
// incoming state belongs to a superseded request; callers may log the
// discard but must not treat it as an error.
func (s *Store) Apply(slot Slot, state RequestState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.slots[slot]
	if !ok || current.ID() != state.ID() {
		return false
	}
	s.slots[slot] = state
	return true
}

func (s *Store) Get(slot Slot) (RequestState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.slots[slot]
	return state, ok
}

// Discard drops the slot entirely, e.g. when its history entry is
// evicted.
func (s *Store) Discard(slot Slot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slot)
}

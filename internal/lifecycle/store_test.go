package lifecycle

import (
	"testing"

	"github.com/mk-ldn/kettle/internal/exchange"
)

func TestStoreTransitionChain(t *testing.T) {
	store := NewStore()
	id := exchange.NewRequestID()

	store.Begin("fish", NewBuilding(id))
	state, ok := store.Get("fish")
	if !ok || !state.IsInitial() {
		t.Fatalf("expected building state, got %#v", state)
	}

	if !store.Apply("fish", NewLoading(id)) {
		t.Fatalf("loading transition rejected")
	}
	state, _ = store.Get("fish")
	if state.IsInitial() {
		t.Fatalf("slot did not advance")
	}
	if state.ID() != id {
		t.Fatalf("identifier changed across transition")
	}
}

func TestStoreDiscardsStaleResults(t *testing.T) {
	store := NewStore()
	old := exchange.NewRequestID()
	store.Begin("fish", NewBuilding(old))

	// A newer request supersedes the slot.
	current := exchange.NewRequestID()
	store.Begin("fish", NewBuilding(current))

	// The orphaned task's result must be discarded without touching
	// the newer state.
	if store.Apply("fish", NewLoading(old)) {
		t.Fatalf("stale result applied")
	}
	state, _ := store.Get("fish")
	if state.ID() != current {
		t.Fatalf("newer state corrupted by stale apply")
	}
}

func TestStoreApplyUnknownSlot(t *testing.T) {
	store := NewStore()
	if store.Apply("missing", NewLoading(exchange.NewRequestID())) {
		t.Fatalf("apply to unknown slot should report false")
	}
}

func TestStoreDiscard(t *testing.T) {
	store := NewStore()
	store.Begin("fish", NewBuilding(exchange.NewRequestID()))
	store.Discard("fish")
	if _, ok := store.Get("fish"); ok {
		t.Fatalf("slot should be gone after discard")
	}
}

func TestStoreIndependentSlots(t *testing.T) {
	store := NewStore()
	a := exchange.NewRequestID()
	b := exchange.NewRequestID()
	store.Begin("a", NewBuilding(a))
	store.Begin("b", NewBuilding(b))

	if !store.Apply("a", NewLoading(a)) {
		t.Fatalf("slot a transition rejected")
	}
	state, _ := store.Get("b")
	if !state.IsInitial() {
		t.Fatalf("slot b affected by slot a transition")
	}
}

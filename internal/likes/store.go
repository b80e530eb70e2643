// Copyright (c) 2026 Folio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package likes is the client-side like cache shared by every view of a
portfolio.

A [Store] holds one [State] per portfolio id and notifies subscribers on
each change, so a card in the feed and the detail page always show the same
count. A [Toggler] flips the state optimistically and reconciles it with the
gateway's answer.

# Concurrency

All Store methods are safe for concurrent use. Subscribers are called after
the store lock is released, so a subscriber may read or write the store.
*/
package likes

import (
	"sync"
)

// State is the cached like state of one portfolio.
type State struct {
	LikeCount int
	IsLiked   bool
}

// Listener receives the id and new state after every change.
type Listener func(id string, state State)

type entry struct {
	state State

	// sequence counts toggles started on this id.
	sequence uint64
}

// Store is the like cache. The zero value is not usable; see [NewStore].
type Store struct {
	mu        sync.Mutex
	entries   map[string]*entry
	listeners map[uint64]Listener
	nextID    uint64
}

// NewStore constructs an empty [Store].
func NewStore() *Store {
	return &Store{
		entries:   make(map[string]*entry),
		listeners: make(map[uint64]Listener),
	}
}

// Initialize seeds the state from a server read. It does nothing, and
// notifies nobody, when the entry already holds the same values.
func (store *Store) Initialize(id string, likeCount int, isLiked bool) {
	next := State{LikeCount: likeCount, IsLiked: isLiked}

	store.mu.Lock()
	current, ok := store.entries[id]
	if ok && current.state == next {
		store.mu.Unlock()
		return
	}
	listeners := store.setLocked(id, next)
	store.mu.Unlock()

	notify(listeners, id, next)
}

// Update overwrites the state and always notifies.
func (store *Store) Update(id string, likeCount int, isLiked bool) {
	next := State{LikeCount: likeCount, IsLiked: isLiked}

	store.mu.Lock()
	listeners := store.setLocked(id, next)
	store.mu.Unlock()

	notify(listeners, id, next)
}

// Get returns the state for id, or the zero State when absent.
func (store *Store) Get(id string) State {
	store.mu.Lock()
	defer store.mu.Unlock()

	if current, ok := store.entries[id]; ok {
		return current.state
	}
	return State{}
}

// Subscribe registers fn and returns a function that removes it.
// Calling the returned function more than once is harmless.
func (store *Store) Subscribe(fn Listener) (unsubscribe func()) {
	store.mu.Lock()
	id := store.nextID
	store.nextID++
	store.listeners[id] = fn
	store.mu.Unlock()

	return func() {
		store.mu.Lock()
		delete(store.listeners, id)
		store.mu.Unlock()
	}
}

// # Toggle Support

// begin records the snapshot, applies the optimistic state, and returns the
// sequence number identifying this toggle.
func (store *Store) begin(id string) (snapshot, optimistic State, sequence uint64) {
	store.mu.Lock()
	current := store.entryLocked(id)
	snapshot = current.state

	optimistic = State{IsLiked: !snapshot.IsLiked, LikeCount: snapshot.LikeCount}
	if optimistic.IsLiked {
		optimistic.LikeCount++
	} else {
		optimistic.LikeCount = max(optimistic.LikeCount-1, 0)
	}

	current.sequence++
	sequence = current.sequence
	listeners := store.setLocked(id, optimistic)
	store.mu.Unlock()

	notify(listeners, id, optimistic)
	return snapshot, optimistic, sequence
}

// settle writes next only if no newer toggle has started on id.
func (store *Store) settle(id string, sequence uint64, next State) (State, bool) {
	store.mu.Lock()
	current := store.entryLocked(id)
	if current.sequence != sequence {
		state := current.state
		store.mu.Unlock()
		return state, false
	}
	listeners := store.setLocked(id, next)
	store.mu.Unlock()

	notify(listeners, id, next)
	return next, true
}

// # Internal Helpers

func (store *Store) entryLocked(id string) *entry {
	current, ok := store.entries[id]
	if !ok {
		current = &entry{}
		store.entries[id] = current
	}
	return current
}

// setLocked stores the state and returns the listeners to notify.
func (store *Store) setLocked(id string, state State) []Listener {
	store.entryLocked(id).state = state

	listeners := make([]Listener, 0, len(store.listeners))
	for _, listener := range store.listeners {
		listeners = append(listeners, listener)
	}
	return listeners
}

func notify(listeners []Listener, id string, state State) {
	for _, listener := range listeners {
		listener(id, state)
	}
}

// Package session holds the current account state for a process.
//
// On startup the holder reads the last known state from its store and exposes
// it optimistically, then re-validates against the backing verifier in the
// background and reconciles. Consumers observe changes through Subscribe
// instead of reading shared globals.
package session

import (
	"context"
	"sync"
	"time"

	"kakeibo/internal/cache"
)

// State is the account snapshot the holder tracks.
type State struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email,omitempty"`
	ValidatedAt time.Time `json:"validated_at"`
}

// Verifier checks a cached state against the source of truth.
type Verifier interface {
	Verify(ctx context.Context, userID string) (State, error)
}

// VerifierFunc adapts a function to the Verifier interface.
type VerifierFunc func(ctx context.Context, userID string) (State, error)

func (f VerifierFunc) Verify(ctx context.Context, userID string) (State, error) {
	return f(ctx, userID)
}

// Store persists the last known state between runs.
type Store interface {
	Load() (State, bool)
	Save(State)
	Clear()
}

const stateKey = "current"

// CacheStore backs a Store with a TTL cache.
type CacheStore struct {
	c cache.Cache[State]
}

func NewCacheStore(ttl time.Duration) *CacheStore {
	return &CacheStore{c: cache.NewLRUCache[State](1, ttl)}
}

func (s *CacheStore) Load() (State, bool) { return s.c.Get(stateKey) }
func (s *CacheStore) Save(st State)       { s.c.Set(stateKey, st) }
func (s *CacheStore) Clear()              { s.c.Delete(stateKey) }

// Holder owns the session state and notifies subscribers on change.
type Holder struct {
	mu       sync.RWMutex
	state    State
	present  bool
	store    Store
	verifier Verifier

	nextSub int
	subs    map[int]func(State, bool)
}

func NewHolder(store Store, verifier Verifier) *Holder {
	return &Holder{
		store:    store,
		verifier: verifier,
		subs:     make(map[int]func(State, bool)),
	}
}

// Init restores the cached state optimistically, then re-validates it in the
// background. The returned channel closes when reconciliation is done.
func (h *Holder) Init(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})

	cached, ok := h.store.Load()
	if !ok {
		close(done)
		return done
	}
	h.set(cached)

	go func() {
		defer close(done)
		h.revalidate(ctx, cached.UserID)
	}()

	return done
}

func (h *Holder) revalidate(ctx context.Context, userID string) {
	if h.verifier == nil {
		return
	}
	verified, err := h.verifier.Verify(ctx, userID)
	if err != nil {
		h.Clear()
		return
	}
	h.Set(verified)
}

// Current returns the held state and whether one is present.
func (h *Holder) Current() (State, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state, h.present
}

// Set stores and persists a new state and notifies subscribers.
func (h *Holder) Set(st State) {
	if st.ValidatedAt.IsZero() {
		st.ValidatedAt = time.Now()
	}
	h.store.Save(st)
	h.set(st)
}

func (h *Holder) set(st State) {
	h.mu.Lock()
	h.state = st
	h.present = true
	subs := h.snapshotSubs()
	h.mu.Unlock()

	for _, fn := range subs {
		fn(st, true)
	}
}

// Clear drops the held state, wipes the store and notifies subscribers.
func (h *Holder) Clear() {
	h.store.Clear()

	h.mu.Lock()
	h.state = State{}
	h.present = false
	subs := h.snapshotSubs()
	h.mu.Unlock()

	for _, fn := range subs {
		fn(State{}, false)
	}
}

// Subscribe registers a change callback and returns an unsubscribe func.
// Callbacks run synchronously on the mutating goroutine.
func (h *Holder) Subscribe(fn func(State, bool)) func() {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// snapshotSubs must be called with mu held.
func (h *Holder) snapshotSubs() []func(State, bool) {
	out := make([]func(State, bool), 0, len(h.subs))
	for _, fn := range h.subs {
		out = append(out, fn)
	}
	return out
}

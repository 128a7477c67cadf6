// Package replay implements the two replay-protection policies for consumed
// cross-chain messages.
//
// SequenceGuard records every (emitter, sequence) pair it has accepted.
// Finalized messages are not guaranteed to arrive in source order, so the
// guard keeps a per-emitter set of seen sequences rather than a high-water
// mark. The set grows without bound per emitter; bounding it is left to the
// backing store.
//
// HashGuard records message digests and accepts each exactly once. An
// optional timelock per digest is a second, independent gate layered before
// the one-shot check, not a substitute for it.
//
// Both policies are append-only: entries are never removed. Stores are
// injected and own their synchronization; the guards hold no locks.
package replay

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/wormhole-demo/messaging/vaa"
)

var (
	// ErrAlreadyProcessed is returned when a message was consumed before.
	ErrAlreadyProcessed = errors.New("message already processed")
	// ErrTimelocked is returned while a digest's release time is in the future.
	ErrTimelocked = errors.New("message is timelocked")
)

// Store is the injected membership set backing a guard.
type Store interface {
	// Has reports whether the key was recorded.
	Has(key string) bool
	// MarkSeen records the key.
	MarkSeen(key string)
}

// SequenceGuard applies the sequence policy for finalized messages.
type SequenceGuard struct {
	store Store
}

func NewSequenceGuard(store Store) *SequenceGuard {
	return &SequenceGuard{store: store}
}

// Accept records the sequence for the emitter, failing with
// ErrAlreadyProcessed if it was recorded before.
func (g *SequenceGuard) Accept(chain vaa.ChainID, emitter vaa.Address, sequence uint64) error {
	key := fmt.Sprintf("%d/%s/%d", chain, emitter, sequence)
	if g.store.Has(key) {
		return fmt.Errorf("%s: %w", key, ErrAlreadyProcessed)
	}
	g.store.MarkSeen(key)
	return nil
}

// HashGuard applies the one-shot digest policy for non-finalized or
// custom-consistency messages.
type HashGuard struct {
	store Store

	mu        sync.Mutex
	timelocks map[common.Hash]time.Time
}

func NewHashGuard(store Store) *HashGuard {
	return &HashGuard{
		store:     store,
		timelocks: make(map[common.Hash]time.Time),
	}
}

// SetTimelock delays acceptance of the digest until the release time. The
// timelock gates Accept in addition to, never instead of, the one-shot check.
func (g *HashGuard) SetTimelock(digest common.Hash, release time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.timelocks[digest] = release
}

// Accept records the digest, failing with ErrTimelocked before its release
// time and with ErrAlreadyProcessed on resubmission. The current time is
// caller-supplied; the guard never reads the wall clock.
func (g *HashGuard) Accept(digest common.Hash, now time.Time) error {
	g.mu.Lock()
	release, locked := g.timelocks[digest]
	g.mu.Unlock()
	if locked && now.Before(release) {
		return fmt.Errorf("%s releases at %s: %w", digest.Hex(), release.UTC().Format(time.RFC3339), ErrTimelocked)
	}

	key := digest.Hex()
	if g.store.Has(key) {
		return fmt.Errorf("%s: %w", key, ErrAlreadyProcessed)
	}
	g.store.MarkSeen(key)
	return nil
}

// MemoryStore is a mutex-guarded in-memory Store, suitable for tests and
// single-process relayers.
type MemoryStore struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (s *MemoryStore) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[key]
	return ok
}

func (s *MemoryStore) MarkSeen(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[key] = struct{}{}
}

// Len returns the number of recorded entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

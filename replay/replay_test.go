package replay

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormhole-demo/messaging/vaa"
)

func TestSequenceGuardAcceptsOnce(t *testing.T) {
	g := NewSequenceGuard(NewMemoryStore())
	emitter := vaa.Address{0x04}

	require.NoError(t, g.Accept(vaa.ChainIDSolana, emitter, 1))
	assert.ErrorIs(t, g.Accept(vaa.ChainIDSolana, emitter, 1), ErrAlreadyProcessed)
}

func TestSequenceGuardOutOfOrder(t *testing.T) {
	g := NewSequenceGuard(NewMemoryStore())
	emitter := vaa.Address{0x04}

	// Sequences arrive out of source order; none of them shadow the others.
	for _, seq := range []uint64{5, 2, 9, 3} {
		require.NoError(t, g.Accept(vaa.ChainIDEthereum, emitter, seq))
	}
	assert.ErrorIs(t, g.Accept(vaa.ChainIDEthereum, emitter, 5), ErrAlreadyProcessed)
	assert.NoError(t, g.Accept(vaa.ChainIDEthereum, emitter, 4))
}

func TestSequenceGuardScopesByEmitter(t *testing.T) {
	store := NewMemoryStore()
	g := NewSequenceGuard(store)

	require.NoError(t, g.Accept(vaa.ChainIDEthereum, vaa.Address{0x01}, 7))
	assert.NoError(t, g.Accept(vaa.ChainIDEthereum, vaa.Address{0x02}, 7))
	assert.NoError(t, g.Accept(vaa.ChainIDSolana, vaa.Address{0x01}, 7))
	assert.Equal(t, 3, store.Len())
}

func TestHashGuardAcceptsOnce(t *testing.T) {
	g := NewHashGuard(NewMemoryStore())
	now := time.Unix(1_700_000_000, 0)
	digest := common.HexToHash("0x01")

	require.NoError(t, g.Accept(digest, now))
	assert.ErrorIs(t, g.Accept(digest, now), ErrAlreadyProcessed)
	assert.NoError(t, g.Accept(common.HexToHash("0x02"), now))
}

func TestHashGuardTimelock(t *testing.T) {
	g := NewHashGuard(NewMemoryStore())
	digest := common.HexToHash("0x01")
	release := time.Unix(1_700_000_000, 0)

	g.SetTimelock(digest, release)

	assert.ErrorIs(t, g.Accept(digest, release.Add(-time.Second)), ErrTimelocked)

	// A timelocked rejection does not consume the digest.
	require.NoError(t, g.Accept(digest, release))
	assert.ErrorIs(t, g.Accept(digest, release.Add(time.Hour)), ErrAlreadyProcessed)
}

func TestHashGuardTimelockDoesNotReplaceOneShot(t *testing.T) {
	g := NewHashGuard(NewMemoryStore())
	digest := common.HexToHash("0x01")
	now := time.Unix(1_700_000_000, 0)

	require.NoError(t, g.Accept(digest, now))

	// A timelock set after consumption cannot re-open the digest.
	g.SetTimelock(digest, now.Add(-time.Hour))
	assert.ErrorIs(t, g.Accept(digest, now), ErrAlreadyProcessed)
}

func TestHashGuardOnlyLocksTargetDigest(t *testing.T) {
	g := NewHashGuard(NewMemoryStore())
	now := time.Unix(1_700_000_000, 0)

	g.SetTimelock(common.HexToHash("0x01"), now.Add(time.Hour))
	assert.NoError(t, g.Accept(common.HexToHash("0x02"), now))
}

func TestGuardsShareNothing(t *testing.T) {
	store := NewMemoryStore()
	seq := NewSequenceGuard(store)
	hash := NewHashGuard(store)
	now := time.Unix(1_700_000_000, 0)

	// Different key shapes keep the policies disjoint even on a shared store.
	require.NoError(t, seq.Accept(vaa.ChainIDEthereum, vaa.Address{0x01}, 1))
	require.NoError(t, hash.Accept(common.HexToHash("0x01"), now))
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	assert.False(t, s.Has("a"))

	s.MarkSeen("a")
	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("b"))

	s.MarkSeen("a")
	assert.Equal(t, 1, s.Len())
}

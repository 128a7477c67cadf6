package vaa

import (
	"crypto/ecdsa"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// GuardianSet is a versioned, ordered list of guardian signing addresses.
// Sets are rotated out of band; a superseded set stays valid until its
// expiration time so in-flight messages can still be verified.
type GuardianSet struct {
	// Index of the set, referenced by multisig attestations
	Index uint32
	// Keys are the guardian addresses, ordered by guardian index
	Keys []common.Address
	// ExpirationTime is the unix time after which the set must no longer be
	// trusted. Zero means the set is current and does not expire.
	ExpirationTime uint32
}

// Expired reports whether the set must no longer be trusted at the given
// time. Expiry is checked with caller-supplied time, never internally.
func (gs *GuardianSet) Expired(now time.Time) bool {
	return gs.ExpirationTime != 0 && now.Unix() > int64(gs.ExpirationTime)
}

// GuardianSetProvider is the injected registry of guardian sets. The
// registry and its rotation process are external; the core only reads it.
type GuardianSetProvider interface {
	// GetGuardianSet returns the set with the given index.
	GetGuardianSet(index uint32) (*GuardianSet, error)
	// GetCurrentGuardianSetIndex returns the index of the active set.
	GetCurrentGuardianSetIndex() (uint32, error)
}

// SchnorrKeyProvider is the injected registry of aggregate schnorr keys,
// referenced by version 2 attestations.
type SchnorrKeyProvider interface {
	// GetSchnorrKey returns the aggregate public key with the given index.
	GetSchnorrKey(index uint32) (*ecdsa.PublicKey, error)
}

package vaa

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	// ErrEmptyGuardianSet is returned when verification is attempted against
	// a set with no keys.
	ErrEmptyGuardianSet = errors.New("empty guardian set")
	// ErrQuorumNotMet is returned when a VAA carries fewer signatures than
	// quorum requires.
	ErrQuorumNotMet = errors.New("quorum not met")
	// ErrSignatureInvalid is returned when a signature fails to recover or
	// recovers to the wrong guardian.
	ErrSignatureInvalid = errors.New("invalid signature")
	// ErrNonAscendingIndex is returned when guardian indexes are not
	// strictly increasing.
	ErrNonAscendingIndex = errors.New("guardian indexes not strictly ascending")
	// ErrIndexOutOfBounds is returned when a guardian index exceeds the set.
	ErrIndexOutOfBounds = errors.New("guardian index out of bounds")
	// ErrWrongAttestation is returned when a verification entry point is
	// called with the other attestation variant.
	ErrWrongAttestation = errors.New("wrong attestation variant")
)

// CalculateQuorum returns the minimum number of guardians that need to sign
// a VAA for a given guardian set size.
func CalculateQuorum(numGuardians int) int {
	return numGuardians*2/3 + 1
}

// Verify checks a version 1 VAA against the guardian set that multisig
// attestation references. It returns nil only if the signature count meets
// quorum, every index is in bounds and strictly greater than the previous
// one, and every signature recovers to the guardian at its index. A single
// failing signature rejects the whole attestation; signers never substitute
// toward quorum. Set expiry is the caller's responsibility.
func (v *VAA) Verify(gs *GuardianSet) error {
	m, ok := v.Attestation.(*MultiSigAttestation)
	if !ok {
		return fmt.Errorf("version %d VAA: %w", v.Version, ErrWrongAttestation)
	}
	return m.Verify(v.SigningDigest(), gs)
}

// Verify checks the attestation over the given signing digest. See
// (*VAA).Verify for the rules.
func (m *MultiSigAttestation) Verify(digest common.Hash, gs *GuardianSet) error {
	if gs == nil || len(gs.Keys) == 0 {
		return ErrEmptyGuardianSet
	}

	quorum := CalculateQuorum(len(gs.Keys))
	if len(m.Signatures) < quorum {
		return fmt.Errorf("have %d signatures, need %d of %d guardians: %w",
			len(m.Signatures), quorum, len(gs.Keys), ErrQuorumNotMet)
	}

	lastIndex := -1
	for i, sig := range m.Signatures {
		if int(sig.Index) <= lastIndex {
			return fmt.Errorf("signature [%d] guardian index %d after %d: %w",
				i, sig.Index, lastIndex, ErrNonAscendingIndex)
		}
		lastIndex = int(sig.Index)

		if int(sig.Index) >= len(gs.Keys) {
			return fmt.Errorf("signature [%d] guardian index %d exceeds set size %d: %w",
				i, sig.Index, len(gs.Keys), ErrIndexOutOfBounds)
		}

		addr, err := recoverSigner(digest, sig)
		if err != nil {
			return fmt.Errorf("signature [%d]: %w", i, err)
		}
		if addr != gs.Keys[sig.Index] {
			return fmt.Errorf("signature [%d] recovered %s, guardian %d is %s: %w",
				i, addr.Hex(), sig.Index, gs.Keys[sig.Index].Hex(), ErrSignatureInvalid)
		}
	}

	return nil
}

// recoverSigner recovers the signing address from an r||s||v signature over
// the digest. Wire v values of 27/28 are normalized to the 0/1 recovery
// convention first.
func recoverSigner(digest common.Hash, sig *Signature) (common.Address, error) {
	raw := sig.Signature
	if raw[64] >= 27 {
		raw[64] -= 27
	}

	pubKey, err := crypto.Ecrecover(digest.Bytes(), raw[:])
	if err != nil {
		return common.Address{}, fmt.Errorf("recover: %v: %w", err, ErrSignatureInvalid)
	}
	return common.BytesToAddress(crypto.Keccak256(pubKey[1:])[12:]), nil
}

// VerifySchnorr checks a version 2 VAA against the registered aggregate key
// its attestation references. The scheme is EC-Schnorr over secp256k1 with
// an address-truncated commitment: a signature (R, s) over digest m is valid
// for key P iff addr(s*G - e*P) == R where e = keccak256(R || m). The digest
// is the single keccak of the body.
func (v *VAA) VerifySchnorr(key *ecdsa.PublicKey) error {
	s, ok := v.Attestation.(*SchnorrAttestation)
	if !ok {
		return fmt.Errorf("version %d VAA: %w", v.Version, ErrWrongAttestation)
	}
	return s.Verify(v.Digest(), key)
}

// Verify checks the aggregated signature over the given digest. There is no
// quorum arithmetic here: the aggregate key already represents the signer
// threshold, enforced at key registration.
func (s *SchnorrAttestation) Verify(digest common.Hash, key *ecdsa.PublicKey) error {
	if key == nil || key.X == nil {
		return fmt.Errorf("no aggregate key: %w", ErrSignatureInvalid)
	}

	curve := crypto.S256()
	n := curve.Params().N

	scalar := new(big.Int).SetBytes(s.S[:])
	if scalar.Sign() == 0 || scalar.Cmp(n) >= 0 {
		return fmt.Errorf("scalar out of range: %w", ErrSignatureInvalid)
	}
	if !curve.IsOnCurve(key.X, key.Y) {
		return fmt.Errorf("aggregate key not on curve: %w", ErrSignatureInvalid)
	}

	e := new(big.Int).SetBytes(crypto.Keccak256(s.R[:], digest.Bytes()))
	e.Mod(e, n)

	// s*G + (n-e)*P == s*G - e*P
	sgx, sgy := curve.ScalarBaseMult(scalar.Bytes())
	negE := new(big.Int).Sub(n, e)
	epx, epy := curve.ScalarMult(key.X, key.Y, negE.Bytes())
	rx, ry := curve.Add(sgx, sgy, epx, epy)

	if rx.Sign() == 0 && ry.Sign() == 0 {
		return fmt.Errorf("commitment is the identity point: %w", ErrSignatureInvalid)
	}

	recovered := crypto.PubkeyToAddress(ecdsa.PublicKey{Curve: curve, X: rx, Y: ry})
	if recovered != common.BytesToAddress(s.R[:]) {
		return fmt.Errorf("recovered commitment %s does not match %x: %w",
			recovered.Hex(), s.R, ErrSignatureInvalid)
	}

	return nil
}

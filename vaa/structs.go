// Package vaa implements the wire format and verification rules for
// guardian-attested cross-chain messages.
//
// A VAA is a version byte, an attestation (multisig or schnorr, selected by
// the version), an envelope identifying the emitter, and an opaque payload.
// The signed body is envelope plus payload; the header is excluded.
package vaa

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/wormhole-demo/messaging/byteio"
)

type (
	// VAA is a verifiable action approval: an attested cross-chain message.
	VAA struct {
		// Version of the VAA schema, selects the attestation variant
		Version uint8
		// Attestation proves guardian approval of the body
		Attestation Attestation

		// Timestamp when the message was observed
		Timestamp time.Time
		// Nonce of the message
		Nonce uint32
		// Sequence is a monotonic per-emitter counter
		Sequence uint64
		// ConsistencyLevel is the source-chain finality the message satisfied
		ConsistencyLevel uint8
		// EmitterChain the message was emitted on
		EmitterChain ChainID
		// EmitterAddress of the contract that emitted the message
		EmitterAddress Address
		// Payload of the message, opaque to the core layer
		Payload []byte
	}

	// ChainID of a connected chain
	ChainID uint16

	// Address is a universal 32-byte address. Native addresses shorter than
	// 32 bytes are zero-padded on the left.
	Address [32]byte
)

const (
	// VersionMultiSig VAAs carry an ordered list of individual guardian
	// signatures over the double-keccak body digest.
	VersionMultiSig = uint8(1)
	// VersionSchnorr VAAs carry one aggregated signature over the
	// single-keccak body digest.
	VersionSchnorr = uint8(2)

	// Custom consistency levels. Anything else is a finality commitment of
	// the source chain.
	ConsistencyLevelPublishImmediately = uint8(200)
	ConsistencyLevelSafe               = uint8(201)

	// Envelope is 4+4+2+32+8+1 bytes; payloads may be empty.
	envelopeLength = 51
)

// ErrUnsupportedVersion is returned for version bytes with no known
// attestation variant.
var ErrUnsupportedVersion = errors.New("unsupported VAA version")

func (a Address) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, a)), nil
}

func (a *Address) UnmarshalJSON(data []byte) error {
	addr, err := StringToAddress(strings.Trim(string(data), `"`))
	if err != nil {
		return err
	}
	*a = addr
	return nil
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero reports whether the address is all zero bytes.
func (a Address) IsZero() bool {
	return a == Address{}
}

// StringToAddress converts a hex-encoded address into an Address,
// zero-padding on the left when fewer than 32 bytes are given.
func StringToAddress(value string) (Address, error) {
	var address Address

	if len(value) < 2 {
		return address, fmt.Errorf("value must be at least 1 byte")
	}

	value = strings.TrimPrefix(value, "0x")

	res, err := hex.DecodeString(value)
	if err != nil {
		return address, err
	}

	if len(res) > 32 {
		return address, fmt.Errorf("value must be no more than 32 bytes")
	}
	copy(address[32-len(res):], res)

	return address, nil
}

func BytesToAddress(b []byte) (Address, error) {
	var address Address
	if len(b) > 32 {
		return address, fmt.Errorf("value must be no more than 32 bytes")
	}

	copy(address[32-len(b):], b)
	return address, nil
}

// Unmarshal deserializes the binary representation of a VAA. Unknown
// versions fail with ErrUnsupportedVersion; truncated or over-long input
// fails without returning a partial struct.
func Unmarshal(data []byte) (*VAA, error) {
	r := byteio.NewReader(data)

	version, err := r.ReadU8("version")
	if err != nil {
		return nil, err
	}

	attestation, err := unmarshalAttestation(version, r)
	if err != nil {
		return nil, err
	}

	v := &VAA{
		Version:     version,
		Attestation: attestation,
	}
	if err := unmarshalEnvelope(r, v); err != nil {
		return nil, err
	}

	v.Payload = r.Remainder()
	if err := r.Done(); err != nil {
		return nil, err
	}
	return v, nil
}

// unmarshalEnvelope reads the body fields shared by all VAA versions.
func unmarshalEnvelope(r *byteio.Reader, v *VAA) error {
	if r.Len() < envelopeLength {
		return fmt.Errorf("envelope at offset %d: need %d bytes, have %d: %w",
			r.Offset(), envelopeLength, r.Len(), byteio.ErrOutOfBounds)
	}

	unixSeconds, err := r.ReadU32("timestamp")
	if err != nil {
		return err
	}
	v.Timestamp = time.Unix(int64(unixSeconds), 0)

	if v.Nonce, err = r.ReadU32("nonce"); err != nil {
		return err
	}

	chain, err := r.ReadU16("emitter chain")
	if err != nil {
		return err
	}
	v.EmitterChain = ChainID(chain)

	emitter, err := r.ReadBytes32("emitter address")
	if err != nil {
		return err
	}
	v.EmitterAddress = Address(emitter)

	if v.Sequence, err = r.ReadU64("sequence"); err != nil {
		return err
	}

	if v.ConsistencyLevel, err = r.ReadU8("consistency level"); err != nil {
		return err
	}

	return nil
}

// Marshal returns the binary representation of the VAA. It is the exact
// inverse of Unmarshal and round-trips byte-for-byte.
func (v *VAA) Marshal() ([]byte, error) {
	if v.Attestation == nil {
		return nil, fmt.Errorf("VAA has no attestation")
	}
	if v.Attestation.version() != v.Version {
		return nil, fmt.Errorf("version %d does not match attestation variant %d: %w",
			v.Version, v.Attestation.version(), ErrUnsupportedVersion)
	}

	w := byteio.NewWriter()
	w.WriteU8(v.Version)
	v.Attestation.encode(w)
	w.WriteBytes(v.serializeBody())
	return w.Bytes(), nil
}

// implement encoding.BinaryMarshaler interface for the VAA struct
func (v VAA) MarshalBinary() ([]byte, error) {
	return v.Marshal()
}

// implement encoding.BinaryUnmarshaler interface for the VAA struct
func (v *VAA) UnmarshalBinary(data []byte) error {
	vaa, err := Unmarshal(data)
	if err != nil {
		return err
	}
	*v = *vaa
	return nil
}

/*
SECURITY: Do not change this code! Changing it could result in two different
hashes for the same observation. Integrations rely on the body hash for
replay protection.
*/
func (v *VAA) serializeBody() []byte {
	w := byteio.NewWriter()
	w.WriteU32(uint32(v.Timestamp.Unix())) // #nosec G115 -- This conversion is safe until year 2106
	w.WriteU32(v.Nonce)
	w.WriteU16(uint16(v.EmitterChain))
	w.WriteBytes(v.EmitterAddress[:])
	w.WriteU64(v.Sequence)
	w.WriteU8(v.ConsistencyLevel)
	w.WriteBytes(v.Payload)
	return w.Bytes()
}

// Digest returns the single keccak256 of the body. This is the message
// identity used for replay protection and for schnorr verification.
func (v *VAA) Digest() common.Hash {
	return crypto.Keccak256Hash(v.serializeBody())
}

// SigningDigest returns the double keccak256 of the body, signed by
// individual guardians in the multisig scheme. The extra hash is a wire
// compatibility requirement of the original signature-verification
// instruction; it is distinct from Digest on purpose.
func (v *VAA) SigningDigest() common.Hash {
	return doubleKeccak(v.serializeBody())
}

func doubleKeccak(bz []byte) common.Hash {
	return crypto.Keccak256Hash(crypto.Keccak256Hash(bz).Bytes())
}

// Finalized reports whether the message was emitted under a finality
// commitment of the source chain. Messages at a custom consistency level
// (publish-immediately, safe) may be re-emitted with the same emitter and
// sequence after a reorg; their identity is the body digest, not the sequence.
func (v *VAA) Finalized() bool {
	return v.ConsistencyLevel != ConsistencyLevelPublishImmediately &&
		v.ConsistencyLevel != ConsistencyLevelSafe
}

// MessageID returns a human-readable emitter_chain/emitter_address/sequence tuple.
func (v *VAA) MessageID() string {
	return fmt.Sprintf("%d/%s/%d", v.EmitterChain, v.EmitterAddress, v.Sequence)
}

// HexDigest returns the hex-encoded signing digest.
func (v *VAA) HexDigest() string {
	return hex.EncodeToString(v.SigningDigest().Bytes())
}

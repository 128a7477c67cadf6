package vaa

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/wormhole-demo/messaging/byteio"
)

type (
	// Attestation is the proof-of-approval carried in a VAA header. It is a
	// closed sum type: exactly MultiSigAttestation and SchnorrAttestation
	// implement it, dispatched on the VAA version byte.
	Attestation interface {
		version() uint8
		encode(w *byteio.Writer)
	}

	// MultiSigAttestation holds the ordered individual guardian signatures
	// of a version 1 VAA.
	MultiSigAttestation struct {
		// GuardianSetIndex is the index of the guardian set that signed
		GuardianSetIndex uint32
		// Signatures of individual guardians, ordered by guardian index
		Signatures []*Signature
	}

	// SchnorrAttestation is the single aggregated signature of a version 2
	// VAA: a 20-byte address-form commitment and a 32-byte scalar.
	SchnorrAttestation struct {
		// KeyIndex is the index of the registered aggregate key
		KeyIndex uint32
		R        [20]byte
		S        [32]byte
	}

	// Signature of a single guardian
	Signature struct {
		// Index of the guardian in its set
		Index uint8
		// Signature data, r || s || v packed
		Signature SignatureData
	}

	SignatureData [65]byte
)

func (a SignatureData) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%s"`, a)), nil
}

func (a SignatureData) String() string {
	return hex.EncodeToString(a[:])
}

func (m *MultiSigAttestation) version() uint8 { return VersionMultiSig }

func (m *MultiSigAttestation) encode(w *byteio.Writer) {
	w.WriteU32(m.GuardianSetIndex)
	w.WriteU8(uint8(len(m.Signatures))) // #nosec G115 -- There will never be 256 guardians
	for _, sig := range m.Signatures {
		w.WriteU8(sig.Index)
		w.WriteBytes(sig.Signature[:])
	}
}

func (s *SchnorrAttestation) version() uint8 { return VersionSchnorr }

func (s *SchnorrAttestation) encode(w *byteio.Writer) {
	w.WriteU32(s.KeyIndex)
	w.WriteBytes(s.R[:])
	w.WriteBytes(s.S[:])
}

// unmarshalAttestation decodes the attestation variant selected by the
// version byte. Decoding accepts signatures in any index order; ordering is
// enforced at verification time.
func unmarshalAttestation(version uint8, r *byteio.Reader) (Attestation, error) {
	switch version {
	case VersionMultiSig:
		return unmarshalMultiSig(r)
	case VersionSchnorr:
		return unmarshalSchnorr(r)
	default:
		return nil, fmt.Errorf("version %d: %w", version, ErrUnsupportedVersion)
	}
}

func unmarshalMultiSig(r *byteio.Reader) (*MultiSigAttestation, error) {
	m := &MultiSigAttestation{}

	var err error
	if m.GuardianSetIndex, err = r.ReadU32("guardian set index"); err != nil {
		return nil, err
	}

	lenSignatures, err := r.ReadU8("signature count")
	if err != nil {
		return nil, err
	}

	m.Signatures = make([]*Signature, lenSignatures)
	for i := 0; i < int(lenSignatures); i++ {
		index, err := r.ReadU8("guardian index")
		if err != nil {
			return nil, fmt.Errorf("signature [%d]: %w", i, err)
		}

		sig, err := r.ReadBytes(65, "signature")
		if err != nil {
			return nil, fmt.Errorf("signature [%d]: %w", i, err)
		}

		s := &Signature{Index: index}
		copy(s.Signature[:], sig)
		m.Signatures[i] = s
	}

	return m, nil
}

func unmarshalSchnorr(r *byteio.Reader) (*SchnorrAttestation, error) {
	s := &SchnorrAttestation{}

	var err error
	if s.KeyIndex, err = r.ReadU32("schnorr key index"); err != nil {
		return nil, err
	}

	rBytes, err := r.ReadBytes(20, "schnorr commitment")
	if err != nil {
		return nil, err
	}
	copy(s.R[:], rBytes)

	sBytes, err := r.ReadBytes(32, "schnorr scalar")
	if err != nil {
		return nil, err
	}
	copy(s.S[:], sBytes)

	return s, nil
}

// AddSignature signs the VAA with the given key and appends the signature to
// a multisig attestation, creating one if the VAA has none. Used to build
// test fixtures and devnet messages.
func (v *VAA) AddSignature(key *ecdsa.PrivateKey, index uint8) {
	sig, err := crypto.Sign(v.SigningDigest().Bytes(), key)
	if err != nil {
		panic(err)
	}
	sigData := SignatureData{}
	copy(sigData[:], sig)

	m, ok := v.Attestation.(*MultiSigAttestation)
	if !ok {
		m = &MultiSigAttestation{}
		v.Attestation = m
		v.Version = VersionMultiSig
	}
	m.Signatures = append(m.Signatures, &Signature{
		Index:     index,
		Signature: sigData,
	})
}

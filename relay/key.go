// Package relay implements the relayer-level envelope formats: generic
// message keys referencing promised attested messages, and the delivery and
// redelivery instructions that carry them.
package relay

import (
	"errors"
	"fmt"

	"github.com/wormhole-demo/messaging/byteio"
	"github.com/wormhole-demo/messaging/cctp"
	"github.com/wormhole-demo/messaging/vaa"
)

const (
	// KeyTypeVAA references a guardian-attested message. Its body is the
	// fixed 42-byte VAAKey encoding, written inline without a length prefix
	// for wire compatibility with the original format.
	KeyTypeVAA = uint8(1)
	// KeyTypeCCTP references a circle burn message.
	KeyTypeCCTP = uint8(2)
	// KeyTypeCustomBase is the first key type reserved for integrator
	// transports. Custom keys are opaque to the relayer.
	KeyTypeCustomBase = uint8(128)

	// MaxMessageKeys is the largest key array an instruction can carry; the
	// count is a single byte on the wire.
	MaxMessageKeys = 255

	vaaKeyLength  = 2 + 32 + 8
	cctpKeyLength = 4 + 8
)

var (
	// ErrTooManyKeys is returned when encoding more than MaxMessageKeys.
	ErrTooManyKeys = errors.New("too many message keys")
	// ErrWrongPayloadType is returned when an instruction decoder is handed
	// the other instruction variant.
	ErrWrongPayloadType = errors.New("wrong payload type")
)

type (
	// MessageKey is a tagged reference to a promised message. KeyType 1 is a
	// VAAKey, 2 a CCTPKey; everything else, including the custom range, is
	// length-prefixed opaque bytes so new transport types decode without
	// code changes.
	MessageKey struct {
		KeyType    uint8
		EncodedKey []byte
	}

	// VAAKey identifies a VAA by its emitter and sequence.
	VAAKey struct {
		Chain          vaa.ChainID
		EmitterAddress vaa.Address
		Sequence       uint64
	}

	// CCTPKey identifies a burn message by source domain and nonce.
	CCTPKey struct {
		Domain uint32
		Nonce  uint64
	}
)

// EncodeMessageKey appends the wire form of the key to the writer.
func EncodeMessageKey(w *byteio.Writer, k MessageKey) {
	w.WriteU8(k.KeyType)
	if k.KeyType == KeyTypeVAA {
		w.WriteBytes(k.EncodedKey)
	} else {
		w.WriteLengthPrefixed(k.EncodedKey)
	}
}

// DecodeMessageKey reads one key from the reader. Unknown key types decode
// successfully and preserve their body bytes.
func DecodeMessageKey(r *byteio.Reader) (MessageKey, error) {
	keyType, err := r.ReadU8("key type")
	if err != nil {
		return MessageKey{}, err
	}

	var body []byte
	if keyType == KeyTypeVAA {
		body, err = r.ReadBytes(vaaKeyLength, "vaa key")
	} else {
		body, err = r.ReadLengthPrefixed("message key")
	}
	if err != nil {
		return MessageKey{}, err
	}

	return MessageKey{KeyType: keyType, EncodedKey: body}, nil
}

// EncodeMessageKeys writes a u8 count followed by the keys, failing with
// ErrTooManyKeys above MaxMessageKeys.
func EncodeMessageKeys(w *byteio.Writer, keys []MessageKey) error {
	if len(keys) > MaxMessageKeys {
		return fmt.Errorf("%d keys, max %d: %w", len(keys), MaxMessageKeys, ErrTooManyKeys)
	}
	w.WriteU8(uint8(len(keys)))
	for _, k := range keys {
		EncodeMessageKey(w, k)
	}
	return nil
}

func DecodeMessageKeys(r *byteio.Reader) ([]MessageKey, error) {
	count, err := r.ReadU8("key count")
	if err != nil {
		return nil, err
	}
	keys := make([]MessageKey, count)
	for i := range keys {
		if keys[i], err = DecodeMessageKey(r); err != nil {
			return nil, fmt.Errorf("message key [%d]: %w", i, err)
		}
	}
	return keys, nil
}

// MessageKey wraps the key in its tagged generic form.
func (k VAAKey) MessageKey() MessageKey {
	return MessageKey{KeyType: KeyTypeVAA, EncodedKey: k.encode()}
}

func (k VAAKey) encode() []byte {
	w := byteio.NewWriter()
	w.WriteU16(uint16(k.Chain))
	w.WriteBytes(k.EmitterAddress[:])
	w.WriteU64(k.Sequence)
	return w.Bytes()
}

// DecodeVAAKey decodes the fixed 42-byte VAAKey body.
func DecodeVAAKey(body []byte) (VAAKey, error) {
	r := byteio.NewReader(body)
	k, err := decodeVAAKey(r)
	if err != nil {
		return VAAKey{}, err
	}
	return k, r.Done()
}

func decodeVAAKey(r *byteio.Reader) (VAAKey, error) {
	var k VAAKey
	chain, err := r.ReadU16("vaa key chain")
	if err != nil {
		return k, err
	}
	k.Chain = vaa.ChainID(chain)

	emitter, err := r.ReadBytes32("vaa key emitter")
	if err != nil {
		return k, err
	}
	k.EmitterAddress = vaa.Address(emitter)

	if k.Sequence, err = r.ReadU64("vaa key sequence"); err != nil {
		return k, err
	}
	return k, nil
}

// Matches reports whether the key references the given VAA.
func (k VAAKey) Matches(v *vaa.VAA) bool {
	return v != nil &&
		k.Chain == v.EmitterChain &&
		k.EmitterAddress == v.EmitterAddress &&
		k.Sequence == v.Sequence
}

func (k VAAKey) String() string {
	return fmt.Sprintf("%d/%s/%d", k.Chain, k.EmitterAddress, k.Sequence)
}

// MessageKey wraps the key in its tagged generic form.
func (k CCTPKey) MessageKey() MessageKey {
	w := byteio.NewWriter()
	w.WriteU32(k.Domain)
	w.WriteU64(k.Nonce)
	return MessageKey{KeyType: KeyTypeCCTP, EncodedKey: w.Bytes()}
}

// DecodeCCTPKey decodes the 12-byte CCTPKey body.
func DecodeCCTPKey(body []byte) (CCTPKey, error) {
	r := byteio.NewReader(body)

	var k CCTPKey
	var err error
	if k.Domain, err = r.ReadU32("cctp key domain"); err != nil {
		return k, err
	}
	if k.Nonce, err = r.ReadU64("cctp key nonce"); err != nil {
		return k, err
	}
	return k, r.Done()
}

// Matches reports whether the key references the given burn message.
func (k CCTPKey) Matches(m *cctp.TokenBurnMessage) bool {
	return m != nil && k.Domain == m.Header.SourceDomain && k.Nonce == m.Header.Nonce
}

// VAAKey extracts the typed form of a KeyTypeVAA message key.
func (k MessageKey) VAAKey() (VAAKey, error) {
	if k.KeyType != KeyTypeVAA {
		return VAAKey{}, fmt.Errorf("key type %d is not a vaa key", k.KeyType)
	}
	return DecodeVAAKey(k.EncodedKey)
}

// CCTPKey extracts the typed form of a KeyTypeCCTP message key.
func (k MessageKey) CCTPKey() (CCTPKey, error) {
	if k.KeyType != KeyTypeCCTP {
		return CCTPKey{}, fmt.Errorf("key type %d is not a cctp key", k.KeyType)
	}
	return DecodeCCTPKey(k.EncodedKey)
}

// Package cctp implements the fixed-layout wire format of USDC burn/mint
// attestations. Unlike VAAs the layout carries no length prefixes: a token
// burn message is always exactly BurnMessageLength bytes and embeds a format
// version tag in both the header and the body.
package cctp

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/wormhole-demo/messaging/byteio"
)

const (
	// HeaderVersion and BodyVersion are the supported format version tags.
	HeaderVersion = uint32(0)
	BodyVersion   = uint32(0)

	// headerLength is version + source domain + destination domain + nonce +
	// sender + recipient + destination caller.
	headerLength = 4 + 4 + 4 + 8 + 32 + 32 + 32
	// burnBodyLength is body version + burn token + mint recipient + amount +
	// message sender.
	burnBodyLength = 4 + 32 + 32 + 32 + 32

	// BurnMessageLength is the exact size of an encoded token burn message.
	BurnMessageLength = headerLength + burnBodyLength

	bodyVersionOffset = headerLength
)

// ErrUnexpectedVersion is returned when a version tag does not match the
// supported format.
var ErrUnexpectedVersion = errors.New("unexpected message format version")

type (
	// Header is the transport envelope shared by all message bodies.
	Header struct {
		Version           uint32
		SourceDomain      uint32
		DestinationDomain uint32
		Nonce             uint64
		Sender            [32]byte
		Recipient         [32]byte
		// DestinationCaller restricts who may submit the message on the
		// destination; all zero means unrestricted.
		DestinationCaller [32]byte
	}

	// TokenBurnMessage is a burn observation to be minted on the
	// destination domain.
	TokenBurnMessage struct {
		Header        Header
		BodyVersion   uint32
		BurnToken     [32]byte
		MintRecipient [32]byte
		Amount        *uint256.Int
		MessageSender [32]byte
	}
)

// IsTokenBurnMessage is a cheap pre-filter for event streams: it checks the
// total length and both version tags without decoding. A true result means
// UnmarshalTokenBurnMessage will not fail.
func IsTokenBurnMessage(data []byte) bool {
	if len(data) != BurnMessageLength {
		return false
	}
	if binary.BigEndian.Uint32(data[0:4]) != HeaderVersion {
		return false
	}
	return binary.BigEndian.Uint32(data[bodyVersionOffset:bodyVersionOffset+4]) == BodyVersion
}

// UnmarshalTokenBurnMessage decodes a token burn message, rejecting
// truncated or over-long input and unknown version tags.
func UnmarshalTokenBurnMessage(data []byte) (*TokenBurnMessage, error) {
	r := byteio.NewReader(data)

	m := &TokenBurnMessage{}
	if err := unmarshalHeader(r, &m.Header); err != nil {
		return nil, err
	}

	var err error
	if m.BodyVersion, err = r.ReadU32("body version"); err != nil {
		return nil, err
	}
	if m.BodyVersion != BodyVersion {
		return nil, fmt.Errorf("body version %d, expected %d: %w", m.BodyVersion, BodyVersion, ErrUnexpectedVersion)
	}

	if m.BurnToken, err = r.ReadBytes32("burn token"); err != nil {
		return nil, err
	}
	if m.MintRecipient, err = r.ReadBytes32("mint recipient"); err != nil {
		return nil, err
	}
	if m.Amount, err = r.ReadU256("amount"); err != nil {
		return nil, err
	}
	if m.MessageSender, err = r.ReadBytes32("message sender"); err != nil {
		return nil, err
	}

	if err := r.Done(); err != nil {
		return nil, err
	}
	return m, nil
}

func unmarshalHeader(r *byteio.Reader, h *Header) error {
	var err error
	if h.Version, err = r.ReadU32("header version"); err != nil {
		return err
	}
	if h.Version != HeaderVersion {
		return fmt.Errorf("header version %d, expected %d: %w", h.Version, HeaderVersion, ErrUnexpectedVersion)
	}

	if h.SourceDomain, err = r.ReadU32("source domain"); err != nil {
		return err
	}
	if h.DestinationDomain, err = r.ReadU32("destination domain"); err != nil {
		return err
	}
	if h.Nonce, err = r.ReadU64("nonce"); err != nil {
		return err
	}
	if h.Sender, err = r.ReadBytes32("sender"); err != nil {
		return err
	}
	if h.Recipient, err = r.ReadBytes32("recipient"); err != nil {
		return err
	}
	if h.DestinationCaller, err = r.ReadBytes32("destination caller"); err != nil {
		return err
	}
	return nil
}

// Marshal returns the binary representation of the message. It is the exact
// inverse of UnmarshalTokenBurnMessage.
func (m *TokenBurnMessage) Marshal() ([]byte, error) {
	w := byteio.NewWriter()
	w.WriteU32(m.Header.Version)
	w.WriteU32(m.Header.SourceDomain)
	w.WriteU32(m.Header.DestinationDomain)
	w.WriteU64(m.Header.Nonce)
	w.WriteBytes32(m.Header.Sender)
	w.WriteBytes32(m.Header.Recipient)
	w.WriteBytes32(m.Header.DestinationCaller)
	w.WriteU32(m.BodyVersion)
	w.WriteBytes32(m.BurnToken)
	w.WriteBytes32(m.MintRecipient)
	w.WriteU256(m.Amount)
	w.WriteBytes32(m.MessageSender)

	if w.Len() != BurnMessageLength {
		return nil, fmt.Errorf("encoded %d bytes, expected %d", w.Len(), BurnMessageLength)
	}
	return w.Bytes(), nil
}

// UnrestrictedCaller reports whether any caller may submit the message on
// the destination domain.
func (h *Header) UnrestrictedCaller() bool {
	return h.DestinationCaller == [32]byte{}
}

// Digest returns the keccak256 of the raw message bytes, the identity the
// attester set signs over and replay protection keys on.
func Digest(raw []byte) common.Hash {
	return crypto.Keccak256Hash(raw)
}

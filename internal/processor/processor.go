// Package processor wires the codec, verification, and replay layers into
// the decode-and-verify pipeline a relayer runs per received message.
package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wormhole-demo/messaging/cctp"
	"github.com/wormhole-demo/messaging/relay"
	"github.com/wormhole-demo/messaging/replay"
	"github.com/wormhole-demo/messaging/vaa"
)

var (
	// ErrGuardianSetExpired is returned when a VAA references a set past its
	// expiration time.
	ErrGuardianSetExpired = errors.New("guardian set expired")
	// ErrNotBurnMessage is returned when bytes fail the burn-message pre-filter.
	ErrNotBurnMessage = errors.New("not a token burn message")
	// ErrUnresolvableKey is returned when no fetcher serves a key type.
	ErrUnresolvableKey = errors.New("no resolver for message key type")
)

type (
	// Processor accepts raw attested-message bytes and returns verified,
	// replay-checked structured values.
	Processor interface {
		ProcessVAA(ctx context.Context, raw []byte) (*vaa.VAA, error)
		ProcessBurnMessage(ctx context.Context, raw []byte) (*cctp.TokenBurnMessage, error)
		ResolveKeys(ctx context.Context, instruction *relay.DeliveryInstruction) ([][]byte, error)
	}

	// VAAFetcher resolves a VAA key to the signed VAA bytes it promises.
	VAAFetcher interface {
		FetchVAA(ctx context.Context, key relay.VAAKey) ([]byte, error)
	}

	// BurnMessageFetcher resolves a CCTP key to attested burn-message bytes.
	BurnMessageFetcher interface {
		FetchBurnMessage(ctx context.Context, key relay.CCTPKey) ([]byte, error)
	}

	// CustomKeyFetcher resolves keys in the custom range opaquely.
	CustomKeyFetcher interface {
		FetchCustom(ctx context.Context, key relay.MessageKey) ([]byte, error)
	}

	// Config carries the injected collaborators of a CoreProcessor. Guardians
	// is required; SchnorrKeys may be nil if version 2 VAAs are not expected,
	// and the fetchers may be nil when keys of that type are not resolved.
	Config struct {
		Guardians   vaa.GuardianSetProvider
		SchnorrKeys vaa.SchnorrKeyProvider
		Sequences   *replay.SequenceGuard
		Hashes      *replay.HashGuard
		VAAs        VAAFetcher
		Burns       BurnMessageFetcher
		Custom      CustomKeyFetcher
		// Now supplies the time for expiry and timelock checks. Defaults to
		// time.Now; tests inject a fixed clock.
		Now func() time.Time
	}
)

// CoreProcessor is the default Processor over the local codec packages.
type CoreProcessor struct {
	config Config
	logger *zap.Logger
}

func NewCoreProcessor(logger *zap.Logger, config Config) *CoreProcessor {
	if config.Now == nil {
		config.Now = time.Now
	}
	return &CoreProcessor{
		config: config,
		logger: logger.With(zap.String("component", "CoreProcessor")),
	}
}

// ProcessVAA decodes, verifies, and replay-checks a signed VAA. Finalized
// messages are replay-checked by emitter sequence; messages at a custom
// consistency level (publish-immediately, safe) can recur with the same
// sequence after a reorg and are checked by body digest instead.
func (p *CoreProcessor) ProcessVAA(ctx context.Context, raw []byte) (*vaa.VAA, error) {
	v, err := vaa.Unmarshal(raw)
	if err != nil {
		p.logger.Debug("rejected undecodable VAA", zap.Int("length", len(raw)), zap.Error(err))
		return nil, fmt.Errorf("unmarshal VAA: %w", err)
	}

	if err := p.verify(v); err != nil {
		p.logger.Debug("rejected VAA",
			zap.String("messageID", v.MessageID()),
			zap.Uint8("version", v.Version),
			zap.Error(err))
		return nil, err
	}

	if v.Finalized() {
		err = p.config.Sequences.Accept(v.EmitterChain, v.EmitterAddress, v.Sequence)
	} else {
		err = p.config.Hashes.Accept(v.Digest(), p.config.Now())
	}
	if err != nil {
		p.logger.Debug("replay-rejected VAA", zap.String("messageID", v.MessageID()), zap.Error(err))
		return nil, err
	}

	p.logger.Info("accepted VAA",
		zap.String("messageID", v.MessageID()),
		zap.Uint8("version", v.Version),
		zap.Uint8("consistencyLevel", v.ConsistencyLevel),
		zap.Int("payloadLength", len(v.Payload)))
	return v, nil
}

func (p *CoreProcessor) verify(v *vaa.VAA) error {
	switch att := v.Attestation.(type) {
	case *vaa.MultiSigAttestation:
		gs, err := p.config.Guardians.GetGuardianSet(att.GuardianSetIndex)
		if err != nil {
			return fmt.Errorf("guardian set %d: %w", att.GuardianSetIndex, err)
		}
		if gs.Expired(p.config.Now()) {
			return fmt.Errorf("guardian set %d: %w", att.GuardianSetIndex, ErrGuardianSetExpired)
		}
		return v.Verify(gs)
	case *vaa.SchnorrAttestation:
		if p.config.SchnorrKeys == nil {
			return fmt.Errorf("schnorr key %d: %w", att.KeyIndex, vaa.ErrUnsupportedVersion)
		}
		key, err := p.config.SchnorrKeys.GetSchnorrKey(att.KeyIndex)
		if err != nil {
			return fmt.Errorf("schnorr key %d: %w", att.KeyIndex, err)
		}
		return v.VerifySchnorr(key)
	default:
		return vaa.ErrUnsupportedVersion
	}
}

// ProcessBurnMessage pre-filters, decodes, and replay-checks a burn message.
// Burn messages carry their own attester signatures which are checked by the
// destination contract; here the message is gated one-shot by its digest.
func (p *CoreProcessor) ProcessBurnMessage(ctx context.Context, raw []byte) (*cctp.TokenBurnMessage, error) {
	if !cctp.IsTokenBurnMessage(raw) {
		return nil, fmt.Errorf("%d bytes: %w", len(raw), ErrNotBurnMessage)
	}

	m, err := cctp.UnmarshalTokenBurnMessage(raw)
	if err != nil {
		return nil, fmt.Errorf("unmarshal burn message: %w", err)
	}

	if err := p.config.Hashes.Accept(cctp.Digest(raw), p.config.Now()); err != nil {
		p.logger.Debug("replay-rejected burn message",
			zap.Uint32("sourceDomain", m.Header.SourceDomain),
			zap.Uint64("nonce", m.Header.Nonce),
			zap.Error(err))
		return nil, err
	}

	p.logger.Info("accepted burn message",
		zap.Uint32("sourceDomain", m.Header.SourceDomain),
		zap.Uint32("destinationDomain", m.Header.DestinationDomain),
		zap.Uint64("nonce", m.Header.Nonce),
		zap.String("amount", m.Amount.Dec()))
	return m, nil
}

// ResolveKeys fetches the attested bytes promised by each of the
// instruction's message keys, in key order. VAA and CCTP keys are checked
// against the fetched message; custom keys pass through opaquely.
func (p *CoreProcessor) ResolveKeys(ctx context.Context, instruction *relay.DeliveryInstruction) ([][]byte, error) {
	resolved := make([][]byte, 0, len(instruction.MessageKeys))
	for i, key := range instruction.MessageKeys {
		bytes, err := p.resolveKey(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("message key [%d] type %d: %w", i, key.KeyType, err)
		}
		resolved = append(resolved, bytes)
	}

	p.logger.Debug("resolved message keys",
		zap.Uint16("targetChain", uint16(instruction.TargetChain)),
		zap.Int("keys", len(resolved)))
	return resolved, nil
}

func (p *CoreProcessor) resolveKey(ctx context.Context, key relay.MessageKey) ([]byte, error) {
	switch key.KeyType {
	case relay.KeyTypeVAA:
		if p.config.VAAs == nil {
			return nil, ErrUnresolvableKey
		}
		vaaKey, err := key.VAAKey()
		if err != nil {
			return nil, err
		}
		raw, err := p.config.VAAs.FetchVAA(ctx, vaaKey)
		if err != nil {
			return nil, err
		}
		v, err := vaa.Unmarshal(raw)
		if err != nil {
			return nil, err
		}
		if !vaaKey.Matches(v) {
			return nil, fmt.Errorf("fetched VAA %s does not match key %s", v.MessageID(), vaaKey)
		}
		return raw, nil

	case relay.KeyTypeCCTP:
		if p.config.Burns == nil {
			return nil, ErrUnresolvableKey
		}
		cctpKey, err := key.CCTPKey()
		if err != nil {
			return nil, err
		}
		raw, err := p.config.Burns.FetchBurnMessage(ctx, cctpKey)
		if err != nil {
			return nil, err
		}
		m, err := cctp.UnmarshalTokenBurnMessage(raw)
		if err != nil {
			return nil, err
		}
		if !cctpKey.Matches(m) {
			return nil, fmt.Errorf("fetched burn message %d/%d does not match key %d/%d",
				m.Header.SourceDomain, m.Header.Nonce, cctpKey.Domain, cctpKey.Nonce)
		}
		return raw, nil

	default:
		if p.config.Custom == nil {
			return nil, ErrUnresolvableKey
		}
		return p.config.Custom.FetchCustom(ctx, key)
	}
}

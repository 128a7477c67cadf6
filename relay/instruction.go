package relay

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/wormhole-demo/messaging/byteio"
	"github.com/wormhole-demo/messaging/vaa"
)

const (
	// PayloadIDDelivery discriminates a DeliveryInstruction.
	PayloadIDDelivery = uint8(1)
	// PayloadIDRedelivery discriminates a RedeliveryInstruction.
	PayloadIDRedelivery = uint8(2)

	// ExecutionInfoVersionV1 tags gas-limit style execution parameters.
	ExecutionInfoVersionV1 = uint8(0)
)

type (
	// DeliveryInstruction describes a requested cross-chain call: the
	// target, its value budget, the execution parameters, refund routing,
	// and the attested messages the call depends on.
	DeliveryInstruction struct {
		TargetChain            vaa.ChainID
		TargetAddress          vaa.Address
		Payload                []byte
		RequestedReceiverValue *uint256.Int
		ExtraReceiverValue     *uint256.Int
		// EncodedExecutionInfo is an opaque versioned blob; see
		// ExecutionInfoV1 for the version 1 layout.
		EncodedExecutionInfo   []byte
		RefundChain            vaa.ChainID
		RefundAddress          vaa.Address
		RefundDeliveryProvider vaa.Address
		SourceDeliveryProvider vaa.Address
		SenderAddress          vaa.Address
		MessageKeys            []MessageKey
	}

	// RedeliveryInstruction requests a repeat of a prior delivery with
	// replacement execution parameters.
	RedeliveryInstruction struct {
		DeliveryVAAKey            VAAKey
		TargetChain               vaa.ChainID
		NewRequestedReceiverValue *uint256.Int
		NewEncodedExecutionInfo   []byte
		NewSourceDeliveryProvider vaa.Address
		NewSenderAddress          vaa.Address
	}

	// ExecutionInfoV1 is the version 1 execution parameter layout: a gas
	// limit and the refund granted per unit of unused gas.
	ExecutionInfoV1 struct {
		GasLimit           *uint256.Int
		RefundPerGasUnused *uint256.Int
	}
)

// Marshal returns the binary representation of the instruction.
func (d *DeliveryInstruction) Marshal() ([]byte, error) {
	w := byteio.NewWriter()
	w.WriteU8(PayloadIDDelivery)
	w.WriteU16(uint16(d.TargetChain))
	w.WriteBytes(d.TargetAddress[:])
	w.WriteLengthPrefixed(d.Payload)
	w.WriteU256(d.RequestedReceiverValue)
	w.WriteU256(d.ExtraReceiverValue)
	w.WriteLengthPrefixed(d.EncodedExecutionInfo)
	w.WriteU16(uint16(d.RefundChain))
	w.WriteBytes(d.RefundAddress[:])
	w.WriteBytes(d.RefundDeliveryProvider[:])
	w.WriteBytes(d.SourceDeliveryProvider[:])
	w.WriteBytes(d.SenderAddress[:])
	if err := EncodeMessageKeys(w, d.MessageKeys); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// UnmarshalDeliveryInstruction decodes a delivery instruction. A redelivery
// payload id is a hard error, never a silent misparse.
func UnmarshalDeliveryInstruction(data []byte) (*DeliveryInstruction, error) {
	r := byteio.NewReader(data)

	payloadID, err := r.ReadU8("payload id")
	if err != nil {
		return nil, err
	}
	if payloadID != PayloadIDDelivery {
		return nil, fmt.Errorf("payload id %d, expected %d: %w", payloadID, PayloadIDDelivery, ErrWrongPayloadType)
	}

	d := &DeliveryInstruction{}

	targetChain, err := r.ReadU16("target chain")
	if err != nil {
		return nil, err
	}
	d.TargetChain = vaa.ChainID(targetChain)

	targetAddress, err := r.ReadBytes32("target address")
	if err != nil {
		return nil, err
	}
	d.TargetAddress = vaa.Address(targetAddress)

	if d.Payload, err = r.ReadLengthPrefixed("payload"); err != nil {
		return nil, err
	}
	if d.RequestedReceiverValue, err = r.ReadU256("requested receiver value"); err != nil {
		return nil, err
	}
	if d.ExtraReceiverValue, err = r.ReadU256("extra receiver value"); err != nil {
		return nil, err
	}
	if d.EncodedExecutionInfo, err = r.ReadLengthPrefixed("execution info"); err != nil {
		return nil, err
	}

	refundChain, err := r.ReadU16("refund chain")
	if err != nil {
		return nil, err
	}
	d.RefundChain = vaa.ChainID(refundChain)

	refundAddress, err := r.ReadBytes32("refund address")
	if err != nil {
		return nil, err
	}
	d.RefundAddress = vaa.Address(refundAddress)

	refundProvider, err := r.ReadBytes32("refund delivery provider")
	if err != nil {
		return nil, err
	}
	d.RefundDeliveryProvider = vaa.Address(refundProvider)

	sourceProvider, err := r.ReadBytes32("source delivery provider")
	if err != nil {
		return nil, err
	}
	d.SourceDeliveryProvider = vaa.Address(sourceProvider)

	sender, err := r.ReadBytes32("sender address")
	if err != nil {
		return nil, err
	}
	d.SenderAddress = vaa.Address(sender)

	if d.MessageKeys, err = DecodeMessageKeys(r); err != nil {
		return nil, err
	}

	if err := r.Done(); err != nil {
		return nil, err
	}
	return d, nil
}

// Marshal returns the binary representation of the instruction.
func (rd *RedeliveryInstruction) Marshal() ([]byte, error) {
	w := byteio.NewWriter()
	w.WriteU8(PayloadIDRedelivery)
	w.WriteBytes(rd.DeliveryVAAKey.encode())
	w.WriteU16(uint16(rd.TargetChain))
	w.WriteU256(rd.NewRequestedReceiverValue)
	w.WriteLengthPrefixed(rd.NewEncodedExecutionInfo)
	w.WriteBytes(rd.NewSourceDeliveryProvider[:])
	w.WriteBytes(rd.NewSenderAddress[:])
	return w.Bytes(), nil
}

// UnmarshalRedeliveryInstruction decodes a redelivery instruction. A
// delivery payload id is a hard error.
func UnmarshalRedeliveryInstruction(data []byte) (*RedeliveryInstruction, error) {
	r := byteio.NewReader(data)

	payloadID, err := r.ReadU8("payload id")
	if err != nil {
		return nil, err
	}
	if payloadID != PayloadIDRedelivery {
		return nil, fmt.Errorf("payload id %d, expected %d: %w", payloadID, PayloadIDRedelivery, ErrWrongPayloadType)
	}

	rd := &RedeliveryInstruction{}

	if rd.DeliveryVAAKey, err = decodeVAAKey(r); err != nil {
		return nil, err
	}

	targetChain, err := r.ReadU16("target chain")
	if err != nil {
		return nil, err
	}
	rd.TargetChain = vaa.ChainID(targetChain)

	if rd.NewRequestedReceiverValue, err = r.ReadU256("new requested receiver value"); err != nil {
		return nil, err
	}
	if rd.NewEncodedExecutionInfo, err = r.ReadLengthPrefixed("new execution info"); err != nil {
		return nil, err
	}

	sourceProvider, err := r.ReadBytes32("new source delivery provider")
	if err != nil {
		return nil, err
	}
	rd.NewSourceDeliveryProvider = vaa.Address(sourceProvider)

	sender, err := r.ReadBytes32("new sender address")
	if err != nil {
		return nil, err
	}
	rd.NewSenderAddress = vaa.Address(sender)

	if err := r.Done(); err != nil {
		return nil, err
	}
	return rd, nil
}

// Marshal returns the versioned binary form of the execution parameters.
func (e *ExecutionInfoV1) Marshal() []byte {
	w := byteio.NewWriter()
	w.WriteU8(ExecutionInfoVersionV1)
	w.WriteU256(e.GasLimit)
	w.WriteU256(e.RefundPerGasUnused)
	return w.Bytes()
}

// UnmarshalExecutionInfoV1 decodes version 1 execution parameters.
func UnmarshalExecutionInfoV1(data []byte) (*ExecutionInfoV1, error) {
	r := byteio.NewReader(data)

	version, err := r.ReadU8("execution info version")
	if err != nil {
		return nil, err
	}
	if version != ExecutionInfoVersionV1 {
		return nil, fmt.Errorf("execution info version %d, expected %d: %w",
			version, ExecutionInfoVersionV1, ErrWrongPayloadType)
	}

	e := &ExecutionInfoV1{}
	if e.GasLimit, err = r.ReadU256("gas limit"); err != nil {
		return nil, err
	}
	if e.RefundPerGasUnused, err = r.ReadU256("refund per gas unused"); err != nil {
		return nil, err
	}

	if err := r.Done(); err != nil {
		return nil, err
	}
	return e, nil
}

package relay

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormhole-demo/messaging/vaa"
)

func getDeliveryInstruction() *DeliveryInstruction {
	return &DeliveryInstruction{
		TargetChain:            vaa.ChainIDArbitrum,
		TargetAddress:          vaa.Address{0x01},
		Payload:                []byte("hello"),
		RequestedReceiverValue: uint256.NewInt(1000),
		ExtraReceiverValue:     uint256.NewInt(0),
		EncodedExecutionInfo: (&ExecutionInfoV1{
			GasLimit:           uint256.NewInt(500_000),
			RefundPerGasUnused: uint256.NewInt(25),
		}).Marshal(),
		RefundChain:            vaa.ChainIDEthereum,
		RefundAddress:          vaa.Address{0x02},
		RefundDeliveryProvider: vaa.Address{0x03},
		SourceDeliveryProvider: vaa.Address{0x04},
		SenderAddress:          vaa.Address{0x05},
		MessageKeys: []MessageKey{
			getVAAKey().MessageKey(),
			{KeyType: 200, EncodedKey: []byte{0x01, 0x02, 0x03, 0x04, 0x05}},
		},
	}
}

func TestDeliveryInstructionRoundTrip(t *testing.T) {
	d := getDeliveryInstruction()
	raw, err := d.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalDeliveryInstruction(raw)
	require.NoError(t, err)
	assert.Equal(t, d, decoded)

	// Key order and custom key contents survive the round trip.
	require.Len(t, decoded.MessageKeys, 2)
	assert.Equal(t, KeyTypeVAA, decoded.MessageKeys[0].KeyType)
	assert.Equal(t, uint8(200), decoded.MessageKeys[1].KeyType)
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04, 0x05}, decoded.MessageKeys[1].EncodedKey)
}

func TestDeliveryInstructionNoKeys(t *testing.T) {
	d := getDeliveryInstruction()
	d.MessageKeys = []MessageKey{}

	raw, err := d.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalDeliveryInstruction(raw)
	require.NoError(t, err)
	assert.Empty(t, decoded.MessageKeys)
}

func TestDeliveryInstructionEmptyPayload(t *testing.T) {
	d := getDeliveryInstruction()
	d.Payload = []byte{}

	raw, err := d.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalDeliveryInstruction(raw)
	require.NoError(t, err)
	assert.Empty(t, decoded.Payload)
}

func TestDeliveryInstructionWrongPayloadID(t *testing.T) {
	rd := getRedeliveryInstruction()
	raw, err := rd.Marshal()
	require.NoError(t, err)

	_, err = UnmarshalDeliveryInstruction(raw)
	assert.ErrorIs(t, err, ErrWrongPayloadType)
}

func TestDeliveryInstructionTruncated(t *testing.T) {
	raw, err := getDeliveryInstruction().Marshal()
	require.NoError(t, err)

	_, err = UnmarshalDeliveryInstruction(raw[:len(raw)-1])
	assert.Error(t, err)

	_, err = UnmarshalDeliveryInstruction(append(raw, 0x00))
	assert.Error(t, err)
}

func TestDeliveryInstructionTooManyKeys(t *testing.T) {
	d := getDeliveryInstruction()
	d.MessageKeys = make([]MessageKey, MaxMessageKeys+1)
	for i := range d.MessageKeys {
		d.MessageKeys[i] = MessageKey{KeyType: 200, EncodedKey: []byte{byte(i)}}
	}

	_, err := d.Marshal()
	assert.ErrorIs(t, err, ErrTooManyKeys)
}

func getRedeliveryInstruction() *RedeliveryInstruction {
	return &RedeliveryInstruction{
		DeliveryVAAKey:            getVAAKey(),
		TargetChain:               vaa.ChainIDArbitrum,
		NewRequestedReceiverValue: uint256.NewInt(2000),
		NewEncodedExecutionInfo: (&ExecutionInfoV1{
			GasLimit:           uint256.NewInt(750_000),
			RefundPerGasUnused: uint256.NewInt(30),
		}).Marshal(),
		NewSourceDeliveryProvider: vaa.Address{0x06},
		NewSenderAddress:          vaa.Address{0x07},
	}
}

func TestRedeliveryInstructionRoundTrip(t *testing.T) {
	rd := getRedeliveryInstruction()
	raw, err := rd.Marshal()
	require.NoError(t, err)

	decoded, err := UnmarshalRedeliveryInstruction(raw)
	require.NoError(t, err)
	assert.Equal(t, rd, decoded)
}

func TestRedeliveryInstructionKeyHasNoTag(t *testing.T) {
	raw, err := getRedeliveryInstruction().Marshal()
	require.NoError(t, err)

	// The delivery VAA key follows the payload id directly, bare 42-byte
	// body without the message key type tag.
	decoded, err := DecodeVAAKey(raw[1 : 1+vaaKeyLength])
	require.NoError(t, err)
	assert.Equal(t, getVAAKey(), decoded)
}

func TestRedeliveryInstructionWrongPayloadID(t *testing.T) {
	raw, err := getDeliveryInstruction().Marshal()
	require.NoError(t, err)

	_, err = UnmarshalRedeliveryInstruction(raw)
	assert.ErrorIs(t, err, ErrWrongPayloadType)
}

func TestRedeliveryInstructionTruncated(t *testing.T) {
	raw, err := getRedeliveryInstruction().Marshal()
	require.NoError(t, err)

	_, err = UnmarshalRedeliveryInstruction(raw[:len(raw)-1])
	assert.Error(t, err)
}

func TestExecutionInfoV1RoundTrip(t *testing.T) {
	e := &ExecutionInfoV1{
		GasLimit:           uint256.NewInt(1_000_000),
		RefundPerGasUnused: uint256.NewInt(0),
	}

	decoded, err := UnmarshalExecutionInfoV1(e.Marshal())
	require.NoError(t, err)
	assert.Equal(t, e, decoded)
}

func TestExecutionInfoV1BadVersion(t *testing.T) {
	raw := (&ExecutionInfoV1{
		GasLimit:           uint256.NewInt(1),
		RefundPerGasUnused: uint256.NewInt(1),
	}).Marshal()
	raw[0] = 9

	_, err := UnmarshalExecutionInfoV1(raw)
	assert.Error(t, err)
}

func TestExecutionInfoV1Truncated(t *testing.T) {
	raw := (&ExecutionInfoV1{
		GasLimit:           uint256.NewInt(1),
		RefundPerGasUnused: uint256.NewInt(1),
	}).Marshal()

	_, err := UnmarshalExecutionInfoV1(raw[:len(raw)-1])
	assert.Error(t, err)

	_, err = UnmarshalExecutionInfoV1(append(raw, 0x00))
	assert.Error(t, err)
}

package vaa

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormhole-demo/messaging/byteio"
)

func getVaa() VAA {
	var payload = []byte{97, 97, 97, 97, 97, 97}
	var governanceEmitter = Address{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 4}

	return VAA{
		Version: VersionMultiSig,
		Attestation: &MultiSigAttestation{
			GuardianSetIndex: uint32(1),
			Signatures:       []*Signature{},
		},
		Timestamp:        time.Unix(0, 0),
		Nonce:            uint32(1),
		Sequence:         uint64(1),
		ConsistencyLevel: uint8(32),
		EmitterChain:     ChainIDSolana,
		EmitterAddress:   governanceEmitter,
		Payload:          payload,
	}
}

func getSchnorrVaa() VAA {
	v := getVaa()
	v.Version = VersionSchnorr
	v.Attestation = &SchnorrAttestation{
		KeyIndex: 7,
		R:        [20]byte{0xde, 0xad, 0xbe, 0xef},
		S:        [32]byte{0x01, 0x02, 0x03},
	}
	return v
}

func TestMarshal(t *testing.T) {
	expectedBytes := []byte{0x1, 0x0, 0x0, 0x0, 0x1, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x1, 0x0, 0x1, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x4, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x1, 0x20, 0x61, 0x61, 0x61, 0x61, 0x61, 0x61}
	vaa := getVaa()
	marshalBytes, err := vaa.Marshal()
	assert.Nil(t, err)
	assert.Equal(t, expectedBytes, marshalBytes)
}

func TestUnmarshal(t *testing.T) {
	vaaBytes := []byte{0x1, 0x0, 0x0, 0x0, 0x1, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x1, 0x0, 0x1, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x4, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x0, 0x1, 0x20, 0x61, 0x61, 0x61, 0x61, 0x61, 0x61}
	vaa1 := getVaa()
	vaa2, err := Unmarshal(vaaBytes)
	assert.Nil(t, err)
	assert.Equal(t, &vaa1, vaa2)
}

func TestRoundTripMultiSig(t *testing.T) {
	vaa := getVaa()

	// Attach real signatures so the attestation body is exercised too.
	for i := 0; i < 3; i++ {
		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		vaa.AddSignature(key, uint8(i))
	}

	data, err := vaa.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, &vaa, decoded)

	reencoded, err := decoded.Marshal()
	require.NoError(t, err)
	assert.Equal(t, data, reencoded)
}

func TestRoundTripSchnorr(t *testing.T) {
	vaa := getSchnorrVaa()

	data, err := vaa.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, &vaa, decoded)

	reencoded, err := decoded.Marshal()
	require.NoError(t, err)
	assert.Equal(t, data, reencoded)
}

func TestUnmarshalNoPayload(t *testing.T) {
	vaa := getVaa()
	vaa.Payload = []byte{}

	data, err := vaa.Marshal()
	require.NoError(t, err)

	decoded, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, &vaa, decoded)
}

func TestUnmarshalBigPayload(t *testing.T) {
	vaa := getVaa()

	// Create a payload of more than 1000 bytes.
	var payload []byte
	for i := 0; i < 2000; i++ {
		ch := i % 255
		payload = append(payload, byte(ch))
	}
	vaa.Payload = payload

	marshalBytes, err := vaa.Marshal()
	require.NoError(t, err)

	vaa2, err := Unmarshal(marshalBytes)
	require.NoError(t, err)

	assert.Equal(t, vaa, *vaa2)
}

func TestUnmarshalUnsupportedVersion(t *testing.T) {
	vaa := getVaa()
	data, err := vaa.Marshal()
	require.NoError(t, err)

	data[0] = 3
	decoded, err := Unmarshal(data)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
	assert.Nil(t, decoded)
}

func TestUnmarshalTruncationsNeverPartial(t *testing.T) {
	for _, vaa := range []VAA{getVaa(), getSchnorrVaa()} {
		if _, ok := vaa.Attestation.(*MultiSigAttestation); ok {
			key, err := crypto.GenerateKey()
			require.NoError(t, err)
			vaa.AddSignature(key, 0)
		}

		data, err := vaa.Marshal()
		require.NoError(t, err)

		// Every strict prefix must fail to decode. The envelope has no
		// trailing length prefix, so a prefix that still covers the whole
		// envelope parses as a shorter payload; cutting into the envelope
		// or attestation must fail outright.
		for cut := 0; cut < len(data)-len(vaa.Payload); cut++ {
			_, err := Unmarshal(data[:cut])
			assert.Error(t, err, "prefix of %d bytes decoded", cut)
		}
	}
}

func TestUnmarshalTruncatedEnvelope(t *testing.T) {
	vaa := getSchnorrVaa()
	data, err := vaa.Marshal()
	require.NoError(t, err)

	// Cut into the middle of the envelope, past the attestation.
	_, err = Unmarshal(data[:len(data)-len(getSchnorrVaa().Payload)-20])
	assert.ErrorIs(t, err, byteio.ErrOutOfBounds)
}

func TestFinalized(t *testing.T) {
	tests := []struct {
		level     uint8
		finalized bool
	}{
		{level: 0, finalized: true},
		{level: 1, finalized: true},
		{level: 32, finalized: true},
		{level: ConsistencyLevelPublishImmediately, finalized: false},
		{level: ConsistencyLevelSafe, finalized: false},
		{level: 202, finalized: true},
	}

	for _, tc := range tests {
		vaa := getVaa()
		vaa.ConsistencyLevel = tc.level
		assert.Equal(t, tc.finalized, vaa.Finalized(), "consistency level %d", tc.level)
	}
}

func TestSigningDigest(t *testing.T) {
	vaa := getVaa()
	expected := common.HexToHash("4fae136bb1fd782fe1b5180ba735cdc83bcece3f9b7fd0e5e35300a61c8acd8f")
	assert.Equal(t, expected, vaa.SigningDigest())
}

func TestDigestDistinctFromSigningDigest(t *testing.T) {
	for _, vaa := range []VAA{getVaa(), getSchnorrVaa()} {
		single := vaa.Digest()
		double := vaa.SigningDigest()

		assert.NotEqual(t, single, double)
		assert.Equal(t, crypto.Keccak256Hash(single.Bytes()), double)
	}
}

func TestDigestIndependentOfAttestation(t *testing.T) {
	// The header is excluded from the signed body: the same envelope and
	// payload hash identically under both attestation variants.
	multisig := getVaa()
	schnorr := getSchnorrVaa()

	assert.Equal(t, multisig.Digest(), schnorr.Digest())
	assert.Equal(t, multisig.SigningDigest(), schnorr.SigningDigest())
}

func TestMessageID(t *testing.T) {
	vaa := getVaa()
	expected := "1/0000000000000000000000000000000000000000000000000000000000000004/1"
	assert.Equal(t, expected, vaa.MessageID())
}

func TestAddSignature(t *testing.T) {
	vaa := getVaa()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	vaa.AddSignature(key, 0)
	m := vaa.Attestation.(*MultiSigAttestation)
	require.Len(t, m.Signatures, 1)

	// The signature must recover to the signing key over the double digest.
	gs := &GuardianSet{Keys: []common.Address{crypto.PubkeyToAddress(key.PublicKey)}}
	assert.NoError(t, vaa.Verify(gs))
}

func TestStringToAddress(t *testing.T) {
	type Test struct {
		label     string
		rawAddr   string
		addr      Address
		errString string
	}

	tests := []Test{
		{label: "simple",
			rawAddr: "0000000000000000000000000000000000000000000000000000000000000004",
			addr:    Address{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 4}},
		{label: "zero-padding",
			rawAddr: "04",
			addr:    Address{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 4}},
		{label: "trim-0x",
			rawAddr: "0x04",
			addr:    Address{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 4}},
		{label: "too long",
			rawAddr:   "0x0000000000000000000000000000000000000000000000000000000000000000000004",
			errString: "value must be no more than 32 bytes"},
		{label: "too short",
			rawAddr:   "4",
			errString: "value must be at least 1 byte"},
		{label: "empty string",
			rawAddr:   "",
			errString: "value must be at least 1 byte"},
	}

	for _, tc := range tests {
		t.Run(tc.label, func(t *testing.T) {
			addr, err := StringToAddress(tc.rawAddr)
			if len(tc.errString) == 0 {
				assert.NoError(t, err)
				assert.Equal(t, tc.addr, addr)
			} else {
				assert.Equal(t, tc.errString, err.Error())
			}
		})
	}
}

func TestBytesToAddress(t *testing.T) {
	b := make([]byte, 20)
	_, err := rand.Read(b)
	require.NoError(t, err)

	addr, err := BytesToAddress(b)
	require.NoError(t, err)
	assert.Equal(t, b, addr.Bytes()[12:])
	assert.True(t, addr.Bytes()[0] == 0)

	_, err = BytesToAddress(make([]byte, 33))
	require.Error(t, err)
}

func TestChainIDFromString(t *testing.T) {
	type test struct {
		input  string
		output ChainID
	}

	tests := []test{
		{input: "solana", output: ChainIDSolana},
		{input: "ethereum", output: ChainIDEthereum},
		{input: "arbitrum", output: ChainIDArbitrum},
		{input: "aztec", output: ChainIDAztec},
		{input: "arbitrum_sepolia", output: ChainIDArbitrumSepolia},
		{input: "Ethereum", output: ChainIDEthereum},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			chainID, err := ChainIDFromString(tc.input)
			assert.NoError(t, err)
			assert.Equal(t, tc.output, chainID)
		})
	}

	_, err := ChainIDFromString("unknown")
	assert.Error(t, err)
}

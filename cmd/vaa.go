package cmd

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	vaaLib "github.com/wormhole-demo/messaging/vaa"
)

var vaaCmd = &cobra.Command{
	Use:   "vaa",
	Short: "Work with signed VAAs",
}

var vaaDecodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode a signed VAA and print all fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runVaaDecode,
}

var vaaDigestCmd = &cobra.Command{
	Use:   "digest <hex>",
	Short: "Print the body digest and signing digest of a signed VAA",
	Args:  cobra.ExactArgs(1),
	RunE:  runVaaDigest,
}

var vaaVerifyCmd = &cobra.Command{
	Use:   "verify <hex>",
	Short: "Verify a multisig VAA against guardian addresses",
	Args:  cobra.ExactArgs(1),
	RunE:  runVaaVerify,
}

func init() {
	vaaVerifyCmd.Flags().StringSlice(
		"guardians",
		nil,
		"Ordered guardian addresses of the signing set (hex, comma separated)")
	vaaVerifyCmd.MarkFlagRequired("guardians")

	vaaCmd.AddCommand(vaaDecodeCmd, vaaDigestCmd, vaaVerifyCmd)
	rootCmd.AddCommand(vaaCmd)
}

func runVaaDecode(cmd *cobra.Command, args []string) error {
	logger := configureLogging(cmd, args)
	defer logger.Sync()

	raw, err := readHexArg(args[0])
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}

	v, err := vaaLib.Unmarshal(raw)
	if err != nil {
		return fmt.Errorf("unmarshal VAA: %w", err)
	}

	logVAAFull(logger, v, raw)
	return nil
}

func runVaaDigest(cmd *cobra.Command, args []string) error {
	raw, err := readHexArg(args[0])
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}

	v, err := vaaLib.Unmarshal(raw)
	if err != nil {
		return fmt.Errorf("unmarshal VAA: %w", err)
	}

	fmt.Printf("messageID:     %s\n", v.MessageID())
	fmt.Printf("digest:        %s\n", v.Digest().Hex())
	fmt.Printf("signingDigest: %s\n", v.SigningDigest().Hex())
	return nil
}

func runVaaVerify(cmd *cobra.Command, args []string) error {
	logger := configureLogging(cmd, args)
	defer logger.Sync()

	raw, err := readHexArg(args[0])
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}

	guardianArgs, _ := cmd.Flags().GetStringSlice("guardians")
	keys := make([]common.Address, 0, len(guardianArgs))
	for _, g := range guardianArgs {
		g = strings.TrimSpace(g)
		if !common.IsHexAddress(g) {
			return fmt.Errorf("invalid guardian address: %s", g)
		}
		keys = append(keys, common.HexToAddress(g))
	}

	v, err := vaaLib.Unmarshal(raw)
	if err != nil {
		return fmt.Errorf("unmarshal VAA: %w", err)
	}

	gs := &vaaLib.GuardianSet{Keys: keys}
	if err := v.Verify(gs); err != nil {
		logger.Error("VAA verification failed",
			zap.String("messageID", v.MessageID()),
			zap.Error(err))
		return err
	}

	logger.Info("VAA verified",
		zap.String("messageID", v.MessageID()),
		zap.Int("guardians", len(keys)),
		zap.Int("quorum", vaaLib.CalculateQuorum(len(keys))))
	return nil
}

// logVAAFull logs all fields of a VAA for debugging
func logVAAFull(logger *zap.Logger, v *vaaLib.VAA, rawBytes []byte) {
	fields := []zap.Field{
		zap.Uint8("version", v.Version),
		zap.Time("timestamp", v.Timestamp),
		zap.Uint32("nonce", v.Nonce),
		zap.Uint64("sequence", v.Sequence),
		zap.Uint8("consistencyLevel", v.ConsistencyLevel),
		zap.String("emitterChain", v.EmitterChain.String()),
		zap.String("emitterAddress", v.EmitterAddress.String()),
		zap.Int("payloadLength", len(v.Payload)),
		zap.String("payloadHex", hex.EncodeToString(v.Payload)),
		zap.Int("rawBytesLength", len(rawBytes)),
	}

	switch att := v.Attestation.(type) {
	case *vaaLib.MultiSigAttestation:
		fields = append(fields,
			zap.Uint32("guardianSetIndex", att.GuardianSetIndex),
			zap.Int("signatureCount", len(att.Signatures)))
		logger.Info("VAA", fields...)

		for i, sig := range att.Signatures {
			logger.Debug("VAA Signature",
				zap.Int("index", i),
				zap.Uint8("guardianIndex", sig.Index),
				zap.String("signature", sig.Signature.String()))
		}
	case *vaaLib.SchnorrAttestation:
		fields = append(fields,
			zap.Uint32("schnorrKeyIndex", att.KeyIndex),
			zap.String("commitment", hex.EncodeToString(att.R[:])),
			zap.String("scalar", hex.EncodeToString(att.S[:])))
		logger.Info("VAA", fields...)
	}
}

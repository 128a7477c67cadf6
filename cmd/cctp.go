package cmd

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wormhole-demo/messaging/cctp"
)

var cctpCmd = &cobra.Command{
	Use:   "cctp",
	Short: "Work with circle burn messages",
}

var cctpDecodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode a token burn message and print all fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runCctpDecode,
}

func init() {
	cctpCmd.AddCommand(cctpDecodeCmd)
	rootCmd.AddCommand(cctpCmd)
}

func runCctpDecode(cmd *cobra.Command, args []string) error {
	logger := configureLogging(cmd, args)
	defer logger.Sync()

	raw, err := readHexArg(args[0])
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}

	if !cctp.IsTokenBurnMessage(raw) {
		return fmt.Errorf("input is not a token burn message (%d bytes, expected %d)",
			len(raw), cctp.BurnMessageLength)
	}

	m, err := cctp.UnmarshalTokenBurnMessage(raw)
	if err != nil {
		return fmt.Errorf("unmarshal burn message: %w", err)
	}

	logger.Info("token burn message",
		zap.Uint32("sourceDomain", m.Header.SourceDomain),
		zap.Uint32("destinationDomain", m.Header.DestinationDomain),
		zap.Uint64("nonce", m.Header.Nonce),
		zap.String("sender", hex.EncodeToString(m.Header.Sender[:])),
		zap.String("recipient", hex.EncodeToString(m.Header.Recipient[:])),
		zap.String("destinationCaller", hex.EncodeToString(m.Header.DestinationCaller[:])),
		zap.Bool("unrestrictedCaller", m.Header.UnrestrictedCaller()),
		zap.String("burnToken", hex.EncodeToString(m.BurnToken[:])),
		zap.String("mintRecipient", hex.EncodeToString(m.MintRecipient[:])),
		zap.String("amount", m.Amount.Dec()),
		zap.String("messageSender", hex.EncodeToString(m.MessageSender[:])),
		zap.String("digest", cctp.Digest(raw).Hex()))
	return nil
}

package cmd

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wormhole-demo/messaging/relay"
)

var deliveryCmd = &cobra.Command{
	Use:   "delivery",
	Short: "Work with relayer delivery instructions",
}

var deliveryDecodeCmd = &cobra.Command{
	Use:   "decode <hex>",
	Short: "Decode a delivery or redelivery instruction and list its message keys",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeliveryDecode,
}

func init() {
	deliveryCmd.AddCommand(deliveryDecodeCmd)
	rootCmd.AddCommand(deliveryCmd)
}

func runDeliveryDecode(cmd *cobra.Command, args []string) error {
	logger := configureLogging(cmd, args)
	defer logger.Sync()

	raw, err := readHexArg(args[0])
	if err != nil {
		return fmt.Errorf("decode hex: %w", err)
	}

	d, err := relay.UnmarshalDeliveryInstruction(raw)
	if err == nil {
		logDelivery(logger, d)
		return nil
	}
	if !errors.Is(err, relay.ErrWrongPayloadType) {
		return fmt.Errorf("unmarshal delivery instruction: %w", err)
	}

	rd, rerr := relay.UnmarshalRedeliveryInstruction(raw)
	if rerr != nil {
		return fmt.Errorf("unmarshal redelivery instruction: %w", rerr)
	}
	logRedelivery(logger, rd)
	return nil
}

func logDelivery(logger *zap.Logger, d *relay.DeliveryInstruction) {
	logger.Info("delivery instruction",
		zap.String("targetChain", d.TargetChain.String()),
		zap.String("targetAddress", d.TargetAddress.String()),
		zap.Int("payloadLength", len(d.Payload)),
		zap.String("requestedReceiverValue", d.RequestedReceiverValue.Dec()),
		zap.String("extraReceiverValue", d.ExtraReceiverValue.Dec()),
		zap.String("refundChain", d.RefundChain.String()),
		zap.String("refundAddress", d.RefundAddress.String()),
		zap.String("senderAddress", d.SenderAddress.String()),
		zap.Int("messageKeys", len(d.MessageKeys)))

	if info, err := relay.UnmarshalExecutionInfoV1(d.EncodedExecutionInfo); err == nil {
		logger.Info("execution info",
			zap.String("gasLimit", info.GasLimit.Dec()),
			zap.String("refundPerGasUnused", info.RefundPerGasUnused.Dec()))
	} else {
		logger.Debug("opaque execution info",
			zap.String("hex", hex.EncodeToString(d.EncodedExecutionInfo)))
	}

	for i, key := range d.MessageKeys {
		logMessageKey(logger, i, key)
	}
}

func logRedelivery(logger *zap.Logger, rd *relay.RedeliveryInstruction) {
	logger.Info("redelivery instruction",
		zap.String("deliveryVaaKey", rd.DeliveryVAAKey.String()),
		zap.String("targetChain", rd.TargetChain.String()),
		zap.String("newRequestedReceiverValue", rd.NewRequestedReceiverValue.Dec()),
		zap.String("newSenderAddress", rd.NewSenderAddress.String()))
}

func logMessageKey(logger *zap.Logger, i int, key relay.MessageKey) {
	switch key.KeyType {
	case relay.KeyTypeVAA:
		vaaKey, err := key.VAAKey()
		if err != nil {
			logger.Warn("malformed vaa key", zap.Int("index", i), zap.Error(err))
			return
		}
		logger.Info("message key",
			zap.Int("index", i),
			zap.String("type", "vaa"),
			zap.String("key", vaaKey.String()))
	case relay.KeyTypeCCTP:
		cctpKey, err := key.CCTPKey()
		if err != nil {
			logger.Warn("malformed cctp key", zap.Int("index", i), zap.Error(err))
			return
		}
		logger.Info("message key",
			zap.Int("index", i),
			zap.String("type", "cctp"),
			zap.Uint32("domain", cctpKey.Domain),
			zap.Uint64("nonce", cctpKey.Nonce))
	default:
		logger.Info("message key",
			zap.Int("index", i),
			zap.String("type", "custom"),
			zap.Uint8("keyType", key.KeyType),
			zap.String("encodedKey", hex.EncodeToString(key.EncodedKey)))
	}
}

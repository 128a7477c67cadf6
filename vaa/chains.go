package vaa

import (
	"fmt"
	"strings"
)

// NOTE: Please keep these in numerical order.
const (
	ChainIDUnset ChainID = 0
	// ChainIDSolana is the ChainID of Solana
	ChainIDSolana ChainID = 1
	// ChainIDEthereum is the ChainID of Ethereum
	ChainIDEthereum ChainID = 2
	// ChainIDBSC is the ChainID of Binance Smart Chain
	ChainIDBSC ChainID = 4
	// ChainIDPolygon is the ChainID of Polygon
	ChainIDPolygon ChainID = 5
	// ChainIDAvalanche is the ChainID of Avalanche
	ChainIDAvalanche ChainID = 6
	// ChainIDArbitrum is the ChainID of Arbitrum
	ChainIDArbitrum ChainID = 23
	// ChainIDOptimism is the ChainID of Optimism
	ChainIDOptimism ChainID = 24
	// ChainIDBase is the ChainID of Base
	ChainIDBase ChainID = 30
	// ChainIDAztec is the ChainID of Aztec
	ChainIDAztec ChainID = 52
	// ChainIDSepolia is the ChainID of Sepolia
	ChainIDSepolia ChainID = 10002
	// ChainIDArbitrumSepolia is the ChainID of Arbitrum on Sepolia
	ChainIDArbitrumSepolia ChainID = 10003
	// ChainIDBaseSepolia is the ChainID of Base on Sepolia
	ChainIDBaseSepolia ChainID = 10004
)

func (c ChainID) String() string {
	switch c {
	case ChainIDUnset:
		return "unset"
	case ChainIDSolana:
		return "solana"
	case ChainIDEthereum:
		return "ethereum"
	case ChainIDBSC:
		return "bsc"
	case ChainIDPolygon:
		return "polygon"
	case ChainIDAvalanche:
		return "avalanche"
	case ChainIDArbitrum:
		return "arbitrum"
	case ChainIDOptimism:
		return "optimism"
	case ChainIDBase:
		return "base"
	case ChainIDAztec:
		return "aztec"
	case ChainIDSepolia:
		return "sepolia"
	case ChainIDArbitrumSepolia:
		return "arbitrum_sepolia"
	case ChainIDBaseSepolia:
		return "base_sepolia"
	default:
		return fmt.Sprintf("unknown chain ID: %d", c)
	}
}

// ChainIDFromString converts from a chain's full name (e.g. "solana") to its
// corresponding ChainID.
func ChainIDFromString(s string) (ChainID, error) {
	switch strings.ToLower(s) {
	case "solana":
		return ChainIDSolana, nil
	case "ethereum":
		return ChainIDEthereum, nil
	case "bsc":
		return ChainIDBSC, nil
	case "polygon":
		return ChainIDPolygon, nil
	case "avalanche":
		return ChainIDAvalanche, nil
	case "arbitrum":
		return ChainIDArbitrum, nil
	case "optimism":
		return ChainIDOptimism, nil
	case "base":
		return ChainIDBase, nil
	case "aztec":
		return ChainIDAztec, nil
	case "sepolia":
		return ChainIDSepolia, nil
	case "arbitrum_sepolia":
		return ChainIDArbitrumSepolia, nil
	case "base_sepolia":
		return ChainIDBaseSepolia, nil
	default:
		return ChainIDUnset, fmt.Errorf("unknown chain ID: %s", s)
	}
}

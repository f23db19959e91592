// Package main is the entry point for the inventory operator CLI: ad hoc
// commands against the inventory core, for use outside the scheduled
// daemon (cmd/relayd). Modeled on gswap-arb/cmd/rebalance's check/
// recommend/execute mode split.
package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"flag"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/nullbridge/relay-inventory/pkg/bundlefeed"
	"github.com/nullbridge/relay-inventory/pkg/clients"
	"github.com/nullbridge/relay-inventory/pkg/config"
	"github.com/nullbridge/relay-inventory/pkg/inventory"
	"github.com/nullbridge/relay-inventory/pkg/logging"
	"github.com/nullbridge/relay-inventory/pkg/onchain"
	"github.com/nullbridge/relay-inventory/pkg/report"
	"github.com/nullbridge/relay-inventory/pkg/types"
	"github.com/nullbridge/relay-inventory/pkg/xchaintransfer"
)

var (
	configPath = flag.String("config", "", "path to the inventory YAML config")
	rpcFlag    = flag.String("rpc", "", "comma-separated chainId=url pairs, e.g. 1=https://eth.rpc,10=https://op.rpc")
	bundleURL  = flag.String("bundle-api", "", "base URL of the bundle-data REST API")
	privateKeyEnv = flag.String("private-key-env", "RELAYER_PRIVATE_KEY", "environment variable holding the relayer's private key")
)

func usage() {
	fmt.Fprintf(os.Stderr, `inventory-cli - inspect and drive the inventory core manually

Usage:
  inventory-cli -config inventory.yaml -rpc "1=https://eth.rpc,10=https://op.rpc" <command>

Commands:
  rebalance     run the rebalance cycle once, in simulation mode, and print the plan
  rebalance-live  run the rebalance cycle once, broadcasting submissions
  unwrap        run the native-gas unwrap cycle once, in simulation mode
  refund-chain  print the refund chain the selector would choose for a fill
                  (requires -origin, -dest, -input-token, -output-token, -output-amount)

`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	origin := flag.Uint64("origin", 0, "origin chain id (refund-chain command)")
	dest := flag.Uint64("dest", 0, "destination chain id (refund-chain command)")
	inputToken := flag.String("input-token", "", "input token address (refund-chain command)")
	outputToken := flag.String("output-token", "", "output token address (refund-chain command)")
	outputAmount := flag.String("output-amount", "0", "output amount (refund-chain command)")
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}
	command := flag.Arg(0)

	logging.Init("info")
	log := logging.For("inventory-cli")

	if *configPath == "" || *rpcFlag == "" {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	rpcClients, err := parseRPCFlag(*rpcFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse -rpc")
	}

	privateKey, relayer, err := loadKey(*privateKeyEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load signing key")
	}

	tokenClient := onchain.NewTokenClient(rpcClients, relayer, nil)
	hubPool := onchain.NewHubPoolClient(cfg.HubChainID, rpcClients, nil)
	adapter := onchain.NewAdapterManager(rpcClients, cfg.HubChainID, privateKey, map[types.ChainID]onchain.ChainAddresses{})
	xferClient := xchaintransfer.NewTracker(nil)

	var bundleData clients.BundleDataClient
	if *bundleURL != "" {
		bundleData = bundlefeed.NewClient(*bundleURL)
	} else {
		bundleData = zeroRefundsClient{}
	}

	ctx := context.Background()

	switch command {
	case "rebalance", "rebalance-live":
		simMode := command == "rebalance"
		core := inventory.NewCore(cfg, relayer, tokenClient, tokenClient, hubPool, xferClient, adapter, bundleData, simMode)
		core.ResetCycle()
		result, err := core.RebalanceInventoryIfNeeded(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("rebalance failed")
		}
		report.NewReporter(os.Stdout, report.FormatText).Report(report.CycleReport{Rebalance: result})

	case "unwrap":
		core := inventory.NewCore(cfg, relayer, tokenClient, tokenClient, hubPool, xferClient, adapter, bundleData, true)
		core.ResetCycle()
		result, err := core.UnwrapWethIfNeeded(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("unwrap failed")
		}
		report.NewReporter(os.Stdout, report.FormatText).Report(report.CycleReport{Unwrap: result})

	case "refund-chain":
		core := inventory.NewCore(cfg, relayer, tokenClient, tokenClient, hubPool, xferClient, adapter, bundleData, true)
		amount, ok := new(big.Int).SetString(*outputAmount, 10)
		if !ok {
			log.Fatal().Msg("invalid -output-amount")
		}
		fill := types.FillDescriptor{
			OriginChainID:      types.ChainID(*origin),
			DestinationChainID: types.ChainID(*dest),
			InputToken:         common.HexToAddress(*inputToken),
			OutputToken:        common.HexToAddress(*outputToken),
			OutputAmount:       amount,
		}
		chain, err := core.DetermineRefundChainId(ctx, fill)
		if err != nil {
			log.Fatal().Err(err).Msg("refund chain selection failed")
		}
		fmt.Printf("refund chain: %d\n", chain)

	default:
		usage()
		os.Exit(1)
	}
}

func parseRPCFlag(s string) (onchain.ChainClients, error) {
	clientsMap := make(onchain.ChainClients)
	for _, pair := range strings.Split(s, ",") {
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid -rpc entry %q, want chainId=url", pair)
		}
		var chainID uint64
		if _, err := fmt.Sscanf(parts[0], "%d", &chainID); err != nil {
			return nil, fmt.Errorf("invalid chain id in %q: %w", pair, err)
		}
		client, err := ethclient.Dial(parts[1])
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", parts[1], err)
		}
		clientsMap[types.ChainID(chainID)] = client
	}
	return clientsMap, nil
}

func loadKey(envVar string) (*ecdsa.PrivateKey, types.Relayer, error) {
	raw := os.Getenv(envVar)
	if raw == "" {
		return nil, types.Relayer{}, fmt.Errorf("environment variable %s is not set", envVar)
	}
	raw = strings.TrimPrefix(raw, "0x")
	keyBytes, err := hex.DecodeString(raw)
	if err != nil {
		return nil, types.Relayer{}, fmt.Errorf("decode private key: %w", err)
	}
	privateKey, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, types.Relayer{}, fmt.Errorf("parse private key: %w", err)
	}
	return privateKey, crypto.PubkeyToAddress(privateKey.PublicKey), nil
}

// zeroRefundsClient mirrors relayd's noRefundsClient for CLI use without a
// bundle API configured.
type zeroRefundsClient struct{}

func (zeroRefundsClient) PendingRefundsFromValidBundles(ctx context.Context, relayer types.Relayer) ([]clients.RefundSet, error) {
	return nil, nil
}

func (zeroRefundsClient) NextBundleRefunds(ctx context.Context, relayer types.Relayer) ([]clients.RefundSet, error) {
	return nil, nil
}

func (zeroRefundsClient) TotalRefund(sets []clients.RefundSet, relayer types.Relayer, chain types.ChainID, token types.L1Token) *big.Int {
	return big.NewInt(0)
}

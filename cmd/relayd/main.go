// Package main is the entry point for the inventory relayer daemon: it
// wires the onchain collaborators to the inventory core and runs the
// rebalance/unwrap cycle on a cron schedule until interrupted.
package main

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"gopkg.in/yaml.v3"

	"github.com/nullbridge/relay-inventory/pkg/bundlefeed"
	"github.com/nullbridge/relay-inventory/pkg/clients"
	"github.com/nullbridge/relay-inventory/pkg/config"
	"github.com/nullbridge/relay-inventory/pkg/inventory"
	"github.com/nullbridge/relay-inventory/pkg/logging"
	"github.com/nullbridge/relay-inventory/pkg/onchain"
	"github.com/nullbridge/relay-inventory/pkg/report"
	"github.com/nullbridge/relay-inventory/pkg/schedule"
	"github.com/nullbridge/relay-inventory/pkg/types"
	"github.com/nullbridge/relay-inventory/pkg/xchaintransfer"
)

var (
	configPath  = flag.String("config", "", "path to the inventory YAML config")
	networkPath = flag.String("network", "", "path to the network YAML config (RPC endpoints and contract addresses)")
	bundleURL   = flag.String("bundle-api", "", "base URL of the bundle-data REST API")
	bundleWS    = flag.String("bundle-ws", "", "websocket URL of the bundle-data live feed (optional)")
	logLevel    = flag.String("log-level", "info", "log level: debug, info, warn, error")
	cronExpr    = flag.String("cron", "*/5 * * * *", "cron expression for the rebalance/unwrap cycle")
	simMode     = flag.Bool("sim", true, "simulate submissions instead of broadcasting them")
	once        = flag.Bool("once", false, "run a single cycle and exit instead of scheduling")
	outputJSON  = flag.Bool("json", false, "report cycle results as JSON instead of text")
)

// networkConfig is the RPC/contract-address side of setup, kept separate
// from config.InventoryConfig because it describes infrastructure rather
// than management policy.
type networkConfig struct {
	PrivateKeyEnv string                             `yaml:"private_key_env"`
	Chains        map[uint64]chainNetworkConfig      `yaml:"chains"`
	TokenPairings []onchain.TokenPairing             `yaml:"-"`
	Pairings      []tokenPairingRaw                  `yaml:"token_pairings"`
}

type chainNetworkConfig struct {
	RPCURL string `yaml:"rpc_url"`
	Bridge string `yaml:"bridge_address"`
	Weth   string `yaml:"weth_address,omitempty"`
}

type tokenPairingRaw struct {
	L1Token string `yaml:"l1_token"`
	Chain   uint64 `yaml:"chain"`
	L2Token string `yaml:"l2_token"`
}

func loadNetworkConfig(path string) (*networkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network config: %w", err)
	}
	var nc networkConfig
	if err := yaml.Unmarshal(data, &nc); err != nil {
		return nil, fmt.Errorf("parse network config: %w", err)
	}
	for _, p := range nc.Pairings {
		nc.TokenPairings = append(nc.TokenPairings, onchain.TokenPairing{
			L1Token: common.HexToAddress(p.L1Token),
			Chain:   types.ChainID(p.Chain),
			L2Token: common.HexToAddress(p.L2Token),
		})
	}
	return &nc, nil
}

func main() {
	flag.Parse()
	logging.Init(*logLevel)
	log := logging.For("relayd")

	if *configPath == "" || *networkPath == "" {
		fmt.Fprintln(os.Stderr, "usage: relayd -config inventory.yaml -network network.yaml [flags]")
		os.Exit(1)
	}

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load inventory config")
	}

	net, err := loadNetworkConfig(*networkPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load network config")
	}

	privateKey, relayer, err := loadSigningKey(net.PrivateKeyEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load signing key")
	}

	rpcClients, addrs, err := dialChains(net)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to dial chain RPCs")
	}

	tokenClient := onchain.NewTokenClient(rpcClients, relayer, nil)
	hubPool := onchain.NewHubPoolClient(cfg.HubChainID, rpcClients, net.TokenPairings)
	adapter := onchain.NewAdapterManager(rpcClients, cfg.HubChainID, privateKey, addrs)
	xferClient := xchaintransfer.NewTracker(nil)

	var bundleData clients.BundleDataClient
	if *bundleURL != "" {
		bfClient := bundlefeed.NewClient(*bundleURL)
		bundleData = bfClient
		if *bundleWS != "" {
			feed := bundlefeed.NewLiveFeed(*bundleWS, bfClient)
			go feed.Run(context.Background())
		}
	} else {
		log.Warn().Msg("no bundle-api configured; refund selection will see zero refunds")
		bundleData = noRefundsClient{}
	}

	core := inventory.NewCore(cfg, relayer, tokenClient, tokenClient, hubPool, xferClient, adapter, bundleData, *simMode)

	format := report.FormatText
	if *outputJSON {
		format = report.FormatJSON
	}
	reporter := report.NewReporter(os.Stdout, format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info().Msg("shutdown signal received")
		cancel()
	}()

	sched := schedule.NewScheduler(ctx, core, reporter)

	if *once {
		sched.RunCycleNow()
		return
	}

	if err := sched.RegisterCycle(*cronExpr); err != nil {
		log.Fatal().Err(err).Msg("failed to register cycle")
	}
	sched.Start()

	<-ctx.Done()
	sched.Stop()
}

func loadSigningKey(envVar string) (*ecdsa.PrivateKey, types.Relayer, error) {
	if envVar == "" {
		envVar = "RELAYER_PRIVATE_KEY"
	}
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

func dialChains(net *networkConfig) (onchain.ChainClients, map[types.ChainID]onchain.ChainAddresses, error) {
	rpcClients := make(onchain.ChainClients, len(net.Chains))
	addrs := make(map[types.ChainID]onchain.ChainAddresses, len(net.Chains))

	for chainID, chainCfg := range net.Chains {
		client, err := ethclient.Dial(chainCfg.RPCURL)
		if err != nil {
			return nil, nil, fmt.Errorf("dial chain %d: %w", chainID, err)
		}
		chain := types.ChainID(chainID)
		rpcClients[chain] = client
		addrs[chain] = onchain.ChainAddresses{
			Bridge: common.HexToAddress(chainCfg.Bridge),
			Weth:   common.HexToAddress(chainCfg.Weth),
		}
	}

	return rpcClients, addrs, nil
}

// noRefundsClient is the zero-value clients.BundleDataClient used when no
// bundle API is configured: every refund query returns nothing, so the
// selector (C3) projects every chain with zero upcoming refunds instead of
// erroring.
type noRefundsClient struct{}

func (noRefundsClient) PendingRefundsFromValidBundles(ctx context.Context, relayer types.Relayer) ([]clients.RefundSet, error) {
	return nil, nil
}

func (noRefundsClient) NextBundleRefunds(ctx context.Context, relayer types.Relayer) ([]clients.RefundSet, error) {
	return nil, nil
}

func (noRefundsClient) TotalRefund(sets []clients.RefundSet, relayer types.Relayer, chain types.ChainID, token types.L1Token) *big.Int {
	return big.NewInt(0)
}

// Package config loads and validates the inventory core's configuration,
// following the load-then-env-override pattern of gswap-arb/pkg/config, with
// the on-disk format in YAML (gopkg.in/yaml.v3) the way MarketSentinel's bot
// settings are loaded.
package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"

	"github.com/nullbridge/relay-inventory/pkg/fixedpoint"
	"github.com/nullbridge/relay-inventory/pkg/types"
)

// TokenChainConfig is the per-(L1Token,ChainID) management entry from
// spec.md §3. A missing entry for a chain means "not managed there."
type TokenChainConfig struct {
	TargetPctRaw    string `yaml:"target_pct"`
	ThresholdPctRaw string `yaml:"threshold_pct"`

	// Optional native-gas unwrap settings, in the token's native decimals.
	UnwrapWethThresholdRaw string `yaml:"unwrap_weth_threshold,omitempty"`
	UnwrapWethTargetRaw    string `yaml:"unwrap_weth_target,omitempty"`

	TargetPct           fixedpoint.Pct `yaml:"-"`
	ThresholdPct        fixedpoint.Pct `yaml:"-"`
	UnwrapWethThreshold *big.Int       `yaml:"-"`
	UnwrapWethTarget    *big.Int       `yaml:"-"`
}

// InventoryConfig is the shared configuration held by the core: per-token,
// per-chain targets/thresholds plus the global wrap-ether settings for the
// companion wrap cycle (spec.md §3).
type InventoryConfig struct {
	HubChainID types.ChainID `yaml:"hub_chain_id"`

	// TokenConfigRaw is the YAML-facing form, keyed by hex address strings
	// (YAML has no notion of a common.Address map key).
	TokenConfigRaw map[string]map[uint64]*TokenChainConfig `yaml:"token_config"`

	WrapEtherThresholdRaw string `yaml:"wrap_ether_threshold,omitempty"`
	WrapEtherTargetRaw    string `yaml:"wrap_ether_target,omitempty"`

	// Enabled toggles inventory management globally; when false, the
	// selector always returns the destination chain and the rebalance/
	// unwrap cycles are no-ops (spec.md §4.3/§4.4/§7 "Disabled").
	Enabled bool `yaml:"enabled"`

	// TokenConfig is the address-keyed form used at runtime, built by
	// resolve() after loading.
	TokenConfig map[types.L1Token]map[types.ChainID]*TokenChainConfig `yaml:"-"`

	WrapEtherThreshold *big.Int `yaml:"-"`
	WrapEtherTarget    *big.Int `yaml:"-"`
}

// LoadFromFile reads and validates an InventoryConfig from a YAML file.
func LoadFromFile(path string) (*InventoryConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &InventoryConfig{Enabled: true}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.resolve(); err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides layers environment variables over the file-loaded
// config, matching gswap-arb/pkg/config.Config.applyEnvOverrides.
func (c *InventoryConfig) applyEnvOverrides() {
	if v := os.Getenv("INVENTORY_ENABLED"); v != "" {
		c.Enabled = strings.EqualFold(v, "true")
	}
	if v := os.Getenv("INVENTORY_WRAP_ETHER_THRESHOLD"); v != "" {
		c.WrapEtherThresholdRaw = v
	}
	if v := os.Getenv("INVENTORY_WRAP_ETHER_TARGET"); v != "" {
		c.WrapEtherTargetRaw = v
	}
}

// resolve parses every raw numeric/address field into its runtime type and
// builds the address-keyed TokenConfig map.
func (c *InventoryConfig) resolve() error {
	c.TokenConfig = make(map[types.L1Token]map[types.ChainID]*TokenChainConfig, len(c.TokenConfigRaw))

	for addrHex, byChain := range c.TokenConfigRaw {
		l1 := common.HexToAddress(addrHex)
		perChain := make(map[types.ChainID]*TokenChainConfig, len(byChain))

		for chainID, raw := range byChain {
			parsed, err := raw.resolve()
			if err != nil {
				return fmt.Errorf("token %s chain %d: %w", addrHex, chainID, err)
			}
			perChain[types.ChainID(chainID)] = parsed
		}

		c.TokenConfig[l1] = perChain
	}

	c.WrapEtherThreshold = parseBigIntOrZero(c.WrapEtherThresholdRaw)
	c.WrapEtherTarget = parseBigIntOrZero(c.WrapEtherTargetRaw)

	return nil
}

func (r *TokenChainConfig) resolve() (*TokenChainConfig, error) {
	target, err := parsePct(r.TargetPctRaw)
	if err != nil {
		return nil, fmt.Errorf("target_pct: %w", err)
	}
	threshold, err := parsePct(r.ThresholdPctRaw)
	if err != nil {
		return nil, fmt.Errorf("threshold_pct: %w", err)
	}

	out := &TokenChainConfig{
		TargetPct:    target,
		ThresholdPct: threshold,
	}

	if r.UnwrapWethThresholdRaw != "" {
		out.UnwrapWethThreshold = parseBigIntOrZero(r.UnwrapWethThresholdRaw)
	}
	if r.UnwrapWethTargetRaw != "" {
		out.UnwrapWethTarget = parseBigIntOrZero(r.UnwrapWethTargetRaw)
	}

	return out, nil
}

// Validate enforces the spec.md §3 invariant thresholdPct <= targetPct for
// every configured (token, chain) pair.
func (c *InventoryConfig) Validate() error {
	for l1, byChain := range c.TokenConfig {
		for chain, cfg := range byChain {
			if cfg.ThresholdPct.Cmp(cfg.TargetPct) > 0 {
				return fmt.Errorf("token %s chain %d: thresholdPct (%s) exceeds targetPct (%s)",
					l1.Hex(), chain, cfg.ThresholdPct, cfg.TargetPct)
			}
		}
	}
	return nil
}

// ChainConfigFor returns the TokenChainConfig for (l1Token, chain), and
// whether it exists (spec.md: "a missing entry means 'not managed on this
// chain'").
func (c *InventoryConfig) ChainConfigFor(l1Token types.L1Token, chain types.ChainID) (*TokenChainConfig, bool) {
	byChain, ok := c.TokenConfig[l1Token]
	if !ok {
		return nil, false
	}
	cfg, ok := byChain[chain]
	return cfg, ok
}

func parsePct(s string) (fixedpoint.Pct, error) {
	if s == "" {
		return fixedpoint.Zero(), nil
	}
	f, ok := new(big.Float).SetString(s)
	if !ok {
		return fixedpoint.Zero(), fmt.Errorf("invalid decimal %q", s)
	}
	scaled := new(big.Float).Mul(f, new(big.Float).SetInt(fixedpoint.Scalar))
	i, _ := scaled.Int(nil)
	return fixedpoint.FromInt(i), nil
}

func parseBigIntOrZero(s string) *big.Int {
	if s == "" {
		return big.NewInt(0)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/courier-service/courier_service/internal/domain/entities"
	domainerrors "github.com/courier-service/courier_service/internal/domain/errors"
)

// Config holds all configuration for the bridge core
type Config struct {
	Environment string            `mapstructure:"environment"`
	LogLevel    string            `mapstructure:"log_level"`
	Circle      CircleConfig      `mapstructure:"circle"`
	Attestation AttestationConfig `mapstructure:"attestation"`
	OnRamp      OnRampConfig      `mapstructure:"onramp"`
	Bridge      BridgeConfig      `mapstructure:"bridge"`
}

// CircleConfig contains wallet provider API configuration
type CircleConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Environment string        `mapstructure:"environment"` // "sandbox" or "mainnet"
	Timeout     time.Duration `mapstructure:"timeout"`
	WalletSetID string        `mapstructure:"wallet_set_id"`
}

// AttestationConfig contains attestation service configuration
type AttestationConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Environment  string        `mapstructure:"environment"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
	SettleDelay  time.Duration `mapstructure:"settle_delay"`
}

// OnRampConfig contains on-ramp provider configuration
type OnRampConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

// BridgeConfig contains transfer tuning and the chain registry
type BridgeConfig struct {
	ConfirmPollInterval time.Duration          `mapstructure:"confirm_poll_interval"`
	ConfirmMaxAttempts  int                    `mapstructure:"confirm_max_attempts"`
	Chains              map[string]ChainConfig `mapstructure:"chains"`
}

// ChainConfig is one immutable registry entry: the bridging contract
// addresses and protocol domain id for a network. Every network that can be
// a bridge source or destination must have a complete entry; gaps are a
// startup error, not a transfer-time error.
type ChainConfig struct {
	USDCContract       string `mapstructure:"usdc_contract" validate:"required"`
	TokenMessenger     string `mapstructure:"token_messenger" validate:"required"`
	MessageTransmitter string `mapstructure:"message_transmitter" validate:"required"`
	// DomainID is the bridging protocol's numeric network identifier,
	// distinct from the chain's own chain id. Zero is a valid domain.
	DomainID uint32 `mapstructure:"domain_id"`
}

// Registry provides read-only chain lookups; safe for concurrent use.
type Registry struct {
	chains map[entities.WalletChain]ChainConfig
}

// NewRegistry validates the configured chains and builds the registry.
func NewRegistry(chains map[string]ChainConfig) (*Registry, error) {
	validate := validator.New()
	out := make(map[entities.WalletChain]ChainConfig, len(chains))
	for name, cfg := range chains {
		if err := validate.Struct(cfg); err != nil {
			return nil, fmt.Errorf("incomplete bridge configuration for chain %q: %w", name, err)
		}
		// viper lowercases map keys; registry lookups use the provider's
		// uppercase network identifiers
		out[entities.WalletChain(strings.ToUpper(name))] = cfg
	}
	return &Registry{chains: out}, nil
}

// Get returns the registry entry for a chain.
func (r *Registry) Get(chain entities.WalletChain) (ChainConfig, error) {
	cfg, ok := r.chains[chain]
	if !ok {
		return ChainConfig{}, &domainerrors.ChainNotConfiguredError{Chain: string(chain)}
	}
	return cfg, nil
}

// Chains returns the configured chain identifiers.
func (r *Registry) Chains() []entities.WalletChain {
	out := make([]entities.WalletChain, 0, len(r.chains))
	for chain := range r.chains {
		out = append(out, chain)
	}
	return out
}

// Load reads configuration from config.yaml and the environment.
func Load() (*Config, error) {
	// Load .env if present; environment variables win either way
	godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// Fail on registry gaps at startup rather than at transfer time
	if _, err := NewRegistry(config.Bridge.Chains); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("environment", "development")
	viper.SetDefault("log_level", "info")

	viper.SetDefault("circle.environment", "sandbox")
	viper.SetDefault("circle.timeout", "30s")

	viper.SetDefault("attestation.environment", "sandbox")
	viper.SetDefault("attestation.poll_interval", "10s")
	viper.SetDefault("attestation.max_attempts", 30)
	viper.SetDefault("attestation.settle_delay", "5s")

	viper.SetDefault("onramp.settle_delay", "10s")

	viper.SetDefault("bridge.confirm_poll_interval", "2s")
	viper.SetDefault("bridge.confirm_max_attempts", 150)

	// CCTP v2 testnet deployments. TokenMessenger and MessageTransmitter are
	// deployed at the same address on every EVM testnet.
	const (
		testnetTokenMessenger     = "0x8FE6B999Dc680CcFDD5Bf7EB0974218be2542DAA"
		testnetMessageTransmitter = "0xE737e5cEBEEBa77EFE34D4aa090756590b1CE75f"
	)
	defaultChains := map[string]map[string]interface{}{
		string(entities.ChainEthSepolia): {
			"usdc_contract": "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
			"domain_id":     0,
		},
		string(entities.ChainAvaxFuji): {
			"usdc_contract": "0x5425890298aed601595a70AB815c96711a31Bc65",
			"domain_id":     1,
		},
		string(entities.ChainOpSepolia): {
			"usdc_contract": "0x5fd84259d66Cd46123540766Be93DFE6D43130D7",
			"domain_id":     2,
		},
		string(entities.ChainArbSepolia): {
			"usdc_contract": "0x75faf114eafb1BDbe2F0316DF893fd58CE46AA4d",
			"domain_id":     3,
		},
		string(entities.ChainBaseSepolia): {
			"usdc_contract": "0x036CbD53842c5426634e7929541eC2318f3dCF7e",
			"domain_id":     6,
		},
		string(entities.ChainMaticAmoy): {
			"usdc_contract": "0x41E94Eb019C0762f9Bfcf9Fb1E58725BfB0e7582",
			"domain_id":     7,
		},
	}
	for chain, fields := range defaultChains {
		key := "bridge.chains." + chain
		viper.SetDefault(key+".usdc_contract", fields["usdc_contract"])
		viper.SetDefault(key+".domain_id", fields["domain_id"])
		viper.SetDefault(key+".token_messenger", testnetTokenMessenger)
		viper.SetDefault(key+".message_transmitter", testnetMessageTransmitter)
	}
}

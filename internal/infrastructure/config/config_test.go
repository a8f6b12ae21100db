package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courier-service/courier_service/internal/domain/entities"
	domainerrors "github.com/courier-service/courier_service/internal/domain/errors"
)

func completeChain() ChainConfig {
	return ChainConfig{
		USDCContract:       "0x1c7D4B196Cb0C7B01d743Fbc6116a902379C7238",
		TokenMessenger:     "0x8FE6B999Dc680CcFDD5Bf7EB0974218be2542DAA",
		MessageTransmitter: "0xE737e5cEBEEBa77EFE34D4aa090756590b1CE75f",
		DomainID:           0,
	}
}

func TestNewRegistryAcceptsCompleteEntries(t *testing.T) {
	registry, err := NewRegistry(map[string]ChainConfig{
		"ETH-SEPOLIA": completeChain(),
	})
	require.NoError(t, err)

	cfg, err := registry.Get(entities.ChainEthSepolia)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), cfg.DomainID)
	assert.NotEmpty(t, cfg.TokenMessenger)
}

func TestNewRegistryRejectsIncompleteEntries(t *testing.T) {
	incomplete := completeChain()
	incomplete.MessageTransmitter = ""

	_, err := NewRegistry(map[string]ChainConfig{"ETH-SEPOLIA": incomplete})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ETH-SEPOLIA")
}

func TestNewRegistryUppercasesKeys(t *testing.T) {
	// viper lowercases configuration map keys; lookups still use the
	// provider's uppercase identifiers
	registry, err := NewRegistry(map[string]ChainConfig{
		"base-sepolia": completeChain(),
	})
	require.NoError(t, err)

	_, err = registry.Get(entities.ChainBaseSepolia)
	assert.NoError(t, err)
}

func TestRegistryGetUnknownChain(t *testing.T) {
	registry, err := NewRegistry(map[string]ChainConfig{
		"ETH-SEPOLIA": completeChain(),
	})
	require.NoError(t, err)

	_, err = registry.Get(entities.ChainMaticAmoy)
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrChainNotConfigured)
	assert.Contains(t, err.Error(), "MATIC-AMOY")
}

func TestLoadProvidesChainDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	registry, err := NewRegistry(cfg.Bridge.Chains)
	require.NoError(t, err)

	// Every supported testnet has a complete default entry
	for _, chain := range []entities.WalletChain{
		entities.ChainEthSepolia,
		entities.ChainAvaxFuji,
		entities.ChainOpSepolia,
		entities.ChainArbSepolia,
		entities.ChainBaseSepolia,
		entities.ChainMaticAmoy,
	} {
		entry, err := registry.Get(chain)
		require.NoError(t, err, "chain %s", chain)
		assert.NotEmpty(t, entry.USDCContract)
	}

	// Domain ids are protocol constants, not chain ids
	eth, _ := registry.Get(entities.ChainEthSepolia)
	base, _ := registry.Get(entities.ChainBaseSepolia)
	assert.Equal(t, uint32(0), eth.DomainID)
	assert.Equal(t, uint32(6), base.DomainID)

	assert.Equal(t, 30, cfg.Attestation.MaxAttempts)
	assert.Equal(t, 150, cfg.Bridge.ConfirmMaxAttempts)
}

package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-airdrop/internal/airdrop/failure"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/config"
)

func TestPrintServiceEnv(t *testing.T) {
	config := config.DefaultServiceConfigFromEnv()
	_, err := json.MarshalIndent(config, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestSecretsAreNotSerialized(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Wallet.Mnemonic = "test test test"
	cfg.Wallet.KeystorePassword = "hunter2"

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "test test test")
	assert.NotContains(t, string(out), "hunter2")
}

func TestTargetNetworkBuiltIn(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Airdrop.NetworksFile = ""
	cfg.Airdrop.TargetChainID = wallet.Sepolia.ChainID
	cfg.Airdrop.ExplorerURL = "https://explorer.example/"
	cfg.Wallet.LocalRPCURLs = []string{"http://localhost:8545"}

	network, err := cfg.TargetNetwork()
	require.NoError(t, err)
	assert.Equal(t, "Sepolia", network.Name)
	assert.Equal(t, []string{"https://explorer.example/"}, network.ExplorerURLs)
	assert.Equal(t, []string{"http://localhost:8545"}, network.RPCURLs)
	// the built-in descriptor is not modified
	assert.Equal(t, []string{"https://rpc.sepolia.org"}, wallet.Sepolia.RPCURLs)

	cfg.Airdrop.TargetChainID = 1
	_, err = cfg.TargetNetwork()
	assert.Equal(t, failure.ConfigurationInvalid, failure.KindOf(err))
}

func TestLoadNetworksFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[network]]
chain_id = 17000
name = "Holesky"
rpc_urls = ["https://ethereum-holesky.publicnode.com"]
explorer_urls = ["https://holesky.etherscan.io"]

[network.native_currency]
name = "Holesky Ether"
symbol = "ETH"
decimals = 18
`), 0o600))

	networks, err := config.LoadNetworks(path)
	require.NoError(t, err)
	require.Len(t, networks, 1)
	assert.Equal(t, int64(17000), networks[0].ChainID)
	assert.Equal(t, "ETH", networks[0].Currency.Symbol)
	assert.Equal(t, []string{"https://holesky.etherscan.io"}, networks[0].ExplorerURLs)

	cfg := config.DefaultServiceConfigFromEnv()
	cfg.Airdrop.NetworksFile = path
	cfg.Airdrop.TargetChainID = 17000
	cfg.Airdrop.ExplorerURL = ""
	cfg.Wallet.LocalRPCURLs = nil

	network, err := cfg.TargetNetwork()
	require.NoError(t, err)
	assert.Equal(t, "Holesky", network.Name)
}

func TestLoadNetworksRejectsIncompleteEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "networks.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[network]]\nname = \"nameless\"\n"), 0o600))

	_, err := config.LoadNetworks(path)
	assert.Equal(t, failure.ConfigurationInvalid, failure.KindOf(err))

	_, err = config.LoadNetworks(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Equal(t, failure.ConfigurationInvalid, failure.KindOf(err))
}

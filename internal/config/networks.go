package config

import (
	"github.com/BurntSushi/toml"
	"github/chapool/go-airdrop/internal/airdrop/failure"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
)

// networksFile is the layout of AIRDROP_NETWORKS_FILE:
//
//	[[network]]
//	chain_id = 11155111
//	name = "Sepolia"
//	rpc_urls = ["https://rpc.sepolia.org"]
//	explorer_urls = ["https://sepolia.etherscan.io"]
//
//	[network.native_currency]
//	name = "SepoliaETH"
//	symbol = "SEP"
//	decimals = 18
type networksFile struct {
	Networks []wallet.Network `toml:"network"`
}

// LoadNetworks reads a network registry file. An empty path yields the built-in
// registry.
func LoadNetworks(path string) ([]wallet.Network, error) {
	if path == "" {
		return []wallet.Network{wallet.Sepolia}, nil
	}

	var file networksFile
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return nil, failure.Wrap(err, failure.ConfigurationInvalid, "failed to read networks file "+path)
	}

	for i, n := range file.Networks {
		if n.ChainID <= 0 || n.Name == "" {
			return nil, failure.Newf(failure.ConfigurationInvalid, "network %d in %s needs chain_id and name", i+1, path)
		}
	}

	return file.Networks, nil
}

// TargetNetwork resolves the configured target chain against the registry and
// applies the explorer and RPC overrides.
func (c Server) TargetNetwork() (wallet.Network, error) {
	networks, err := LoadNetworks(c.Airdrop.NetworksFile)
	if err != nil {
		return wallet.Network{}, err
	}

	for _, n := range networks {
		if n.ChainID != c.Airdrop.TargetChainID {
			continue
		}

		if c.Airdrop.ExplorerURL != "" {
			n.ExplorerURLs = []string{c.Airdrop.ExplorerURL}
		}
		if len(c.Wallet.LocalRPCURLs) > 0 {
			n.RPCURLs = append([]string(nil), c.Wallet.LocalRPCURLs...)
		}

		return n, nil
	}

	return wallet.Network{}, failure.Newf(failure.ConfigurationInvalid,
		"target chain %d is not in the network registry", c.Airdrop.TargetChainID)
}

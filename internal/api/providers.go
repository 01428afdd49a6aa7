package api

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github/chapool/go-airdrop/internal/airdrop/distribution"
	"github/chapool/go-airdrop/internal/airdrop/failure"
	"github/chapool/go-airdrop/internal/airdrop/ledger"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/airdrop/wallet/eip1193"
	"github/chapool/go-airdrop/internal/airdrop/wallet/keystore"
	"github/chapool/go-airdrop/internal/airdrop/wallet/local"
	"github/chapool/go-airdrop/internal/airdrop/wallet/seed"
	"github/chapool/go-airdrop/internal/airdrop/wallet/signer"
	"github/chapool/go-airdrop/internal/config"
)

// PROVIDERS - define here only providers that for various reasons (e.g. cyclic dependency) can't live in their corresponding packages
// or for wrapping providers that only accept sub-configs to prevent the requirements for defining providers for sub-configs.
// https://github.com/google/wire/blob/main/docs/guide.md#defining-providers

// NewNetwork resolves the target network from the registry.
func NewNetwork(cfg config.Server) (wallet.Network, error) {
	return cfg.TargetNetwork()
}

// NewProviders discovers the wallet providers the configuration enables: the
// external signer when its URL is set, the local signer when a mnemonic or a
// keystore file is set.
func NewProviders(cfg config.Server, network wallet.Network) ([]wallet.Provider, error) {
	providers := make([]wallet.Provider, 0, 2)

	if cfg.Wallet.ExternalSignerURL != "" {
		providers = append(providers, eip1193.New(cfg.Wallet.ExternalSignerURL, eip1193.DefaultPriority))
	}

	mnemonic, err := localMnemonic(cfg.Wallet)
	if err != nil {
		return nil, err
	}

	if mnemonic != "" {
		seedManager := seed.NewManager()
		if err := seedManager.Initialize(mnemonic, cfg.Wallet.MnemonicPassword); err != nil {
			return nil, failure.Wrap(err, failure.ConfigurationInvalid, "failed to initialize wallet seed")
		}

		var approver local.Approver = local.NewPromptApprover(os.Stdin, os.Stderr)
		if cfg.Wallet.AutoApprove {
			approver = local.AutoApprover{}
		}

		provider, err := local.New(signer.NewService(seedManager), approver, local.Config{
			DerivationPath: cfg.Wallet.DerivationPath,
			Networks:       []wallet.Network{network},
		})
		if err != nil {
			return nil, failure.Wrap(err, failure.ConfigurationInvalid, "failed to create local wallet provider")
		}

		providers = append(providers, provider)
	}

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	log.Info().Strs("providers", names).Msg("Wallet providers discovered")

	return providers, nil
}

func localMnemonic(cfg config.Wallet) (string, error) {
	if cfg.KeystoreFile == "" {
		return cfg.Mnemonic, nil
	}

	if cfg.Mnemonic != "" {
		return "", failure.New(failure.ConfigurationInvalid, "set either WALLET_MNEMONIC or WALLET_KEYSTORE_FILE, not both")
	}

	mnemonic, err := keystore.LoadMnemonic(cfg.KeystoreFile, cfg.KeystorePassword)
	if err != nil {
		return "", failure.Wrap(err, failure.ConfigurationInvalid, "failed to unlock keystore "+cfg.KeystoreFile)
	}

	return mnemonic, nil
}

//nolint:ireturn
func NewLedger(cfg config.Server, providers []wallet.Provider) ledger.Service {
	return ledger.NewService(providers, ledger.Config{
		PreferredProvider: cfg.Wallet.PreferredProvider,
		PollInterval:      cfg.Airdrop.ReceiptPollInterval,
	})
}

func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

func NewMetrics(reg *prometheus.Registry) (*distribution.Metrics, error) {
	return distribution.NewMetrics(reg)
}

func NewEngine(
	cfg config.Server,
	network wallet.Network,
	ledgerService ledger.Service,
	metrics *distribution.Metrics,
) (*distribution.Orchestrator, error) {
	engineConfig, err := distribution.NewConfig(
		cfg.Airdrop.DistributorAddress,
		cfg.Airdrop.TokenAddress,
		network,
		cfg.Airdrop.MaxBatchSize,
		cfg.Airdrop.DefaultPrecision,
	)
	if err != nil {
		return nil, err
	}

	return distribution.New(ledgerService, engineConfig, metrics)
}

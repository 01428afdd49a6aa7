package probe

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/api"
	"github/chapool/go-airdrop/internal/config"
	"github/chapool/go-airdrop/internal/util/command"
)

var (
	errNotReady   = errors.New("server is not fully initialized")
	errNoProvider = errors.New("no wallet provider is available")
)

func newWallet() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Lists the discovered wallet providers",
		Long: `Lists the discovered wallet providers

Probes every provider enabled by the env and marks the one a distribution
would use. Exits with code 1 if none is available.`,
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse args")
			}

			runWallet(cmd.Context(), verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}

func runWallet(ctx context.Context, verbose bool) {
	cfg := config.DefaultServiceConfigFromEnv()
	if !verbose {
		cfg.Logger.Level = zerolog.WarnLevel
	}

	err := command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		diagnoses := wallet.Diagnose(ctx, s.Providers, cfg.Wallet.PreferredProvider)

		fmt.Printf("Target network: %s (%d)\n", s.Network.Name, s.Network.ChainID)

		if len(diagnoses) == 0 {
			fmt.Println("No wallet provider configured, set WALLET_EXTERNAL_SIGNER_URL, WALLET_MNEMONIC or WALLET_KEYSTORE_FILE")
			return errNoProvider
		}

		selected := false
		for _, d := range diagnoses {
			marker := " "
			if d.Selected {
				marker = "*"
				selected = true
			}

			status := "available"
			if !d.Available {
				status = "unavailable: " + d.Error
			}

			fmt.Printf("%s %-10s priority=%d preferred=%t %s\n", marker, d.Name, d.Priority, d.Preferred, status)
		}

		if !selected {
			return errNoProvider
		}

		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("Wallet probe failed")
		os.Exit(1)
	}
}

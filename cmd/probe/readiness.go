package probe

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/api"
	"github/chapool/go-airdrop/internal/config"
	"github/chapool/go-airdrop/internal/util/command"
)

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Runs readiness probes",
		Long: `Runs readiness probes

Wires the engine from the env and checks that a wallet provider is usable.
Exits with code 1 if it is not.`,
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, err := cmd.Flags().GetBool(verboseFlag)
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to parse args")
			}

			runReadiness(cmd.Context(), verbose)
		},
	}

	cmd.Flags().BoolP(verboseFlag, "v", false, "Show verbose output.")

	return cmd
}

func runReadiness(ctx context.Context, verbose bool) {
	cfg := config.DefaultServiceConfigFromEnv()
	if !verbose {
		cfg.Logger.Level = zerolog.WarnLevel
	}

	err := command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		if !s.Ready() {
			return errNotReady
		}

		probeCtx, cancel := context.WithTimeout(ctx, cfg.Management.ProbeReadinessTimeout)
		defer cancel()

		provider, err := wallet.Select(probeCtx, s.Providers, cfg.Wallet.PreferredProvider)
		if err != nil {
			return err
		}

		log.Info().Str("provider", provider.Name()).Msg("Readiness probe succeeded")
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("Readiness probe failed")
		os.Exit(1)
	}
}

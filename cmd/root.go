package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-airdrop/cmd/distribute"
	"github/chapool/go-airdrop/cmd/env"
	"github/chapool/go-airdrop/cmd/inspect"
	"github/chapool/go-airdrop/cmd/keystore"
	"github/chapool/go-airdrop/cmd/probe"
	"github/chapool/go-airdrop/cmd/server"
	"github/chapool/go-airdrop/cmd/validate"
	"github/chapool/go-airdrop/internal/config"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Version: config.GetFormattedBuildArgs(),
	Use:     "app",
	Short:   config.ModuleName,
	Long: fmt.Sprintf(`%v

Distributes ERC20 tokens to many recipients in a single airdrop transaction.
Requires configuration through ENV.`, config.ModuleName),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	// attach the subcommands
	rootCmd.AddCommand(
		distribute.New(),
		env.New(),
		inspect.New(),
		keystore.New(),
		probe.New(),
		server.New(),
		validate.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Failed to execute root command")
		os.Exit(1)
	}
}

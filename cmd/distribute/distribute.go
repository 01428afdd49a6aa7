package distribute

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github/chapool/go-airdrop/internal/airdrop/distribution"
	"github/chapool/go-airdrop/internal/api"
	"github/chapool/go-airdrop/internal/config"
	"github/chapool/go-airdrop/internal/util"
	"github/chapool/go-airdrop/internal/util/command"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	fileFlag = "file"
	yesFlag  = "yes"
)

func New() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "distribute",
		Short: "Distributes tokens to the recipients of a CSV file",
		Long: `Distributes tokens to the recipients of a CSV file

Each row is recipient,amount with no header. Amounts are entered in whole
tokens and converted with the token's decimals. All rows are sent in one
airdrop transaction from the configured distributor account.

Flags can also be set through AIRDROP_CLI_FILE and AIRDROP_CLI_YES.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := runDistribute(cmd.Context(), v.GetString(fileFlag), v.GetBool(yesFlag)); err != nil {
				log.Fatal().Err(err).Msg("Distribution failed")
			}
		},
	}

	cmd.Flags().StringP(fileFlag, "f", "", "Path of the recipient,amount CSV file, - for stdin")
	cmd.Flags().BoolP(yesFlag, "y", false, "Approve the transaction without a terminal prompt")

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		log.Panic().Err(err).Msg("Failed to bind flags")
	}
	v.SetEnvPrefix("AIRDROP_CLI")
	v.AutomaticEnv()

	return cmd
}

func runDistribute(ctx context.Context, path string, yes bool) error {
	if path == util.StdinPath && !yes {
		return errors.New("reading the batch from stdin requires --yes, the approval prompt needs the terminal")
	}

	input, err := util.OpenInput(path)
	if err != nil {
		return err
	}
	defer input.Close()

	cfg := config.DefaultServiceConfigFromEnv()
	if yes {
		cfg.Wallet.AutoApprove = true
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return command.WithServer(ctx, cfg, func(ctx context.Context, s *api.Server) error {
		p := message.NewPrinter(language.English)

		session, err := s.Engine.Connect(ctx)
		if err != nil {
			return err
		}

		precision := 0
		if token := s.Engine.Token(); token != nil {
			precision = token.Precision
		}

		p.Printf("Connected %s via %s on %s (chain %d), token precision %d\n",
			session.ShortAccount(), session.Provider, s.Network.Name, s.Network.ChainID, precision)

		outcome, err := s.Engine.Run(ctx, input)
		if outcome != nil {
			printOutcome(p, outcome)
		}

		return err
	})
}

func printOutcome(p *message.Printer, outcome *distribution.Outcome) {
	p.Printf("Run %s: %s\n", outcome.RunID, outcome.Status)
	p.Printf("  recipients: %d\n", outcome.Recipients)
	p.Printf("  total:      %s\n", outcome.Total)

	if outcome.Demand != "" {
		p.Printf("  demand:     %s units\n", outcome.Demand)
	}

	if outcome.Receipt != nil {
		p.Printf("  tx:         %s (%s)\n", outcome.Receipt.RequestID, outcome.Receipt.Status)
		if outcome.Receipt.ConfirmedAtBlock != nil {
			p.Printf("  block:      %d\n", *outcome.Receipt.ConfirmedAtBlock)
		}
	}

	if outcome.ExplorerURL != "" {
		p.Printf("  explorer:   %s\n", outcome.ExplorerURL)
	}

	if outcome.Failure != nil {
		p.Printf("  failure:    %s\n", outcome.Failure.Error())
	}

	if outcome.Status == distribution.Unsettled && outcome.Receipt != nil {
		p.Printf("  the transaction may still be mined, check it with `inspect --tx %s` before sending this batch again\n",
			outcome.Receipt.RequestID)
	}

	p.Printf("  duration:   %v\n", outcome.FinishedAt.Sub(outcome.StartedAt).Round(time.Millisecond))
}

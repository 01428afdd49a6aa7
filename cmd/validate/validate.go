package validate

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github/chapool/go-airdrop/internal/airdrop/amount"
	"github/chapool/go-airdrop/internal/airdrop/batch"
	"github/chapool/go-airdrop/internal/airdrop/failure"
	"github/chapool/go-airdrop/internal/config"
	"github/chapool/go-airdrop/internal/util"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	fileFlag      = "file"
	precisionFlag = "precision"

	// unsetPrecision selects AIRDROP_DEFAULT_PRECISION.
	unsetPrecision = -1
)

func New() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validates a recipient CSV file without sending anything",
		Long: `Validates a recipient CSV file without sending anything

Prints every row with its amount in the token's indivisible unit and the
display total. Every invalid row is reported. Exits with code 1 if the file
would be rejected.`,
		Run: func(_ *cobra.Command, _ []string) {
			if err := runValidate(v.GetString(fileFlag), v.GetInt(precisionFlag)); err != nil {
				log.Error().Err(err).Msg("Batch is invalid")
				os.Exit(1)
			}
		},
	}

	cmd.Flags().StringP(fileFlag, "f", "", "Path of the recipient,amount CSV file, - for stdin")
	cmd.Flags().IntP(precisionFlag, "p", unsetPrecision, "Token decimals, defaults to AIRDROP_DEFAULT_PRECISION")

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		log.Panic().Err(err).Msg("Failed to bind flags")
	}
	v.SetEnvPrefix("AIRDROP_CLI")
	v.AutomaticEnv()

	return cmd
}

func runValidate(path string, precision int) error {
	cfg := config.DefaultServiceConfigFromEnv()
	util.ConfigureLogger(cfg.Logger.Level, cfg.Logger.PrettyPrintConsole)

	if precision == unsetPrecision {
		precision = cfg.Airdrop.DefaultPrecision
	}
	if precision < 0 {
		return errors.Errorf("invalid precision %d", precision)
	}

	input, err := util.OpenInput(path)
	if err != nil {
		return err
	}
	defer input.Close()

	p := message.NewPrinter(language.English)

	b, err := batch.NewValidator(cfg.Airdrop.MaxBatchSize).Validate(input)
	if err != nil {
		printRowErrors(p, err)
		return err
	}

	if err := batch.Normalize(b, precision); err != nil {
		printRowErrors(p, err)
		return err
	}

	for i, e := range b.Entries {
		p.Printf("%4d  %s  %s  (%s units)\n", e.Row, e.Recipient.Hex(),
			amount.Format(b.Normalized[i], precision), b.Normalized[i].String())
	}

	p.Printf("\n%d recipients, total %s, precision %d\n", b.Len(), b.Total.String(), precision)

	return nil
}

func printRowErrors(p *message.Printer, err error) {
	var rows failure.RowErrors
	if errors.As(err, &rows) {
		for _, row := range rows {
			p.Printf("row %d: %s: %s\n", row.Row, row.Kind, row.Detail)
		}
		return
	}

	if f, ok := failure.As(err); ok {
		if f.Row > 0 {
			p.Printf("row %d: %s: %s\n", f.Row, f.Kind, f.Detail)
			return
		}
		p.Printf("%s: %s\n", f.Kind, f.Detail)
	}
}

package inspect

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github/chapool/go-airdrop/internal/airdrop/amount"
	"github/chapool/go-airdrop/internal/airdrop/ledger"
	"github/chapool/go-airdrop/internal/airdrop/wallet/rpc"
	"github/chapool/go-airdrop/internal/config"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	txFlag        = "tx"
	rpcFlag       = "rpc"
	precisionFlag = "precision"
	jsonFlag      = "json"

	inspectTimeout = 30 * time.Second
	hashLength     = 2 + 2*common.HashLength
)

func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Decodes an airdrop transaction and shows its receipt",
		Long: `Decodes an airdrop transaction and shows its receipt

Nodes default to the RPC endpoints of the target network.`,
		Run: func(cmd *cobra.Command, _ []string) {
			txHash, _ := cmd.Flags().GetString(txFlag)
			rpcURL, _ := cmd.Flags().GetString(rpcFlag)
			precision, _ := cmd.Flags().GetInt(precisionFlag)
			asJSON, _ := cmd.Flags().GetBool(jsonFlag)

			if err := runInspect(cmd.Context(), txHash, rpcURL, precision, asJSON); err != nil {
				log.Fatal().Err(err).Msg("Failed to inspect transaction")
			}
		},
	}

	cmd.Flags().String(txFlag, "", "Transaction hash to inspect")
	cmd.Flags().String(rpcFlag, "", "Comma separated RPC URLs")
	cmd.Flags().IntP(precisionFlag, "p", -1, "Token decimals used to display amounts")
	cmd.Flags().Bool(jsonFlag, false, "Print the result as JSON")

	return cmd
}

func runInspect(ctx context.Context, txHash string, rpcURL string, precision int, asJSON bool) error {
	if len(txHash) != hashLength {
		return errors.Errorf("invalid transaction hash %q", txHash)
	}
	hash, err := hexutil.Decode(txHash)
	if err != nil {
		return errors.Wrapf(err, "invalid transaction hash %q", txHash)
	}

	urls := rpc.ParseURLs(rpcURL)
	if len(urls) == 0 {
		network, err := config.DefaultServiceConfigFromEnv().TargetNetwork()
		if err != nil {
			return err
		}
		urls = network.RPCURLs
	}

	ctx, cancel := context.WithTimeout(ctx, inspectTimeout)
	defer cancel()

	client, err := rpc.Dial(ctx, urls)
	if err != nil {
		return err
	}
	defer client.Close()

	result, err := ledger.Inspect(ctx, client, common.BytesToHash(hash))
	if err != nil {
		return err
	}

	if asJSON {
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal inspection")
		}
		fmt.Println(string(out))
		return nil
	}

	printInspection(result, precision)

	return nil
}

func printInspection(result *ledger.Inspection, precision int) {
	p := message.NewPrinter(language.English)

	p.Printf("tx:        %s\n", result.Hash.Hex())
	p.Printf("from:      %s\n", result.From.Hex())
	p.Printf("contract:  %s\n", result.To.Hex())
	p.Printf("status:    %s\n", result.Receipt.Status)
	if result.Receipt.ConfirmedAtBlock != nil {
		p.Printf("block:     %d\n", *result.Receipt.ConfirmedAtBlock)
	}
	if result.Receipt.Reason != "" {
		p.Printf("reason:    %s\n", result.Receipt.Reason)
	}
	p.Printf("transfers: %d of %d recipients\n\n", result.Transfers, len(result.Recipients))

	for i, recipient := range result.Recipients {
		value := result.Amounts[i].String()
		if precision >= 0 {
			value = amount.Format(result.Amounts[i], precision)
		}
		p.Printf("%4d  %s  %s\n", i+1, recipient.Hex(), value)
	}
}

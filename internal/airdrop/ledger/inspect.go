package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// ERC20 Transfer(address,address,uint256)
//
//nolint:gochecknoglobals
var transferEventSig = common.HexToHash("0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef")

// TransactionReader reads mined or pending transactions from a node.
type TransactionReader interface {
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
	GetTransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Inspection is an airdrop transaction decoded from the chain.
type Inspection struct {
	Hash       common.Hash      `json:"hash"`
	From       common.Address   `json:"from"`
	To         common.Address   `json:"to"`
	Recipients []common.Address `json:"recipients"`
	Amounts    []*big.Int       `json:"amounts"`
	Receipt    ReceiptView      `json:"receipt"`
	// Transfers counts the ERC20 Transfer events the transaction emitted.
	Transfers int `json:"transfers"`
}

// Inspect fetches hash and decodes it as an airdrop call. ethereum.NotFound is
// returned for unknown transactions.
func Inspect(ctx context.Context, reader TransactionReader, hash common.Hash) (*Inspection, error) {
	tx, _, err := reader.TransactionByHash(ctx, hash)
	if err != nil {
		return nil, err
	}

	if tx.To() == nil {
		return nil, errors.New("transaction is a contract creation")
	}

	recipients, amounts, err := UnpackAirdrop(tx.Data())
	if err != nil {
		return nil, err
	}

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to recover sender")
	}

	result := &Inspection{
		Hash:       hash,
		From:       from,
		To:         *tx.To(),
		Recipients: recipients,
		Amounts:    amounts,
	}

	receipt := NewReceipt(hash)

	mined, err := reader.GetTransactionReceipt(ctx, hash)
	switch {
	case errors.Is(err, ethereum.NotFound):
		// still pending
	case err != nil:
		return nil, err
	default:
		block := mined.BlockNumber.Uint64()
		if mined.Status == types.ReceiptStatusSuccessful {
			_ = receipt.Settle(Confirmed, block, "")
		} else {
			_ = receipt.Settle(Failed, block, fmt.Sprintf("transaction reverted in block %d", block))
		}

		for _, l := range mined.Logs {
			if len(l.Topics) == 3 && l.Topics[0] == transferEventSig {
				result.Transfers++
			}
		}
	}

	result.Receipt = receipt.View()

	return result, nil
}

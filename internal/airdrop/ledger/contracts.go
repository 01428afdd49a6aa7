package ledger

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

const erc20ABIJSON = `[
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const distributorABIJSON = `[
	{"type":"function","name":"airdrop","stateMutability":"nonpayable","inputs":[{"name":"recipients","type":"address[]"},{"name":"amounts","type":"uint256[]"}],"outputs":[]}
]`

//nolint:gochecknoglobals
var (
	erc20ABI       = mustParseABI(erc20ABIJSON)
	distributorABI = mustParseABI(distributorABIJSON)
)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// PackAirdrop encodes airdrop(address[],uint256[]).
func PackAirdrop(recipients []common.Address, amounts []*big.Int) ([]byte, error) {
	data, err := distributorABI.Pack("airdrop", recipients, amounts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode airdrop call")
	}
	return data, nil
}

// UnpackAirdrop decodes the arguments of an airdrop call including its selector.
func UnpackAirdrop(data []byte) ([]common.Address, []*big.Int, error) {
	method, err := distributorABI.MethodById(data)
	if err != nil || method.Name != "airdrop" {
		return nil, nil, errors.New("not an airdrop call")
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to decode airdrop call")
	}

	recipients, ok := args[0].([]common.Address)
	if !ok {
		return nil, nil, errors.New("unexpected recipients type")
	}
	amounts, ok := args[1].([]*big.Int)
	if !ok {
		return nil, nil, errors.New("unexpected amounts type")
	}

	return recipients, amounts, nil
}

func packDecimals() ([]byte, error) {
	return erc20ABI.Pack("decimals")
}

func unpackDecimals(out []byte) (uint8, error) {
	values, err := erc20ABI.Unpack("decimals", out)
	if err != nil {
		return 0, errors.Wrap(err, "failed to decode decimals")
	}

	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, errors.New("unexpected decimals type")
	}
	return decimals, nil
}

func packBalanceOf(holder common.Address) ([]byte, error) {
	return erc20ABI.Pack("balanceOf", holder)
}

func unpackBalanceOf(out []byte) (*big.Int, error) {
	values, err := erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode balance")
	}

	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, errors.New("unexpected balance type")
	}
	return balance, nil
}

package rpc_test

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-airdrop/internal/airdrop/wallet/rpc"
	"github/chapool/go-airdrop/internal/test"
)

func TestParseURLs(t *testing.T) {
	assert.Nil(t, rpc.ParseURLs(""))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		rpc.ParseURLs(" https://a.example, ,https://b.example ,"))
}

func TestDialRequiresURL(t *testing.T) {
	_, err := rpc.Dial(context.Background(), nil)
	require.Error(t, err)
}

func TestClientQueries(t *testing.T) {
	node, client := test.NewFakeNode(t, 11155111)
	ctx := context.Background()

	chainID, err := client.ChainID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(11155111), chainID.Int64())

	header, err := client.HeaderByNumber(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, node.BaseFee.String(), header.BaseFee.String())

	tip, err := client.SuggestGasTipCap(ctx)
	require.NoError(t, err)
	assert.Equal(t, node.TipCap.String(), tip.String())

	to := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	gas, err := client.EstimateGas(ctx, ethereum.CallMsg{To: &to, Data: []byte{0x01}})
	require.NoError(t, err)
	assert.Equal(t, node.Gas, gas)

	nonce, err := client.PendingNonceAt(ctx, to)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), nonce)
}

func TestClientCallContract(t *testing.T) {
	node, client := test.NewFakeNode(t, 1)
	token := common.HexToAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")

	node.Call = func(to common.Address, data []byte) ([]byte, error) {
		assert.Equal(t, token, to)
		assert.Equal(t, []byte{0x31, 0x3c, 0xe5, 0x67}, data)
		return common.LeftPadBytes(big.NewInt(6).Bytes(), 32), nil
	}

	out, err := client.CallContract(context.Background(), ethereum.CallMsg{To: &token, Data: []byte{0x31, 0x3c, 0xe5, 0x67}})
	require.NoError(t, err)
	assert.Equal(t, int64(6), new(big.Int).SetBytes(out).Int64())
}

func TestClientUnknownTransaction(t *testing.T) {
	_, client := test.NewFakeNode(t, 1)
	hash := common.HexToHash("0x01")

	_, err := client.GetTransactionReceipt(context.Background(), hash)
	require.ErrorIs(t, err, ethereum.NotFound)

	_, _, err = client.TransactionByHash(context.Background(), hash)
	require.ErrorIs(t, err, ethereum.NotFound)
}

package test

import (
	"context"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github/chapool/go-airdrop/internal/airdrop/wallet/rpc"
)

// FakeNode is an in-process stand-in for an Ethereum JSON-RPC node. It answers
// the eth_ methods used by the rpc client and records broadcast transactions.
type FakeNode struct {
	mu sync.Mutex

	ChainID *big.Int
	BaseFee *big.Int
	TipCap  *big.Int
	Gas     uint64
	// Call answers eth_call. Nil returns empty output.
	Call func(to common.Address, data []byte) ([]byte, error)
	// HoldReceipts keeps receipts pending until Mine is called.
	HoldReceipts bool
	// Revert makes mined transactions fail.
	Revert bool

	sent     []*types.Transaction
	nonces   map[common.Address]uint64
	pending  []*types.Transaction
	receipts map[common.Hash]*types.Receipt
	block    int64
}

// NewFakeNode serves a FakeNode in-process and returns an rpc client for it.
func NewFakeNode(t *testing.T, chainID int64) (*FakeNode, *rpc.Client) {
	t.Helper()

	node := &FakeNode{
		ChainID:  big.NewInt(chainID),
		BaseFee:  big.NewInt(1_000_000_000),
		TipCap:   big.NewInt(100_000_000),
		Gas:      150_000,
		nonces:   make(map[common.Address]uint64),
		receipts: make(map[common.Hash]*types.Receipt),
		block:    100,
	}

	server := gethrpc.NewServer()
	if err := server.RegisterName("eth", &fakeEthAPI{node: node}); err != nil {
		t.Fatalf("failed to register fake eth API: %v", err)
	}

	client := rpc.NewFromClients(ethclient.NewClient(gethrpc.DialInProc(server)))

	t.Cleanup(func() {
		client.Close()
		server.Stop()
	})

	return node, client
}

// Sent returns every transaction broadcast so far.
func (n *FakeNode) Sent() []*types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()

	return append([]*types.Transaction(nil), n.sent...)
}

// Mine includes every held transaction in a new block.
func (n *FakeNode) Mine() {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.mineLocked()
}

func (n *FakeNode) mineLocked() {
	n.block++

	status := types.ReceiptStatusSuccessful
	if n.Revert {
		status = types.ReceiptStatusFailed
	}

	for i, tx := range n.pending {
		n.receipts[tx.Hash()] = &types.Receipt{
			Type:              tx.Type(),
			Status:            status,
			CumulativeGasUsed: n.Gas,
			Logs:              []*types.Log{},
			TxHash:            tx.Hash(),
			GasUsed:           n.Gas,
			BlockHash:         common.BigToHash(big.NewInt(n.block)),
			BlockNumber:       big.NewInt(n.block),
			TransactionIndex:  uint(i),
		}
	}
	n.pending = nil
}

type callArgs struct {
	From  common.Address  `json:"from"`
	To    *common.Address `json:"to"`
	Data  hexutil.Bytes   `json:"data"`
	Input hexutil.Bytes   `json:"input"`
}

func (a callArgs) payload() []byte {
	if len(a.Input) > 0 {
		return a.Input
	}
	return a.Data
}

type fakeEthAPI struct {
	node *FakeNode
}

func (api *fakeEthAPI) ChainId() *hexutil.Big { //nolint:revive,stylecheck // eth_chainId
	return (*hexutil.Big)(api.node.ChainID)
}

func (api *fakeEthAPI) GetTransactionCount(addr common.Address, _ string) hexutil.Uint64 {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()

	return hexutil.Uint64(api.node.nonces[addr])
}

func (api *fakeEthAPI) EstimateGas(_ callArgs, _ *string) hexutil.Uint64 {
	return hexutil.Uint64(api.node.Gas)
}

func (api *fakeEthAPI) MaxPriorityFeePerGas() *hexutil.Big {
	return (*hexutil.Big)(api.node.TipCap)
}

func (api *fakeEthAPI) GetBlockByNumber(_ string, _ bool) *types.Header {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()

	return &types.Header{
		Number:     big.NewInt(api.node.block),
		Difficulty: big.NewInt(0),
		GasLimit:   30_000_000,
		BaseFee:    api.node.BaseFee,
	}
}

func (api *fakeEthAPI) Call(args callArgs, _ *string) (hexutil.Bytes, error) {
	if api.node.Call == nil || args.To == nil {
		return hexutil.Bytes{}, nil
	}

	return api.node.Call(*args.To, args.payload())
}

func (api *fakeEthAPI) SendRawTransaction(_ context.Context, raw hexutil.Bytes) (common.Hash, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return common.Hash{}, err
	}

	sender, err := types.Sender(types.LatestSignerForChainID(api.node.ChainID), tx)
	if err != nil {
		return common.Hash{}, err
	}

	api.node.mu.Lock()
	defer api.node.mu.Unlock()

	api.node.sent = append(api.node.sent, tx)
	api.node.nonces[sender] = tx.Nonce() + 1
	api.node.pending = append(api.node.pending, tx)

	if !api.node.HoldReceipts {
		api.node.mineLocked()
	}

	return tx.Hash(), nil
}

func (api *fakeEthAPI) GetTransactionReceipt(hash common.Hash) *types.Receipt {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()

	return api.node.receipts[hash]
}

func (api *fakeEthAPI) GetTransactionByHash(hash common.Hash) *types.Transaction {
	api.node.mu.Lock()
	defer api.node.mu.Unlock()

	for _, tx := range api.node.sent {
		if tx.Hash() == hash {
			return tx
		}
	}
	return nil
}

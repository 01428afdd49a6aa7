package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/api"
	"github/chapool/go-airdrop/internal/api/router"
	"github/chapool/go-airdrop/internal/config"
)

//nolint:gochecknoglobals
var (
	// TestAccount is the account of the default test wallet.
	TestAccount = common.HexToAddress("0x8617E340B3D01FA5F11F306F4090FD50E238070D")
	// TestDistributor holds 1000 tokens (18 decimals) in the default test wallet.
	TestDistributor = common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	TestToken       = common.HexToAddress("0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB")
)

// NewTestConfig returns the env config pointed at the test addresses, with a
// fast receipt poll and the built-in network registry.
func NewTestConfig() config.Server {
	cfg := config.DefaultServiceConfigFromEnv()

	cfg.Airdrop.DistributorAddress = TestDistributor.Hex()
	cfg.Airdrop.TokenAddress = TestToken.Hex()
	cfg.Airdrop.TargetChainID = wallet.Sepolia.ChainID
	cfg.Airdrop.NetworksFile = ""
	cfg.Airdrop.ExplorerURL = ""
	cfg.Airdrop.ReceiptPollInterval = time.Millisecond
	cfg.Wallet.PreferredProvider = ""
	cfg.Management.EnableMetrics = true

	return cfg
}

// NewTestWallet returns the default test wallet on the target network.
func NewTestWallet() *FakeWallet {
	w := NewFakeWallet(TestAccount, wallet.Sepolia.ChainID)
	balance, _ := new(big.Int).SetString("1000000000000000000000", 10)
	w.SetBalance(TestDistributor, balance)

	return w
}

// WithTestServer runs closure against a fully wired server driving a single
// FakeWallet, reachable as s.Providers[0].
func WithTestServer(t *testing.T, closure func(s *api.Server)) {
	t.Helper()

	WithTestServerConfigurable(t, NewTestConfig(), []wallet.Provider{NewTestWallet()}, closure)
}

func WithTestServerConfigurable(t *testing.T, cfg config.Server, providers []wallet.Provider, closure func(s *api.Server)) {
	t.Helper()

	s, err := api.InitNewServerWithProviders(cfg, providers)
	if err != nil {
		t.Fatalf("failed to init server: %v", err)
	}

	if err := router.Init(s); err != nil {
		t.Fatalf("failed to init router: %v", err)
	}

	closure(s)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if errs := s.Shutdown(ctx); len(errs) > 0 {
		t.Fatalf("failed to shutdown server: %v", errs)
	}
}

// PerformRequest sends a request through the echo router. Strings, byte slices
// and readers are sent as is, anything else is JSON encoded.
func PerformRequest(t *testing.T, s *api.Server, method string, path string, body any, headers http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	case []byte:
		reader = bytes.NewReader(b)
	case io.Reader:
		reader = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(data)
		if headers == nil {
			headers = http.Header{}
		}
		if headers.Get("Content-Type") == "" {
			headers.Set("Content-Type", "application/json")
		}
	}

	req := httptest.NewRequest(method, path, reader)
	for k, values := range headers {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	res := httptest.NewRecorder()
	s.Echo.ServeHTTP(res, req)

	return res
}

// ParseResponseAndValidate decodes the JSON body of res into v.
func ParseResponseAndValidate(t *testing.T, res *httptest.ResponseRecorder, v any) {
	t.Helper()

	if err := json.NewDecoder(res.Result().Body).Decode(v); err != nil {
		t.Fatalf("failed to parse response body: %v", err)
	}
}

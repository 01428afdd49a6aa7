package config

import (
	"time"

	"github.com/rs/zerolog"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/util"
)

type EchoServer struct {
	Debug                          bool
	ListenAddress                  string
	HideInternalServerErrorDetails bool
	EnableRecoverMiddleware        bool
	EnableRequestIDMiddleware      bool
	EnableTrailingSlashMiddleware  bool
	EnableCORSMiddleware           bool
}

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	LogRequestBody     bool
	LogResponseBody    bool
	PrettyPrintConsole bool
}

type ManagementServer struct {
	ProbeReadinessTimeout time.Duration
	EnableMetrics         bool
}

// Airdrop holds the distribution engine parameters.
type Airdrop struct {
	DistributorAddress string
	TokenAddress       string
	TargetChainID      int64
	MaxBatchSize       int
	DefaultPrecision   int
	// ExplorerURL overrides the explorer of the target network.
	ExplorerURL         string
	NetworksFile        string
	ReceiptPollInterval time.Duration
}

// Wallet configures provider discovery. Secrets are never serialized.
type Wallet struct {
	PreferredProvider string
	ExternalSignerURL string
	Mnemonic          string `json:"-"`
	MnemonicPassword  string `json:"-"`
	KeystoreFile      string
	KeystorePassword  string `json:"-"`
	DerivationPath    string
	// LocalRPCURLs overrides the RPC endpoints of the target network.
	LocalRPCURLs []string
	AutoApprove  bool
}

type Server struct {
	Echo       EchoServer
	Management ManagementServer
	Logger     LoggerServer
	Airdrop    Airdrop
	Wallet     Wallet
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
// Do NOT use os.Setenv / os.Unsetenv in tests utilizing DefaultServiceConfigFromEnv()!
func DefaultServiceConfigFromEnv() Server {
	return Server{
		Echo: EchoServer{
			Debug:                          util.GetEnvAsBool("SERVER_ECHO_DEBUG", false),
			ListenAddress:                  util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8080"),
			HideInternalServerErrorDetails: util.GetEnvAsBool("SERVER_ECHO_HIDE_INTERNAL_SERVER_ERROR_DETAILS", true),
			EnableRecoverMiddleware:        util.GetEnvAsBool("SERVER_ECHO_ENABLE_RECOVER_MIDDLEWARE", true),
			EnableRequestIDMiddleware:      util.GetEnvAsBool("SERVER_ECHO_ENABLE_REQUEST_ID_MIDDLEWARE", true),
			EnableTrailingSlashMiddleware:  util.GetEnvAsBool("SERVER_ECHO_ENABLE_TRAILING_SLASH_MIDDLEWARE", true),
			EnableCORSMiddleware:           util.GetEnvAsBool("SERVER_ECHO_ENABLE_CORS_MIDDLEWARE", true),
		},
		Management: ManagementServer{
			ProbeReadinessTimeout: util.GetEnvAsDuration("SERVER_MANAGEMENT_PROBE_READINESS_TIMEOUT", 4*time.Second),
			EnableMetrics:         util.GetEnvAsBool("SERVER_MANAGEMENT_ENABLE_METRICS", true),
		},
		Logger: LoggerServer{
			Level:              util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_LEVEL", zerolog.InfoLevel.String())),
			RequestLevel:       util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_REQUEST_LEVEL", zerolog.DebugLevel.String())),
			LogRequestBody:     util.GetEnvAsBool("SERVER_LOGGER_LOG_REQUEST_BODY", false),
			LogResponseBody:    util.GetEnvAsBool("SERVER_LOGGER_LOG_RESPONSE_BODY", false),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Airdrop: Airdrop{
			DistributorAddress:  util.GetEnv("AIRDROP_DISTRIBUTOR_ADDRESS", ""),
			TokenAddress:        util.GetEnv("AIRDROP_TOKEN_ADDRESS", ""),
			TargetChainID:       util.GetEnvAsInt64("AIRDROP_TARGET_CHAIN_ID", wallet.Sepolia.ChainID),
			MaxBatchSize:        util.GetEnvAsInt("AIRDROP_MAX_BATCH_SIZE", 200),
			DefaultPrecision:    util.GetEnvAsInt("AIRDROP_DEFAULT_PRECISION", 18),
			ExplorerURL:         util.GetEnv("AIRDROP_EXPLORER_URL", ""),
			NetworksFile:        util.GetEnv("AIRDROP_NETWORKS_FILE", ""),
			ReceiptPollInterval: util.GetEnvAsDuration("AIRDROP_RECEIPT_POLL_INTERVAL", 3*time.Second),
		},
		Wallet: Wallet{
			PreferredProvider: util.GetEnv("WALLET_PREFERRED_PROVIDER", ""),
			ExternalSignerURL: util.GetEnv("WALLET_EXTERNAL_SIGNER_URL", ""),
			Mnemonic:          util.GetEnv("WALLET_MNEMONIC", ""),
			MnemonicPassword:  util.GetEnv("WALLET_MNEMONIC_PASSWORD", ""),
			KeystoreFile:      util.GetEnv("WALLET_KEYSTORE_FILE", ""),
			KeystorePassword:  util.GetEnv("WALLET_KEYSTORE_PASSWORD", ""),
			DerivationPath:    util.GetEnv("WALLET_DERIVATION_PATH", "m/44'/60'/0'/0/0"),
			LocalRPCURLs:      util.GetEnvAsStringArr("WALLET_LOCAL_RPC_URLS", nil),
			AutoApprove:       util.GetEnvAsBool("WALLET_AUTO_APPROVE", false),
		},
	}
}

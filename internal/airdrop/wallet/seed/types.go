package seed

// Manager holds the wallet seed in memory for the lifetime of the process.
type Manager interface {
	// Initialize derives the seed from a BIP39 mnemonic and optional password.
	Initialize(mnemonic string, password string) error

	// GetSeed returns a copy of the seed, or nil before Initialize.
	GetSeed() []byte

	// IsInitialized checks if seed is initialized
	IsInitialized() bool

	// Clear wipes the seed from memory
	Clear()
}

package seed

import (
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
)

// ErrInvalidMnemonic is returned for mnemonics that fail the BIP39 word list or checksum.
var ErrInvalidMnemonic = errors.New("invalid mnemonic")

type manager struct {
	mu   sync.RWMutex
	seed []byte
}

// NewManager returns an empty Manager.
//
//nolint:ireturn
func NewManager() Manager {
	return &manager{}
}

// Initialize replaces any held seed with the BIP39 seed of mnemonic. Words may be
// separated by any run of whitespace.
func (m *manager) Initialize(mnemonic string, password string) error {
	seed, err := bip39.NewSeedWithErrorChecking(strings.Join(strings.Fields(mnemonic), " "), password)
	if err != nil {
		return errors.Wrap(ErrInvalidMnemonic, err.Error())
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	zero(m.seed)
	m.seed = seed

	return nil
}

func (m *manager) GetSeed() []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.seed == nil {
		return nil
	}

	return append([]byte(nil), m.seed...)
}

func (m *manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.seed != nil
}

func (m *manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	zero(m.seed)
	m.seed = nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

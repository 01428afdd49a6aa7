package signer

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"github/chapool/go-airdrop/internal/airdrop/wallet/seed"
)

type service struct {
	seedManager seed.Manager
}

// NewService creates a new signer Service
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(seedManager seed.Manager) Service {
	return &service{seedManager: seedManager}
}

// DeriveAddress derives the address at path without keeping the key around.
func (s *service) DeriveAddress(_ context.Context, path string) (common.Address, error) {
	privateKey, err := s.derive(path)
	if err != nil {
		return common.Address{}, err
	}
	defer zero(privateKey)

	return addressFromKey(privateKey)
}

// SignEVMTransaction signs an EVM transaction (EIP-1559)
func (s *service) SignEVMTransaction(ctx context.Context, req *SignEVMRequest) (*SignEVMResponse, error) {
	privateKey, err := s.derive(req.DerivationPath)
	if err != nil {
		return nil, err
	}
	defer zero(privateKey)

	return s.signEIP1559Transaction(ctx, req, privateKey)
}

func (s *service) derive(path string) ([]byte, error) {
	seed := s.seedManager.GetSeed()
	if seed == nil {
		return nil, errors.New("seed not initialized")
	}
	defer zero(seed)

	privateKey, err := DerivePrivateKey(seed, path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive private key")
	}

	return privateKey, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

//go:build wireinject

package api

import (
	"github.com/google/wire"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
	"github/chapool/go-airdrop/internal/config"
)

// INJECTORS - https://github.com/google/wire/blob/main/docs/guide.md#injectors

// serviceSet groups the default set of providers that are required for initing a server
var serviceSet = wire.NewSet(
	newServerWithComponents,
	NewNetwork,
	NewLedger,
	NewRegistry,
	NewMetrics,
	NewEngine,
)

// InitNewServer returns a new Server instance.
func InitNewServer(
	_ config.Server,
) (*Server, error) {
	wire.Build(serviceSet, NewProviders)
	return new(Server), nil
}

// InitNewServerWithProviders returns a new Server instance driving the given wallet providers.
// All the other components are initialized via go wire according to the configuration.
func InitNewServerWithProviders(
	_ config.Server,
	_ []wallet.Provider,
) (*Server, error) {
	wire.Build(serviceSet)
	return new(Server), nil
}

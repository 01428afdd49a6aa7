package airdrop

import (
	"github/chapool/go-airdrop/internal/airdrop/distribution"
	"github/chapool/go-airdrop/internal/airdrop/wallet"
)

type NetworkItem struct {
	ChainID  int64  `json:"chain_id"`
	Name     string `json:"name"`
	Explorer string `json:"explorer,omitempty"`
}

type SessionResponse struct {
	State        distribution.State         `json:"state"`
	Session      distribution.Session       `json:"session"`
	ShortAccount string                     `json:"short_account,omitempty"`
	Token        *distribution.TokenMeta    `json:"token"`
	Batch        *distribution.BatchSummary `json:"batch"`
	Network      NetworkItem                `json:"network"`
}

type DistributionResponse struct {
	State   distribution.State    `json:"state"`
	Outcome *distribution.Outcome `json:"outcome"`
}

type CancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type DiagnosticsResponse struct {
	Preferred string             `json:"preferred,omitempty"`
	Providers []wallet.Diagnosis `json:"providers"`
}

func newSessionResponse(engine *distribution.Orchestrator) *SessionResponse {
	session := engine.Session()
	network := engine.Config().Network

	item := NetworkItem{ChainID: network.ChainID, Name: network.Name}
	if len(network.ExplorerURLs) > 0 {
		item.Explorer = network.ExplorerURLs[0]
	}

	return &SessionResponse{
		State:        engine.State(),
		Session:      session,
		ShortAccount: session.ShortAccount(),
		Token:        engine.Token(),
		Batch:        engine.Batch(),
		Network:      item,
	}
}

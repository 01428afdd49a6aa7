package wallet

import (
	"context"
	"sort"

	"github.com/rs/zerolog/log"
	"github/chapool/go-airdrop/internal/airdrop/failure"
)

// Diagnosis is the probe result of one discovered provider.
type Diagnosis struct {
	Name      string `json:"name"`
	Priority  int    `json:"priority"`
	Available bool   `json:"available"`
	Preferred bool   `json:"preferred"`
	Selected  bool   `json:"selected"`
	Error     string `json:"error,omitempty"`
}

// Diagnose probes every provider and reports which one Select would pick.
// The returned slice is in ranking order.
func Diagnose(ctx context.Context, providers []Provider, preferred string) []Diagnosis {
	ranked := rank(providers, preferred)

	result := make([]Diagnosis, 0, len(ranked))
	selected := false

	for _, p := range ranked {
		d := Diagnosis{
			Name:      p.Name(),
			Priority:  p.Priority(),
			Preferred: preferred != "" && p.Name() == preferred,
		}

		if err := p.Probe(ctx); err != nil {
			d.Error = err.Error()
		} else {
			d.Available = true
			if !selected {
				d.Selected = true
				selected = true
			}
		}

		result = append(result, d)
	}

	return result
}

// Select returns the best available provider: the one named preferred if it is
// available, otherwise the available provider with the lowest priority. Ties keep
// discovery order. Fails with NoProviderFound when none is usable.
//
//nolint:ireturn // the selected provider is used through its capability interface
func Select(ctx context.Context, providers []Provider, preferred string) (Provider, error) {
	for _, p := range rank(providers, preferred) {
		if err := p.Probe(ctx); err != nil {
			log.Debug().
				Str("provider", p.Name()).
				Err(err).
				Msg("Wallet provider unavailable, skipping")
			continue
		}

		return p, nil
	}

	return nil, failure.Newf(failure.NoProviderFound, "none of %d discovered wallet providers is available", len(providers))
}

func rank(providers []Provider, preferred string) []Provider {
	ranked := make([]Provider, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			ranked = append(ranked, p)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		iPreferred := preferred != "" && ranked[i].Name() == preferred
		jPreferred := preferred != "" && ranked[j].Name() == preferred
		if iPreferred != jPreferred {
			return iPreferred
		}
		return ranked[i].Priority() < ranked[j].Priority()
	})

	return ranked
}

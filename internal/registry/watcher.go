package registry

import (
	"context"

	"github.com/yolodolo42/ledgers/internal/chain"
	"github.com/yolodolo42/ledgers/internal/events"
	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/network"
)

// WalletState is one observation of the injected wallet.
type WalletState struct {
	Account string
	Network string
}

// Present reports whether the wallet has an unlocked account.
func (s WalletState) Present() bool {
	return s.Account != ""
}

// Detect reads the wallet's current account and chain.
func Detect(ctx context.Context, w chain.Wallet) (WalletState, error) {
	account, err := w.CurrentAccount(ctx)
	if err != nil {
		return WalletState{}, err
	}
	name, err := w.CurrentNetwork(ctx)
	if err != nil {
		return WalletState{}, err
	}
	return WalletState{Account: account, Network: name}, nil
}

// Transitions lists the notifications for moving from prev to next. uri maps
// a chain name to its remuneration URI.
func Transitions(prev, next WalletState, uri func(name string) string) []events.Event {
	var out []events.Event

	if next.Network != prev.Network {
		e := events.NetworkChanged{
			Tag:  string(imparter.TagEthWeb3),
			Name: next.Network,
			URI:  uri(next.Network),
		}
		if next.Network != "" {
			e.Mode = string(network.ChainMode(next.Network))
		}
		out = append(out, e)
	}

	if next.Account != prev.Account {
		for _, tag := range walletTags {
			out = append(out, events.WalletPresenceChanged{Tag: string(tag), IsPresent: next.Present()})
		}
		if next.Present() {
			for _, tag := range walletTags {
				out = append(out, events.CredentialsUpdated{Tag: string(tag), Address: next.Account})
			}
		}
	}

	return out
}

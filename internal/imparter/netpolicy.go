package imparter

import (
	"github.com/yolodolo42/ledgers/internal/network"
)

// networkPolicy is how an imparter selects its network and derives the
// remuneration endpoint from it.
type networkPolicy struct {
	// changeable is false when the network tracks the wallet.
	changeable bool
	validate   func(network.Details) (network.Selection, error)
	endpoint   func(network.Selection) string
	// observe, when set, supplies the selection instead of SetNetwork.
	observe func() (network.Selection, bool)
	// unset is the message used when no network has been selected.
	unset string
}

func modePolicy(endpoints map[network.Mode]string) networkPolicy {
	return networkPolicy{
		changeable: true,
		validate:   network.ValidateMode,
		endpoint:   func(s network.Selection) string { return endpoints[s.Mode] },
		unset:      "network 'mode' must be set, use SetNetwork",
	}
}

func fiatPolicy(endpoints map[network.Mode]string) networkPolicy {
	return networkPolicy{
		changeable: true,
		validate:   network.ValidateFiat,
		endpoint:   func(s network.Selection) string { return endpoints[s.Mode] },
		unset:      "network 'mode' must be set, use SetNetwork",
	}
}

// chainPolicy follows the chain the wallet reports. Chains the ledger API does
// not serve resolve to an empty endpoint.
func chainPolicy(endpoints map[string]string, view *WalletView) networkPolicy {
	return networkPolicy{
		changeable: false,
		endpoint:   func(s network.Selection) string { return endpoints[s.Name] },
		observe: func() (network.Selection, bool) {
			name := view.Network()
			if name == "" {
				return network.Selection{}, false
			}
			return network.Selection{Name: name, Mode: network.ChainMode(name)}, true
		},
		unset: "network must be set in wallet",
	}
}

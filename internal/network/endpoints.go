package network

import (
	"fmt"
	"time"
)

// Endpoints holds the remuneration API base URIs for every ledger family.
type Endpoints struct {
	Bitcoin  map[Mode]string   `mapstructure:"bitcoin"`
	Ledger   map[Mode]string   `mapstructure:"ledger"`
	Ethereum map[string]string `mapstructure:"ethereum"`

	// RatesHost serves currency conversion rates; "test." is prefixed outside prod.
	RatesHost string `mapstructure:"rates_host"`
	// Frames is the base URL of the provider-hosted popup pages.
	Frames string `mapstructure:"frames"`
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		Bitcoin: map[Mode]string{
			ModeProd: "https://bitcoin.overhide.io",
			ModeTest: "https://test.bitcoin.overhide.io",
		},
		Ledger: map[Mode]string{
			ModeProd: "https://ledger.overhide.io/v1",
			ModeTest: "https://test.ledger.overhide.io/v1",
		},
		Ethereum: map[string]string{
			"main":    "https://ethereum.overhide.io",
			"rinkeby": "https://rinkeby.ethereum.overhide.io",
		},
		RatesHost: "rates.overhide.io",
		Frames:    "https://overhide.github.io/ledgers.js/src/frames",
	}
}

// RatesURI builds the min-rate lookup URI for a currency unit ("sat", "wei") at a time.
func (e Endpoints) RatesURI(unit string, prod bool, at time.Time) string {
	prefix := "test."
	if prod {
		prefix = ""
	}
	return fmt.Sprintf("https://%s%s/rates/%s/%s", prefix, e.RatesHost, unit, at.UTC().Format("2006-01-02T15:04:05.000Z"))
}

// Frame builds the URL of a provider-hosted popup page.
func (e Endpoints) Frame(page string) string {
	return e.Frames + "/" + page
}

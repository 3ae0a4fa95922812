package network

import "math/big"

// ChainConfig describes an Ethereum chain an injected wallet may report.
// Name is the wallet-facing network name, not a display label.
type ChainConfig struct {
	Name      string   `yaml:"name"`
	Label     string   `yaml:"label"`
	ChainID   *big.Int `yaml:"-"`
	IsTestnet bool     `yaml:"is_testnet"`
}

// DefaultChains returns the chains known to the wallet-driven imparter, keyed by name.
func DefaultChains() map[string]*ChainConfig {
	return map[string]*ChainConfig{
		"main": {
			Name:      "main",
			Label:     "Ethereum Mainnet",
			ChainID:   big.NewInt(1),
			IsTestnet: false,
		},
		"ropsten": {
			Name:      "ropsten",
			Label:     "Ropsten Testnet",
			ChainID:   big.NewInt(3),
			IsTestnet: true,
		},
		"rinkeby": {
			Name:      "rinkeby",
			Label:     "Rinkeby Testnet",
			ChainID:   big.NewInt(4),
			IsTestnet: true,
		},
		"goerli": {
			Name:      "goerli",
			Label:     "Goerli Testnet",
			ChainID:   big.NewInt(5),
			IsTestnet: true,
		},
		"kovan": {
			Name:      "kovan",
			Label:     "Kovan Testnet",
			ChainID:   big.NewInt(42),
			IsTestnet: true,
		},
		"sepolia": {
			Name:      "sepolia",
			Label:     "Sepolia Testnet",
			ChainID:   big.NewInt(11155111),
			IsTestnet: true,
		},
	}
}

var chains = DefaultChains()

// IsKnownChain reports whether name is one of DefaultChains.
func IsKnownChain(name string) bool {
	_, ok := chains[name]
	return ok
}

// ChainNameByID maps a chain id to its wallet-facing name; unknown ids map to "private".
func ChainNameByID(id *big.Int) string {
	if id == nil {
		return ""
	}
	for name, c := range chains {
		if c.ChainID.Cmp(id) == 0 {
			return name
		}
	}
	return "private"
}

// ChainMode maps a chain name onto the prod/test vocabulary.
func ChainMode(name string) Mode {
	if name == "main" {
		return ModeProd
	}
	return ModeTest
}

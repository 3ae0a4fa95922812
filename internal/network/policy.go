package network

import (
	"strings"

	"github.com/yolodolo42/ledgers/internal/errs"
)

// Mode selects between a ledger's production and test deployments.
type Mode string

const (
	ModeProd Mode = "prod"
	ModeTest Mode = "test"
)

// CurrencyUSD is the only currency the fiat ledger family accepts.
const CurrencyUSD = "USD"

// Details is caller input to SetNetwork. Empty fields count as absent.
type Details struct {
	Currency string `json:"currency,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Selection is a validated, normalized network selection.
type Selection struct {
	Currency string `json:"currency,omitempty"`
	Mode     Mode   `json:"mode,omitempty"`
	Name     string `json:"name,omitempty"`
}

// ParseMode lower-cases m and checks it against the two supported modes.
func ParseMode(m string) (Mode, error) {
	switch mode := Mode(strings.ToLower(m)); mode {
	case ModeProd, ModeTest:
		return mode, nil
	default:
		return "", errs.InvalidNetwork("'mode' must be 'prod' or 'test'")
	}
}

// ValidateMode validates details for imparters selected by mode alone.
func ValidateMode(d Details) (Selection, error) {
	if d.Mode == "" {
		return Selection{}, errs.MissingField("mode")
	}
	mode, err := ParseMode(d.Mode)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Mode: mode}, nil
}

// ValidateFiat validates details for the fiat ledger family. Both fields are
// required; currency is upper-cased and mode lower-cased before checking.
func ValidateFiat(d Details) (Selection, error) {
	if d.Currency == "" {
		return Selection{}, errs.MissingField("currency")
	}
	if d.Mode == "" {
		return Selection{}, errs.MissingField("mode")
	}

	if strings.ToUpper(d.Currency) != CurrencyUSD {
		return Selection{}, errs.InvalidNetwork("'currency' must be 'USD'")
	}
	mode, err := ParseMode(d.Mode)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Currency: CurrencyUSD, Mode: mode}, nil
}

// ValidateChain validates a wallet-reported chain name against the known set.
func ValidateChain(d Details) (Selection, error) {
	if d.Name == "" {
		return Selection{}, errs.MissingField("name")
	}
	name := strings.ToLower(d.Name)
	if !IsKnownChain(name) {
		return Selection{}, errs.InvalidNetwork("unknown chain name: %s", d.Name)
	}
	return Selection{Name: name, Mode: ChainMode(name)}, nil
}

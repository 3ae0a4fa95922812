package network

import (
	"regexp"

	"github.com/yolodolo42/ledgers/internal/errs"
)

// Bech32 (tb1/bc1, v0 and later witness versions) or base58 legacy/P2SH forms.
var (
	bitcoinTestAddress = regexp.MustCompile(`^(tb(0([ac-hj-np-z02-9]{39}|[ac-hj-np-z02-9]{59})|1[ac-hj-np-z02-9]{8,87})|[mn2][a-km-zA-HJ-NP-Z1-9]{25,39})$`)
	bitcoinProdAddress = regexp.MustCompile(`^(bc(0([ac-hj-np-z02-9]{39}|[ac-hj-np-z02-9]{59})|1[ac-hj-np-z02-9]{8,87})|[13][a-km-zA-HJ-NP-Z1-9]{25,35})$`)
)

// ValidateBitcoinAddress checks address shape for the given mode.
// Checksums are left to the remuneration API.
func ValidateBitcoinAddress(mode Mode, address string) error {
	switch mode {
	case ModeTest:
		if !bitcoinTestAddress.MatchString(address) {
			return errs.Validation(errs.CodeInvalidAddress, "invalid bitcoin_testnet address: %s", address)
		}
	case ModeProd:
		if !bitcoinProdAddress.MatchString(address) {
			return errs.Validation(errs.CodeInvalidAddress, "invalid bitcoin address: %s", address)
		}
	default:
		return errs.NetworkNotSet("network 'mode' must be set, use SetNetwork")
	}
	return nil
}

// Package tx guards outgoing transfers with local spend rules before an
// imparter is asked to pay.
package tx

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/wallet"
)

// Intent captures a transfer the user wants to make.
type Intent struct {
	Tag    imparter.Tag
	To     string
	Amount decimal.Decimal // smallest unit of the tag's ledger
}

// Policy enforces safety constraints before sending.
type Policy struct {
	// MaxAmount caps a single transfer per tag, in the tag's smallest unit.
	MaxAmount map[imparter.Tag]decimal.Decimal
	AllowTo   []string
	DenyTo    []string
}

// Gratis reports whether the intent moves nothing. Zero-amount transfers only
// prove ownership, so the policy does not apply to them.
func (i Intent) Gratis() bool {
	return i.Amount.IsZero()
}

func contains(list []string, addr string) bool {
	for _, a := range list {
		if wallet.SameAddress(a, addr) {
			return true
		}
	}
	return false
}

// Validate applies simple allow/deny and spend limits.
func Validate(intent Intent, policy Policy) error {
	if intent.Gratis() {
		return nil
	}

	if contains(policy.DenyTo, intent.To) {
		return fmt.Errorf("destination denied by policy")
	}
	if len(policy.AllowTo) > 0 && !contains(policy.AllowTo, intent.To) {
		return fmt.Errorf("destination not in allowlist")
	}
	if limit, ok := policy.MaxAmount[intent.Tag]; ok && intent.Amount.GreaterThan(limit) {
		return fmt.Errorf("amount %s exceeds the %s limit of %s", intent.Amount, intent.Tag, limit)
	}
	return nil
}

package tx

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/yolodolo42/ledgers/internal/imparter"
)

const (
	alice = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	bob   = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func TestValidate(t *testing.T) {
	limits := map[imparter.Tag]decimal.Decimal{
		imparter.TagOhLedger: decimal.NewFromInt(500),
	}

	tests := []struct {
		name    string
		intent  Intent
		policy  Policy
		wantErr string
	}{
		{
			name:   "no rules",
			intent: Intent{Tag: imparter.TagOhLedger, To: bob, Amount: decimal.NewFromInt(1_000_000)},
		},
		{
			name:   "under limit",
			intent: Intent{Tag: imparter.TagOhLedger, To: bob, Amount: decimal.NewFromInt(500)},
			policy: Policy{MaxAmount: limits},
		},
		{
			name:    "over limit",
			intent:  Intent{Tag: imparter.TagOhLedger, To: bob, Amount: decimal.NewFromInt(501)},
			policy:  Policy{MaxAmount: limits},
			wantErr: "exceeds the ohledger limit of 500",
		},
		{
			name:   "limit is per tag",
			intent: Intent{Tag: imparter.TagEthWeb3, To: bob, Amount: decimal.NewFromInt(501)},
			policy: Policy{MaxAmount: limits},
		},
		{
			name:    "denied ignores checksum case",
			intent:  Intent{Tag: imparter.TagEthWeb3, To: bob, Amount: decimal.NewFromInt(1)},
			policy:  Policy{DenyTo: []string{"0x70997970c51812dc3a010c7d01b50e0d17dc79c8"}},
			wantErr: "destination denied by policy",
		},
		{
			name:    "not allowed",
			intent:  Intent{Tag: imparter.TagEthWeb3, To: bob, Amount: decimal.NewFromInt(1)},
			policy:  Policy{AllowTo: []string{alice}},
			wantErr: "destination not in allowlist",
		},
		{
			name:   "allowed",
			intent: Intent{Tag: imparter.TagEthWeb3, To: alice, Amount: decimal.NewFromInt(1)},
			policy: Policy{AllowTo: []string{alice}},
		},
		{
			name:   "gratis skips every rule",
			intent: Intent{Tag: imparter.TagOhLedger, Amount: decimal.Zero},
			policy: Policy{AllowTo: []string{alice}, MaxAmount: map[imparter.Tag]decimal.Decimal{imparter.TagOhLedger: decimal.Zero}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.intent, tt.policy)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

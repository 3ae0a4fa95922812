// Package imparter implements the uniform contract over the supported ledgers:
// a manual Bitcoin flow, an injected Ethereum wallet, and the custodial
// overhide ledger with a local key or a wallet.
package imparter

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/transport"
)

// Tag names an imparter.
type Tag string

const (
	TagBTCManual    Tag = "btc-manual"
	TagEthWeb3      Tag = "eth-web3"
	TagOhLedger     Tag = "ohledger"
	TagOhLedgerWeb3 Tag = "ohledger-web3"
)

// Credentials identify the paying party. Secret is only held by imparters
// that sign locally.
type Credentials struct {
	Address string `json:"address,omitempty"`
	Secret  string `json:"secret,omitempty"`
}

// Network is the current network selection plus its remuneration URI.
// Fields that do not apply to an imparter are empty.
type Network struct {
	Currency string `json:"currency,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Name     string `json:"name,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// Recipient selects whose ledger entries to read. When both Token and
// Signature are set they replace the bearer token and the cached signature
// for that one call.
type Recipient struct {
	Address   string
	Token     string
	Signature []byte
}

// Proof is a caller-supplied message and signature. When both are present
// they are used as-is and nothing is signed.
type Proof struct {
	Message   []byte
	Signature []byte
}

func (p *Proof) complete() bool {
	return p != nil && len(p.Message) > 0 && len(p.Signature) > 0
}

// TxOptions tune CreateTransaction.
type TxOptions struct {
	Proof     *Proof
	IsPrivate bool
}

// TxOutcome describes what CreateTransaction did.
type TxOutcome struct {
	Gratis    bool
	From      string
	To        string
	Amount    decimal.Decimal
	Message   []byte
	Signature []byte
	// Reference is a ledger-specific transfer id, such as a transaction hash.
	Reference string
}

// Imparter is the operation set every ledger backend exposes.
type Imparter interface {
	Tag() Tag

	CanSetCredentials() bool
	CanGenerateCredentials() bool
	CanChangeNetwork() bool

	// GetCredentials returns a snapshot; wallet-backed imparters report the
	// wallet's current account.
	GetCredentials() Credentials
	// SetCredentials returns false without error where credentials cannot be set.
	SetCredentials(ctx context.Context, c Credentials) (bool, error)
	// GenerateCredentials returns false without error where keys cannot be generated.
	GenerateCredentials(ctx context.Context) (bool, error)

	GetNetwork() Network
	// SetNetwork returns false without error where the network follows the wallet.
	SetNetwork(d network.Details) (bool, error)
	GetOverhideRemunerationAPIUri() (string, error)

	// GetFromDollars converts dollars to the ledger's smallest unit.
	GetFromDollars(ctx context.Context, dollars decimal.Decimal) (decimal.Decimal, error)

	GetTxs(ctx context.Context, r Recipient, since *time.Time, tallyOnly, tallyDollars bool) (*transport.TxResult, error)
	GetTally(ctx context.Context, r Recipient, since *time.Time) (decimal.Decimal, error)
	// GetTallyDollars is the tally converted to dollars, rounded to cents.
	GetTallyDollars(ctx context.Context, r Recipient, since *time.Time) (decimal.Decimal, error)
	GetTransactions(ctx context.Context, r Recipient, since *time.Time) ([]transport.Transaction, error)

	// IsOnLedger proves ownership of the current address to the remuneration
	// API, signing a fresh message unless proof is complete.
	IsOnLedger(ctx context.Context, proof *Proof) (bool, error)

	Sign(ctx context.Context, message []byte) ([]byte, error)

	// CreateTransaction transfers amount (in the ledger's smallest unit) to
	// to. A zero amount on the overhide ledger proves ownership instead and
	// ignores to.
	CreateTransaction(ctx context.Context, amount decimal.Decimal, to string, opts TxOptions) (*TxOutcome, error)
}

// TokenSource supplies the bearer token set by Enable.
type TokenSource interface {
	Token() (string, error)
}

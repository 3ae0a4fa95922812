package imparter

import (
	"time"

	"github.com/yolodolo42/ledgers/internal/chain"
	"github.com/yolodolo42/ledgers/internal/errs"
	"github.com/yolodolo42/ledgers/internal/events"
	"github.com/yolodolo42/ledgers/internal/logging"
	"github.com/yolodolo42/ledgers/internal/metrics"
	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/popup"
	"github.com/yolodolo42/ledgers/internal/transport"
	"github.com/yolodolo42/ledgers/internal/wallet"
)

// Deps are the capabilities imparters are built from. Zero fields get
// working defaults, except Wallet and Tokens.
type Deps struct {
	// Tokens yields the bearer token; operations fail until it does.
	Tokens    TokenSource
	Transport transport.Transport
	Keys      wallet.Keys
	// Wallet is the injected wallet; nil when there is none.
	Wallet chain.Wallet
	View   *WalletView
	Popup  *popup.Session
	Bus    *events.Bus

	Endpoints network.Endpoints
	Logger    logging.Logger
	Metrics   metrics.Recorder
	Now       func() time.Time

	// LedgerTransfer replaces the hosted overhide ledger payment page.
	LedgerTransfer LedgerTransferFunc
}

// WithDefaults fills unset fields with working defaults.
func (d Deps) WithDefaults() Deps {
	d.Logger = logging.OrNoop(d.Logger)
	d.Metrics = metrics.OrNoop(d.Metrics)
	if d.Transport == nil {
		d.Transport = transport.NewHTTPTransport(transport.WithLogger(d.Logger), transport.WithMetrics(d.Metrics))
	}
	if d.Keys == nil {
		d.Keys = wallet.EthKeys{}
	}
	if d.View == nil {
		d.View = &WalletView{}
	}
	if d.Popup == nil {
		d.Popup = popup.NewSession(nil, d.Logger)
	}
	if d.Endpoints.Frames == "" && d.Endpoints.Ledger == nil {
		d.Endpoints = network.DefaultEndpoints()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// StaticToken is a fixed bearer token. The empty token means not enabled.
type StaticToken string

func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", errs.Precondition(errs.CodeNotEnabled, "not enabled: call Enable with a token")
	}
	return string(t), nil
}

// NewBTCManual builds the Bitcoin imparter. The user signs and pays with their
// own wallet software, guided by provider pages.
func NewBTCManual(d Deps) Imparter {
	d = d.WithDefaults()
	return &backend{
		tag:         TagBTCManual,
		deps:        d,
		creds:       &addressCredentials{validate: network.ValidateBitcoinAddress},
		net:         modePolicy(d.Endpoints.Bitcoin),
		signer:      manualSigner{endpoints: d.Endpoints},
		transfer:    manualTransfer(d.Endpoints),
		fromDollars: ratedFromDollars("sat"),
	}
}

// NewEthWeb3 builds the Ethereum imparter over the injected wallet. Its
// account and chain follow the wallet.
func NewEthWeb3(d Deps) Imparter {
	d = d.WithDefaults()
	return &backend{
		tag:         TagEthWeb3,
		deps:        d,
		creds:       walletCredentials{view: d.View},
		net:         chainPolicy(d.Endpoints.Ethereum, d.View),
		signer:      walletSigner{tag: TagEthWeb3, wallet: d.Wallet, bus: d.Bus, endpoints: d.Endpoints},
		transfer:    walletTransfer(TagEthWeb3, d.Wallet, d.Bus, d.Endpoints),
		fromDollars: ratedFromDollars("wei"),
	}
}

// NewOhLedger builds the overhide ledger imparter with a locally held key.
func NewOhLedger(d Deps) Imparter {
	d = d.WithDefaults()
	return &backend{
		tag:         TagOhLedger,
		deps:        d,
		creds:       &keyCredentials{keys: d.Keys},
		net:         fiatPolicy(d.Endpoints.Ledger),
		signer:      localSigner{tag: TagOhLedger, keys: d.Keys},
		transfer:    ledgerTransfer(d.LedgerTransfer),
		gratis:      ledgerGratis,
		fromDollars: centsFromDollars,
	}
}

// NewOhLedgerWeb3 builds the overhide ledger imparter signing with the
// injected wallet's account.
func NewOhLedgerWeb3(d Deps) Imparter {
	d = d.WithDefaults()
	return &backend{
		tag:         TagOhLedgerWeb3,
		deps:        d,
		creds:       walletCredentials{view: d.View},
		net:         fiatPolicy(d.Endpoints.Ledger),
		signer:      walletSigner{tag: TagOhLedgerWeb3, wallet: d.Wallet, bus: d.Bus, endpoints: d.Endpoints},
		transfer:    ledgerTransfer(d.LedgerTransfer),
		gratis:      ledgerGratis,
		fromDollars: centsFromDollars,
	}
}

package imparter

import (
	"context"
	"net/url"
	"strconv"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"

	"github.com/yolodolo42/ledgers/internal/chain"
	"github.com/yolodolo42/ledgers/internal/errs"
	"github.com/yolodolo42/ledgers/internal/events"
	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/popup"
	"github.com/yolodolo42/ledgers/internal/transport"
)

// transferFunc moves amount from the current address to to and returns a
// ledger reference when the ledger gives one.
type transferFunc func(ctx context.Context, st *opState, amount decimal.Decimal, to string, isPrivate bool) (string, error)

// gratisFunc proves ownership of from instead of transferring a zero amount.
type gratisFunc func(ctx context.Context, st *opState, from string, signature, message []byte) error

// dollarsFunc converts dollars to the ledger's smallest unit.
type dollarsFunc func(ctx context.Context, b *backend, dollars decimal.Decimal) (decimal.Decimal, error)

// LedgerTransferFunc performs an overhide ledger payment. Deps can supply one
// to replace the default hosted payment page.
// The lease is held for the whole call.
type LedgerTransferFunc func(ctx context.Context, lease *popup.Lease, uri string, amount decimal.Decimal, from, to string, isPrivate bool) error

// manualTransfer has the user pay from their own Bitcoin wallet, guided by a
// provider page that reports back when done.
func manualTransfer(endpoints network.Endpoints) transferFunc {
	return func(ctx context.Context, st *opState, amount decimal.Decimal, to string, _ bool) (string, error) {
		q := url.Values{}
		q.Set("from", st.creds.Address)
		q.Set("to", to)
		q.Set("value", amount.String())
		q.Set("isTest", strconv.FormatBool(st.sel.Mode != network.ModeProd))

		page := endpoints.Frame("btc_manual_createTransaction.html") + "?" + q.Encode()
		if err := st.lease.Show(ctx, page, manualTxWidth, manualTxHeight); err != nil {
			return "", err
		}
		_, err := st.lease.Await(ctx)
		return "", err
	}
}

// walletTransfer sends through the injected wallet and returns once mined.
func walletTransfer(tag Tag, w chain.Wallet, bus *events.Bus, endpoints network.Endpoints) transferFunc {
	return func(ctx context.Context, st *opState, amount decimal.Decimal, to string, _ bool) (string, error) {
		if w == nil {
			return "", errs.WalletInactive(string(tag))
		}
		if err := showWalletHint(ctx, st.lease, bus, tag, endpoints); err != nil {
			return "", err
		}
		defer st.lease.Hide()

		return w.SendTransfer(ctx, st.creds.Address, to, amount.BigInt())
	}
}

// ledgerTransfer pays on the overhide ledger, through custom when set and
// otherwise through the ledger's hosted payment page.
func ledgerTransfer(custom LedgerTransferFunc) transferFunc {
	return func(ctx context.Context, st *opState, amount decimal.Decimal, to string, isPrivate bool) (string, error) {
		if custom != nil {
			return "", custom(ctx, st.lease, st.uri, amount, st.creds.Address, to, isPrivate)
		}

		q := url.Values{}
		q.Set("amount", amount.String())
		q.Set("from", st.creds.Address)
		q.Set("to", to)
		q.Set("isPrivate", strconv.FormatBool(isPrivate))

		if err := st.lease.Show(ctx, st.uri+"/transact.html?"+q.Encode(), ledgerTxWidth, ledgerTxHeight); err != nil {
			return "", err
		}
		_, err := st.lease.Await(ctx)
		return "", err
	}
}

// ledgerGratis shows the ledger's gratis page, which registers a zero-amount
// proof of ownership.
func ledgerGratis(ctx context.Context, st *opState, from string, signature, message []byte) error {
	q := url.Values{}
	q.Set("address", from)
	q.Set("signature", hexutil.Encode(signature))
	q.Set("message", string(message))

	if err := st.lease.Show(ctx, st.uri+"/gratis.html?"+q.Encode(), gratisWidth, gratisHeight); err != nil {
		return err
	}
	_, err := st.lease.Await(ctx)
	return err
}

// centsFromDollars is the fiat conversion: the ledger counts cents.
func centsFromDollars(_ context.Context, _ *backend, dollars decimal.Decimal) (decimal.Decimal, error) {
	return dollars.Mul(decimal.NewFromInt(100)), nil
}

// ratedFromDollars divides by the lowest current rate for unit. A missing or
// zero rate converts to zero.
func ratedFromDollars(unit string) dollarsFunc {
	return func(ctx context.Context, b *backend, dollars decimal.Decimal) (decimal.Decimal, error) {
		sel, ok := b.selection()
		if !ok {
			return decimal.Zero, errs.NetworkNotSet(b.net.unset)
		}
		token, err := b.token()
		if err != nil {
			return decimal.Zero, err
		}

		uri := b.deps.Endpoints.RatesURI(unit, sel.Mode == network.ModeProd, b.deps.Now())
		rate, err := transport.MinRate(ctx, b.deps.Transport, uri, token)
		if err != nil {
			return decimal.Zero, err
		}
		if rate.IsZero() {
			return decimal.Zero, nil
		}
		return dollars.Div(rate), nil
	}
}

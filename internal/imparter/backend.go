package imparter

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yolodolo42/ledgers/internal/errs"
	"github.com/yolodolo42/ledgers/internal/events"
	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/transport"
)

// ownershipTimeLayout renders the signing time in ownership messages.
const ownershipTimeLayout = "1/2/2006, 3:04:05 PM"

// backend is the one Imparter implementation; the four ledgers differ only in
// the strategies they are built with.
type backend struct {
	tag  Tag
	deps Deps

	creds       credentialStore
	net         networkPolicy
	signer      signer
	transfer    transferFunc
	gratis      gratisFunc
	fromDollars dollarsFunc

	cache tokenCache

	mu     sync.RWMutex
	sel    network.Selection
	selSet bool
}

func (b *backend) Tag() Tag { return b.tag }

func (b *backend) CanSetCredentials() bool      { return b.creds.canSet() }
func (b *backend) CanGenerateCredentials() bool { return b.creds.canGenerate() }
func (b *backend) CanChangeNetwork() bool       { return b.net.changeable }

func (b *backend) GetCredentials() Credentials {
	return b.creds.get()
}

func (b *backend) SetCredentials(_ context.Context, c Credentials) (bool, error) {
	if !b.creds.canSet() {
		return false, nil
	}

	sel, _ := b.selection()
	stored, err := b.creds.set(c, sel)
	if err != nil {
		return false, err
	}
	b.credentialsChanged(stored)
	return true, nil
}

func (b *backend) GenerateCredentials(_ context.Context) (bool, error) {
	if !b.creds.canGenerate() {
		return false, nil
	}

	stored, err := b.creds.generate()
	if err != nil {
		return false, err
	}
	b.credentialsChanged(stored)
	return true, nil
}

// credentialsChanged drops the signed token, which was made by the old key,
// and notifies listeners.
func (b *backend) credentialsChanged(c Credentials) {
	b.cache.clear()
	b.deps.Logger.Info("credentials updated", map[string]any{"tag": string(b.tag), "address": c.Address})
	b.deps.Bus.Publish(events.CredentialsUpdated{Tag: string(b.tag), Address: c.Address, Secret: c.Secret})
}

// selection is the current network, either set by SetNetwork or observed
// from the wallet.
func (b *backend) selection() (network.Selection, bool) {
	if b.net.observe != nil {
		return b.net.observe()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sel, b.selSet
}

func (b *backend) GetNetwork() Network {
	sel, ok := b.selection()
	if !ok {
		return Network{}
	}
	return Network{
		Currency: sel.Currency,
		Mode:     string(sel.Mode),
		Name:     sel.Name,
		URI:      b.net.endpoint(sel),
	}
}

func (b *backend) SetNetwork(d network.Details) (bool, error) {
	if !b.net.changeable {
		return false, nil
	}

	sel, err := b.net.validate(d)
	if err != nil {
		return false, err
	}

	b.mu.Lock()
	b.sel = sel
	b.selSet = true
	b.mu.Unlock()

	uri := b.net.endpoint(sel)
	b.deps.Logger.Info("network set", map[string]any{"tag": string(b.tag), "mode": string(sel.Mode), "uri": uri})
	b.deps.Bus.Publish(events.NetworkChanged{
		Tag:      string(b.tag),
		Currency: sel.Currency,
		Mode:     string(sel.Mode),
		Name:     sel.Name,
		URI:      uri,
	})

	if dropped := b.creds.revalidate(sel); dropped {
		b.deps.Logger.Warn("address not valid on new network, cleared", map[string]any{"tag": string(b.tag), "mode": string(sel.Mode)})
		b.credentialsChanged(Credentials{})
	}
	return true, nil
}

func (b *backend) GetOverhideRemunerationAPIUri() (string, error) {
	sel, ok := b.selection()
	if !ok {
		return "", errs.NetworkNotSet(b.net.unset)
	}
	uri := b.net.endpoint(sel)
	if uri == "" {
		return "", errs.Precondition(errs.CodeNoEndpoint, "no uri for request, unsupported network selected in wallet?")
	}
	return uri, nil
}

func (b *backend) token() (string, error) {
	if b.deps.Tokens == nil {
		return "", errs.Precondition(errs.CodeNotEnabled, "not enabled: call Enable with a token")
	}
	return b.deps.Tokens.Token()
}

// currentToken is the token when enabled, "" otherwise.
func (b *backend) currentToken() string {
	token, err := b.token()
	if err != nil {
		return ""
	}
	return token
}

// prepare resolves an operation's inputs in a fixed order so that the first
// missing one is reported before any I/O.
func (b *backend) prepare() (*opState, error) {
	sel, ok := b.selection()
	if !ok {
		return nil, errs.NetworkNotSet(b.net.unset)
	}
	creds := b.creds.get()
	if creds.Address == "" {
		return nil, b.creds.missing(b.tag)
	}
	uri, err := b.GetOverhideRemunerationAPIUri()
	if err != nil {
		return nil, err
	}
	token, err := b.token()
	if err != nil {
		return nil, err
	}
	return &opState{creds: creds, sel: sel, uri: uri, token: token}, nil
}

// withLease runs fn holding the popup. The page is hidden and the lease
// released on every exit path.
func (b *backend) withLease(st *opState, fn func() error) error {
	lease, err := b.deps.Popup.Acquire()
	if err != nil {
		b.deps.Metrics.IncCounter("popup_busy", map[string]string{"tag": string(b.tag)})
		return err
	}
	b.deps.Metrics.IncCounter("popup", map[string]string{"tag": string(b.tag)})
	defer lease.Release()
	defer lease.Hide()

	st.lease = lease
	defer func() { st.lease = nil }()
	return fn()
}

// signWith signs message and remembers the signature when message is the token.
func (b *backend) signWith(ctx context.Context, st *opState, message []byte) ([]byte, error) {
	sig, err := b.signer.sign(ctx, st, message)
	if err != nil {
		return nil, err
	}
	b.deps.Metrics.IncCounter("signature", map[string]string{"tag": string(b.tag)})
	b.cache.observe(st.token, message, sig)
	return sig, nil
}

// signedToken returns the signature over the current token, signing it on a miss.
func (b *backend) signedToken(ctx context.Context, st *opState) ([]byte, error) {
	if sig, ok := b.cache.get(st.token); ok {
		return sig, nil
	}
	return b.signWith(ctx, st, []byte(st.token))
}

func (b *backend) Sign(ctx context.Context, message []byte) ([]byte, error) {
	st := &opState{creds: b.creds.get(), token: b.currentToken()}
	st.sel, _ = b.selection()

	if !b.signer.interactive() {
		return b.signWith(ctx, st, message)
	}
	if st.creds.Address == "" {
		return nil, b.creds.missing(b.tag)
	}

	var sig []byte
	err := b.withLease(st, func() error {
		var err error
		sig, err = b.signWith(ctx, st, message)
		return err
	})
	return sig, err
}

func (b *backend) GetFromDollars(ctx context.Context, dollars decimal.Decimal) (decimal.Decimal, error) {
	return b.fromDollars(ctx, b, dollars)
}

func (b *backend) GetTxs(ctx context.Context, r Recipient, since *time.Time, tallyOnly, tallyDollars bool) (*transport.TxResult, error) {
	if r.Address == "" {
		return nil, errs.MissingField("address")
	}
	st, err := b.prepare()
	if err != nil {
		return nil, err
	}

	q := transport.TxQuery{
		BaseURI:      st.uri,
		From:         st.creds.Address,
		To:           r.Address,
		Token:        st.token,
		TallyOnly:    tallyOnly,
		TallyDollars: tallyDollars,
		Since:        since,
	}
	if r.Token != "" && len(r.Signature) > 0 {
		q.Token = r.Token
		q.Signature = base64.StdEncoding.EncodeToString(r.Signature)
	} else if sig, ok := b.cache.get(st.token); ok {
		q.Signature = base64.StdEncoding.EncodeToString(sig)
	}

	return transport.GetTxs(ctx, b.deps.Transport, q)
}

func (b *backend) GetTally(ctx context.Context, r Recipient, since *time.Time) (decimal.Decimal, error) {
	res, err := b.GetTxs(ctx, r, since, true, false)
	if err != nil {
		return decimal.Zero, err
	}
	return res.Tally, nil
}

func (b *backend) GetTallyDollars(ctx context.Context, r Recipient, since *time.Time) (decimal.Decimal, error) {
	res, err := b.GetTxs(ctx, r, since, true, true)
	if err != nil {
		return decimal.Zero, err
	}
	return res.Tally.Round(2), nil
}

func (b *backend) GetTransactions(ctx context.Context, r Recipient, since *time.Time) ([]transport.Transaction, error) {
	res, err := b.GetTxs(ctx, r, since, false, false)
	if err != nil {
		return nil, err
	}
	return res.Transactions, nil
}

// OwnershipMessage is the message IsOnLedger signs when no proof is supplied.
func OwnershipMessage(at time.Time) string {
	return "verify ownership of address by signing on " + at.Format(ownershipTimeLayout)
}

func (b *backend) IsOnLedger(ctx context.Context, proof *Proof) (bool, error) {
	st, err := b.prepare()
	if err != nil {
		return false, err
	}

	message, signature := b.proofOrNil(proof)
	if signature == nil {
		message = []byte(OwnershipMessage(b.deps.Now()))
		sign := func() error {
			signature, err = b.signWith(ctx, st, message)
			return err
		}
		if b.signer.interactive() {
			err = b.withLease(st, sign)
		} else {
			err = sign()
		}
		if err != nil {
			return false, err
		}
	}

	return transport.IsSignatureValid(ctx, b.deps.Transport, st.uri, st.token, st.creds.Address, message, signature)
}

func (b *backend) proofOrNil(p *Proof) ([]byte, []byte) {
	if !p.complete() {
		return nil, nil
	}
	return p.Message, p.Signature
}

func validateAmount(amount decimal.Decimal) error {
	if amount.IsNegative() || !amount.Equal(amount.Truncate(0)) {
		return errs.Validation(errs.CodeInvalidAmount, "'amount' must be a non-negative whole number of the ledger's smallest unit")
	}
	return nil
}

func (b *backend) CreateTransaction(ctx context.Context, amount decimal.Decimal, to string, opts TxOptions) (*TxOutcome, error) {
	if err := validateAmount(amount); err != nil {
		return nil, err
	}
	gratis := amount.IsZero() && b.gratis != nil
	if !gratis && to == "" {
		return nil, errs.MissingField("to")
	}

	st, err := b.prepare()
	if err != nil {
		return nil, err
	}

	out := &TxOutcome{Gratis: gratis, From: st.creds.Address, Amount: amount}
	err = b.withLease(st, func() error {
		if !gratis {
			ref, err := b.transfer(ctx, st, amount, to, opts.IsPrivate)
			out.To, out.Reference = to, ref
			return err
		}

		message, signature := b.proofOrNil(opts.Proof)
		if signature == nil {
			message = []byte(st.token)
			sig, err := b.signedToken(ctx, st)
			if err != nil {
				return err
			}
			signature = sig
		}
		out.Message, out.Signature = message, signature
		return b.gratis(ctx, st, st.creds.Address, signature, message)
	})
	if err != nil {
		b.deps.Logger.Warn("transaction failed", map[string]any{"tag": string(b.tag), "from": st.creds.Address, "error": err.Error()})
		return nil, err
	}

	b.deps.Logger.Info("transaction created", map[string]any{
		"tag":    string(b.tag),
		"from":   out.From,
		"to":     out.To,
		"amount": amount.String(),
		"gratis": gratis,
	})
	return out, nil
}

var _ Imparter = (*backend)(nil)

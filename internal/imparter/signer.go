package imparter

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/url"
	"strconv"
	"sync"

	"github.com/yolodolo42/ledgers/internal/chain"
	"github.com/yolodolo42/ledgers/internal/errs"
	"github.com/yolodolo42/ledgers/internal/events"
	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/popup"
	"github.com/yolodolo42/ledgers/internal/wallet"
)

// Popup page sizes, in percent of the viewport.
const (
	walletHintWidth, walletHintHeight = 70, 15
	manualSignWidth, manualSignHeight = 70, 40
	manualTxWidth, manualTxHeight     = 70, 45
	ledgerTxWidth, ledgerTxHeight     = 70, 45
	gratisWidth, gratisHeight         = 70, 45
)

// opState is everything an operation resolved before doing I/O.
type opState struct {
	creds Credentials
	sel   network.Selection
	uri   string
	token string
	// lease is held by interactive operations, nil otherwise.
	lease *popup.Lease
}

type signer interface {
	// interactive reports whether signing needs the popup surface.
	interactive() bool
	sign(ctx context.Context, st *opState, message []byte) ([]byte, error)
}

// localSigner signs with the secret held in the credential store.
type localSigner struct {
	tag  Tag
	keys wallet.Keys
}

func (localSigner) interactive() bool { return false }

func (s localSigner) sign(_ context.Context, st *opState, message []byte) ([]byte, error) {
	if st.creds.Secret == "" {
		return nil, errs.NoCredentials(string(s.tag))
	}
	return s.keys.Sign(message, st.creds.Secret)
}

// walletSigner asks the injected wallet to personal-sign for its current
// account, showing a hint page while the wallet is up.
type walletSigner struct {
	tag       Tag
	wallet    chain.Wallet
	bus       *events.Bus
	endpoints network.Endpoints
}

func (walletSigner) interactive() bool { return true }

func (s walletSigner) sign(ctx context.Context, st *opState, message []byte) ([]byte, error) {
	if st.creds.Address == "" || s.wallet == nil {
		return nil, errs.WalletInactive(string(s.tag))
	}

	if err := showWalletHint(ctx, st.lease, s.bus, s.tag, s.endpoints); err != nil {
		return nil, err
	}
	defer st.lease.Hide()

	return s.wallet.PersonalSign(ctx, message, st.creds.Address)
}

// showWalletHint announces the wallet popup and displays the hint page. The
// wallet itself owns the user interaction, so nothing awaits the page.
func showWalletHint(ctx context.Context, lease *popup.Lease, bus *events.Bus, tag Tag, endpoints network.Endpoints) error {
	bus.Publish(events.WalletPopupRequested{Tag: string(tag)})
	return lease.Show(ctx, endpoints.Frame("look_wallet.html"), walletHintWidth, walletHintHeight)
}

// manualSigner has the user sign on a provider page with their own wallet
// software and paste the signature back.
type manualSigner struct {
	endpoints network.Endpoints
}

func (manualSigner) interactive() bool { return true }

func (s manualSigner) sign(ctx context.Context, st *opState, message []byte) ([]byte, error) {
	q := url.Values{}
	q.Set("address", st.creds.Address)
	q.Set("message", base64.StdEncoding.EncodeToString(message))
	q.Set("token", "Bearer "+st.token)
	q.Set("isTest", strconv.FormatBool(st.sel.Mode != network.ModeProd))

	if err := st.lease.Show(ctx, s.endpoints.Frame("btc_manual_sign.html")+"?"+q.Encode(), manualSignWidth, manualSignHeight); err != nil {
		return nil, err
	}
	res, err := st.lease.Await(ctx)
	if err != nil {
		return nil, err
	}

	sig, err := base64.StdEncoding.DecodeString(res.Signature)
	if err != nil {
		return nil, errs.Validation("", "signature from popup is not base64: %v", err)
	}
	return sig, nil
}

// tokenCache remembers the signature over the current bearer token. Only one
// pair is kept; a new token replaces it.
type tokenCache struct {
	mu        sync.Mutex
	token     string
	signature []byte
}

func (c *tokenCache) get(token string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token == "" || c.token != token || len(c.signature) == 0 {
		return nil, false
	}
	return c.signature, true
}

// observe stores signature when message is the token.
func (c *tokenCache) observe(token string, message, signature []byte) {
	if token == "" || !bytes.Equal(message, []byte(token)) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.signature = signature
}

func (c *tokenCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.signature = nil
}

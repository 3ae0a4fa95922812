package imparter

import (
	"sync"

	"github.com/yolodolo42/ledgers/internal/errs"
	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/wallet"
)

// probeMessage is signed and recovered to check a secret against an address.
const probeMessage = "test message"

// credentialStore holds and validates an imparter's credentials.
type credentialStore interface {
	canSet() bool
	canGenerate() bool
	get() Credentials
	// set validates c and stores it. sel is the current network, possibly unset.
	set(c Credentials, sel network.Selection) (Credentials, error)
	generate() (Credentials, error)
	// revalidate checks the stored credentials against a newly selected
	// network and drops them if they no longer fit. It reports whether they
	// were dropped.
	revalidate(sel network.Selection) bool
	// missing describes the error returned when no address is available.
	missing(tag Tag) error
}

// keyCredentials holds a locally managed key pair.
type keyCredentials struct {
	keys wallet.Keys

	mu    sync.RWMutex
	creds Credentials
}

func (k *keyCredentials) canSet() bool      { return true }
func (k *keyCredentials) canGenerate() bool { return true }

func (k *keyCredentials) get() Credentials {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.creds
}

func (k *keyCredentials) set(c Credentials, _ network.Selection) (Credentials, error) {
	if c.Address == "" && c.Secret == "" {
		return Credentials{}, errs.Validation(errs.CodeMissingField, "at least one of 'address', 'secret' must be passed in")
	}

	if c.Secret != "" {
		derived, err := k.keys.DeriveAddress(c.Secret)
		if err != nil {
			return Credentials{}, errs.CredentialMismatch()
		}
		if c.Address != "" && !wallet.SameAddress(c.Address, derived) {
			return Credentials{}, errs.CredentialMismatch()
		}
		if err := k.probe(derived, c.Secret); err != nil {
			return Credentials{}, err
		}
		c.Address = derived
	}

	k.mu.Lock()
	k.creds = c
	k.mu.Unlock()
	return c, nil
}

// probe signs a fixed message and checks it recovers to address. Any failure
// is a mismatch.
func (k *keyCredentials) probe(address, secret string) error {
	sig, err := k.keys.Sign([]byte(probeMessage), secret)
	if err != nil {
		return errs.CredentialMismatch()
	}
	signer, err := k.keys.RecoverSigner([]byte(probeMessage), sig)
	if err != nil || !wallet.SameAddress(signer, address) {
		return errs.CredentialMismatch()
	}
	return nil
}

func (k *keyCredentials) generate() (Credentials, error) {
	address, secret, err := k.keys.GenerateKeypair()
	if err != nil {
		return Credentials{}, err
	}
	c := Credentials{Address: address, Secret: secret}

	k.mu.Lock()
	k.creds = c
	k.mu.Unlock()
	return c, nil
}

// Key pairs are valid on every network.
func (k *keyCredentials) revalidate(network.Selection) bool { return false }

func (k *keyCredentials) missing(Tag) error {
	return errs.Precondition(errs.CodeCredentialsNotSet, "from 'address' not set: use SetCredentials")
}

// addressCredentials holds a bare address, validated against the network mode.
type addressCredentials struct {
	validate func(mode network.Mode, address string) error

	mu      sync.RWMutex
	address string
}

func (a *addressCredentials) canSet() bool      { return true }
func (a *addressCredentials) canGenerate() bool { return false }

func (a *addressCredentials) get() Credentials {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Credentials{Address: a.address}
}

func (a *addressCredentials) set(c Credentials, sel network.Selection) (Credentials, error) {
	if c.Address == "" {
		return Credentials{}, errs.MissingField("address")
	}
	if err := a.validate(sel.Mode, c.Address); err != nil {
		return Credentials{}, err
	}

	a.mu.Lock()
	a.address = c.Address
	a.mu.Unlock()
	return Credentials{Address: c.Address}, nil
}

func (a *addressCredentials) revalidate(sel network.Selection) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.address == "" || a.validate(sel.Mode, a.address) == nil {
		return false
	}
	a.address = ""
	return true
}

func (a *addressCredentials) generate() (Credentials, error) {
	return Credentials{}, errs.New(errs.KindCapabilityDenied, "", "cannot generate credentials")
}

func (a *addressCredentials) missing(Tag) error {
	return errs.Precondition(errs.CodeCredentialsNotSet, "from 'address' not set: use SetCredentials")
}

// walletCredentials mirror the injected wallet's current account.
type walletCredentials struct {
	view *WalletView
}

func (w walletCredentials) canSet() bool      { return false }
func (w walletCredentials) canGenerate() bool { return false }

func (w walletCredentials) get() Credentials {
	return Credentials{Address: w.view.Account()}
}

func (w walletCredentials) set(Credentials, network.Selection) (Credentials, error) {
	return Credentials{}, errs.New(errs.KindCapabilityDenied, "", "credentials follow the wallet")
}

func (w walletCredentials) revalidate(network.Selection) bool { return false }

func (w walletCredentials) generate() (Credentials, error) {
	return Credentials{}, errs.New(errs.KindCapabilityDenied, "", "credentials follow the wallet")
}

func (w walletCredentials) missing(tag Tag) error {
	return errs.WalletInactive(string(tag))
}

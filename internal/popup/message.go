package popup

import (
	"context"

	"github.com/yolodolo42/ledgers/internal/errs"
)

// Kind identifies a message posted back by a popup page.
type Kind string

const (
	KindOK        Kind = "oh-ledger-ok"
	KindError     Kind = "oh-ledger-error"
	KindSignature Kind = "oh$-popup-signature"
	KindClose     Kind = "oh$-popup-close"
)

// Message is what a popup page posts when the user finishes with it.
type Message struct {
	Kind      Kind   `json:"event"`
	Detail    string `json:"detail,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// IsTerminal reports whether m settles an open popup.
func (m Message) IsTerminal() bool {
	switch m.Kind {
	case KindOK, KindError, KindSignature, KindClose:
		return true
	default:
		return false
	}
}

// Result is the successful outcome of a popup. Signature is set only for
// signing pages, base64 encoded as the page produced it.
type Result struct {
	Signature string
}

func (m Message) outcome() (Result, error) {
	switch m.Kind {
	case KindOK:
		return Result{}, nil
	case KindSignature:
		if m.Signature == "" {
			return Result{}, errs.Precondition(errs.CodePopupRejected, "no signature")
		}
		return Result{Signature: m.Signature}, nil
	case KindClose:
		return Result{}, errs.Precondition(errs.CodePopupRejected, "user close")
	default:
		detail := m.Detail
		if detail == "" {
			detail = "popup error"
		}
		return Result{}, errs.Precondition(errs.CodePopupRejected, "%s", detail)
	}
}

// Surface displays popup pages. Show must not block on user input; the page
// answers later through the Session the surface was attached to.
type Surface interface {
	Show(ctx context.Context, url string, width, height int) error
	Hide()
}

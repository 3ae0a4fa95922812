package imparter

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yolodolo42/ledgers/internal/events"
	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/popup"
	"github.com/yolodolo42/ledgers/internal/transport"
	"github.com/yolodolo42/ledgers/internal/wallet"
)

// countingRecorder counts IncCounter calls by name.
type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) IncCounter(name string, _ map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[name]++
}

func (r *countingRecorder) ObserveLatency(string, time.Duration, map[string]string) {}

func (r *countingRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[name]
}

type fakeTransport struct {
	mu      sync.Mutex
	respond func(req transport.Request) (*transport.Response, error)
	calls   []transport.Request
}

func (f *fakeTransport) Send(_ context.Context, req transport.Request) (*transport.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	respond := f.respond
	f.mu.Unlock()

	if respond == nil {
		return &transport.Response{Status: 200, Body: []byte(`{}`)}, nil
	}
	return respond(req)
}

func (f *fakeTransport) requests() []transport.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]transport.Request(nil), f.calls...)
}

func reply(status int, body string) func(transport.Request) (*transport.Response, error) {
	return func(transport.Request) (*transport.Response, error) {
		return &transport.Response{Status: status, Body: []byte(body)}, nil
	}
}

// countingKeys records every message signed through it.
type countingKeys struct {
	wallet.EthKeys

	mu     sync.Mutex
	signed [][]byte
}

func (k *countingKeys) Sign(message []byte, secret string) ([]byte, error) {
	k.mu.Lock()
	k.signed = append(k.signed, append([]byte(nil), message...))
	k.mu.Unlock()
	return k.EthKeys.Sign(message, secret)
}

func (k *countingKeys) count() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.signed)
}

func (k *countingKeys) last() string {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.signed) == 0 {
		return ""
	}
	return string(k.signed[len(k.signed)-1])
}

type fakeWallet struct {
	mu        sync.Mutex
	signature []byte
	signed    [][]byte
	sentTo    []string
	sent      []*big.Int
}

func (w *fakeWallet) CurrentAccount(context.Context) (string, error) { return "", nil }
func (w *fakeWallet) CurrentNetwork(context.Context) (string, error) { return "", nil }

func (w *fakeWallet) PersonalSign(_ context.Context, message []byte, _ string) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.signed = append(w.signed, message)
	return w.signature, nil
}

func (w *fakeWallet) SendTransfer(_ context.Context, _, to string, amount *big.Int) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sentTo = append(w.sentTo, to)
	w.sent = append(w.sent, amount)
	return "0xhash", nil
}

// autoSurface answers shown pages through the session, as a user would.
type autoSurface struct {
	session *popup.Session

	mu    sync.Mutex
	shown []string
	hides int
}

func (s *autoSurface) Show(_ context.Context, url string, _, _ int) error {
	s.mu.Lock()
	s.shown = append(s.shown, url)
	s.mu.Unlock()

	switch {
	case strings.Contains(url, "look_wallet.html"):
	case strings.Contains(url, "btc_manual_sign.html"):
		// base64 of "sig"
		go s.session.Deliver(popup.Message{Kind: popup.KindSignature, Signature: "c2ln"})
	default:
		go s.session.Deliver(popup.Message{Kind: popup.KindOK})
	}
	return nil
}

func (s *autoSurface) Hide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hides++
}

func (s *autoSurface) pages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.shown...)
}

type mutableToken struct {
	mu    sync.Mutex
	value string
}

func (m *mutableToken) Token() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return StaticToken(m.value).Token()
}

func (m *mutableToken) set(v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = v
}

type harness struct {
	transport *fakeTransport
	keys      *countingKeys
	wallet    *fakeWallet
	view      *WalletView
	session   *popup.Session
	surface   *autoSurface
	token     *mutableToken
	bus       *events.Bus
	recorder  *countingRecorder
	now       time.Time

	mu     sync.Mutex
	events []events.Event
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		transport: &fakeTransport{},
		keys:      &countingKeys{},
		wallet:    &fakeWallet{signature: []byte{0xaa, 0xbb}},
		view:      &WalletView{},
		token:     &mutableToken{value: "tok"},
		bus:       events.NewBus(nil),
		recorder:  &countingRecorder{},
		now:       time.Date(2024, 5, 6, 14, 7, 8, 0, time.UTC),
	}
	h.session = popup.NewSession(nil, nil)
	h.surface = &autoSurface{session: h.session}
	h.session.Attach(h.surface)

	h.bus.Subscribe(func(e events.Event) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.events = append(h.events, e)
	})
	return h
}

func (h *harness) deps() Deps {
	return Deps{
		Tokens:    h.token,
		Transport: h.transport,
		Keys:      h.keys,
		Wallet:    h.wallet,
		View:      h.view,
		Popup:     h.session,
		Bus:       h.bus,
		Metrics:   h.recorder,
		Endpoints: network.DefaultEndpoints(),
		Now:       func() time.Time { return h.now },
	}
}

func (h *harness) published() []events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.Event(nil), h.events...)
}

package registry

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yolodolo42/ledgers/internal/errs"
	"github.com/yolodolo42/ledgers/internal/events"
	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/metrics"
	"github.com/yolodolo42/ledgers/internal/network"
)

const account = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

type fakeWallet struct {
	mu      sync.Mutex
	account string
	network string
	err     error
}

func (w *fakeWallet) set(account, network string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.account, w.network = account, network
}

func (w *fakeWallet) CurrentAccount(context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.account, w.err
}

func (w *fakeWallet) CurrentNetwork(context.Context) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.network, w.err
}

func (w *fakeWallet) PersonalSign(context.Context, []byte, string) ([]byte, error) {
	return nil, errors.New("not used")
}

func (w *fakeWallet) SendTransfer(context.Context, string, string, *big.Int) (string, error) {
	return "", errors.New("not used")
}

func uriOf(name string) string {
	return network.DefaultEndpoints().Ethereum[name]
}

func TestTransitions(t *testing.T) {
	t.Run("account appears", func(t *testing.T) {
		evs := Transitions(WalletState{}, WalletState{Account: account}, uriOf)
		assert.Equal(t, []events.Event{
			events.WalletPresenceChanged{Tag: "eth-web3", IsPresent: true},
			events.WalletPresenceChanged{Tag: "ohledger-web3", IsPresent: true},
			events.CredentialsUpdated{Tag: "eth-web3", Address: account},
			events.CredentialsUpdated{Tag: "ohledger-web3", Address: account},
		}, evs)
	})

	t.Run("account goes away", func(t *testing.T) {
		evs := Transitions(WalletState{Account: account}, WalletState{}, uriOf)
		assert.Equal(t, []events.Event{
			events.WalletPresenceChanged{Tag: "eth-web3", IsPresent: false},
			events.WalletPresenceChanged{Tag: "ohledger-web3", IsPresent: false},
		}, evs)
	})

	t.Run("network switch", func(t *testing.T) {
		evs := Transitions(WalletState{Account: account, Network: "rinkeby"}, WalletState{Account: account, Network: "main"}, uriOf)
		assert.Equal(t, []events.Event{
			events.NetworkChanged{Tag: "eth-web3", Name: "main", Mode: "prod", URI: "https://ethereum.overhide.io"},
		}, evs)
	})

	t.Run("no change", func(t *testing.T) {
		s := WalletState{Account: account, Network: "main"}
		assert.Empty(t, Transitions(s, s, uriOf))
	})
}

func TestRegistry_Tags(t *testing.T) {
	w := &fakeWallet{}
	r := New(imparter.Deps{Wallet: w})

	assert.Equal(t, []imparter.Tag{imparter.TagOhLedger, imparter.TagBTCManual}, r.Tags())

	w.set(account, "main")
	r.Poll(context.Background())
	assert.Equal(t, []imparter.Tag{imparter.TagOhLedger, imparter.TagBTCManual, imparter.TagEthWeb3, imparter.TagOhLedgerWeb3}, r.Tags())

	w.set("", "main")
	r.Poll(context.Background())
	assert.Len(t, r.Tags(), 2)
}

func TestRegistry_Imparter(t *testing.T) {
	r := New(imparter.Deps{})

	for _, tag := range []string{"btc-manual", "eth-web3", "ohledger", "ohledger-web3"} {
		imp, err := r.Imparter(tag)
		require.NoError(t, err)
		assert.Equal(t, imparter.Tag(tag), imp.Tag())
	}

	_, err := r.Imparter("dogecoin")
	assert.True(t, errs.IsKind(err, errs.KindUnsupportedImparter))
	assert.Equal(t, "unsupported imparter tag: dogecoin", err.Error())
}

func TestRegistry_Enable(t *testing.T) {
	r := New(imparter.Deps{})
	imp, err := r.Imparter("ohledger")
	require.NoError(t, err)

	_, err = imp.SetNetwork(network.Details{Currency: "USD", Mode: "test"})
	require.NoError(t, err)
	_, err = imp.GenerateCredentials(context.Background())
	require.NoError(t, err)

	_, err = imp.IsOnLedger(context.Background(), nil)
	assert.Equal(t, errs.CodeNotEnabled, errs.CodeOf(err))

	r.Enable("tok")
	token, err := r.Token()
	require.NoError(t, err)
	assert.Equal(t, "tok", token)
}

func TestRegistry_Poll(t *testing.T) {
	ctx := context.Background()
	w := &fakeWallet{}

	reg := prometheus.NewRegistry()
	rec, err := metrics.NewPrometheusRecorder(reg)
	require.NoError(t, err)

	r := New(imparter.Deps{Wallet: w}, WithMetrics(rec))

	var got []events.Event
	r.Bus().Subscribe(func(e events.Event) { got = append(got, e) })

	assert.Empty(t, r.Poll(ctx))

	w.set(account, "rinkeby")
	evs := r.Poll(ctx)
	assert.Len(t, evs, 5)
	assert.Equal(t, evs, got)

	eth, err := r.Imparter("eth-web3")
	require.NoError(t, err)
	assert.Equal(t, account, eth.GetCredentials().Address)
	assert.Equal(t, "https://rinkeby.ethereum.overhide.io", eth.GetNetwork().URI)

	ohWeb3, err := r.Imparter("ohledger-web3")
	require.NoError(t, err)
	assert.Equal(t, account, ohWeb3.GetCredentials().Address)

	assert.Empty(t, r.Poll(ctx))

	w.mu.Lock()
	w.err = errors.New("wallet locked")
	w.mu.Unlock()
	evs = r.Poll(ctx)
	assert.Contains(t, evs, events.Event(events.WalletPresenceChanged{Tag: "eth-web3", IsPresent: false}))
	assert.Empty(t, eth.GetCredentials().Address)

	n, err := promtest.GatherAndCount(reg, "ledgers_events_total")
	require.NoError(t, err)
	assert.Positive(t, n)
}

func TestRegistry_Run(t *testing.T) {
	w := &fakeWallet{}
	w.set(account, "main")
	r := New(imparter.Deps{Wallet: w}, WithPollInterval(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	assert.Eventually(t, func() bool { return len(r.Tags()) == 4 }, time.Second, 5*time.Millisecond)

	w.set("", "main")
	assert.Eventually(t, func() bool { return len(r.Tags()) == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestRegistry_RunWithoutWallet(t *testing.T) {
	r := New(imparter.Deps{})
	assert.NoError(t, r.Run(context.Background()))
	assert.Nil(t, r.Poll(context.Background()))
}

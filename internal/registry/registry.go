// Package registry exposes the imparters by tag and tracks which wallet-backed
// tags are live.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/yolodolo42/ledgers/internal/errs"
	"github.com/yolodolo42/ledgers/internal/events"
	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/logging"
	"github.com/yolodolo42/ledgers/internal/metrics"
	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/popup"
)

// DefaultPollInterval is how often Run checks the wallet.
const DefaultPollInterval = 500 * time.Millisecond

var (
	baseTags   = []imparter.Tag{imparter.TagOhLedger, imparter.TagBTCManual}
	walletTags = []imparter.Tag{imparter.TagEthWeb3, imparter.TagOhLedgerWeb3}
)

type Option func(*Registry)

func WithLogger(l logging.Logger) Option {
	return func(r *Registry) {
		r.logger = l
	}
}

func WithMetrics(m metrics.Recorder) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Registry) {
		r.interval = d
	}
}

// Registry owns the imparters, the popup session they share and the bearer
// token. It is itself the imparters' token source.
type Registry struct {
	deps      imparter.Deps
	imparters map[imparter.Tag]imparter.Imparter

	logger   logging.Logger
	metrics  metrics.Recorder
	interval time.Duration

	mu    sync.RWMutex
	token string
	state WalletState
}

// New builds the four imparters over deps, sharing one view, popup session
// and bus between them.
func New(deps imparter.Deps, opts ...Option) *Registry {
	r := &Registry{interval: DefaultPollInterval}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrNoop(r.logger)
	r.metrics = metrics.OrNoop(r.metrics)

	if deps.Logger == nil {
		deps.Logger = r.logger
	}
	if deps.Metrics == nil {
		deps.Metrics = r.metrics
	}
	if deps.Tokens == nil {
		deps.Tokens = r
	}
	if deps.Bus == nil {
		deps.Bus = events.NewBus(r.logger)
	}
	r.deps = deps.WithDefaults()

	r.imparters = map[imparter.Tag]imparter.Imparter{
		imparter.TagBTCManual:    imparter.NewBTCManual(r.deps),
		imparter.TagEthWeb3:      imparter.NewEthWeb3(r.deps),
		imparter.TagOhLedger:     imparter.NewOhLedger(r.deps),
		imparter.TagOhLedgerWeb3: imparter.NewOhLedgerWeb3(r.deps),
	}
	return r
}

// Enable sets the bearer token sent to the remuneration APIs. Network
// operations fail until it is called.
func (r *Registry) Enable(token string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.token = token
}

func (r *Registry) Token() (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return imparter.StaticToken(r.token).Token()
}

// Tags returns the live tags: the base set, plus the wallet-backed tags
// while the wallet has an account.
func (r *Registry) Tags() []imparter.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := append([]imparter.Tag(nil), baseTags...)
	if r.state.Present() {
		tags = append(tags, walletTags...)
	}
	return tags
}

// Imparter returns the imparter for tag, live or not.
func (r *Registry) Imparter(tag string) (imparter.Imparter, error) {
	imp, ok := r.imparters[imparter.Tag(tag)]
	if !ok {
		return nil, errs.UnsupportedImparter(tag)
	}
	return imp, nil
}

func (r *Registry) Bus() *events.Bus {
	return r.deps.Bus
}

func (r *Registry) Popup() *popup.Session {
	return r.deps.Popup
}

// Poll observes the wallet once and publishes what changed since the last
// observation. A wallet that cannot be read counts as having no account.
func (r *Registry) Poll(ctx context.Context) []events.Event {
	if r.deps.Wallet == nil {
		return nil
	}

	next, err := Detect(ctx, r.deps.Wallet)
	if err != nil {
		r.logger.Debug("wallet not readable", map[string]any{"error": err.Error()})
		next = WalletState{}
	}

	r.mu.Lock()
	prev := r.state
	r.state = next
	r.deps.View.Observe(next.Account, next.Network)
	r.mu.Unlock()

	if next.Network != "" && next.Network != prev.Network {
		if _, err := network.ValidateChain(network.Details{Name: next.Network}); err != nil {
			r.logger.Warn("wallet on unsupported chain", map[string]any{"network": next.Network})
		}
	}

	evs := Transitions(prev, next, func(name string) string { return r.deps.Endpoints.Ethereum[name] })
	if len(evs) > 0 {
		r.logger.Info("wallet changed", map[string]any{
			"account": next.Account,
			"network": next.Network,
			"present": next.Present(),
		})
	}
	for _, e := range evs {
		r.metrics.IncCounter(events.Name(e), map[string]string{"tag": e.ImparterTag()})
		r.deps.Bus.Publish(e)
	}
	return evs
}

// Run polls the wallet until ctx ends.
func (r *Registry) Run(ctx context.Context) error {
	if r.deps.Wallet == nil {
		return nil
	}

	r.Poll(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			r.Poll(ctx)
		}
	}
}

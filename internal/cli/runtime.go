package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yolodolo42/ledgers/internal/chain"
	"github.com/yolodolo42/ledgers/internal/config"
	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/logging"
	"github.com/yolodolo42/ledgers/internal/metrics"
	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/popup"
	"github.com/yolodolo42/ledgers/internal/profile"
	"github.com/yolodolo42/ledgers/internal/registry"
	"github.com/yolodolo42/ledgers/internal/transport"
	"github.com/yolodolo42/ledgers/internal/ui"
	"github.com/yolodolo42/ledgers/internal/wallet"
)

// readPassword prompts on stderr and reads without echo.
var readPassword = func(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr) // newline after password input
	if err != nil {
		return "", err
	}
	return string(password), nil
}

type runtimeOptions struct {
	// unlock loads the ohledger secret for the saved address from the keystore.
	unlock bool

	in  io.Reader
	out io.Writer
}

// runtime is everything one command invocation needs: the registry with its
// imparters restored from the profile, plus the stores around it.
type runtime struct {
	cfg      *config.Config
	opts     runtimeOptions
	logger   *logging.ZapLogger
	profile  *profile.Store
	prom     *prometheus.Registry
	registry *registry.Registry

	wallet  *chain.RPCWallet
	browser *popup.BrowserSurface

	restored map[imparter.Tag]bool
}

func newRuntime(ctx context.Context, cfg *config.Config, opts runtimeOptions) (*runtime, error) {
	logger, err := logging.NewZapLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	store, err := profile.NewStore(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	prom := prometheus.NewRegistry()
	recorder, err := metrics.NewPrometheusRecorder(prom)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	rt := &runtime{
		cfg:      cfg,
		opts:     opts,
		logger:   logger,
		profile:  store,
		prom:     prom,
		restored: make(map[imparter.Tag]bool),
	}

	session := popup.NewSession(nil, logger)
	switch cfg.Popup.Surface {
	case config.SurfaceBrowser:
		b := popup.NewBrowserSurface(session.Deliver, logger)
		if err := b.Start(cfg.Popup.CallbackAddr); err != nil {
			return nil, err
		}
		rt.browser = b
		session.Attach(b)
	default:
		session.Attach(ui.NewTerminalSurface(session.Deliver, opts.in, opts.out))
	}

	deps := imparter.Deps{
		Transport: transport.NewHTTPTransport(
			transport.WithLogger(logger),
			transport.WithMetrics(recorder),
		),
		Popup:     session,
		Endpoints: cfg.Endpoints,
		Logger:    logger,
		Metrics:   recorder,
	}

	if cfg.Wallet.RPCURL != "" {
		w, err := chain.DialWallet(ctx, cfg.Wallet.RPCURL)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to connect to wallet: %w", err)
		}
		rt.wallet = w
		deps.Wallet = w
	}

	rt.registry = registry.New(deps,
		registry.WithLogger(logger),
		registry.WithMetrics(recorder),
		registry.WithPollInterval(cfg.Wallet.PollInterval),
	)

	token := cfg.Token
	if token == "" {
		token = store.Token()
	}
	if token != "" {
		rt.registry.Enable(token)
	}

	// Wallet-backed imparters read the account observed here.
	rt.registry.Poll(ctx)

	return rt, nil
}

func (rt *runtime) Close() {
	if rt.browser != nil {
		_ = rt.browser.Close()
	}
	if rt.wallet != nil {
		rt.wallet.Close()
	}
	if rt.logger != nil {
		_ = rt.logger.Sync()
	}
}

// imparter returns the imparter for tag with its saved network and address
// applied. Imparters without a saved network get the configured default.
func (rt *runtime) imparter(ctx context.Context, tag string) (imparter.Imparter, error) {
	imp, err := rt.registry.Imparter(tag)
	if err != nil {
		return nil, err
	}
	if rt.restored[imp.Tag()] {
		return imp, nil
	}

	saved, _ := rt.profile.Tag(tag)

	if imp.CanChangeNetwork() {
		d := saved.Network
		if d == (network.Details{}) {
			d = rt.cfg.DefaultNetwork()
		}
		if _, err := imp.SetNetwork(d); err != nil {
			return nil, fmt.Errorf("saved network for %s: %w", tag, err)
		}
	}

	if imp.CanSetCredentials() && saved.Address != "" {
		creds := imparter.Credentials{Address: saved.Address}
		if rt.opts.unlock && imp.CanGenerateCredentials() {
			secret, err := rt.unlockSecret(saved.Address)
			if err != nil {
				return nil, err
			}
			creds.Secret = secret
		}
		if _, err := imp.SetCredentials(ctx, creds); err != nil {
			return nil, fmt.Errorf("saved credentials for %s: %w", tag, err)
		}
	}

	rt.restored[imp.Tag()] = true
	return imp, nil
}

func (rt *runtime) keystore() (*wallet.KeystoreManager, error) {
	km, err := wallet.NewKeystoreManager(rt.cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize keystore: %w", err)
	}
	return km, nil
}

func (rt *runtime) unlockSecret(address string) (string, error) {
	km, err := rt.keystore()
	if err != nil {
		return "", err
	}
	password, err := readPassword(fmt.Sprintf("Password for %s: ", address))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	secret, err := km.ExportSecret(address, password)
	if err != nil {
		return "", fmt.Errorf("failed to unlock %s: %w", address, err)
	}
	return secret, nil
}

// runWith loads the configuration, builds a runtime for cmd and runs fn on it.
func runWith(cmd *cobra.Command, fn func(ctx context.Context, rt *runtime) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	unlock, _ := cmd.Flags().GetBool("unlock")
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx, cfg, runtimeOptions{
		unlock: unlock,
		in:     cmd.InOrStdin(),
		out:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	return fn(ctx, rt)
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/yolodolo42/ledgers/internal/events"
	"github.com/yolodolo42/ledgers/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the wallet and print imparter events",
	Long: `Poll the configured wallet and print an event whenever its account or
chain changes. Serves Prometheus metrics on metrics_addr when it is set.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		if rt.wallet == nil {
			return errors.New("no wallet configured: set wallet.rpc_url")
		}

		out := cmd.OutOrStdout()
		rt.registry.Bus().Subscribe(func(e events.Event) {
			body, _ := json.Marshal(e)
			fmt.Fprintf(out, "%s %s %s\n", ui.SymbolBullet, ui.TitleStyle.Render(events.Name(e)), body)
		})

		if rt.cfg.MetricsAddr != "" {
			stop := serveMetrics(rt)
			defer stop()
		}

		fmt.Fprintf(out, "%s watching %s (live: %v)\n", ui.SymbolArrow, rt.cfg.Wallet.RPCURL, rt.registry.Tags())
		return rt.registry.Run(ctx)
	})
}

// serveMetrics exposes the runtime's collectors on /metrics until stop is called.
func serveMetrics(rt *runtime) (stop func()) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(rt.prom, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              rt.cfg.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			rt.logger.Error("metrics server stopped", map[string]any{"error": err.Error()})
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}

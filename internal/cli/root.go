package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yolodolo42/ledgers/internal/config"
	"github.com/yolodolo42/ledgers/internal/setup"
	"github.com/yolodolo42/ledgers/internal/ui"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "ledgers",
		Short: "Pay and prove payment across overhide ledgers",
		Long: `ledgers drives the overhide imparters from the terminal.

Each imparter pays through one ledger: btc-manual (Bitcoin, signed by hand),
eth-web3 (Ethereum through a wallet), ohledger (the overhide ledger with a
local key) and ohledger-web3 (the overhide ledger through a wallet).
Wallet-backed imparters are only live while the configured wallet has an
account.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if !setup.NeedsSetup(cfg.DataDir) || cfg.Token != "" {
				return cmd.Help()
			}
			if !setup.IsInteractive() {
				setup.PrintEnvInstructions()
				return fmt.Errorf("setup required: run ledgers interactively or set LEDGERS_TOKEN")
			}
			return runSetup(cmd, cfg.DataDir)
		},
	}

	setupCmd = &cobra.Command{
		Use:   "setup",
		Short: "Run the first-run wizard again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runSetup(cmd, cfg.DataDir)
		},
	}
)

// Execute runs the root command until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(setupCmd)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ledgers/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("token", "", "Bearer token for the remuneration APIs (overrides the saved one)")
	rootCmd.PersistentFlags().Bool("unlock", false, "Load the ohledger secret from the keystore")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(config.DefaultDataDir())
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Silently ignore missing config file - it's optional
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: could not read config %s: %v\n", filepath.Clean(cfgFile), err)
	}
}

func runSetup(cmd *cobra.Command, dataDir string) error {
	result, err := setup.RunWizard(dataDir)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	// If user cancelled setup, exit cleanly
	if result == nil || result.Cancelled {
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s saved to %s\n", ui.SymbolCheck, dataDir)
	return nil
}

func loadConfig() (*config.Config, error) {
	return config.Load(viper.GetViper())
}

package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/ui"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List the live imparters",
	Long: `List the imparters that can be used right now, with what each one
allows and its current network. Wallet-backed imparters appear only while
the wallet has an account.`,
	Args: cobra.NoArgs,
	RunE: runTags,
}

var enableCmd = &cobra.Command{
	Use:   "enable [token]",
	Short: "Save the bearer token for the remuneration APIs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runEnable,
}

func init() {
	rootCmd.AddCommand(tagsCmd)
	rootCmd.AddCommand(enableCmd)
}

func yesNo(b bool) string {
	if b {
		return ui.SymbolCheck
	}
	return "-"
}

func runTags(cmd *cobra.Command, args []string) error {
	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "%-14s  %-4s  %-4s  %-4s  %s\n", "TAG", "SET", "GEN", "NET", "NETWORK")
		for _, tag := range rt.registry.Tags() {
			imp, err := rt.imparter(ctx, string(tag))
			if err != nil {
				fmt.Fprintf(out, "%-14s  %s\n", tag, ui.ErrorStyle.Render(err.Error()))
				continue
			}
			fmt.Fprintf(out, "%-14s  %-4s  %-4s  %-4s  %s\n",
				tag,
				yesNo(imp.CanSetCredentials()),
				yesNo(imp.CanGenerateCredentials()),
				yesNo(imp.CanChangeNetwork()),
				describeNetwork(imp.GetNetwork()),
			)
		}
		return nil
	})
}

func describeNetwork(n imparter.Network) string {
	var parts []string
	for _, p := range []string{n.Currency, n.Mode, n.Name} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return "(not set)"
	}
	return strings.Join(parts, "/")
}

func runEnable(cmd *cobra.Command, args []string) error {
	var token string
	if len(args) == 1 {
		token = args[0]
	} else {
		var err error
		token, err = readPassword("Enter token: ")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("token is required")
	}

	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		if err := rt.profile.SetToken(token); err != nil {
			return err
		}
		rt.registry.Enable(token)
		fmt.Fprintln(cmd.OutOrStdout(), ui.SuccessStyle.Render(ui.SymbolCheck+" token saved"))
		return nil
	})
}

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/profile"
	"github.com/yolodolo42/ledgers/internal/ui"
)

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Show and select the network of an imparter",
}

var networkGetCmd = &cobra.Command{
	Use:   "get <tag>",
	Short: "Show the current network",
	Args:  cobra.ExactArgs(1),
	RunE:  runNetworkGet,
}

var networkSetCmd = &cobra.Command{
	Use:   "set <tag>",
	Short: "Select the network",
	Long: `Select the network by mode (prod or test), plus currency for the
overhide ledger. Ethereum imparters follow the wallet's chain instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runNetworkSet,
}

var uriCmd = &cobra.Command{
	Use:   "uri <tag>",
	Short: "Print the remuneration API URI for the current network",
	Args:  cobra.ExactArgs(1),
	RunE:  runURI,
}

func init() {
	rootCmd.AddCommand(networkCmd)
	rootCmd.AddCommand(uriCmd)
	networkCmd.AddCommand(networkGetCmd)
	networkCmd.AddCommand(networkSetCmd)

	networkSetCmd.Flags().String("currency", "", "Currency (USD for the overhide ledger)")
	networkSetCmd.Flags().String("mode", "", "prod or test")
}

func runNetworkGet(cmd *cobra.Command, args []string) error {
	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		imp, err := rt.imparter(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		n := imp.GetNetwork()
		if n.Currency != "" {
			fmt.Fprintf(out, "Currency: %s\n", n.Currency)
		}
		if n.Mode != "" {
			fmt.Fprintf(out, "Mode:     %s\n", n.Mode)
		}
		if n.Name != "" {
			fmt.Fprintf(out, "Name:     %s\n", n.Name)
		}
		if n.URI != "" {
			fmt.Fprintf(out, "URI:      %s\n", n.URI)
		}
		if n == (imparter.Network{}) {
			fmt.Fprintln(out, ui.DimStyle.Render("network not set"))
		}
		return nil
	})
}

func runNetworkSet(cmd *cobra.Command, args []string) error {
	currency, _ := cmd.Flags().GetString("currency")
	mode, _ := cmd.Flags().GetString("mode")

	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		imp, err := rt.imparter(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		ok, err := imp.SetNetwork(network.Details{Currency: currency, Mode: mode})
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(out, "%s follows the wallet's network\n", imp.Tag())
			return nil
		}

		n := imp.GetNetwork()
		address := imp.GetCredentials().Address
		var cleared string
		if err := rt.profile.UpdateTag(args[0], func(st *profile.TagState) {
			st.Network = network.Details{Currency: n.Currency, Mode: n.Mode}
			if imp.CanSetCredentials() && st.Address != "" && address == "" {
				cleared, st.Address = st.Address, ""
			}
		}); err != nil {
			return err
		}

		fmt.Fprintf(out, "%s %s now on %s\n", ui.SymbolCheck, imp.Tag(), describeNetwork(n))
		if cleared != "" {
			fmt.Fprintln(out, ui.WarningStyle.Render(fmt.Sprintf("address %s is not valid on %s and was cleared", cleared, n.Mode)))
		}
		return nil
	})
}

func runURI(cmd *cobra.Command, args []string) error {
	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		imp, err := rt.imparter(ctx, args[0])
		if err != nil {
			return err
		}

		uri, err := imp.GetOverhideRemunerationAPIUri()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), uri)
		return nil
	})
}

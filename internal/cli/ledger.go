package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/ui"
)

var fromDollarsCmd = &cobra.Command{
	Use:   "from-dollars <tag> <dollars>",
	Short: "Convert dollars into the ledger's smallest unit",
	Args:  cobra.ExactArgs(2),
	RunE:  runFromDollars,
}

var txsCmd = &cobra.Command{
	Use:   "txs <tag> <recipient>",
	Short: "List transactions from the current address to a recipient",
	Args:  cobra.ExactArgs(2),
	RunE:  runTxs,
}

var tallyCmd = &cobra.Command{
	Use:   "tally <tag> <recipient>",
	Short: "Sum the transactions from the current address to a recipient",
	Args:  cobra.ExactArgs(2),
	RunE:  runTally,
}

var isOnLedgerCmd = &cobra.Command{
	Use:   "is-on-ledger <tag>",
	Short: "Check that the current address is known to the ledger",
	Long: `Prove ownership of the current address to the remuneration API.
A fresh message is signed unless both --message and --signature are given.`,
	Args: cobra.ExactArgs(1),
	RunE: runIsOnLedger,
}

var signCmd = &cobra.Command{
	Use:   "sign <tag> <message>",
	Short: "Sign a message with the current credentials",
	Args:  cobra.ExactArgs(2),
	RunE:  runSign,
}

func init() {
	rootCmd.AddCommand(fromDollarsCmd)
	rootCmd.AddCommand(txsCmd)
	rootCmd.AddCommand(tallyCmd)
	rootCmd.AddCommand(isOnLedgerCmd)
	rootCmd.AddCommand(signCmd)

	for _, c := range []*cobra.Command{txsCmd, tallyCmd} {
		c.Flags().String("since", "", "Only count transactions after this RFC 3339 time")
		c.Flags().String("as-token", "", "Token to query with instead of the enabled one (needs --as-signature)")
		c.Flags().String("as-signature", "", "Hex signature of --as-token by the current address")
	}
	tallyCmd.Flags().Bool("dollars", false, "Report the tally in dollars")

	isOnLedgerCmd.Flags().String("message", "", "Message already signed by the current address")
	isOnLedgerCmd.Flags().String("signature", "", "Hex signature of --message")
}

func parseSince(cmd *cobra.Command) (*time.Time, error) {
	raw, _ := cmd.Flags().GetString("since")
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --since: %w", err)
	}
	return &t, nil
}

func parseRecipient(cmd *cobra.Command, address string) (imparter.Recipient, error) {
	r := imparter.Recipient{Address: address}

	token, _ := cmd.Flags().GetString("as-token")
	sig, _ := cmd.Flags().GetString("as-signature")
	if token == "" && sig == "" {
		return r, nil
	}
	if token == "" || sig == "" {
		return r, fmt.Errorf("--as-token and --as-signature go together")
	}

	decoded, err := hexutil.Decode(sig)
	if err != nil {
		return r, fmt.Errorf("invalid --as-signature: %w", err)
	}
	r.Token = token
	r.Signature = decoded
	return r, nil
}

// parseProof reads a message/signature pair; a nil proof means none was given.
func parseProof(message, signature string) (*imparter.Proof, error) {
	if message == "" && signature == "" {
		return nil, nil
	}
	if message == "" || signature == "" {
		return nil, fmt.Errorf("--message and --signature go together")
	}

	sig, err := hexutil.Decode(signature)
	if err != nil {
		return nil, fmt.Errorf("invalid --signature: %w", err)
	}
	return &imparter.Proof{Message: []byte(message), Signature: sig}, nil
}

func runFromDollars(cmd *cobra.Command, args []string) error {
	dollars, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid dollars: %s", args[1])
	}

	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		imp, err := rt.imparter(ctx, args[0])
		if err != nil {
			return err
		}

		amount, err := imp.GetFromDollars(ctx, dollars)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), amount.String())
		return nil
	})
}

func runTxs(cmd *cobra.Command, args []string) error {
	since, err := parseSince(cmd)
	if err != nil {
		return err
	}
	recipient, err := parseRecipient(cmd, args[1])
	if err != nil {
		return err
	}

	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		imp, err := rt.imparter(ctx, args[0])
		if err != nil {
			return err
		}

		txs, err := imp.GetTransactions(ctx, recipient, since)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(txs) == 0 {
			fmt.Fprintln(out, ui.DimStyle.Render("no transactions"))
			return nil
		}

		fmt.Fprintf(out, "%-25s  %s\n", "DATE", "AMOUNT")
		for _, tx := range txs {
			fmt.Fprintf(out, "%-25s  %s\n", tx.Date.UTC().Format(time.RFC3339), tx.Amount.String())
		}
		return nil
	})
}

func runTally(cmd *cobra.Command, args []string) error {
	since, err := parseSince(cmd)
	if err != nil {
		return err
	}
	recipient, err := parseRecipient(cmd, args[1])
	if err != nil {
		return err
	}
	dollars, _ := cmd.Flags().GetBool("dollars")

	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		imp, err := rt.imparter(ctx, args[0])
		if err != nil {
			return err
		}

		var tally decimal.Decimal
		if dollars {
			tally, err = imp.GetTallyDollars(ctx, recipient, since)
		} else {
			tally, err = imp.GetTally(ctx, recipient, since)
		}
		if err != nil {
			return err
		}

		if dollars {
			fmt.Fprintln(cmd.OutOrStdout(), tally.StringFixed(2))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), tally.String())
		}
		return nil
	})
}

func runIsOnLedger(cmd *cobra.Command, args []string) error {
	message, _ := cmd.Flags().GetString("message")
	signature, _ := cmd.Flags().GetString("signature")
	proof, err := parseProof(message, signature)
	if err != nil {
		return err
	}

	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		imp, err := rt.imparter(ctx, args[0])
		if err != nil {
			return err
		}

		ok, err := imp.IsOnLedger(ctx, proof)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), ok)
		return nil
	})
}

func runSign(cmd *cobra.Command, args []string) error {
	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		imp, err := rt.imparter(ctx, args[0])
		if err != nil {
			return err
		}

		sig, err := imp.Sign(ctx, []byte(args[1]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(sig))
		return nil
	})
}

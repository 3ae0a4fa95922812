package cli

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/yolodolo42/ledgers/internal/config"
	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/receipts"
	"github.com/yolodolo42/ledgers/internal/tx"
	"github.com/yolodolo42/ledgers/internal/ui"
)

var transactCmd = &cobra.Command{
	Use:   "transact <tag> <amount> [recipient]",
	Short: "Pay a recipient, or prove ownership with a zero amount",
	Long: `Transfer amount, in the ledger's smallest unit, from the current
address to recipient.

On the overhide ledger a zero amount is a gratis transaction: it proves
ownership of the current address and needs no recipient.`,
	Args: cobra.RangeArgs(2, 3),
	RunE: runTransact,
}

var receiptsCmd = &cobra.Command{
	Use:   "receipts",
	Short: "List transactions made from this machine",
	Args:  cobra.NoArgs,
	RunE:  runReceipts,
}

func init() {
	rootCmd.AddCommand(transactCmd)
	rootCmd.AddCommand(receiptsCmd)

	transactCmd.Flags().Bool("private", false, "Keep the transaction private on the overhide ledger")
	transactCmd.Flags().String("message", "", "Message already signed by the current address (gratis only)")
	transactCmd.Flags().String("signature", "", "Hex signature of --message")

	receiptsCmd.Flags().String("tag", "", "Only list receipts of this imparter")
	receiptsCmd.Flags().Int("limit", 20, "Maximum number of receipts")
}

func runTransact(cmd *cobra.Command, args []string) error {
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount: %s", args[1])
	}
	var to string
	if len(args) == 3 {
		to = args[2]
	}

	isPrivate, _ := cmd.Flags().GetBool("private")
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

		policy, err := spendPolicy(rt.cfg.Transact)
		if err != nil {
			return err
		}
		if err := tx.Validate(tx.Intent{Tag: imp.Tag(), To: to, Amount: amount}, policy); err != nil {
			return err
		}

		out, err := imp.CreateTransaction(ctx, amount, to, imparter.TxOptions{Proof: proof, IsPrivate: isPrivate})
		if err != nil {
			return err
		}

		w := cmd.OutOrStdout()
		if out.Gratis {
			fmt.Fprintf(w, "%s ownership of %s proven\n", ui.SymbolCheck, out.From)
			fmt.Fprintf(w, "Signature: %s\n", hexutil.Encode(out.Signature))
		} else {
			fmt.Fprintf(w, "%s sent %s from %s to %s\n", ui.SymbolCheck, out.Amount.String(), out.From, out.To)
			if out.Reference != "" {
				fmt.Fprintf(w, "Reference: %s\n", out.Reference)
			}
		}

		store, err := receipts.Open(rt.cfg.DataDir)
		if err != nil {
			rt.logger.Warn("receipt not recorded", map[string]any{"error": err.Error()})
			return nil
		}
		defer store.Close()

		if _, err := store.Record(imp.Tag(), imp.GetNetwork().Mode, out); err != nil {
			rt.logger.Warn("receipt not recorded", map[string]any{"error": err.Error()})
		}
		return nil
	})
}

func spendPolicy(c config.TransactConfig) (tx.Policy, error) {
	policy := tx.Policy{AllowTo: c.AllowTo, DenyTo: c.DenyTo}
	if len(c.MaxAmount) == 0 {
		return policy, nil
	}

	policy.MaxAmount = make(map[imparter.Tag]decimal.Decimal, len(c.MaxAmount))
	for tag, raw := range c.MaxAmount {
		limit, err := decimal.NewFromString(raw)
		if err != nil {
			return policy, fmt.Errorf("invalid transact.max_amount.%s: %w", tag, err)
		}
		policy.MaxAmount[imparter.Tag(tag)] = limit
	}
	return policy, nil
}

func runReceipts(cmd *cobra.Command, args []string) error {
	tag, _ := cmd.Flags().GetString("tag")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := receipts.Open(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	list, err := store.List(imparter.Tag(tag), limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, ui.DimStyle.Render("no receipts"))
		return nil
	}

	fmt.Fprintf(out, "%-4s  %-19s  %-14s  %-5s  %-24s  %s\n", "ID", "WHEN", "TAG", "MODE", "AMOUNT", "TO")
	for _, r := range list {
		to := r.To
		if r.Gratis {
			to = "(gratis)"
		}
		fmt.Fprintf(out, "%-4d  %-19s  %-14s  %-5s  %-24s  %s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Tag, r.Mode, r.Amount.String(), to)
	}
	return nil
}

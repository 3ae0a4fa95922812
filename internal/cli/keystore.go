package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/profile"
	"github.com/yolodolo42/ledgers/internal/wallet"
)

var keystoreCmd = &cobra.Command{
	Use:   "keystore",
	Short: "Manage encrypted ledger keys",
	Long:  `Import and list the keys the ohledger imparter can unlock with --unlock.`,
}

var keystoreImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a key from a hex secret",
	Args:  cobra.NoArgs,
	RunE:  runKeystoreImport,
}

var keystoreListCmd = &cobra.Command{
	Use:   "list",
	Short: "List keys in the keystore",
	Args:  cobra.NoArgs,
	RunE:  runKeystoreList,
}

func init() {
	rootCmd.AddCommand(keystoreCmd)
	keystoreCmd.AddCommand(keystoreImportCmd)
	keystoreCmd.AddCommand(keystoreListCmd)

	keystoreImportCmd.Flags().Bool("use", false, "Make the imported key the ohledger address")
}

func openKeystore() (*wallet.KeystoreManager, string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, "", err
	}
	km, err := wallet.NewKeystoreManager(cfg.DataDir)
	if err != nil {
		return nil, "", fmt.Errorf("failed to initialize keystore: %w", err)
	}
	return km, cfg.DataDir, nil
}

func runKeystoreImport(cmd *cobra.Command, args []string) error {
	use, _ := cmd.Flags().GetBool("use")

	secret, err := readPassword("Enter secret (hex): ")
	if err != nil {
		return fmt.Errorf("failed to read secret: %w", err)
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return fmt.Errorf("secret is required")
	}

	km, dataDir, err := openKeystore()
	if err != nil {
		return err
	}

	password, err := newPassword()
	if err != nil {
		return err
	}

	account, err := km.ImportKey(secret, password)
	if err != nil {
		return fmt.Errorf("failed to import key: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Key imported successfully!")
	fmt.Fprintf(out, "Address: %s\n", account.Address.Hex())
	fmt.Fprintf(out, "Keystore: %s\n", account.URL.Path)

	if use {
		store, err := profile.NewStore(dataDir)
		if err != nil {
			return err
		}
		if err := store.UpdateTag(string(imparter.TagOhLedger), func(st *profile.TagState) {
			st.Address = account.Address.Hex()
		}); err != nil {
			return err
		}
		fmt.Fprintf(out, "%s now pays from %s\n", imparter.TagOhLedger, account.Address.Hex())
	}
	return nil
}

func runKeystoreList(cmd *cobra.Command, args []string) error {
	km, _, err := openKeystore()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	accounts := km.ListAccounts()
	if len(accounts) == 0 {
		fmt.Fprintln(out, "No keys found.")
		fmt.Fprintln(out, "Use 'ledgers keystore import' or 'ledgers credentials generate ohledger'.")
		return nil
	}

	fmt.Fprintf(out, "Found %d key(s):\n\n", len(accounts))
	for i, acc := range accounts {
		fmt.Fprintf(out, "%d. %s\n", i+1, acc.Address.Hex())
	}
	return nil
}

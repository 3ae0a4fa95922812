package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/profile"
	"github.com/yolodolo42/ledgers/internal/ui"
)

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"creds"},
	Short:   "Show and set the paying credentials of an imparter",
}

var credentialsGetCmd = &cobra.Command{
	Use:   "get <tag>",
	Short: "Show the current credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredentialsGet,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set <tag>",
	Short: "Set the credentials",
	Long: `Set the paying address, the secret, or both.

A secret is read from the terminal, never from the command line. Use --save
to keep it in the keystore; only the address is remembered otherwise.`,
	Args: cobra.ExactArgs(1),
	RunE: runCredentialsSet,
}

var credentialsGenerateCmd = &cobra.Command{
	Use:   "generate <tag>",
	Short: "Generate a new key pair and keep it in the keystore",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredentialsGenerate,
}

func init() {
	rootCmd.AddCommand(credentialsCmd)
	credentialsCmd.AddCommand(credentialsGetCmd)
	credentialsCmd.AddCommand(credentialsSetCmd)
	credentialsCmd.AddCommand(credentialsGenerateCmd)

	credentialsGetCmd.Flags().Bool("show-secret", false, "Print the secret instead of masking it")
	credentialsSetCmd.Flags().String("address", "", "Paying address")
	credentialsSetCmd.Flags().Bool("secret", false, "Prompt for the secret")
	credentialsSetCmd.Flags().Bool("save", false, "Encrypt the secret into the keystore")
}

func maskSecret(s string) string {
	if len(s) <= 10 {
		return strings.Repeat("*", len(s))
	}
	return s[:6] + "..." + s[len(s)-4:]
}

func runCredentialsGet(cmd *cobra.Command, args []string) error {
	showSecret, _ := cmd.Flags().GetBool("show-secret")

	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		imp, err := rt.imparter(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		creds := imp.GetCredentials()
		if creds.Address == "" {
			fmt.Fprintln(out, ui.DimStyle.Render("no address set"))
			return nil
		}

		fmt.Fprintf(out, "Address: %s\n", creds.Address)
		if creds.Secret != "" {
			secret := maskSecret(creds.Secret)
			if showSecret {
				secret = creds.Secret
			}
			fmt.Fprintf(out, "Secret:  %s\n", secret)
		}
		return nil
	})
}

func runCredentialsSet(cmd *cobra.Command, args []string) error {
	address, _ := cmd.Flags().GetString("address")
	withSecret, _ := cmd.Flags().GetBool("secret")
	save, _ := cmd.Flags().GetBool("save")

	var secret string
	if withSecret {
		var err error
		secret, err = readPassword("Enter secret (hex): ")
		if err != nil {
			return fmt.Errorf("failed to read secret: %w", err)
		}
		secret = strings.TrimSpace(secret)
	}
	if save && secret == "" {
		return fmt.Errorf("--save needs --secret")
	}

	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		imp, err := rt.imparter(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		ok, err := imp.SetCredentials(ctx, imparter.Credentials{Address: address, Secret: secret})
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(out, "%s credentials follow the wallet\n", imp.Tag())
			return nil
		}

		creds := imp.GetCredentials()
		if save {
			if err := rt.saveSecret(creds.Secret); err != nil {
				return err
			}
		}
		if err := rt.profile.UpdateTag(args[0], func(st *profile.TagState) {
			st.Address = creds.Address
		}); err != nil {
			return err
		}

		fmt.Fprintf(out, "%s %s credentials set for %s\n", ui.SymbolCheck, imp.Tag(), creds.Address)
		return nil
	})
}

func runCredentialsGenerate(cmd *cobra.Command, args []string) error {
	return runWith(cmd, func(ctx context.Context, rt *runtime) error {
		imp, err := rt.imparter(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		ok, err := imp.GenerateCredentials(ctx)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(out, "%s cannot generate credentials\n", imp.Tag())
			return nil
		}

		creds := imp.GetCredentials()
		if err := rt.saveSecret(creds.Secret); err != nil {
			return err
		}
		if err := rt.profile.UpdateTag(args[0], func(st *profile.TagState) {
			st.Address = creds.Address
		}); err != nil {
			return err
		}

		fmt.Fprintf(out, "%s generated %s\n", ui.SymbolCheck, creds.Address)
		fmt.Fprintln(out, ui.WarningStyle.Render("Back up your keystore file and remember your password!"))
		return nil
	})
}

// saveSecret encrypts secret into the keystore under a new password.
func (rt *runtime) saveSecret(secret string) error {
	km, err := rt.keystore()
	if err != nil {
		return err
	}

	password, err := newPassword()
	if err != nil {
		return err
	}

	if _, err := km.ImportKey(secret, password); err != nil {
		return fmt.Errorf("failed to import key: %w", err)
	}
	return nil
}

// newPassword prompts twice for a keystore password.
func newPassword() (string, error) {
	password, err := readPassword("Enter password to encrypt key: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}

	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}

	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

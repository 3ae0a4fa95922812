package setup

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/viper"

	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/profile"
	"github.com/yolodolo42/ledgers/internal/wallet"
)

// ConfigFileName is the config file the CLI looks for in the data directory.
const ConfigFileName = "config.yaml"

// createKey creates an ohledger key encrypted under password in the keystore.
func (m WizardModel) createKey(password string) tea.Cmd {
	dataDir := m.dataDir

	return func() tea.Msg {
		km, err := wallet.NewKeystoreManager(dataDir)
		if err != nil {
			return keyCreatedMsg{err: fmt.Errorf("failed to initialize keystore: %w", err)}
		}

		account, err := km.CreateAccount(password)
		if err != nil {
			return keyCreatedMsg{err: fmt.Errorf("failed to create key: %w", err)}
		}
		return keyCreatedMsg{address: account.Address.Hex()}
	}
}

// Save writes result: the token and ohledger address into the profile and
// the default mode into config.yaml, keeping any other settings there.
func Save(dataDir string, result *SetupResult) error {
	store, err := profile.NewStore(dataDir)
	if err != nil {
		return err
	}

	if result.Token != "" {
		if err := store.SetToken(result.Token); err != nil {
			return err
		}
	}

	if result.KeyAddress != "" {
		if err := store.UpdateTag(string(imparter.TagOhLedger), func(st *profile.TagState) {
			st.Address = result.KeyAddress
		}); err != nil {
			return err
		}
	}

	if result.Mode == "" {
		return nil
	}

	path := filepath.Join(dataDir, ConfigFileName)
	v := viper.New()
	v.SetConfigFile(path)
	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	v.Set("default_mode", string(result.Mode))

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return os.Chmod(path, 0600)
}

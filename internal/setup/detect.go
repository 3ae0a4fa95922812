package setup

import (
	"os"
	"path/filepath"

	"github.com/yolodolo42/ledgers/internal/imparter"
	"github.com/yolodolo42/ledgers/internal/profile"
	"github.com/yolodolo42/ledgers/internal/wallet"
)

// SetupStatus represents the current setup state
type SetupStatus struct {
	HasToken  bool
	HasConfig bool
	HasKey    bool
	// KeyAddress is the ohledger address, or the first keystore key when
	// none is saved.
	KeyAddress string
}

// DetectSetupStatus checks the current setup state
func DetectSetupStatus(dataDir string) (*SetupStatus, error) {
	status := &SetupStatus{}

	if _, err := os.Stat(filepath.Join(dataDir, ConfigFileName)); err == nil {
		status.HasConfig = true
	}

	// Only read an existing profile; NewStore would create the directory.
	if _, err := os.Stat(filepath.Join(dataDir, "profile.json")); err == nil {
		store, err := profile.NewStore(dataDir)
		if err != nil {
			return status, err
		}
		status.HasToken = store.Token() != ""
		if st, ok := store.Tag(string(imparter.TagOhLedger)); ok && st.Address != "" {
			status.KeyAddress = st.Address
		}
	}

	keystoreDir := filepath.Join(dataDir, "keystore")
	if entries, err := os.ReadDir(keystoreDir); err == nil {
		// Filter out directories and hidden files
		for _, entry := range entries {
			if !entry.IsDir() && entry.Name()[0] != '.' {
				status.HasKey = true
				break
			}
		}
	}

	if status.HasKey && status.KeyAddress == "" {
		km, err := wallet.NewKeystoreManager(dataDir)
		if err == nil {
			if accounts := km.ListAccounts(); len(accounts) > 0 {
				status.KeyAddress = accounts[0].Address.Hex()
			}
		}
	}

	return status, nil
}

// NeedsSetup returns true if interactive setup should run. A token from the
// environment counts as set up.
func NeedsSetup(dataDir string) bool {
	if os.Getenv("LEDGERS_TOKEN") != "" {
		return false
	}
	status, _ := DetectSetupStatus(dataDir)
	return !status.HasToken
}

package wallet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrAccountNotFound = errors.New("account not found")

// KeystoreManager keeps ledger secrets encrypted at rest so the CLI can load
// them into an imparter without passing raw keys on the command line.
type KeystoreManager struct {
	ks      *keystore.KeyStore
	dataDir string
}

// NewKeystoreManager opens (creating if needed) <dataDir>/keystore.
func NewKeystoreManager(dataDir string) (*KeystoreManager, error) {
	keystoreDir := filepath.Join(dataDir, "keystore")
	if err := os.MkdirAll(keystoreDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create keystore directory: %w", err)
	}

	ks := keystore.NewKeyStore(keystoreDir, keystore.StandardScryptN, keystore.StandardScryptP)

	return &KeystoreManager{
		ks:      ks,
		dataDir: dataDir,
	}, nil
}

func (km *KeystoreManager) CreateAccount(password string) (accounts.Account, error) {
	return km.ks.NewAccount(password)
}

// ImportKey encrypts a hex secret (with or without 0x) under password.
func (km *KeystoreManager) ImportKey(secret string, password string) (accounts.Account, error) {
	key, err := parseSecret(secret)
	if err != nil {
		return accounts.Account{}, err
	}
	return km.ks.ImportECDSA(key, password)
}

func (km *KeystoreManager) ListAccounts() []accounts.Account {
	return km.ks.Accounts()
}

// ExportSecret decrypts the key for address and returns it as 0x-prefixed hex,
// the form SetCredentials accepts.
func (km *KeystoreManager) ExportSecret(address string, password string) (string, error) {
	target := common.HexToAddress(address)

	var account *accounts.Account
	for _, acc := range km.ks.Accounts() {
		if acc.Address == target {
			account = &acc
			break
		}
	}
	if account == nil {
		return "", ErrAccountNotFound
	}

	keyJSON, err := km.ks.Export(*account, password, password)
	if err != nil {
		return "", fmt.Errorf("failed to export key: %w", err)
	}

	key, err := keystore.DecryptKey(keyJSON, password)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt key: %w", err)
	}
	defer key.PrivateKey.D.SetInt64(0)

	return hexutil.Encode(crypto.FromECDSA(key.PrivateKey)), nil
}

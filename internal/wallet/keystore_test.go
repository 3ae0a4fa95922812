package wallet

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yolodolo42/ledgers/internal/testutil"
)

// Well-known development key, never funded.
const testPrivateKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

const testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

func TestNewKeystoreManager(t *testing.T) {
	t.Run("creates keystore directory", func(t *testing.T) {
		dir := testutil.TempDir(t)
		km, err := NewKeystoreManager(dir)
		require.NoError(t, err)
		require.NotNil(t, km)
	})

	t.Run("handles existing directory", func(t *testing.T) {
		dir := testutil.TempDir(t)

		km1, err := NewKeystoreManager(dir)
		require.NoError(t, err)
		require.NotNil(t, km1)

		km2, err := NewKeystoreManager(dir)
		require.NoError(t, err)
		require.NotNil(t, km2)
	})
}

func TestKeystoreManager_ImportKey(t *testing.T) {
	t.Run("imports valid private key", func(t *testing.T) {
		km, err := NewKeystoreManager(testutil.TempDir(t))
		require.NoError(t, err)

		account, err := km.ImportKey(testPrivateKey, "testpassword")
		require.NoError(t, err)
		assert.Equal(t, testAddress, account.Address.Hex())
	})

	t.Run("imports with 0x prefix", func(t *testing.T) {
		km, err := NewKeystoreManager(testutil.TempDir(t))
		require.NoError(t, err)

		account, err := km.ImportKey("0x"+testPrivateKey, "testpassword")
		require.NoError(t, err)
		assert.Equal(t, testAddress, account.Address.Hex())
	})

	t.Run("rejects invalid hex", func(t *testing.T) {
		km, err := NewKeystoreManager(testutil.TempDir(t))
		require.NoError(t, err)

		_, err = km.ImportKey("not-a-valid-hex-key", "testpassword")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})

	t.Run("rejects short key", func(t *testing.T) {
		km, err := NewKeystoreManager(testutil.TempDir(t))
		require.NoError(t, err)

		_, err = km.ImportKey("abcd1234", "testpassword")
		assert.ErrorIs(t, err, ErrInvalidKey)
	})
}

func TestKeystoreManager_ListAccounts(t *testing.T) {
	t.Run("returns empty list initially", func(t *testing.T) {
		km, err := NewKeystoreManager(testutil.TempDir(t))
		require.NoError(t, err)
		assert.Empty(t, km.ListAccounts())
	})

	t.Run("returns imported and created accounts", func(t *testing.T) {
		km, err := NewKeystoreManager(testutil.TempDir(t))
		require.NoError(t, err)

		imported, err := km.ImportKey(testPrivateKey, "pass1")
		require.NoError(t, err)
		created, err := km.CreateAccount("pass2")
		require.NoError(t, err)

		addresses := make(map[common.Address]bool)
		for _, acc := range km.ListAccounts() {
			addresses[acc.Address] = true
		}
		assert.Len(t, addresses, 2)
		assert.True(t, addresses[imported.Address])
		assert.True(t, addresses[created.Address])
	})
}

func TestKeystoreManager_ExportSecret(t *testing.T) {
	t.Run("round trips an imported key", func(t *testing.T) {
		km, err := NewKeystoreManager(testutil.TempDir(t))
		require.NoError(t, err)

		_, err = km.ImportKey(testPrivateKey, "testpassword")
		require.NoError(t, err)

		secret, err := km.ExportSecret(testAddress, "testpassword")
		require.NoError(t, err)
		assert.Equal(t, "0x"+testPrivateKey, secret)

		derived, err := EthKeys{}.DeriveAddress(secret)
		require.NoError(t, err)
		assert.Equal(t, testAddress, derived)
	})

	t.Run("returns error for wrong password", func(t *testing.T) {
		km, err := NewKeystoreManager(testutil.TempDir(t))
		require.NoError(t, err)

		_, err = km.ImportKey(testPrivateKey, "correctpassword")
		require.NoError(t, err)

		_, err = km.ExportSecret(testAddress, "wrongpassword")
		require.Error(t, err)
	})

	t.Run("returns error for non-existent address", func(t *testing.T) {
		km, err := NewKeystoreManager(testutil.TempDir(t))
		require.NoError(t, err)

		_, err = km.ExportSecret("0x1234567890123456789012345678901234567890", "anypassword")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

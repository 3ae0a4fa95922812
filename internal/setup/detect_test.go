package setup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yolodolo42/ledgers/internal/profile"
	"github.com/yolodolo42/ledgers/internal/testutil"
)

func TestDetectSetupStatus(t *testing.T) {
	t.Run("returns empty status for fresh directory", func(t *testing.T) {
		dir := testutil.TempDir(t)

		status, err := DetectSetupStatus(dir)
		require.NoError(t, err)

		assert.False(t, status.HasToken)
		assert.False(t, status.HasConfig)
		assert.False(t, status.HasKey)
		assert.Empty(t, status.KeyAddress)

		_, err = os.Stat(filepath.Join(dir, "profile.json"))
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("detects token and address from profile", func(t *testing.T) {
		dir := testutil.TempDir(t)
		store, err := profile.NewStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.SetToken("tok"))
		require.NoError(t, store.UpdateTag("ohledger", func(st *profile.TagState) {
			st.Address = "0xabc"
		}))

		status, err := DetectSetupStatus(dir)
		require.NoError(t, err)
		assert.True(t, status.HasToken)
		assert.Equal(t, "0xabc", status.KeyAddress)
	})

	t.Run("detects key from keystore", func(t *testing.T) {
		dir := testutil.TempDir(t)

		keystoreDir := filepath.Join(dir, "keystore")
		require.NoError(t, os.MkdirAll(keystoreDir, 0700))
		fakeKeyFile := filepath.Join(keystoreDir, "UTC--2024-01-01T00-00-00.000000000Z--0x1234567890123456789012345678901234567890")
		require.NoError(t, os.WriteFile(fakeKeyFile, []byte("{}"), 0600))

		status, err := DetectSetupStatus(dir)
		require.NoError(t, err)
		assert.True(t, status.HasKey)
	})

	t.Run("ignores hidden files in keystore", func(t *testing.T) {
		dir := testutil.TempDir(t)

		keystoreDir := filepath.Join(dir, "keystore")
		require.NoError(t, os.MkdirAll(keystoreDir, 0700))
		require.NoError(t, os.WriteFile(filepath.Join(keystoreDir, ".DS_Store"), []byte{}, 0600))

		status, err := DetectSetupStatus(dir)
		require.NoError(t, err)
		assert.False(t, status.HasKey)
	})

	t.Run("detects config file", func(t *testing.T) {
		dir := testutil.TempDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("log_level: info\n"), 0600))

		status, err := DetectSetupStatus(dir)
		require.NoError(t, err)
		assert.True(t, status.HasConfig)
	})
}

func TestNeedsSetup(t *testing.T) {
	testutil.UnsetEnv(t, "LEDGERS_TOKEN")

	dir := testutil.TempDir(t)
	assert.True(t, NeedsSetup(dir))

	store, err := profile.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SetToken("tok"))
	assert.False(t, NeedsSetup(dir))

	testutil.SetEnv(t, "LEDGERS_TOKEN", "env")
	assert.False(t, NeedsSetup(testutil.TempDir(t)))
}

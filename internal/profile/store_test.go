package profile

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yolodolo42/ledgers/internal/network"
	"github.com/yolodolo42/ledgers/internal/testutil"
)

func TestNewStore(t *testing.T) {
	t.Run("creates data directory", func(t *testing.T) {
		dir := filepath.Join(testutil.TempDir(t), "newdir")

		store, err := NewStore(dir)
		require.NoError(t, err)
		require.NotNil(t, store)

		_, err = os.Stat(dir)
		require.NoError(t, err)
	})

	t.Run("loads existing profile.json", func(t *testing.T) {
		dir := testutil.TempDir(t)
		err := os.WriteFile(filepath.Join(dir, "profile.json"), []byte(`{
			"version": 1,
			"token": "tok",
			"tags": {
				"ohledger": {"network": {"currency": "USD", "mode": "test"}, "address": "0xabc"}
			}
		}`), 0600)
		require.NoError(t, err)

		store, err := NewStore(dir)
		require.NoError(t, err)

		assert.Equal(t, "tok", store.Token())
		st, ok := store.Tag("ohledger")
		require.True(t, ok)
		assert.Equal(t, "0xabc", st.Address)
		assert.Equal(t, network.Details{Currency: "USD", Mode: "test"}, st.Network)
	})

	t.Run("handles missing tags", func(t *testing.T) {
		dir := testutil.TempDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "profile.json"), []byte(`{"version": 1}`), 0600))

		store, err := NewStore(dir)
		require.NoError(t, err)
		assert.Empty(t, store.Tags())
		require.NoError(t, store.UpdateTag("btc-manual", func(st *TagState) { st.Address = "x" }))
	})

	t.Run("returns error for corrupt profile.json", func(t *testing.T) {
		dir := testutil.TempDir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "profile.json"), []byte("not valid json"), 0600))

		_, err := NewStore(dir)
		require.Error(t, err)
	})
}

func TestStore_Persists(t *testing.T) {
	dir := testutil.TempDir(t)

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SetToken("tok"))
	require.NoError(t, store.UpdateTag("ohledger", func(st *TagState) {
		st.Network = network.Details{Currency: "USD", Mode: "prod"}
	}))
	require.NoError(t, store.UpdateTag("ohledger", func(st *TagState) {
		st.Address = "0xabc"
	}))
	require.NoError(t, store.UpdateTag("btc-manual", func(st *TagState) {
		st.Network = network.Details{Mode: "test"}
	}))

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "tok", reopened.Token())
	assert.Equal(t, []string{"btc-manual", "ohledger"}, reopened.Tags())

	st, ok := reopened.Tag("ohledger")
	require.True(t, ok)
	assert.Equal(t, "0xabc", st.Address)
	assert.Equal(t, "prod", st.Network.Mode)

	_, ok = reopened.Tag("eth-web3")
	assert.False(t, ok)
}

func TestStore_FilePermissions(t *testing.T) {
	dir := testutil.TempDir(t)
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SetToken("tok"))

	info, err := os.Stat(filepath.Join(dir, "profile.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	_, err = os.Stat(filepath.Join(dir, "profile.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestStore_ConcurrentUpdates(t *testing.T) {
	store, err := NewStore(testutil.TempDir(t))
	require.NoError(t, err)

	tags := []string{"ohledger", "btc-manual", "eth-web3", "ohledger-web3"}
	var wg sync.WaitGroup
	for _, tag := range tags {
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			assert.NoError(t, store.UpdateTag(tag, func(st *TagState) { st.Address = tag }))
		}(tag)
	}
	wg.Wait()

	assert.Len(t, store.Tags(), len(tags))
	for _, tag := range tags {
		st, _ := store.Tag(tag)
		assert.Equal(t, tag, st.Address)
	}
}

package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_Publish(t *testing.T) {
	t.Run("delivers to all subscribers in order", func(t *testing.T) {
		bus := NewBus(nil)
		var got []string

		bus.Subscribe(func(e Event) { got = append(got, "all:"+Name(e)) })
		SubscribeSync(bus, func(e CredentialsUpdated) { got = append(got, "creds:"+e.Address) })

		bus.Publish(CredentialsUpdated{Tag: "ohledger", Address: "0xabc"})
		bus.Publish(NetworkChanged{Tag: "ohledger", Mode: "prod"})

		assert.Equal(t, []string{
			"all:onCredentialsUpdate",
			"creds:0xabc",
			"all:onNetworkChange",
		}, got)
	})

	t.Run("panicking subscriber does not stop others", func(t *testing.T) {
		bus := NewBus(nil)
		delivered := 0

		SubscribeSync(bus, func(WalletPopupRequested) { panic("boom") })
		SubscribeSync(bus, func(WalletPopupRequested) { delivered++ })

		require.NotPanics(t, func() {
			bus.Publish(WalletPopupRequested{Tag: "eth-web3"})
		})
		assert.Equal(t, 1, delivered)
	})

	t.Run("nil bus drops events", func(t *testing.T) {
		var bus *Bus
		assert.NotPanics(t, func() { bus.Publish(WalletPresenceChanged{}) })
	})
}

func TestName(t *testing.T) {
	assert.Equal(t, "onWalletChange", Name(WalletPresenceChanged{}))
	assert.Equal(t, "onWalletPopup", Name(WalletPopupRequested{}))
	assert.Equal(t, "onCredentialsUpdate", Name(CredentialsUpdated{}))
	assert.Equal(t, "onNetworkChange", Name(NetworkChanged{}))
	assert.Equal(t, "eth-web3", NetworkChanged{Tag: "eth-web3"}.ImparterTag())
}

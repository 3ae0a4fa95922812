package imparter

import "sync"

// WalletView is the last observed state of the injected wallet. The registry
// watcher writes it; wallet-backed imparters read it.
type WalletView struct {
	mu      sync.RWMutex
	account string
	network string
}

// Observe records the wallet's current account and chain name.
func (v *WalletView) Observe(account, network string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.account = account
	v.network = network
}

// Account returns the observed account, or "" when none is unlocked.
func (v *WalletView) Account() string {
	if v == nil {
		return ""
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.account
}

// Network returns the observed chain name.
func (v *WalletView) Network() string {
	if v == nil {
		return ""
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.network
}

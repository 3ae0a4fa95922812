package events

// Event is a notification emitted by the registry or an imparter.
type Event interface {
	isEvent()
	// ImparterTag names the imparter the event concerns.
	ImparterTag() string
}

func (WalletPresenceChanged) isEvent() {}
func (WalletPopupRequested) isEvent()  {}
func (CredentialsUpdated) isEvent()    {}
func (NetworkChanged) isEvent()        {}

// WalletPresenceChanged fires when the injected wallet gains or loses an account.
type WalletPresenceChanged struct {
	Tag       string `json:"imparterTag"`
	IsPresent bool   `json:"isPresent"`
}

// WalletPopupRequested fires right before the injected wallet is asked to sign or send.
type WalletPopupRequested struct {
	Tag string `json:"imparterTag"`
}

// CredentialsUpdated fires after credentials change. Secret is only set for
// imparters holding a key locally.
type CredentialsUpdated struct {
	Tag     string `json:"imparterTag"`
	Address string `json:"address"`
	Secret  string `json:"secret,omitempty"`
}

// NetworkChanged fires after a network selection changes, either through
// SetNetwork or because the wallet switched chains.
type NetworkChanged struct {
	Tag      string `json:"imparterTag"`
	Currency string `json:"currency,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Name     string `json:"name,omitempty"`
	URI      string `json:"uri,omitempty"`
}

func (e WalletPresenceChanged) ImparterTag() string { return e.Tag }
func (e WalletPopupRequested) ImparterTag() string  { return e.Tag }
func (e CredentialsUpdated) ImparterTag() string    { return e.Tag }
func (e NetworkChanged) ImparterTag() string        { return e.Tag }

// Name is the wire name of an event, matching what listeners subscribe to.
func Name(e Event) string {
	switch e.(type) {
	case WalletPresenceChanged:
		return "onWalletChange"
	case WalletPopupRequested:
		return "onWalletPopup"
	case CredentialsUpdated:
		return "onCredentialsUpdate"
	case NetworkChanged:
		return "onNetworkChange"
	default:
		return "unknown"
	}
}

package entity

// WalletStatus is the connection lifecycle state of the wallet session.
type WalletStatus string

const (
	StatusDisconnected WalletStatus = "disconnected"
	StatusConnecting   WalletStatus = "connecting"
	StatusConnected    WalletStatus = "connected"
	StatusWrongNetwork WalletStatus = "wrong-network"
	StatusError        WalletStatus = "error"
)

// WalletState is the published snapshot of the wallet session. It is owned
// by the session; everyone else reads copies.
type WalletState struct {
	Status        WalletStatus `json:"status"`
	Address       string       `json:"address,omitempty"`
	ShortAddress  string       `json:"shortAddress,omitempty"`
	ChainID       ChainID      `json:"chainId,omitempty"`
	NativeBalance string       `json:"nativeBalance"`
}

// WalletKind enumerates the wallet options the modal offers. The set is
// closed on purpose: dispatch on kind, never on free-form strings.
type WalletKind string

const (
	WalletMetaMask      WalletKind = "metamask"
	WalletWalletConnect WalletKind = "walletconnect"
	WalletCoinbase      WalletKind = "coinbase"
)

// WalletOption describes one connectable wallet and its availability.
type WalletOption struct {
	Kind        WalletKind `json:"kind"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Available   bool       `json:"available"`
	Status      string     `json:"status"`
	InstallURL  string     `json:"installUrl,omitempty"`
}

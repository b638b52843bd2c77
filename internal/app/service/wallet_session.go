package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"indoswap/internal/app/port"
	"indoswap/internal/domain/entity"
	"indoswap/internal/infrastructure/chainregistry"
	"indoswap/internal/pkg/format"
	"indoswap/internal/pkg/numeric"
)

var sessionCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// WalletSessionImpl owns the wallet connection lifecycle. It tracks the
// connection state machine, mirrors provider events into state transitions
// and exposes the active provider to the RPC layer.
type WalletSessionImpl struct {
	provider port.EthereumProvider
	registry *chainregistry.Registry
	balances port.BalanceReader
	logger   port.Logger

	targetChain  entity.ChainID
	fetchTimeout time.Duration

	mu    sync.Mutex
	state entity.WalletState

	onConnected   func(address string)
	onStateChange func(entity.WalletState)

	unsubscribe []func()
}

// NewWalletSession builds a disconnected session bound to a provider. A nil
// provider models the extension being absent; Connect then fails with
// ErrProviderNotFound.
func NewWalletSession(
	provider port.EthereumProvider,
	registry *chainregistry.Registry,
	balances port.BalanceReader,
	targetChain entity.ChainID,
	fetchTimeout time.Duration,
	l port.Logger,
) *WalletSessionImpl {
	s := &WalletSessionImpl{
		provider:     provider,
		registry:     registry,
		balances:     balances,
		logger:       l,
		targetChain:  targetChain,
		fetchTimeout: fetchTimeout,
		state:        entity.WalletState{Status: entity.StatusDisconnected},
	}
	if provider != nil {
		s.unsubscribe = append(s.unsubscribe,
			provider.Subscribe(port.EventAccountsChanged, s.handleAccountsChanged),
			provider.Subscribe(port.EventChainChanged, s.handleChainChanged),
			provider.Subscribe(port.EventDisconnect, s.handleDisconnect),
		)
	}
	return s
}

// SetOnConnected registers a callback fired whenever the session lands on
// the target chain with an active account: after Connect, after a chain
// change back to the target, and after an account switch. Must be called
// before Connect.
func (s *WalletSessionImpl) SetOnConnected(fn func(address string)) {
	s.mu.Lock()
	s.onConnected = fn
	s.mu.Unlock()
}

// SetOnStateChange registers a callback fired after every state transition.
// Must be called before Connect.
func (s *WalletSessionImpl) SetOnStateChange(fn func(entity.WalletState)) {
	s.mu.Lock()
	s.onStateChange = fn
	s.mu.Unlock()
}

// State returns a copy of the current wallet state.
func (s *WalletSessionImpl) State() entity.WalletState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// CurrentProvider exposes the active provider and its chain to the RPC layer.
// It reports false while disconnected so chain reads fall back to public
// endpoints.
func (s *WalletSessionImpl) CurrentProvider() (port.EthereumProvider, entity.ChainID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider == nil || s.state.Status == entity.StatusDisconnected || s.state.Status == entity.StatusError {
		return nil, 0, false
	}
	return s.provider, s.state.ChainID, true
}

// Connect runs the connection flow: request accounts, read the chain and
// settle on connected or wrong-network. Only valid from the disconnected
// state. A user rejection returns ErrUserRejected and leaves the session
// disconnected; any other failure lands in the error state, which only
// Disconnect clears.
func (s *WalletSessionImpl) Connect(ctx context.Context) (entity.WalletState, error) {
	if s.provider == nil {
		s.logger.Warn("Connect requested without a wallet provider")
		return s.State(), entity.ErrProviderNotFound
	}

	s.mu.Lock()
	if s.state.Status != entity.StatusDisconnected {
		status := s.state.Status
		s.mu.Unlock()
		s.logger.Warn("Connect requested in non-disconnected state", "status", status)
		return s.State(), entity.ErrNotDisconnected
	}
	s.state.Status = entity.StatusConnecting
	s.mu.Unlock()
	s.publish()

	raw, err := s.provider.Request(ctx, port.MethodRequestAccounts)
	if err != nil {
		if entity.IsUserRejected(err) {
			s.setDisconnected()
			s.logger.Info("User rejected the connection request")
			return s.State(), entity.ErrUserRejected
		}
		s.setError()
		s.logger.Error("Account request failed", "error", err)
		return s.State(), fmt.Errorf("request accounts: %w", err)
	}

	var accounts []string
	if err := sessionCodec.Unmarshal(raw, &accounts); err != nil {
		s.setError()
		return s.State(), fmt.Errorf("decode accounts: %w", err)
	}
	if len(accounts) == 0 {
		s.setError()
		s.logger.Warn("Provider returned no accounts")
		return s.State(), entity.ErrNoAccounts
	}

	chainID, err := s.readChain(ctx)
	if err != nil {
		s.setError()
		s.logger.Error("Chain read failed during connect", "error", err)
		return s.State(), fmt.Errorf("read chain: %w", err)
	}

	s.mu.Lock()
	if s.state.Status != entity.StatusConnecting {
		// An event (accounts cleared, provider disconnect) won the race
		// against the connect flow; its transition stands.
		state := s.state
		s.mu.Unlock()
		return state, nil
	}
	s.state.Address = accounts[0]
	s.state.ShortAddress = format.ShortAddress(accounts[0])
	s.state.ChainID = chainID
	if chainID == s.targetChain {
		s.state.Status = entity.StatusConnected
	} else {
		s.state.Status = entity.StatusWrongNetwork
	}
	state := s.state
	onConnected := s.onConnected
	s.mu.Unlock()
	s.publish()

	s.logger.Info("Wallet connected", "address", state.ShortAddress, "chain", chainID.String(), "status", string(state.Status))

	if state.Status == entity.StatusConnected {
		go s.refreshNativeBalance(state.Address, chainID)
		if onConnected != nil {
			onConnected(state.Address)
		}
	}
	return state, nil
}

// Disconnect resets the session to the disconnected state. The provider
// subscriptions stay alive so a future Connect reuses them.
func (s *WalletSessionImpl) Disconnect() entity.WalletState {
	s.setDisconnected()
	s.logger.Info("Wallet disconnected")
	return s.State()
}

// SwitchNetwork asks the provider to move to the target chain. An
// unconfigured chain is added first via the registry's add-chain parameters,
// then the switch retried once.
func (s *WalletSessionImpl) SwitchNetwork(ctx context.Context) (entity.WalletState, error) {
	if s.provider == nil {
		return s.State(), entity.ErrProviderNotFound
	}
	s.mu.Lock()
	if s.state.Status == entity.StatusDisconnected || s.state.Status == entity.StatusError {
		s.mu.Unlock()
		return s.State(), entity.ErrWrongNetwork
	}
	s.mu.Unlock()

	err := s.requestSwitch(ctx)
	if entity.IsChainNotConfigured(err) {
		params, ok := s.registry.AddChainParams(s.targetChain)
		if !ok {
			return s.State(), fmt.Errorf("%w: %d", entity.ErrChainNotSupported, s.targetChain)
		}
		s.logger.Info("Target chain not configured in wallet, adding it", "chain", s.targetChain.String())
		if _, err := s.provider.Request(ctx, port.MethodAddChain, params); err != nil {
			if entity.IsUserRejected(err) {
				return s.State(), entity.ErrUserRejected
			}
			return s.State(), fmt.Errorf("add chain: %w", err)
		}
		err = s.requestSwitch(ctx)
	}
	if err != nil {
		if entity.IsUserRejected(err) {
			s.logger.Info("User rejected the network switch")
			return s.State(), entity.ErrUserRejected
		}
		return s.State(), fmt.Errorf("switch chain: %w", err)
	}

	chainID, err := s.readChain(ctx)
	if err != nil {
		return s.State(), fmt.Errorf("read chain: %w", err)
	}
	s.applyChain(chainID)
	return s.State(), nil
}

func (s *WalletSessionImpl) requestSwitch(ctx context.Context) error {
	_, err := s.provider.Request(ctx, port.MethodSwitchChain, map[string]string{
		"chainId": s.targetChain.Hex(),
	})
	return err
}

func (s *WalletSessionImpl) readChain(ctx context.Context) (entity.ChainID, error) {
	raw, err := s.provider.Request(ctx, port.MethodChainID)
	if err != nil {
		return 0, err
	}
	var hex string
	if err := sessionCodec.Unmarshal(raw, &hex); err != nil {
		return 0, err
	}
	return entity.ParseChainID(hex)
}

// SetNativeBalance mirrors an externally fetched native balance into the
// state, provided the session still sits on the same chain.
func (s *WalletSessionImpl) SetNativeBalance(chainID entity.ChainID, amount string) {
	s.mu.Lock()
	if s.state.Status != entity.StatusConnected || s.state.ChainID != chainID {
		s.mu.Unlock()
		return
	}
	s.state.NativeBalance = amount
	s.mu.Unlock()
	s.publish()
}

// WalletOptions lists the wallet choices offered to the user. Only the
// injected provider counts as installed.
func (s *WalletSessionImpl) WalletOptions() []entity.WalletOption {
	metaMaskStatus := "not-installed"
	available := s.provider != nil && s.provider.IsMetaMask()
	if available {
		metaMaskStatus = "installed"
	}
	return []entity.WalletOption{
		{
			Kind:        entity.WalletMetaMask,
			Name:        "MetaMask",
			Description: "Connect with the MetaMask browser extension",
			Available:   available,
			Status:      metaMaskStatus,
			InstallURL:  "https://metamask.io/download/",
		},
		{
			Kind:        entity.WalletWalletConnect,
			Name:        "WalletConnect",
			Description: "Scan a QR code from a mobile wallet",
			Available:   false,
			Status:      "coming-soon",
		},
		{
			Kind:        entity.WalletCoinbase,
			Name:        "Coinbase Wallet",
			Description: "Connect with Coinbase Wallet",
			Available:   false,
			Status:      "coming-soon",
		},
	}
}

// Close releases the provider subscriptions.
func (s *WalletSessionImpl) Close() {
	for _, unsub := range s.unsubscribe {
		unsub()
	}
	s.unsubscribe = nil
}

func (s *WalletSessionImpl) setDisconnected() {
	s.mu.Lock()
	s.state = entity.WalletState{Status: entity.StatusDisconnected}
	s.mu.Unlock()
	s.publish()
}

// setError marks a failed connect attempt. Only a connecting session can
// land here; Disconnect is the way back out.
func (s *WalletSessionImpl) setError() {
	s.mu.Lock()
	if s.state.Status != entity.StatusConnecting {
		s.mu.Unlock()
		return
	}
	s.state = entity.WalletState{Status: entity.StatusError}
	s.mu.Unlock()
	s.publish()
}

// applyChain recomputes the status after the provider's chain moved.
func (s *WalletSessionImpl) applyChain(chainID entity.ChainID) {
	s.mu.Lock()
	if s.state.Status == entity.StatusDisconnected {
		s.mu.Unlock()
		return
	}
	s.state.ChainID = chainID
	s.state.NativeBalance = ""
	if chainID == s.targetChain {
		s.state.Status = entity.StatusConnected
	} else {
		s.state.Status = entity.StatusWrongNetwork
	}
	state := s.state
	onConnected := s.onConnected
	s.mu.Unlock()
	s.publish()

	s.logger.Info("Chain changed", "chain", chainID.String(), "status", string(state.Status))
	if state.Status == entity.StatusConnected {
		go s.refreshNativeBalance(state.Address, chainID)
		if onConnected != nil {
			onConnected(state.Address)
		}
	}
}

func (s *WalletSessionImpl) handleAccountsChanged(payload json.RawMessage) {
	var accounts []string
	if err := sessionCodec.Unmarshal(payload, &accounts); err != nil {
		s.logger.Error("Malformed accountsChanged payload", "error", err)
		return
	}
	if len(accounts) == 0 {
		s.logger.Info("Accounts cleared by provider, disconnecting")
		s.setDisconnected()
		return
	}

	s.mu.Lock()
	if s.state.Status == entity.StatusDisconnected {
		s.mu.Unlock()
		return
	}
	s.state.Address = accounts[0]
	s.state.ShortAddress = format.ShortAddress(accounts[0])
	s.state.NativeBalance = ""
	state := s.state
	onConnected := s.onConnected
	s.mu.Unlock()
	s.publish()

	s.logger.Info("Active account changed", "address", state.ShortAddress)
	if state.Status == entity.StatusConnected {
		go s.refreshNativeBalance(state.Address, state.ChainID)
		if onConnected != nil {
			onConnected(state.Address)
		}
	}
}

func (s *WalletSessionImpl) handleChainChanged(payload json.RawMessage) {
	var hex string
	if err := sessionCodec.Unmarshal(payload, &hex); err != nil {
		s.logger.Error("Malformed chainChanged payload", "error", err)
		return
	}
	chainID, err := entity.ParseChainID(hex)
	if err != nil {
		s.logger.Error("Unparseable chain id in chainChanged event", "payload", hex, "error", err)
		return
	}
	s.applyChain(chainID)
}

func (s *WalletSessionImpl) handleDisconnect(payload json.RawMessage) {
	s.logger.Info("Provider disconnected")
	s.setDisconnected()
}

// refreshNativeBalance fetches and mirrors the native balance for the
// connected account. Failures leave the previous value untouched.
func (s *WalletSessionImpl) refreshNativeBalance(address string, chainID entity.ChainID) {
	network, ok := s.registry.Network(chainID)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
	defer cancel()

	raw, err := s.balances.NativeBalance(ctx, address, chainID)
	if err != nil {
		s.logger.Warn("Native balance fetch failed", "address", format.ShortAddress(address), "chain", chainID.String(), "error", err)
		return
	}
	amount := numeric.FormatBaseUnits(raw, network.NativeDecimals)
	s.SetNativeBalance(chainID, amount)
}

func (s *WalletSessionImpl) publish() {
	s.mu.Lock()
	fn := s.onStateChange
	state := s.state
	s.mu.Unlock()
	if fn != nil {
		fn(state)
	}
}

var _ port.ProviderSource = (*WalletSessionImpl)(nil)


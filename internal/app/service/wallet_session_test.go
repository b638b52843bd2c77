package service

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"indoswap/internal/app/port"
	"indoswap/internal/domain/entity"
	"indoswap/internal/infrastructure/chainregistry"
)

// fakeProvider scripts provider responses per method and lets tests emit
// wallet events synchronously.
type fakeProvider struct {
	mu        sync.Mutex
	accounts  []string
	chainID   entity.ChainID
	errs      map[string]error
	requests  []string
	subs      map[string][]func(json.RawMessage)
	addedTo   []entity.ChainID
	switching bool
	onRequest func(method string)
}

func newFakeProvider(account string, chainID entity.ChainID) *fakeProvider {
	return &fakeProvider{
		accounts: []string{account},
		chainID:  chainID,
		errs:     make(map[string]error),
		subs:     make(map[string][]func(json.RawMessage)),
	}
}

func (p *fakeProvider) IsMetaMask() bool { return true }

func (p *fakeProvider) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	p.mu.Lock()
	p.requests = append(p.requests, method)
	hook := p.onRequest

	var raw json.RawMessage
	var err error
	if e, ok := p.errs[method]; ok {
		err = e
	} else {
		switch method {
		case port.MethodRequestAccounts, port.MethodAccounts:
			raw, err = jsoniter.Marshal(p.accounts)
		case port.MethodChainID:
			raw, err = jsoniter.Marshal(p.chainID.Hex())
		case port.MethodSwitchChain:
			p.chainID = 56
			raw, err = jsoniter.Marshal(nil)
		case port.MethodAddChain:
			p.addedTo = append(p.addedTo, 56)
			delete(p.errs, port.MethodSwitchChain)
			raw, err = jsoniter.Marshal(nil)
		default:
			raw, err = jsoniter.Marshal(nil)
		}
	}
	p.mu.Unlock()

	// The hook runs unlocked so it can emit events into the session.
	if hook != nil {
		hook(method)
	}
	return raw, err
}

func (p *fakeProvider) Subscribe(event string, handler func(json.RawMessage)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subs[event] = append(p.subs[event], handler)
	return func() {}
}

func (p *fakeProvider) emit(t *testing.T, event string, payload any) {
	t.Helper()
	raw, err := jsoniter.Marshal(payload)
	require.NoError(t, err)
	p.mu.Lock()
	var handlers []func(json.RawMessage)
	handlers = append(handlers, p.subs[event]...)
	p.mu.Unlock()
	for _, h := range handlers {
		h(raw)
	}
}

const testAccount = "0x1234567890abcdef1234567890abcdef12345678"

func newTestSession(provider port.EthereumProvider, balances port.BalanceReader) *WalletSessionImpl {
	if balances == nil {
		balances = newFakeBalances()
	}
	return NewWalletSession(provider, chainregistry.New(), balances, 56, time.Second, nopLogger{})
}

func TestConnectOnTargetChain(t *testing.T) {
	provider := newFakeProvider(testAccount, 56)
	balances := newFakeBalances()
	balances.native[56] = big.NewInt(1_500_000_000_000_000_000)
	session := newTestSession(provider, balances)

	var connectedWith string
	session.SetOnConnected(func(address string) { connectedWith = address })

	state, err := session.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusConnected, state.Status)
	assert.Equal(t, testAccount, state.Address)
	assert.Equal(t, "0x1234...5678", state.ShortAddress)
	assert.Equal(t, entity.ChainID(56), state.ChainID)
	assert.Equal(t, testAccount, connectedWith)

	// The native balance lands asynchronously.
	assert.Eventually(t, func() bool {
		return session.State().NativeBalance == "1.5"
	}, time.Second, 5*time.Millisecond)
}

func TestConnectOnWrongChain(t *testing.T) {
	session := newTestSession(newFakeProvider(testAccount, 1), nil)

	state, err := session.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusWrongNetwork, state.Status)
	assert.Equal(t, entity.ChainID(1), state.ChainID)
}

func TestConnectUserRejected(t *testing.T) {
	provider := newFakeProvider(testAccount, 56)
	provider.errs[port.MethodRequestAccounts] = &entity.RPCError{Code: entity.CodeUserRejected, Message: "denied"}
	session := newTestSession(provider, nil)

	_, err := session.Connect(context.Background())
	assert.ErrorIs(t, err, entity.ErrUserRejected)
	assert.Equal(t, entity.StatusDisconnected, session.State().Status)
}

func TestConnectNoProvider(t *testing.T) {
	session := newTestSession(nil, nil)

	_, err := session.Connect(context.Background())
	assert.ErrorIs(t, err, entity.ErrProviderNotFound)
}

func TestConnectNoAccounts(t *testing.T) {
	provider := newFakeProvider(testAccount, 56)
	provider.accounts = nil
	session := newTestSession(provider, nil)

	_, err := session.Connect(context.Background())
	assert.ErrorIs(t, err, entity.ErrNoAccounts)
	assert.Equal(t, entity.StatusError, session.State().Status)
}

func TestConnectChainReadFailureEntersErrorState(t *testing.T) {
	provider := newFakeProvider(testAccount, 56)
	provider.errs[port.MethodChainID] = &entity.RPCError{Code: -32000, Message: "upstream down"}
	session := newTestSession(provider, nil)

	_, err := session.Connect(context.Background())
	require.Error(t, err)
	assert.Equal(t, entity.StatusError, session.State().Status)

	// Only Disconnect leads back out of the error state.
	_, err = session.Connect(context.Background())
	assert.ErrorIs(t, err, entity.ErrNotDisconnected)
	_, _, ok := session.CurrentProvider()
	assert.False(t, ok)

	state := session.Disconnect()
	assert.Equal(t, entity.StatusDisconnected, state.Status)

	delete(provider.errs, port.MethodChainID)
	state, err = session.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusConnected, state.Status)
}

func TestConnectRequestFailureEntersErrorState(t *testing.T) {
	provider := newFakeProvider(testAccount, 56)
	provider.errs[port.MethodRequestAccounts] = &entity.RPCError{Code: -32603, Message: "internal error"}
	session := newTestSession(provider, nil)

	_, err := session.Connect(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, entity.ErrUserRejected)
	assert.Equal(t, entity.StatusError, session.State().Status)
}

func TestConnectTwiceRejected(t *testing.T) {
	session := newTestSession(newFakeProvider(testAccount, 56), nil)

	_, err := session.Connect(context.Background())
	require.NoError(t, err)
	_, err = session.Connect(context.Background())
	assert.ErrorIs(t, err, entity.ErrNotDisconnected)
}

func TestDisconnectResetsState(t *testing.T) {
	session := newTestSession(newFakeProvider(testAccount, 56), nil)

	_, err := session.Connect(context.Background())
	require.NoError(t, err)

	state := session.Disconnect()
	assert.Equal(t, entity.StatusDisconnected, state.Status)
	assert.Empty(t, state.Address)

	_, _, ok := session.CurrentProvider()
	assert.False(t, ok)
}

func TestSwitchNetwork(t *testing.T) {
	provider := newFakeProvider(testAccount, 1)
	session := newTestSession(provider, nil)

	state, err := session.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, entity.StatusWrongNetwork, state.Status)

	state, err = session.SwitchNetwork(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusConnected, state.Status)
	assert.Equal(t, entity.ChainID(56), state.ChainID)
}

func TestSwitchNetworkAddsUnconfiguredChain(t *testing.T) {
	provider := newFakeProvider(testAccount, 1)
	provider.errs[port.MethodSwitchChain] = &entity.RPCError{Code: entity.CodeChainNotConfigured, Message: "unknown chain"}
	session := newTestSession(provider, nil)

	_, err := session.Connect(context.Background())
	require.NoError(t, err)

	state, err := session.SwitchNetwork(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusConnected, state.Status)
	assert.Equal(t, []entity.ChainID{56}, provider.addedTo)
}

func TestAccountsChangedToEmptyDisconnects(t *testing.T) {
	provider := newFakeProvider(testAccount, 56)
	session := newTestSession(provider, nil)

	_, err := session.Connect(context.Background())
	require.NoError(t, err)

	provider.emit(t, port.EventAccountsChanged, []string{})
	assert.Equal(t, entity.StatusDisconnected, session.State().Status)
}

func TestAccountsChangedSwitchesAccount(t *testing.T) {
	provider := newFakeProvider(testAccount, 56)
	session := newTestSession(provider, nil)

	_, err := session.Connect(context.Background())
	require.NoError(t, err)

	next := "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"
	provider.emit(t, port.EventAccountsChanged, []string{next})

	state := session.State()
	assert.Equal(t, next, state.Address)
	assert.Equal(t, "0xabcd...abcd", state.ShortAddress)
	assert.Equal(t, entity.StatusConnected, state.Status)
}

func TestEventsOnTargetChainFireConnectedHook(t *testing.T) {
	provider := newFakeProvider(testAccount, 56)
	session := newTestSession(provider, nil)

	var mu sync.Mutex
	var refreshed []string
	session.SetOnConnected(func(address string) {
		mu.Lock()
		refreshed = append(refreshed, address)
		mu.Unlock()
	})

	_, err := session.Connect(context.Background())
	require.NoError(t, err)

	provider.emit(t, port.EventChainChanged, "0x1")
	provider.emit(t, port.EventChainChanged, "0x38")

	next := "0xabcdefabcdefabcdefabcdefabcdefabcdefabcd"
	provider.emit(t, port.EventAccountsChanged, []string{next})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, refreshed, 3)
	assert.Equal(t, testAccount, refreshed[0])
	assert.Equal(t, testAccount, refreshed[1])
	assert.Equal(t, next, refreshed[2])
}

func TestAccountsClearedMidConnectWins(t *testing.T) {
	provider := newFakeProvider(testAccount, 56)
	session := newTestSession(provider, nil)

	provider.onRequest = func(method string) {
		if method == port.MethodChainID {
			provider.onRequest = nil
			provider.emit(t, port.EventAccountsChanged, []string{})
		}
	}

	state, err := session.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.StatusDisconnected, state.Status)
	assert.Equal(t, entity.StatusDisconnected, session.State().Status)
}

func TestChainChangedRecomputesStatus(t *testing.T) {
	provider := newFakeProvider(testAccount, 56)
	session := newTestSession(provider, nil)

	_, err := session.Connect(context.Background())
	require.NoError(t, err)

	provider.emit(t, port.EventChainChanged, "0x1")
	state := session.State()
	assert.Equal(t, entity.StatusWrongNetwork, state.Status)
	assert.Equal(t, entity.ChainID(1), state.ChainID)

	provider.emit(t, port.EventChainChanged, "0x38")
	assert.Equal(t, entity.StatusConnected, session.State().Status)
}

func TestProviderDisconnectEvent(t *testing.T) {
	provider := newFakeProvider(testAccount, 56)
	session := newTestSession(provider, nil)

	_, err := session.Connect(context.Background())
	require.NoError(t, err)

	provider.emit(t, port.EventDisconnect, map[string]any{"code": 4900})
	assert.Equal(t, entity.StatusDisconnected, session.State().Status)
}

func TestCurrentProviderWhileConnected(t *testing.T) {
	provider := newFakeProvider(testAccount, 56)
	session := newTestSession(provider, nil)

	_, _, ok := session.CurrentProvider()
	assert.False(t, ok)

	_, err := session.Connect(context.Background())
	require.NoError(t, err)

	got, chainID, ok := session.CurrentProvider()
	require.True(t, ok)
	assert.Equal(t, entity.ChainID(56), chainID)
	assert.Same(t, port.EthereumProvider(provider), got)
}

func TestWalletOptions(t *testing.T) {
	session := newTestSession(newFakeProvider(testAccount, 56), nil)

	options := session.WalletOptions()
	require.Len(t, options, 3)
	assert.Equal(t, entity.WalletMetaMask, options[0].Kind)
	assert.True(t, options[0].Available)
	assert.Equal(t, "installed", options[0].Status)
	assert.False(t, options[1].Available)
	assert.False(t, options[2].Available)

	none := newTestSession(nil, nil)
	assert.False(t, none.WalletOptions()[0].Available)
	assert.Equal(t, "not-installed", none.WalletOptions()[0].Status)
}

// Package provider ships the headless wallet provider: the same request and
// event surface a browser extension injects, served without a browser.
// Account and chain selection are managed locally; chain-state methods are
// forwarded to the selected chain's public endpoint.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"indoswap/internal/app/port"
	"indoswap/internal/domain/entity"
	"indoswap/internal/infrastructure/chainregistry"
	netclient "indoswap/internal/infrastructure/network/client"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

type subscriberSet map[uint64]func(payload json.RawMessage)

// Headless implements port.EthereumProvider.
type Headless struct {
	registry *chainregistry.Registry
	http     *fasthttp.Client
	timeout  time.Duration
	logger   *zap.Logger

	mu       sync.Mutex
	accounts []string
	chainID  entity.ChainID
	known    map[entity.ChainID]bool
	subs     map[string]subscriberSet
	nextSub  uint64

	idSeq atomic.Uint64
}

// NewHeadless creates a provider pre-loaded with one account (empty account
// means none) that starts on initialChain and knows only the given chains;
// switching anywhere else first requires wallet_addEthereumChain.
func NewHeadless(registry *chainregistry.Registry, account string, initialChain entity.ChainID, knownChains []entity.ChainID, timeout time.Duration, logger *zap.Logger) *Headless {
	known := make(map[entity.ChainID]bool, len(knownChains))
	for _, id := range knownChains {
		known[id] = true
	}
	var accounts []string
	if account != "" {
		accounts = []string{account}
	}
	return &Headless{
		registry: registry,
		http:     &fasthttp.Client{},
		timeout:  timeout,
		logger:   logger.Named("HeadlessProvider"),
		accounts: accounts,
		chainID:  initialChain,
		known:    known,
		subs:     make(map[string]subscriberSet),
	}
}

// IsMetaMask reports the provider identification flag. The headless provider
// stands in for the extension surface, so it identifies as one.
func (p *Headless) IsMetaMask() bool { return true }

// Request implements the EIP-1193 request surface.
func (p *Headless) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	switch method {
	case port.MethodRequestAccounts, port.MethodAccounts:
		p.mu.Lock()
		accounts := append([]string(nil), p.accounts...)
		p.mu.Unlock()
		return jsonCodec.Marshal(accounts)

	case port.MethodChainID:
		p.mu.Lock()
		hex := p.chainID.Hex()
		p.mu.Unlock()
		return jsonCodec.Marshal(hex)

	case port.MethodSwitchChain:
		return p.switchChain(params)

	case port.MethodAddChain:
		return p.addChain(params)

	default:
		return p.forward(ctx, method, params)
	}
}

// Subscribe registers an event handler and returns its release handle.
func (p *Headless) Subscribe(event string, handler func(payload json.RawMessage)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.subs[event] == nil {
		p.subs[event] = make(subscriberSet)
	}
	id := p.nextSub
	p.nextSub++
	p.subs[event][id] = handler
	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs[event], id)
	}
}

// SetAccounts replaces the account list and emits accountsChanged the way a
// wallet does when the user switches or locks accounts.
func (p *Headless) SetAccounts(accounts []string) {
	p.mu.Lock()
	p.accounts = append([]string(nil), accounts...)
	p.mu.Unlock()
	payload, _ := jsonCodec.Marshal(accounts)
	p.emit(port.EventAccountsChanged, payload)
}

func (p *Headless) switchChain(params []any) (json.RawMessage, error) {
	target, err := chainParam(params)
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	if !p.known[target] {
		p.mu.Unlock()
		return nil, &entity.RPCError{
			Code:    entity.CodeChainNotConfigured,
			Message: fmt.Sprintf("unrecognized chain id %s", target.Hex()),
		}
	}
	p.chainID = target
	p.mu.Unlock()

	p.logger.Info("switched chain", zap.String("chain", target.String()))
	payload, _ := jsonCodec.Marshal(target.Hex())
	p.emit(port.EventChainChanged, payload)
	return jsonCodec.Marshal(nil)
}

func (p *Headless) addChain(params []any) (json.RawMessage, error) {
	if len(params) == 0 {
		return nil, &entity.RPCError{Code: -32602, Message: "missing chain parameters"}
	}
	raw, err := jsonCodec.Marshal(params[0])
	if err != nil {
		return nil, &entity.RPCError{Code: -32602, Message: "malformed chain parameters"}
	}
	var chain entity.AddChainParams
	if err := jsonCodec.Unmarshal(raw, &chain); err != nil {
		return nil, &entity.RPCError{Code: -32602, Message: "malformed chain parameters"}
	}
	id, err := entity.ParseChainID(chain.ChainID)
	if err != nil {
		return nil, &entity.RPCError{Code: -32602, Message: err.Error()}
	}

	p.mu.Lock()
	p.known[id] = true
	p.mu.Unlock()
	p.logger.Info("added chain", zap.String("chain", id.String()), zap.String("name", chain.ChainName))
	return jsonCodec.Marshal(nil)
}

// forward relays a chain-state method to the selected chain's endpoint.
func (p *Headless) forward(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	p.mu.Lock()
	current := p.chainID
	p.mu.Unlock()

	net, ok := p.registry.Network(current)
	if !ok {
		return nil, fmt.Errorf("%w: %d", entity.ErrChainNotSupported, current)
	}
	return netclient.Do(ctx, p.http, net.RPCURL, p.timeout, p.idSeq.Add(1), method, params)
}

// emit delivers an event to subscribers asynchronously, matching the
// detached delivery of real provider events.
func (p *Headless) emit(event string, payload json.RawMessage) {
	p.mu.Lock()
	handlers := make([]func(json.RawMessage), 0, len(p.subs[event]))
	for _, h := range p.subs[event] {
		handlers = append(handlers, h)
	}
	p.mu.Unlock()
	for _, h := range handlers {
		go h(payload)
	}
}

// chainParam extracts the chainId field from a switch-chain parameter object.
func chainParam(params []any) (entity.ChainID, error) {
	if len(params) == 0 {
		return 0, &entity.RPCError{Code: -32602, Message: "missing chain id parameter"}
	}
	raw, err := jsonCodec.Marshal(params[0])
	if err != nil {
		return 0, &entity.RPCError{Code: -32602, Message: "malformed chain id parameter"}
	}
	var arg struct {
		ChainID string `json:"chainId"`
	}
	if err := jsonCodec.Unmarshal(raw, &arg); err != nil {
		return 0, &entity.RPCError{Code: -32602, Message: "malformed chain id parameter"}
	}
	id, err := entity.ParseChainID(arg.ChainID)
	if err != nil {
		return 0, &entity.RPCError{Code: -32602, Message: err.Error()}
	}
	return id, nil
}

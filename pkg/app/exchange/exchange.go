// Package exchange is the host glue around the matching core: a registry of
// markets, snapshot persistence, and event fan-out. The core itself performs
// no I/O and no logging; everything environment-shaped lives here.
package exchange

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/crestdex/crest/pkg/dex/book"
	"github.com/crestdex/crest/pkg/dex/engine"
	"github.com/crestdex/crest/pkg/dex/events"
	"github.com/crestdex/crest/pkg/dex/types"
	"github.com/crestdex/crest/pkg/storage"
)

// Broadcaster pushes events to live subscribers (the websocket hub in
// production, a no-op in tests).
type Broadcaster interface {
	Broadcast(symbol string, e events.Event)
}

type nopBroadcaster struct{}

func (nopBroadcaster) Broadcast(string, events.Event) {}

type marketState struct {
	book *book.Book
	eng  *engine.Engine
}

// Exchange owns one engine per market and serializes all calls per exchange.
// The core requires exclusive access to a book per call; the mutex here is
// that serialization.
type Exchange struct {
	mu      sync.Mutex
	log     *zap.Logger
	store   storage.Store
	wal     storage.WAL
	bc      Broadcaster
	engCfg  engine.Config
	markets map[string]*marketState
}

// Options configures an Exchange. Zero values fall back to in-memory store,
// no-op WAL/broadcaster and a no-op logger.
type Options struct {
	Store       storage.Store
	WAL         storage.WAL
	Broadcaster Broadcaster
	Logger      *zap.Logger
	Engine      engine.Config
}

func New(opts Options) *Exchange {
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	if opts.WAL == nil {
		opts.WAL = storage.NewNopWAL()
	}
	if opts.Broadcaster == nil {
		opts.Broadcaster = nopBroadcaster{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Exchange{
		log:     opts.Logger,
		store:   opts.Store,
		wal:     opts.WAL,
		bc:      opts.Broadcaster,
		engCfg:  opts.Engine,
		markets: make(map[string]*marketState),
	}
}

// SetBroadcaster swaps the live-event sink. The API server is constructed
// after the exchange but needs to receive its events, so wiring happens in a
// second step at boot.
func (x *Exchange) SetBroadcaster(bc Broadcaster) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if bc == nil {
		bc = nopBroadcaster{}
	}
	x.bc = bc
}

// CreateMarket registers an empty book for the given parameters.
func (x *Exchange) CreateMarket(p book.Params) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if _, exists := x.markets[p.Symbol]; exists {
		return fmt.Errorf("%w: %s", types.ErrMarketExists, p.Symbol)
	}
	b, err := book.New(p)
	if err != nil {
		return err
	}
	x.markets[p.Symbol] = &marketState{book: b, eng: engine.New(b, x.engCfg)}
	x.log.Info("market_created",
		zap.String("symbol", p.Symbol),
		zap.Uint64("tick_size", p.TickSize),
		zap.Uint64("lot_size", p.LotSize))
	return nil
}

func (x *Exchange) market(symbol string) (*marketState, error) {
	m, ok := x.markets[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrMarketNotFound, symbol)
	}
	return m, nil
}

// PlaceOrder routes a placement to the market's engine, then fans the emitted
// events out to the WAL and live subscribers in order.
func (x *Exchange) PlaceOrder(symbol string, req engine.OrderRequest) (*engine.PlaceResult, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	m, err := x.market(symbol)
	if err != nil {
		return nil, err
	}
	res, evs, err := m.eng.PlaceOrder(req)
	x.emit(symbol, evs)
	if err != nil {
		x.log.Debug("order_rejected", zap.String("symbol", symbol), zap.Error(err))
		return nil, err
	}
	x.log.Debug("order_placed",
		zap.String("symbol", symbol),
		zap.String("id", res.ID.String()),
		zap.String("outcome", res.Outcome.String()),
		zap.Uint64("filled_qty", res.FilledQty),
		zap.Uint64("resting_qty", res.RestingQty))
	return res, nil
}

// CancelOrder routes a cancel to the market's engine.
func (x *Exchange) CancelOrder(symbol string, id types.OrderID, caller types.AccountID) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	m, err := x.market(symbol)
	if err != nil {
		return err
	}
	evs, err := m.eng.Cancel(id, caller)
	if err != nil {
		return err
	}
	x.emit(symbol, evs)
	return nil
}

// CancelAll removes every resting order the owner has on a market, returning
// the number of cancelled orders.
func (x *Exchange) CancelAll(symbol string, owner types.AccountID) (int, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	m, err := x.market(symbol)
	if err != nil {
		return 0, err
	}
	evs := m.eng.CancelAll(owner)
	x.emit(symbol, evs)
	return len(evs), nil
}

// Depth returns the top n levels of one side of a market.
func (x *Exchange) Depth(symbol string, side types.Side, n int) ([]book.Level, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	m, err := x.market(symbol)
	if err != nil {
		return nil, err
	}
	return m.book.Depth(side, n), nil
}

// MarketInfo describes one registered market.
type MarketInfo struct {
	book.Params
	Status string `json:"status"`
	Bids   int    `json:"bids"`
	Asks   int    `json:"asks"`
}

// Markets lists all registered markets.
func (x *Exchange) Markets() []MarketInfo {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([]MarketInfo, 0, len(x.markets))
	for _, m := range x.markets {
		out = append(out, MarketInfo{
			Params: m.book.Params,
			Status: m.book.Status.String(),
			Bids:   m.book.Orders(types.Buy),
			Asks:   m.book.Orders(types.Sell),
		})
	}
	return out
}

// SerializeState returns the canonical encoding of a market's book.
func (x *Exchange) SerializeState(symbol string) ([]byte, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	m, err := x.market(symbol)
	if err != nil {
		return nil, err
	}
	return m.book.Encode(), nil
}

// Digest returns the state digest of a market's book.
func (x *Exchange) Digest(symbol string) (common.Hash, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	m, err := x.market(symbol)
	if err != nil {
		return common.Hash{}, err
	}
	return m.book.Digest(), nil
}

func (x *Exchange) emit(symbol string, evs []events.Event) {
	for _, e := range evs {
		x.wal.Append(symbol, e)
		x.bc.Broadcast(symbol, e)
	}
}

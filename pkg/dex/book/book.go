// Package book implements the order book for one trading pair: two
// price-ordered sides of FIFO price levels, plus the deterministic state codec
// used for persistence and replay.
package book

import (
	"fmt"

	"github.com/crestdex/crest/pkg/dex/types"
)

// Status is the trading status of the market the book belongs to.
type Status uint8

const (
	StatusActive Status = iota
	StatusPaused
	StatusSettled
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPaused:
		return "paused"
	case StatusSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// Params are the static market parameters carried by a book.
type Params struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	TickSize   uint64 // minimum price increment
	LotSize    uint64 // minimum quantity increment
}

func (p Params) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if p.BaseAsset == "" || p.QuoteAsset == "" {
		return fmt.Errorf("base and quote assets must be specified")
	}
	if p.TickSize == 0 {
		return fmt.Errorf("tick size must be positive")
	}
	if p.LotSize == 0 {
		return fmt.Errorf("lot size must be positive")
	}
	return nil
}

// Level is one row of a depth view.
type Level struct {
	Price uint64 `json:"price"`
	Qty   uint64 `json:"qty"`
}

// Book is the authoritative order book state for one pair. It is mutated in
// place for the life of the market and holds no global state; callers
// serialize access (the engine assumes exclusive use per call).
type Book struct {
	Params
	Status Status

	// NextSequence is the insertion counter used for price-time priority
	// tie-breaks and order IDs.
	NextSequence uint64

	bids levelIndex
	asks levelIndex
}

// New creates an empty book for the given market parameters.
func New(p Params) (*Book, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid market params: %w", err)
	}
	return newBook(p), nil
}

func newBook(p Params) *Book {
	return &Book{
		Params: p,
		Status: StatusActive,
		bids:   levelIndex{reverse: true},
		asks:   levelIndex{},
	}
}

func (b *Book) side(s types.Side) *levelIndex {
	if s == types.Buy {
		return &b.bids
	}
	return &b.asks
}

// Best returns the best price on a side: highest bid or lowest ask.
func (b *Book) Best(s types.Side) (uint64, bool) {
	if l := b.side(s).best(); l != nil {
		return l.Price, true
	}
	return 0, false
}

// BestLevel returns the highest-priority level on a side, or nil.
func (b *Book) BestLevel(s types.Side) *PriceLevel { return b.side(s).best() }

// LevelAt returns the level at an exact price on a side, or nil.
func (b *Book) LevelAt(s types.Side, price uint64) *PriceLevel { return b.side(s).get(price) }

// Empty reports whether a side has no resting orders.
func (b *Book) Empty(s types.Side) bool { return b.side(s).empty() }

// Insert places the order at the tail of its price level's FIFO queue,
// creating the level if absent. Fails with Overflow if the level's aggregate
// quantity would leave the uint64 range, in which case nothing is mutated.
func (b *Book) Insert(o *Order) error {
	if o.RemainingQty == 0 || o.RemainingQty > o.OriginalQty {
		return types.ErrInvalidQuantity
	}
	side := b.side(o.Side)
	l := side.upsert(o.Price)
	if err := l.enqueue(o); err != nil {
		if l.Count == 0 {
			side.drop(o.Price)
		}
		return err
	}
	return nil
}

// Get returns the resting order with the given ID, or nil. The lookup decodes
// side, price and sequence from the packed ID.
func (b *Book) Get(id types.OrderID) *Order {
	side, price, seq := id.Parts()
	l := b.side(side).get(price)
	if l == nil {
		return nil
	}
	return l.find(seq)
}

// Remove deletes the order with the given ID from its level, dropping the
// level if it becomes empty. Returns the removed order, or nil if absent.
func (b *Book) Remove(id types.OrderID) *Order {
	o := b.Get(id)
	if o == nil {
		return nil
	}
	b.unlink(o)
	return o
}

// Reduce decrements an order's remaining quantity by qty, removing the order
// (and its level when emptied) if it reaches zero. Reports whether the order
// was removed.
func (b *Book) Reduce(o *Order, qty uint64) bool {
	if qty >= o.RemainingQty {
		b.unlink(o)
		return true
	}
	o.RemainingQty -= qty
	o.level.TotalQty -= qty
	return false
}

func (b *Book) unlink(o *Order) {
	l := o.level
	l.unlink(o)
	if l.Count == 0 {
		b.side(o.Side).drop(l.Price)
	}
}

// Depth lists the top n levels of a side in priority order as (price, total
// quantity) rows. n <= 0 returns nothing.
func (b *Book) Depth(s types.Side, n int) []Level {
	side := b.side(s)
	if n > len(side.levels) {
		n = len(side.levels)
	}
	if n <= 0 {
		return nil
	}
	out := make([]Level, n)
	for i := 0; i < n; i++ {
		out[i] = Level{Price: side.levels[i].Price, Qty: side.levels[i].TotalQty}
	}
	return out
}

// EachOrder walks all resting orders on a side in matching priority order
// (best price first, FIFO within a price) until fn returns false.
func (b *Book) EachOrder(s types.Side, fn func(*Order) bool) {
	for _, l := range b.side(s).levels {
		for o := l.head; o != nil; o = o.next {
			if !fn(o) {
				return
			}
		}
	}
}

// Orders counts resting orders on a side.
func (b *Book) Orders(s types.Side) int {
	n := 0
	for _, l := range b.side(s).levels {
		n += l.Count
	}
	return n
}

// Liquidity sums remaining quantity on a side. Used by tests and the
// fill-or-kill look-ahead sanity checks.
func (b *Book) Liquidity(s types.Side) (uint64, error) {
	var total uint64
	var err error
	for _, l := range b.side(s).levels {
		if total, err = types.AddQty(total, l.TotalQty); err != nil {
			return 0, err
		}
	}
	return total, nil
}

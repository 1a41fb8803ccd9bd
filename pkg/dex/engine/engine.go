// Package engine implements the matching algorithm: it consumes incoming
// order instructions against the opposite side of a book and produces fills,
// in strict price-time priority.
//
// Every call is a single atomic state transition. Matching runs as a
// read-only planning walk first; the book is only mutated once the
// instruction is known to succeed, so rejected instructions (validation,
// post-only crossing, fill-or-kill shortfall, overflow) leave the book
// byte-identical to its pre-call state with no rollback machinery.
package engine

import (
	"fmt"

	"github.com/crestdex/crest/pkg/dex/book"
	"github.com/crestdex/crest/pkg/dex/events"
	"github.com/crestdex/crest/pkg/dex/types"
)

// Config tunes engine behavior that the core contract leaves open.
type Config struct {
	// ReportSelfTradeDecrements emits informational OrderCancelled events
	// (reason self_trade) for the quantity destroyed by a DecrementBoth
	// self-trade. Off by default: the decremented quantity produces no fill,
	// so most indexers do not want to see it.
	ReportSelfTradeDecrements bool

	// MaxSteps bounds how many resting orders one instruction may visit.
	// Zero means unlimited. Metered hosts set this as a fuel valve; the walk
	// is always finite either way.
	MaxSteps uint64
}

// Engine matches incoming orders against a single book. Callers serialize
// calls; the engine assumes exclusive access to the book for the duration of
// each call.
type Engine struct {
	book *book.Book
	cfg  Config
}

func New(b *book.Book, cfg Config) *Engine {
	return &Engine{book: b, cfg: cfg}
}

// Book returns the underlying book, for depth queries and snapshotting.
func (e *Engine) Book() *book.Book { return e.book }

// OrderRequest is one already-authenticated placement instruction.
type OrderRequest struct {
	Owner     types.AccountID       `json:"owner"`
	Side      types.Side            `json:"side"`
	Kind      types.OrderKind       `json:"kind"`
	Price     uint64                `json:"price"` // ticks; ignored for market orders
	Qty       uint64                `json:"qty"`   // lots
	SelfTrade types.SelfTradePolicy `json:"self_trade_policy"`
}

// Outcome is the immediate result of a successful placement.
type Outcome uint8

const (
	// Filled: the order traded completely and nothing rests.
	Filled Outcome = iota
	// PartialFill: part traded; the remainder rested or was discarded
	// depending on the order kind.
	PartialFill
	// Cancelled: nothing traded and the whole quantity was discarded
	// (unfilled market/IOC, self-trade cancel-taker).
	Cancelled
	// Posted: nothing traded; the whole order rests on the book.
	Posted
)

func (o Outcome) String() string {
	switch o {
	case Filled:
		return "filled"
	case PartialFill:
		return "partial_fill"
	case Cancelled:
		return "cancelled"
	case Posted:
		return "posted"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "filled":
		*o = Filled
	case "partial_fill":
		*o = PartialFill
	case "cancelled":
		*o = Cancelled
	case "posted":
		*o = Posted
	default:
		return fmt.Errorf("invalid outcome %q", b)
	}
	return nil
}

// PlaceResult summarizes a successful placement for balance settlement.
type PlaceResult struct {
	ID          types.OrderID `json:"id"`
	Outcome     Outcome       `json:"outcome"`
	FilledQty   uint64        `json:"filled_qty"`
	RestingQty  uint64        `json:"resting_qty"`
	QuoteTraded uint64        `json:"quote_traded"` // ticks*lots taken off the book
}

// PlaceOrder validates and executes one placement instruction. On success it
// returns the result and the events in the order the actions occurred. On
// failure it returns the error and a single OrderRejected event; the book is
// untouched.
func (e *Engine) PlaceOrder(req OrderRequest) (*PlaceResult, []events.Event, error) {
	log := &events.Log{}
	reject := func(err error) (*PlaceResult, []events.Event, error) {
		log.Append(events.OrderRejected{Reason: err.Error()})
		return nil, log.Events, err
	}

	if e.book.Status != book.StatusActive {
		return reject(types.ErrMarketClosed)
	}
	if req.Qty == 0 || req.Qty%e.book.LotSize != 0 {
		return reject(types.ErrInvalidQuantity)
	}
	price := req.Price
	if req.Kind == types.Market {
		price = 0
	} else if price == 0 || price%e.book.TickSize != 0 {
		return reject(types.ErrInvalidPrice)
	}

	seq := e.book.NextSequence
	id := types.NewOrderID(req.Side, price, seq)

	// Post-only orders never match; they are refused outright if the best
	// opposite price crosses their limit.
	if req.Kind == types.PostOnly {
		if best, ok := e.book.Best(req.Side.Opposite()); ok && crosses(req.Side, price, best) {
			return reject(types.ErrWouldCross)
		}
	}

	plan, err := e.matchOrder(req, price)
	if err != nil {
		return reject(err)
	}
	if req.Kind == types.FillOrKill && plan.remaining > 0 {
		return reject(types.ErrInsufficientLiquidity)
	}

	rests := plan.remaining > 0 && !plan.takerCancelled &&
		(req.Kind == types.Limit || req.Kind == types.PostOnly)
	if rests {
		// The only mutation that can overflow is folding the remainder into
		// an existing level's total; check it before committing anything.
		if l := e.book.LevelAt(req.Side, price); l != nil {
			if _, err := types.AddQty(l.TotalQty, plan.remaining); err != nil {
				return reject(err)
			}
		}
	}

	e.commit(id, plan, log)

	res := &PlaceResult{
		ID:          id,
		FilledQty:   req.Qty - plan.remaining,
		QuoteTraded: plan.quote,
	}

	switch {
	case plan.remaining == 0:
		res.Outcome = Filled
	case plan.takerCancelled:
		log.Append(events.OrderCancelled{ID: id, Reason: types.SelfTrade, Qty: plan.remaining})
		res.Outcome = outcomeForDiscard(res.FilledQty)
	case rests:
		o := &book.Order{
			Seq:          seq,
			Owner:        req.Owner,
			Side:         req.Side,
			Kind:         req.Kind,
			Price:        price,
			OriginalQty:  req.Qty,
			RemainingQty: plan.remaining,
			SelfTrade:    req.SelfTrade,
		}
		if err := e.book.Insert(o); err != nil {
			// Unreachable: the level total was checked above.
			return nil, log.Events, err
		}
		log.Append(events.OrderPlaced{ID: id, Side: req.Side, Price: price, Qty: plan.remaining})
		res.RestingQty = plan.remaining
		if res.FilledQty == 0 {
			res.Outcome = Posted
		} else {
			res.Outcome = PartialFill
		}
	default:
		// Market and IOC remainders are discarded, never rested.
		log.Append(events.OrderCancelled{ID: id, Reason: types.Unfilled, Qty: plan.remaining})
		res.Outcome = outcomeForDiscard(res.FilledQty)
	}

	e.book.NextSequence = seq + 1
	return res, log.Events, nil
}

func outcomeForDiscard(filled uint64) Outcome {
	if filled == 0 {
		return Cancelled
	}
	return PartialFill
}

// crosses reports whether a taker at takerPrice is willing to trade against a
// maker at makerPrice.
func crosses(taker types.Side, takerPrice, makerPrice uint64) bool {
	if taker == types.Buy {
		return takerPrice >= makerPrice
	}
	return takerPrice <= makerPrice
}

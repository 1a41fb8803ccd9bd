package book

import "github.com/crestdex/crest/pkg/dex/types"

// Order is a single resting order. Incoming instructions only become Orders
// once a remainder actually rests; fully-filled and discarded quantity never
// produces an Order value.
//
// Invariant: 0 < RemainingQty <= OriginalQty. An order whose remaining
// quantity reaches zero is removed from its level immediately.
type Order struct {
	Seq          uint64
	Owner        types.AccountID
	Side         types.Side
	Kind         types.OrderKind
	Price        uint64
	OriginalQty  uint64
	RemainingQty uint64
	SelfTrade    types.SelfTradePolicy

	// Intrusive FIFO links, owned by the containing PriceLevel.
	next, prev *Order
	level      *PriceLevel
}

// ID derives the packed order identifier from side, price and sequence. IDs
// are never stored; they are recomputed on demand.
func (o *Order) ID() types.OrderID {
	return types.NewOrderID(o.Side, o.Price, o.Seq)
}

// Next returns the order behind o in its level's FIFO queue, or nil.
func (o *Order) Next() *Order { return o.next }

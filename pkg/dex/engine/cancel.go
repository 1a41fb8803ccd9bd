package engine

import (
	"github.com/crestdex/crest/pkg/dex/book"
	"github.com/crestdex/crest/pkg/dex/events"
	"github.com/crestdex/crest/pkg/dex/types"
)

// Cancel removes a resting order. OrderNotFound covers orders that already
// filled or were already cancelled; callers treat that as a benign miss, but
// the engine always reports it explicitly. The book is unchanged on any
// failure.
func (e *Engine) Cancel(id types.OrderID, caller types.AccountID) ([]events.Event, error) {
	o := e.book.Get(id)
	if o == nil {
		return nil, types.ErrOrderNotFound
	}
	if o.Owner != caller {
		return nil, types.ErrUnauthorized
	}
	qty := o.RemainingQty
	e.book.Remove(id)
	return []events.Event{
		events.OrderCancelled{ID: id, Reason: types.UserRequested, Qty: qty},
	}, nil
}

// CancelAll removes every resting order belonging to owner, emitting one
// OrderCancelled per removal in book priority order (bids first).
func (e *Engine) CancelAll(owner types.AccountID) []events.Event {
	var ids []types.OrderID
	var qtys []uint64
	for _, side := range []types.Side{types.Buy, types.Sell} {
		e.book.EachOrder(side, func(o *book.Order) bool {
			if o.Owner == owner {
				ids = append(ids, o.ID())
				qtys = append(qtys, o.RemainingQty)
			}
			return true
		})
	}
	out := make([]events.Event, 0, len(ids))
	for i, id := range ids {
		e.book.Remove(id)
		out = append(out, events.OrderCancelled{ID: id, Reason: types.UserRequested, Qty: qtys[i]})
	}
	return out
}

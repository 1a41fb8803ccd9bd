// Package events defines the domain events emitted while an instruction is
// processed. Events are appended in the exact chronological order the actions
// occurred; downstream indexers rely on that ordering.
package events

import (
	"encoding/json"

	"github.com/crestdex/crest/pkg/dex/types"
)

// Event is one entry in the ordered event list produced by the engine.
type Event interface {
	// Type is the stable tag used in the serialized envelope.
	Type() string
}

// OrderPlaced is emitted when an order (or its remainder) rests on the book.
type OrderPlaced struct {
	ID    types.OrderID `json:"id"`
	Side  types.Side    `json:"side"`
	Price uint64        `json:"price"`
	Qty   uint64        `json:"qty"`
}

func (OrderPlaced) Type() string { return "order_placed" }

// OrderFilled is emitted once per fill. Price is always the maker's price.
type OrderFilled struct {
	MakerID        types.OrderID `json:"maker_id"`
	TakerID        types.OrderID `json:"taker_id"`
	Price          uint64        `json:"price"`
	Qty            uint64        `json:"qty"`
	MakerRemaining uint64        `json:"maker_remaining"`
	TakerRemaining uint64        `json:"taker_remaining"`
}

func (OrderFilled) Type() string { return "order_filled" }

// OrderCancelled is emitted when open quantity leaves the book without
// filling: user cancels, unfilled IOC/market remainders, self-trade removals.
type OrderCancelled struct {
	ID     types.OrderID      `json:"id"`
	Reason types.CancelReason `json:"reason"`
	Qty    uint64             `json:"qty"`
}

func (OrderCancelled) Type() string { return "order_cancelled" }

// OrderRejected is emitted when an instruction is refused with no state
// change.
type OrderRejected struct {
	Reason string `json:"reason"`
}

func (OrderRejected) Type() string { return "order_rejected" }

// Sink receives events as they occur.
type Sink interface {
	Append(Event)
}

// Log is the simplest Sink: an in-order slice.
type Log struct {
	Events []Event
}

func (l *Log) Append(e Event) { l.Events = append(l.Events, e) }

type envelope struct {
	Type string `json:"type"`
	Data Event  `json:"data"`
}

// Marshal serializes an event as a {"type": ..., "data": ...} envelope, the
// form written to the event log and pushed to websocket subscribers.
func Marshal(e Event) ([]byte, error) {
	return json.Marshal(envelope{Type: e.Type(), Data: e})
}

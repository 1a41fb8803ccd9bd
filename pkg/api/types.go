package api

import (
	"github.com/crestdex/crest/pkg/dex/book"
	"github.com/crestdex/crest/pkg/dex/engine"
)

// SubmitOrderRequest is the POST /api/v1/orders payload. The embedded
// OrderRequest fields use the core's text encodings: side is "buy"/"sell",
// kind is "limit"/"market"/"post_only"/"ioc"/"fok" and the self-trade policy
// defaults to "cancel_taker" when omitted.
type SubmitOrderRequest struct {
	Symbol string `json:"symbol"`
	engine.OrderRequest
}

type SubmitOrderResponse struct {
	Status string              `json:"status"`
	Result *engine.PlaceResult `json:"result"`
}

// CancelOrderRequest is the POST /api/v1/orders/cancel payload. Owner must be
// the hex address that placed the order.
type CancelOrderRequest struct {
	Symbol  string `json:"symbol"`
	OrderID string `json:"order_id"`
	Owner   string `json:"owner"`
}

// CancelAllRequest cancels every resting order an owner has on a market.
type CancelAllRequest struct {
	Symbol string `json:"symbol"`
	Owner  string `json:"owner"`
}

type CancelAllResponse struct {
	Status    string `json:"status"`
	Cancelled int    `json:"cancelled"`
}

// OrderbookSnapshot is the REST depth view of one market.
type OrderbookSnapshot struct {
	Symbol    string       `json:"symbol"`
	Bids      []book.Level `json:"bids"`
	Asks      []book.Level `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

// DigestResponse exposes the canonical state digest for replica comparison.
type DigestResponse struct {
	Symbol string `json:"symbol"`
	Digest string `json:"digest"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WSSubscribeRequest is the client -> server subscription control message.
type WSSubscribeRequest struct {
	Op       string   `json:"op"` // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"`
}

// WSEvent wraps a core event for the "events:<symbol>" channel.
type WSEvent struct {
	Channel   string      `json:"channel"`
	Symbol    string      `json:"symbol"`
	Event     interface{} `json:"event"`
	Timestamp int64       `json:"timestamp"`
}

// OrderbookUpdate is pushed on the "orderbook:<symbol>" channel after every
// state-changing instruction.
type OrderbookUpdate struct {
	Channel   string       `json:"channel"`
	Symbol    string       `json:"symbol"`
	Bids      []book.Level `json:"bids"`
	Asks      []book.Level `json:"asks"`
	Timestamp int64        `json:"timestamp"`
}

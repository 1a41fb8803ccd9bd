// Package types defines the identifiers, enums and checked fixed-point
// arithmetic shared by the matching core. All prices are integer ticks and all
// quantities are integer lots; nothing in the core touches floating point.
package types

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// AccountID identifies an order owner. Owners are Ethereum-style addresses;
// the host is responsible for authenticating them before instructions reach
// the core.
type AccountID = common.Address

type Side int8

const (
	Buy  Side = 1
	Sell Side = -1
)

func (s Side) Opposite() Side { return -s }

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return "unknown"
	}
}

func (s Side) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Side) UnmarshalText(b []byte) error {
	switch string(b) {
	case "buy":
		*s = Buy
	case "sell":
		*s = Sell
	default:
		return fmt.Errorf("invalid side %q", b)
	}
	return nil
}

// OrderKind is the closed set of order time-in-force/posting policies. The
// matching loop switches on it at exactly two points: the crossing condition
// and the leftover-quantity policy.
type OrderKind uint8

const (
	Limit OrderKind = iota
	Market
	PostOnly
	ImmediateOrCancel
	FillOrKill
)

func (k OrderKind) String() string {
	switch k {
	case Limit:
		return "limit"
	case Market:
		return "market"
	case PostOnly:
		return "post_only"
	case ImmediateOrCancel:
		return "ioc"
	case FillOrKill:
		return "fok"
	default:
		return "unknown"
	}
}

func (k OrderKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *OrderKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "limit":
		*k = Limit
	case "market":
		*k = Market
	case "post_only":
		*k = PostOnly
	case "ioc":
		*k = ImmediateOrCancel
	case "fok":
		*k = FillOrKill
	default:
		return fmt.Errorf("invalid order kind %q", b)
	}
	return nil
}

// Valid reports whether k is a known order kind. Decoded snapshots and API
// payloads go through this before reaching the engine.
func (k OrderKind) Valid() bool { return k <= FillOrKill }

// SelfTradePolicy controls what happens when an incoming order would match a
// resting order with the same owner. It is part of the instruction payload,
// not a market-wide setting.
type SelfTradePolicy uint8

const (
	// CancelTaker stops matching and cancels the remaining incoming quantity.
	CancelTaker SelfTradePolicy = iota
	// CancelMaker removes the resting order without a fill and keeps matching.
	CancelMaker
	// DecrementBoth reduces both orders by the overlapping quantity without
	// recording a fill.
	DecrementBoth
)

func (p SelfTradePolicy) String() string {
	switch p {
	case CancelTaker:
		return "cancel_taker"
	case CancelMaker:
		return "cancel_maker"
	case DecrementBoth:
		return "decrement_both"
	default:
		return "unknown"
	}
}

func (p SelfTradePolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *SelfTradePolicy) UnmarshalText(b []byte) error {
	switch string(b) {
	case "", "cancel_taker":
		*p = CancelTaker
	case "cancel_maker":
		*p = CancelMaker
	case "decrement_both":
		*p = DecrementBoth
	default:
		return fmt.Errorf("invalid self-trade policy %q", b)
	}
	return nil
}

func (p SelfTradePolicy) Valid() bool { return p <= DecrementBoth }

// CancelReason explains why an order left the book without fully filling.
type CancelReason uint8

const (
	UserRequested CancelReason = iota
	Unfilled
	SelfTrade
	Expired
)

func (r CancelReason) String() string {
	switch r {
	case UserRequested:
		return "user_requested"
	case Unfilled:
		return "unfilled"
	case SelfTrade:
		return "self_trade"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

func (r CancelReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

package types

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// OrderID is a 128-bit identifier that packs the order's direction, insertion
// sequence number and limit price:
//
//	[ side | sequence number | price in ticks ]
//	  1 bit  63 bits           64 bits
//
// Because the book keys resting orders by (price, sequence), an ID alone is
// enough to locate an order without any auxiliary index. Market orders carry
// price 0.
type OrderID [16]byte

const maxSequence = 1<<63 - 1

// NewOrderID packs side, price and sequence into an OrderID. The top bit is
// set for buys.
func NewOrderID(side Side, price, sequence uint64) OrderID {
	var id OrderID
	binary.BigEndian.PutUint64(id[:8], sequence&maxSequence)
	if side == Buy {
		id[0] |= 0x80
	}
	binary.BigEndian.PutUint64(id[8:], price)
	return id
}

// Parts splits the ID back into side, price and sequence.
func (id OrderID) Parts() (side Side, price, sequence uint64) {
	if id[0]&0x80 != 0 {
		side = Buy
	} else {
		side = Sell
	}
	sequence = binary.BigEndian.Uint64(id[:8]) & maxSequence
	price = binary.BigEndian.Uint64(id[8:])
	return side, price, sequence
}

func (id OrderID) IsZero() bool { return id == OrderID{} }

func (id OrderID) String() string { return hexutil.Encode(id[:]) }

func (id OrderID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *OrderID) UnmarshalText(b []byte) error {
	raw, err := hexutil.Decode(string(b))
	if err != nil {
		return fmt.Errorf("invalid order id %q: %w", b, err)
	}
	if len(raw) != len(id) {
		return fmt.Errorf("invalid order id %q: want %d bytes, got %d", b, len(id), len(raw))
	}
	copy(id[:], raw)
	return nil
}

// ParseOrderID parses the 0x-hex form produced by String.
func ParseOrderID(s string) (OrderID, error) {
	var id OrderID
	err := id.UnmarshalText([]byte(s))
	return id, err
}

package book

import "github.com/crestdex/crest/pkg/dex/types"

// PriceLevel is a FIFO queue of orders sharing one price, kept as an intrusive
// doubly-linked list so head removal and mid-queue cancels are O(1).
//
// Invariant: a level with no orders is deleted from its side; empty levels are
// never retained.
type PriceLevel struct {
	Price    uint64
	TotalQty uint64
	Count    int

	head, tail *Order
}

// Front returns the oldest order at this price, the next to fill.
func (l *PriceLevel) Front() *Order { return l.head }

func (l *PriceLevel) enqueue(o *Order) error {
	total, err := types.AddQty(l.TotalQty, o.RemainingQty)
	if err != nil {
		return err
	}
	if l.head == nil {
		l.head = o
		l.tail = o
	} else {
		l.tail.next = o
		o.prev = l.tail
		l.tail = o
	}
	o.level = l
	l.TotalQty = total
	l.Count++
	return nil
}

func (l *PriceLevel) unlink(o *Order) {
	if o.prev != nil {
		o.prev.next = o.next
	} else {
		l.head = o.next
	}
	if o.next != nil {
		o.next.prev = o.prev
	} else {
		l.tail = o.prev
	}
	o.next, o.prev, o.level = nil, nil, nil
	l.TotalQty -= o.RemainingQty
	l.Count--
}

// find walks the FIFO queue for the order with the given sequence number.
func (l *PriceLevel) find(seq uint64) *Order {
	for o := l.head; o != nil; o = o.next {
		if o.Seq == seq {
			return o
		}
	}
	return nil
}

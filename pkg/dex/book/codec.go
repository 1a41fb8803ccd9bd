package book

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/crestdex/crest/pkg/dex/types"
)

// SnapshotVersion tags the binary layout below. Decode refuses any other
// value rather than guessing at bytes.
const SnapshotVersion byte = 1

// The snapshot layout is fixed and hand-specified; determinism must not
// depend on reflective serialization. All integers are big-endian.
//
//	u8  version
//	u8  status
//	str symbol, base asset, quote asset   (u16 length + bytes each)
//	u64 tick size, u64 lot size
//	u64 next sequence
//	u32 bid level count
//	  per level: u64 price, u32 order count
//	    per order (FIFO order): u64 seq, 20B owner, u64 original qty,
//	                            u64 remaining qty, u8 kind, u8 self-trade policy
//	u32 ask level count (same level layout)
//
// Price and side are not repeated per order; they are restored from the
// enclosing level and side on decode.

// Encode serializes the book. Encoding the same state always yields the same
// bytes: levels are written in priority order and orders in FIFO order.
func (b *Book) Encode() []byte {
	var buf bytes.Buffer
	buf.WriteByte(SnapshotVersion)
	buf.WriteByte(byte(b.Status))
	writeString(&buf, b.Symbol)
	writeString(&buf, b.BaseAsset)
	writeString(&buf, b.QuoteAsset)
	writeU64(&buf, b.TickSize)
	writeU64(&buf, b.LotSize)
	writeU64(&buf, b.NextSequence)
	encodeSide(&buf, &b.bids)
	encodeSide(&buf, &b.asks)
	return buf.Bytes()
}

func encodeSide(buf *bytes.Buffer, s *levelIndex) {
	writeU32(buf, uint32(len(s.levels)))
	for _, l := range s.levels {
		writeU64(buf, l.Price)
		writeU32(buf, uint32(l.Count))
		for o := l.head; o != nil; o = o.next {
			writeU64(buf, o.Seq)
			buf.Write(o.Owner[:])
			writeU64(buf, o.OriginalQty)
			writeU64(buf, o.RemainingQty)
			buf.WriteByte(byte(o.Kind))
			buf.WriteByte(byte(o.SelfTrade))
		}
	}
}

// Decode reconstructs a book from its encoded form. The version tag is
// checked first; structural violations (empty levels, zero quantities,
// out-of-order prices, trailing bytes) fail with CorruptState.
func Decode(data []byte) (*Book, error) {
	r := &reader{data: data}
	version, err := r.u8()
	if err != nil {
		return nil, err
	}
	if version != SnapshotVersion {
		return nil, fmt.Errorf("%w: got version %d, want %d", types.ErrUnsupportedVersion, version, SnapshotVersion)
	}

	status, err := r.u8()
	if err != nil {
		return nil, err
	}
	if Status(status) > StatusSettled {
		return nil, fmt.Errorf("%w: unknown status %d", types.ErrCorruptState, status)
	}
	var p Params
	if p.Symbol, err = r.str(); err != nil {
		return nil, err
	}
	if p.BaseAsset, err = r.str(); err != nil {
		return nil, err
	}
	if p.QuoteAsset, err = r.str(); err != nil {
		return nil, err
	}
	if p.TickSize, err = r.u64(); err != nil {
		return nil, err
	}
	if p.LotSize, err = r.u64(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrCorruptState, err)
	}

	b := newBook(p)
	b.Status = Status(status)
	if b.NextSequence, err = r.u64(); err != nil {
		return nil, err
	}
	if err := decodeSide(r, b, types.Buy); err != nil {
		return nil, err
	}
	if err := decodeSide(r, b, types.Sell); err != nil {
		return nil, err
	}
	if len(r.data) != r.off {
		return nil, fmt.Errorf("%w: %d trailing bytes", types.ErrCorruptState, len(r.data)-r.off)
	}
	return b, nil
}

func decodeSide(r *reader, b *Book, side types.Side) error {
	count, err := r.u32()
	if err != nil {
		return err
	}
	var prevPrice uint64
	for i := uint32(0); i < count; i++ {
		price, err := r.u64()
		if err != nil {
			return err
		}
		if i > 0 {
			inOrder := price > prevPrice
			if side == types.Buy {
				inOrder = price < prevPrice
			}
			if !inOrder {
				return fmt.Errorf("%w: %s levels out of order at price %d", types.ErrCorruptState, side, price)
			}
		}
		prevPrice = price

		orders, err := r.u32()
		if err != nil {
			return err
		}
		if orders == 0 {
			return fmt.Errorf("%w: empty level at price %d", types.ErrCorruptState, price)
		}
		for j := uint32(0); j < orders; j++ {
			o := &Order{Side: side, Price: price}
			if o.Seq, err = r.u64(); err != nil {
				return err
			}
			raw, err := r.take(len(o.Owner))
			if err != nil {
				return err
			}
			copy(o.Owner[:], raw)
			if o.OriginalQty, err = r.u64(); err != nil {
				return err
			}
			if o.RemainingQty, err = r.u64(); err != nil {
				return err
			}
			kind, err := r.u8()
			if err != nil {
				return err
			}
			policy, err := r.u8()
			if err != nil {
				return err
			}
			o.Kind = types.OrderKind(kind)
			o.SelfTrade = types.SelfTradePolicy(policy)
			if !o.Kind.Valid() || !o.SelfTrade.Valid() {
				return fmt.Errorf("%w: bad enum on order %d", types.ErrCorruptState, o.Seq)
			}
			if err := b.Insert(o); err != nil {
				return fmt.Errorf("%w: order %d: %v", types.ErrCorruptState, o.Seq, err)
			}
		}
	}
	return nil
}

func writeU64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeU32(buf *bytes.Buffer, v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	buf.Write(tmp[:])
}

func writeString(buf *bytes.Buffer, s string) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], uint16(len(s)))
	buf.Write(tmp[:])
	buf.WriteString(s)
}

type reader struct {
	data []byte
	off  int
}

func (r *reader) take(n int) ([]byte, error) {
	if len(r.data)-r.off < n {
		return nil, fmt.Errorf("%w: truncated at offset %d", types.ErrCorruptState, r.off)
	}
	out := r.data[r.off : r.off+n]
	r.off += n
	return out, nil
}

func (r *reader) u8() (byte, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) str() (string, error) {
	b, err := r.take(2)
	if err != nil {
		return "", err
	}
	raw, err := r.take(int(binary.BigEndian.Uint16(b)))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

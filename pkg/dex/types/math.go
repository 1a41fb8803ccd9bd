package types

import "github.com/holiman/uint256"

// Checked uint64 arithmetic for quantities and notionals. Overflow is reported
// as ErrOverflow so the engine can abort the instruction; silent wrapping or
// clamping would let replicas diverge.

// AddQty returns a+b, or ErrOverflow if the sum leaves the uint64 range.
func AddQty(a, b uint64) (uint64, error) {
	var x, y uint256.Int
	x.SetUint64(a)
	y.SetUint64(b)
	x.Add(&x, &y)
	if !x.IsUint64() {
		return 0, ErrOverflow
	}
	return x.Uint64(), nil
}

// MulNotional returns price*qty (the quote-side value of a fill), or
// ErrOverflow if the product leaves the uint64 range.
func MulNotional(price, qty uint64) (uint64, error) {
	var x, y uint256.Int
	x.SetUint64(price)
	y.SetUint64(qty)
	x.Mul(&x, &y)
	if !x.IsUint64() {
		return 0, ErrOverflow
	}
	return x.Uint64(), nil
}

func MinQty(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

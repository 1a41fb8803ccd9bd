package types

import "errors"

// Runtime error values returned by the core. The E-codes are stable and can be
// parsed by user-facing clients; everything here is a value, nothing aborts
// the process.
var (
	// Input validation (rejected before any mutation).
	ErrInvalidPrice    = errors.New("E01: invalid price")
	ErrInvalidQuantity = errors.New("E02: invalid quantity")

	// Arithmetic (always fatal to the instruction, never clamped).
	ErrOverflow = errors.New("E03: arithmetic overflow")

	// Order state.
	ErrOrderNotFound = errors.New("E11: order not found")
	ErrUnauthorized  = errors.New("E12: unauthorized")

	// Liquidity outcomes (expected, recoverable).
	ErrInsufficientLiquidity = errors.New("E21: insufficient liquidity")
	ErrWouldCross            = errors.New("E22: post-only order would cross")

	// Market state.
	ErrMarketClosed   = errors.New("E23: market closed")
	ErrMarketExists   = errors.New("E31: market exists")
	ErrMarketNotFound = errors.New("E32: market not found")

	// Metered execution (only when a step budget is configured).
	ErrFuelExhausted = errors.New("E51: step budget exhausted")

	// Snapshot decoding.
	ErrUnsupportedVersion = errors.New("E41: unsupported snapshot version")
	ErrCorruptState       = errors.New("E42: corrupt snapshot")
)

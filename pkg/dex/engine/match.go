package engine

import (
	"github.com/crestdex/crest/pkg/dex/book"
	"github.com/crestdex/crest/pkg/dex/events"
	"github.com/crestdex/crest/pkg/dex/types"
)

type stepKind uint8

const (
	stepFill stepKind = iota
	stepSelfCancelMaker
	stepSelfDecrement
)

// step is one planned action against a resting order. Each maker appears in
// at most one step per instruction.
type step struct {
	kind  stepKind
	maker *book.Order
	qty   uint64
}

// matchPlan is the outcome of the read-only matching walk. Nothing in the
// book has changed yet when a plan is returned.
type matchPlan struct {
	steps          []step
	remaining      uint64
	quote          uint64 // checked sum of maker price * fill qty
	takerCancelled bool   // self-trade cancel-taker stopped the walk
}

// matchOrder walks the opposite side in priority order and plans fills and
// self-trade actions without mutating anything. Overflow in quantity or
// notional arithmetic aborts the whole instruction here, before any write.
func (e *Engine) matchOrder(req OrderRequest, price uint64) (*matchPlan, error) {
	plan := &matchPlan{remaining: req.Qty}
	if req.Kind == types.PostOnly {
		return plan, nil
	}

	var visited uint64
	var walkErr error
	e.book.EachOrder(req.Side.Opposite(), func(maker *book.Order) bool {
		if plan.remaining == 0 {
			return false
		}
		if req.Kind != types.Market && !crosses(req.Side, price, maker.Price) {
			return false
		}
		visited++
		if e.cfg.MaxSteps > 0 && visited > e.cfg.MaxSteps {
			walkErr = types.ErrFuelExhausted
			return false
		}

		if maker.Owner == req.Owner {
			switch req.SelfTrade {
			case types.CancelTaker:
				plan.takerCancelled = true
				return false
			case types.CancelMaker:
				plan.steps = append(plan.steps, step{stepSelfCancelMaker, maker, maker.RemainingQty})
				return true
			case types.DecrementBoth:
				dec := types.MinQty(plan.remaining, maker.RemainingQty)
				plan.remaining -= dec
				plan.steps = append(plan.steps, step{stepSelfDecrement, maker, dec})
				return true
			}
		}

		qty := types.MinQty(plan.remaining, maker.RemainingQty)
		notional, err := types.MulNotional(maker.Price, qty)
		if err != nil {
			walkErr = err
			return false
		}
		if plan.quote, err = types.AddQty(plan.quote, notional); err != nil {
			walkErr = err
			return false
		}
		plan.remaining -= qty
		plan.steps = append(plan.steps, step{stepFill, maker, qty})
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return plan, nil
}

// commit applies a plan in the order it was recorded and emits the matching
// events. All failure modes were ruled out during planning, so this cannot
// abort halfway.
func (e *Engine) commit(takerID types.OrderID, plan *matchPlan, log *events.Log) {
	// Walk the taker's quantity forward so each fill event can report the
	// taker's remaining amount at that moment.
	takerRemaining := takerTotal(plan)
	for _, s := range plan.steps {
		switch s.kind {
		case stepFill:
			makerAfter := s.maker.RemainingQty - s.qty
			makerID := s.maker.ID()
			takerRemaining -= s.qty
			e.book.Reduce(s.maker, s.qty)
			log.Append(events.OrderFilled{
				MakerID:        makerID,
				TakerID:        takerID,
				Price:          s.maker.Price,
				Qty:            s.qty,
				MakerRemaining: makerAfter,
				TakerRemaining: takerRemaining,
			})
		case stepSelfCancelMaker:
			makerID := s.maker.ID()
			e.book.Reduce(s.maker, s.maker.RemainingQty)
			log.Append(events.OrderCancelled{ID: makerID, Reason: types.SelfTrade, Qty: s.qty})
		case stepSelfDecrement:
			makerID := s.maker.ID()
			takerRemaining -= s.qty
			e.book.Reduce(s.maker, s.qty)
			if e.cfg.ReportSelfTradeDecrements {
				log.Append(events.OrderCancelled{ID: makerID, Reason: types.SelfTrade, Qty: s.qty})
				log.Append(events.OrderCancelled{ID: takerID, Reason: types.SelfTrade, Qty: s.qty})
			}
		}
	}
}

// takerTotal recovers the taker quantity outstanding at the start of the walk
// (remaining after the walk plus everything the walk consumed).
func takerTotal(plan *matchPlan) uint64 {
	total := plan.remaining
	for _, s := range plan.steps {
		if s.kind == stepFill || s.kind == stepSelfDecrement {
			total += s.qty
		}
	}
	return total
}

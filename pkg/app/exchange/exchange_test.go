package exchange

import (
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/crestdex/crest/pkg/dex/book"
	"github.com/crestdex/crest/pkg/dex/engine"
	"github.com/crestdex/crest/pkg/dex/events"
	"github.com/crestdex/crest/pkg/dex/types"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func testMarket() book.Params {
	return book.Params{
		Symbol:     "CRST-USDC",
		BaseAsset:  "CRST",
		QuoteAsset: "USDC",
		TickSize:   1,
		LotSize:    1,
	}
}

func newExchange(t *testing.T) *Exchange {
	t.Helper()
	x := New(Options{})
	if err := x.CreateMarket(testMarket()); err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}
	return x
}

// recordingBroadcaster captures every broadcast event in order.
type recordingBroadcaster struct {
	mu  sync.Mutex
	evs []events.Event
}

func (r *recordingBroadcaster) Broadcast(_ string, e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evs = append(r.evs, e)
}

func TestCreateMarketDuplicate(t *testing.T) {
	x := newExchange(t)
	if err := x.CreateMarket(testMarket()); !errors.Is(err, types.ErrMarketExists) {
		t.Fatalf("err = %v, want ErrMarketExists", err)
	}
}

func TestUnknownMarket(t *testing.T) {
	x := New(Options{})
	_, err := x.PlaceOrder("NOPE-USDC", engine.OrderRequest{
		Owner: alice, Side: types.Buy, Kind: types.Limit, Price: 100, Qty: 1,
	})
	if !errors.Is(err, types.ErrMarketNotFound) {
		t.Fatalf("err = %v, want ErrMarketNotFound", err)
	}
}

func TestPlaceAndCancelThroughExchange(t *testing.T) {
	x := newExchange(t)

	res, err := x.PlaceOrder("CRST-USDC", engine.OrderRequest{
		Owner: alice, Side: types.Buy, Kind: types.Limit, Price: 100, Qty: 10,
	})
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if res.Outcome != engine.Posted {
		t.Errorf("outcome = %v, want posted", res.Outcome)
	}

	bids, err := x.Depth("CRST-USDC", types.Buy, 5)
	if err != nil {
		t.Fatalf("Depth: %v", err)
	}
	if len(bids) != 1 || bids[0] != (book.Level{Price: 100, Qty: 10}) {
		t.Errorf("depth = %v", bids)
	}

	if err := x.CancelOrder("CRST-USDC", res.ID, bob); !errors.Is(err, types.ErrUnauthorized) {
		t.Fatalf("foreign cancel err = %v, want ErrUnauthorized", err)
	}
	if err := x.CancelOrder("CRST-USDC", res.ID, alice); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if bids, _ := x.Depth("CRST-USDC", types.Buy, 5); len(bids) != 0 {
		t.Error("order still resting after cancel")
	}
}

func TestEventsReachBroadcaster(t *testing.T) {
	bc := &recordingBroadcaster{}
	x := New(Options{Broadcaster: bc})
	if err := x.CreateMarket(testMarket()); err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}

	x.PlaceOrder("CRST-USDC", engine.OrderRequest{
		Owner: bob, Side: types.Sell, Kind: types.Limit, Price: 99, Qty: 5,
	})
	x.PlaceOrder("CRST-USDC", engine.OrderRequest{
		Owner: alice, Side: types.Buy, Kind: types.Limit, Price: 100, Qty: 10,
	})

	// placed, filled, placed remainder.
	want := []string{"order_placed", "order_filled", "order_placed"}
	if len(bc.evs) != len(want) {
		t.Fatalf("broadcast %d events, want %d", len(bc.evs), len(want))
	}
	for i, e := range bc.evs {
		if e.Type() != want[i] {
			t.Errorf("event %d = %s, want %s", i, e.Type(), want[i])
		}
	}
}

func TestRejectStillEmitsEvent(t *testing.T) {
	bc := &recordingBroadcaster{}
	x := New(Options{Broadcaster: bc})
	if err := x.CreateMarket(testMarket()); err != nil {
		t.Fatalf("CreateMarket: %v", err)
	}

	_, err := x.PlaceOrder("CRST-USDC", engine.OrderRequest{
		Owner: alice, Side: types.Buy, Kind: types.Limit, Price: 0, Qty: 10,
	})
	if !errors.Is(err, types.ErrInvalidPrice) {
		t.Fatalf("err = %v, want ErrInvalidPrice", err)
	}
	if len(bc.evs) != 1 || bc.evs[0].Type() != "order_rejected" {
		t.Errorf("broadcast = %v", bc.evs)
	}
}

func TestSnapshotAndRestore(t *testing.T) {
	x := newExchange(t)
	x.PlaceOrder("CRST-USDC", engine.OrderRequest{
		Owner: alice, Side: types.Buy, Kind: types.Limit, Price: 100, Qty: 10,
	})
	x.PlaceOrder("CRST-USDC", engine.OrderRequest{
		Owner: bob, Side: types.Sell, Kind: types.Limit, Price: 105, Qty: 4,
	})

	if err := x.SnapshotMarket("CRST-USDC"); err != nil {
		t.Fatalf("SnapshotMarket: %v", err)
	}
	wantState, _ := x.SerializeState("CRST-USDC")
	wantDigest, _ := x.Digest("CRST-USDC")

	// A second exchange sharing the store restores the identical book.
	other := New(Options{Store: x.store})
	ok, err := other.RestoreMarket("CRST-USDC")
	if err != nil {
		t.Fatalf("RestoreMarket: %v", err)
	}
	if !ok {
		t.Fatal("snapshot not found")
	}
	gotDigest, err := other.Digest("CRST-USDC")
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if gotDigest != wantDigest {
		t.Errorf("digest = %s, want %s", gotDigest.Hex(), wantDigest.Hex())
	}
	gotState, _ := other.SerializeState("CRST-USDC")
	if string(gotState) != string(wantState) {
		t.Error("restored state differs from snapshot")
	}

	// The restored market keeps matching from where it left off.
	res, err := other.PlaceOrder("CRST-USDC", engine.OrderRequest{
		Owner: bob, Side: types.Sell, Kind: types.Limit, Price: 100, Qty: 10,
	})
	if err != nil {
		t.Fatalf("PlaceOrder after restore: %v", err)
	}
	if res.Outcome != engine.Filled || res.FilledQty != 10 {
		t.Errorf("result = %+v", res)
	}
}

func TestRestoreMissingMarket(t *testing.T) {
	x := New(Options{})
	ok, err := x.RestoreMarket("CRST-USDC")
	if err != nil {
		t.Fatalf("RestoreMarket: %v", err)
	}
	if ok {
		t.Error("restored a market that was never snapshotted")
	}
}

func TestLoadState(t *testing.T) {
	x := newExchange(t)
	x.PlaceOrder("CRST-USDC", engine.OrderRequest{
		Owner: alice, Side: types.Buy, Kind: types.Limit, Price: 100, Qty: 10,
	})
	state, _ := x.SerializeState("CRST-USDC")

	other := New(Options{})
	symbol, err := other.LoadState(state)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if symbol != "CRST-USDC" {
		t.Errorf("symbol = %q", symbol)
	}
	d1, _ := x.Digest("CRST-USDC")
	d2, _ := other.Digest("CRST-USDC")
	if d1 != d2 {
		t.Error("loaded state digest differs")
	}
}

func TestReplayReproducesState(t *testing.T) {
	x := newExchange(t)
	reqs := []engine.OrderRequest{
		{Owner: alice, Side: types.Buy, Kind: types.Limit, Price: 100, Qty: 10},
		{Owner: bob, Side: types.Sell, Kind: types.Limit, Price: 99, Qty: 4},
		{Owner: bob, Side: types.Sell, Kind: types.ImmediateOrCancel, Price: 100, Qty: 20},
		{Owner: alice, Side: types.Buy, Kind: types.PostOnly, Price: 95, Qty: 3},
	}
	for _, req := range reqs {
		x.PlaceOrder("CRST-USDC", req)
	}

	match, err := x.Replay("CRST-USDC", reqs)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if !match {
		t.Error("replay did not reproduce the live state")
	}

	// A diverging sequence must not match: change the quantity of the order
	// that ends up resting.
	bad := append([]engine.OrderRequest(nil), reqs...)
	bad[len(bad)-1].Qty = 4
	match, err = x.Replay("CRST-USDC", bad)
	if err != nil {
		t.Fatalf("Replay: %v", err)
	}
	if match {
		t.Error("diverging replay reported a match")
	}
}

func TestCancelAllThroughExchange(t *testing.T) {
	x := newExchange(t)
	x.PlaceOrder("CRST-USDC", engine.OrderRequest{
		Owner: alice, Side: types.Buy, Kind: types.Limit, Price: 100, Qty: 1,
	})
	x.PlaceOrder("CRST-USDC", engine.OrderRequest{
		Owner: alice, Side: types.Sell, Kind: types.Limit, Price: 105, Qty: 2,
	})
	x.PlaceOrder("CRST-USDC", engine.OrderRequest{
		Owner: bob, Side: types.Buy, Kind: types.Limit, Price: 99, Qty: 3,
	})

	n, err := x.CancelAll("CRST-USDC", alice)
	if err != nil {
		t.Fatalf("CancelAll: %v", err)
	}
	if n != 2 {
		t.Errorf("cancelled %d, want 2", n)
	}
	markets := x.Markets()
	if len(markets) != 1 || markets[0].Bids != 1 || markets[0].Asks != 0 {
		t.Errorf("markets = %+v", markets)
	}
}

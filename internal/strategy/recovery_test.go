package strategy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reversion/internal/exchange"
	"reversion/internal/models"
)

// newLiveTestAdapter points a real Live adapter at a local httptest server,
// since exchange.Adapter's underlying implementation is unexported and
// can't be faked from outside the package - the same reason the teacher's
// own exchange tests exercise the signing/parsing path end to end rather
// than mocking the interface.
func newLiveTestAdapter(t *testing.T, handler http.HandlerFunc) *exchange.Adapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return exchange.NewLiveAdapter("key", "secret", srv.URL)
}

func positionsHandler(qty, entry float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/fapi/v2/positionRisk":
			json.NewEncoder(w).Encode([]map[string]string{{
				"symbol":           "BTCUSDT",
				"positionAmt":      floatStr(qty),
				"entryPrice":       floatStr(entry),
				"unRealizedProfit": "0",
				"leverage":         "2",
			}})
		case r.URL.Path == "/fapi/v1/order":
			json.NewEncoder(w).Encode(map[string]string{
				"status": "FILLED", "avgPrice": floatStr(entry), "executedQty": floatStr(qty),
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func floatStr(f float64) string {
	if f < 0 {
		f = -f
	}
	return jsonNum(f)
}

func jsonNum(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func TestReconcilePositionsAdoptsMatchingOpenTrade(t *testing.T) {
	c, sink := newTestCore(t)
	c.liveAdapter = newLiveTestAdapter(t, positionsHandler(0.02, 96000))
	c.mode = models.ModeLive
	sink.openTrades = []models.TradeRecord{
		{ID: 42, Symbol: "BTCUSDT", Side: models.PositionLong, EntryPrice: 95500, Quantity: 0.02, EntryTS: time.Now()},
	}

	if err := c.reconcilePositions(context.Background()); err != nil {
		t.Fatalf("reconcilePositions failed: %v", err)
	}

	if c.position == nil {
		t.Fatal("expected a position to be adopted")
	}
	if c.position.TradeID != 42 {
		t.Fatalf("TradeID = %d, want 42 (matched from ledger)", c.position.TradeID)
	}
	if c.position.EntryPrice != 95500 {
		t.Fatalf("EntryPrice = %v, want the ledger's 95500, not the venue's reported entry", c.position.EntryPrice)
	}
	if len(sink.opened) != 0 {
		t.Fatal("expected no synthetic trade record when a ledger match exists")
	}
}

func TestReconcilePositionsAdoptsSyntheticEntryByDefault(t *testing.T) {
	c, sink := newTestCore(t)
	c.liveAdapter = newLiveTestAdapter(t, positionsHandler(0.02, 96000))
	c.mode = models.ModeLive

	if err := c.reconcilePositions(context.Background()); err != nil {
		t.Fatalf("reconcilePositions failed: %v", err)
	}

	if c.position == nil {
		t.Fatal("expected an orphaned position to be adopted, not left phantom")
	}
	if len(sink.opened) != 1 {
		t.Fatalf("expected one synthetic trade record, got %d", len(sink.opened))
	}
	if c.position.Side != models.PositionLong {
		t.Fatalf("Side = %v, want LONG for a positive signed qty", c.position.Side)
	}
}

func TestReconcilePositionsFlattensOrphanWhenPolicySaysSo(t *testing.T) {
	c, sink := newTestCore(t)
	c.liveAdapter = newLiveTestAdapter(t, positionsHandler(0.02, 96000))
	c.activeAdapter = c.liveAdapter
	c.mode = models.ModeLive
	c.params.RecoveryFlattenOrphaned = true
	seedBook(c, 96000, 96002)

	if err := c.reconcilePositions(context.Background()); err != nil {
		t.Fatalf("reconcilePositions failed: %v", err)
	}

	if c.position != nil {
		t.Fatal("expected the orphaned position to be flattened, not left open")
	}
	if len(sink.closed) != 1 {
		t.Fatalf("expected one closed trade record from the forced flatten, got %d", len(sink.closed))
	}
	if sink.closed[0].ExitReason != models.ExitFlatten {
		t.Fatalf("ExitReason = %v, want FLATTEN", sink.closed[0].ExitReason)
	}
}

func TestReconcilePositionsNoOpWithoutLiveOrphan(t *testing.T) {
	c, _ := newTestCore(t)
	c.liveAdapter = newLiveTestAdapter(t, positionsHandler(0, 0))
	c.mode = models.ModeLive

	if err := c.reconcilePositions(context.Background()); err != nil {
		t.Fatalf("reconcilePositions failed: %v", err)
	}
	if c.position != nil {
		t.Fatal("expected no position to be adopted when the venue reports none")
	}
}

func TestReconcilePositionsSkipsWhenSlotAlreadyHeld(t *testing.T) {
	c, sink := newTestCore(t)
	c.liveAdapter = newLiveTestAdapter(t, positionsHandler(0.02, 96000))
	c.mode = models.ModeLive
	c.position = &models.OpenPosition{Symbol: "BTCUSDT", Side: models.PositionLong, EntryPrice: 95000, Quantity: 0.02, EntryTime: time.Now()}

	if err := c.reconcilePositions(context.Background()); err != nil {
		t.Fatalf("reconcilePositions failed: %v", err)
	}
	if len(sink.opened) != 0 {
		t.Fatal("expected no synthetic entry when the slot is already held")
	}
}

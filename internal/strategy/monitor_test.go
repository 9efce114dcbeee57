package strategy

import (
	"context"
	"testing"
	"time"

	"reversion/internal/models"
)

func seedBook(c *Core, bid, ask float64) {
	c.cache.OnBookTicker(models.BookTicker{
		Symbol: "BTCUSDT", BidPrice: bid, AskPrice: ask, Timestamp: time.Now(),
	})
}

func TestOnTickTakesProfitAtTPThreshold(t *testing.T) {
	c, sink := newTestCore(t)
	c.position = &models.OpenPosition{
		Symbol: "BTCUSDT", Side: models.PositionLong, EntryPrice: 95000, Quantity: 0.01, EntryTime: time.Now(),
	}
	// mid ≈ 95701, pnl_pct ≈ 0.0074 before slippage, comfortably above TPPct
	// 0.006 even after Paper's worst-case 0.03% adverse fill.
	seedBook(c, 95700, 95702)

	c.onTick(context.Background(), time.Now())

	if c.position != nil {
		t.Fatal("expected position to be closed on TP")
	}
	if len(sink.closed) != 1 {
		t.Fatalf("expected one closed trade record, got %d", len(sink.closed))
	}
	if sink.closed[0].ExitReason != models.ExitTP {
		t.Fatalf("ExitReason = %v, want TP", sink.closed[0].ExitReason)
	}
}

func TestOnTickStopsLossAtSLThreshold(t *testing.T) {
	c, sink := newTestCore(t)
	c.position = &models.OpenPosition{
		Symbol: "BTCUSDT", Side: models.PositionLong, EntryPrice: 95000, Quantity: 0.01, EntryTime: time.Now(),
	}
	// pnl_pct = (94500-95000)/95000 ≈ -0.0053 <= -SLPct 0.0045
	seedBook(c, 94499, 94501)

	c.onTick(context.Background(), time.Now())

	if len(sink.closed) != 1 || sink.closed[0].ExitReason != models.ExitSL {
		t.Fatalf("expected one SL exit, got %+v", sink.closed)
	}
}

func TestOnTickTimeStop(t *testing.T) {
	c, sink := newTestCore(t)
	c.position = &models.OpenPosition{
		Symbol:    "BTCUSDT",
		Side:      models.PositionLong,
		EntryPrice: 95000,
		Quantity:  0.01,
		EntryTime: time.Now().Add(-time.Duration(c.params.TimeStopSeconds+1) * time.Second),
	}
	seedBook(c, 95010, 95012) // flat, no TP/SL

	c.onTick(context.Background(), time.Now())

	if len(sink.closed) != 1 || sink.closed[0].ExitReason != models.ExitTimeStop {
		t.Fatalf("expected one TIME_STOP exit, got %+v", sink.closed)
	}
}

func TestOnTickNoOpWithoutPosition(t *testing.T) {
	c, sink := newTestCore(t)
	seedBook(c, 95000, 95002)

	c.onTick(context.Background(), time.Now())

	if len(sink.closed) != 0 {
		t.Fatal("expected no exits without an open position")
	}
}

func TestFlattenClosesOpenPosition(t *testing.T) {
	c, sink := newTestCore(t)
	c.position = &models.OpenPosition{
		Symbol: "BTCUSDT", Side: models.PositionShort, EntryPrice: 95000, Quantity: 0.01, EntryTime: time.Now(),
	}
	seedBook(c, 94990, 94992)

	c.flatten(context.Background(), models.ExitFlatten)

	if c.position != nil {
		t.Fatal("expected flatten to clear the open position")
	}
	if len(sink.closed) != 1 || sink.closed[0].ExitReason != models.ExitFlatten {
		t.Fatalf("expected one FLATTEN exit, got %+v", sink.closed)
	}
}

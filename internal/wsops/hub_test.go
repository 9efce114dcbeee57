package wsops

import (
	"sync"
	"testing"
	"time"

	"reversion/internal/models"
)

func TestNewHub(t *testing.T) {
	hub := NewHub()
	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}
}

func TestOriginCheckerCheck(t *testing.T) {
	checker := &originChecker{
		allowedOrigins: map[string]struct{}{
			"http://localhost:3000": {},
		},
		allowAll: false,
	}

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://evil.com", false},
	}

	for _, tt := range tests {
		if got := checker.check(tt.origin); got != tt.want {
			t.Errorf("check(%q) = %v, want %v", tt.origin, got, tt.want)
		}
	}
}

func TestOriginCheckerAllowAll(t *testing.T) {
	checker := &originChecker{allowAll: true}
	for _, origin := range []string{"http://localhost:3000", "https://evil.com"} {
		if !checker.check(origin) {
			t.Errorf("allowAll=true but check(%q) = false", origin)
		}
	}
}

func TestHubBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	client := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	if hub.ClientCount() != 1 {
		t.Fatalf("expected 1 client, got %d", hub.ClientCount())
	}

	// Fill and exceed the client's tiny send buffer without draining it,
	// forcing the hub to evict it as a slow client on the next broadcast.
	for i := 0; i < 10; i++ {
		hub.Broadcast(map[string]int{"i": i})
	}
	time.Sleep(20 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("expected slow client to be evicted, still have %d", hub.ClientCount())
	}
}

func TestHubBroadcastHelpersMarshalWithoutPanicking(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	hub.BroadcastHeartbeat(models.HealthCheck{
		Timestamp:     time.Now(),
		BotState:      models.StateRunning,
		FeedConnected: true,
	})
	hub.BroadcastTradeClosed(models.TradeRecord{
		Symbol:     "BTCUSDT",
		Side:       models.PositionLong,
		ExitReason: models.ExitFlatten,
		PnlUSDT:    12.5,
	})
	hub.BroadcastBotStateChanged(models.BotStateRecord{
		State:     models.StatePausedManual,
		PrevState: models.StateRunning,
		Reason:    "operator pause",
		Timestamp: time.Now(),
	})

	time.Sleep(10 * time.Millisecond)
}

func TestHubConcurrentOperations(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	var wg sync.WaitGroup
	const goroutines = 10
	const operations = 200

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operations; j++ {
				hub.Broadcast(map[string]int{"goroutine": id, "op": j})
			}
		}(i)
	}
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < operations; j++ {
				_ = hub.ClientCount()
			}
		}()
	}
	wg.Wait()
}

// Package stats implements the Rolling Statistics component: pure,
// deterministic functions over the Market Feed's per-symbol caches. No
// function here mutates state or blocks; they all take a read-only
// *feed.Cache snapshot and a reference time.
package stats

import (
	"time"

	"reversion/internal/feed"
)

// largeSpreadSentinel is the ">= 999" sentinel spec.md requires SpreadBps to
// return when the book is missing, distinct from the feed cache's internal
// math.MaxFloat64 staleness marker - either value fails any max_spread_bps
// comparison, which is the only property that matters.
const largeSpreadSentinel = 999.0

// Mid returns (bid+ask)/2 from the latest book ticker. ok is false if no
// book snapshot has arrived yet.
func Mid(c *feed.Cache, symbol string) (mid float64, ok bool) {
	return c.Mid(symbol)
}

// SpreadBps returns the current spread in basis points, or a sentinel
// >= 999 if the book is missing or stale.
func SpreadBps(c *feed.Cache, symbol string, now time.Time) float64 {
	v := c.SpreadBps(symbol, now)
	if v > largeSpreadSentinel {
		return largeSpreadSentinel
	}
	return v
}

// AvgVolume is the arithmetic mean of the entire volume window (per-trade
// notional). Returns 0 if the window is empty.
func AvgVolume(c *feed.Cache, symbol string) float64 {
	window := c.VolumeWindow(symbol)
	return mean(window)
}

// RecentVolume is the mean of the last min(len(window), seconds*10) samples.
// The 10-samples-per-second approximation matches the spec's definition
// directly; it is not a measured trade rate.
func RecentVolume(c *feed.Cache, symbol string, seconds int) float64 {
	window := c.VolumeWindow(symbol)
	n := seconds * 10
	if n > len(window) {
		n = len(window)
	}
	if n <= 0 {
		return 0
	}
	return mean(window[len(window)-n:])
}

// PriceDelta is ((current - oldest_in_window) / oldest_in_window) * 100,
// using the earliest price-history entry inside the seconds window, or the
// earliest available entry if none falls inside the window. Returns 0 if
// there is no history at all.
func PriceDelta(c *feed.Cache, symbol string, seconds int, now time.Time) float64 {
	history := c.PriceHistory(symbol)
	if len(history) == 0 {
		return 0
	}

	current := history[len(history)-1].Price
	cutoff := now.Add(-time.Duration(seconds) * time.Second)

	oldest := history[0].Price
	for _, p := range history {
		if !p.Timestamp.Before(cutoff) {
			oldest = p.Price
			break
		}
	}

	if oldest == 0 {
		return 0
	}
	return (current - oldest) / oldest * 100
}

// ExhaustionCandles counts direction reversals across four samples taken at
// now, now-20s, now-40s, now-60s (nearest entry within 10s of each target).
// A reversal at index i holds when sign(sample[i]-sample[i-1]) differs from
// sign(sample[i-1]-sample[i-2]). Returns 0 when fewer than 3 samples are
// available.
func ExhaustionCandles(c *feed.Cache, symbol string, now time.Time) int {
	history := c.PriceHistory(symbol)
	if len(history) == 0 {
		return 0
	}

	targets := []time.Time{
		now,
		now.Add(-20 * time.Second),
		now.Add(-40 * time.Second),
		now.Add(-60 * time.Second),
	}

	samples := make([]float64, 0, 4)
	for _, target := range targets {
		price, ok := nearestWithin(history, target, 10*time.Second)
		if !ok {
			continue
		}
		samples = append(samples, price)
	}

	if len(samples) < 3 {
		return 0
	}

	reversals := 0
	for i := 2; i < len(samples); i++ {
		prevSign := sign(samples[i-1] - samples[i-2])
		curSign := sign(samples[i] - samples[i-1])
		if prevSign != 0 && curSign != 0 && prevSign != curSign {
			reversals++
		}
	}
	return reversals
}

func nearestWithin(history []feed.PricePoint, target time.Time, tolerance time.Duration) (float64, bool) {
	bestIdx := -1
	bestDiff := tolerance + time.Second
	for i, p := range history {
		diff := p.Timestamp.Sub(target)
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance && diff < bestDiff {
			bestDiff = diff
			bestIdx = i
		}
	}
	if bestIdx == -1 {
		return 0, false
	}
	return history[bestIdx].Price, true
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

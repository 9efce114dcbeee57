package strategy

import (
	"context"
	"fmt"

	"reversion/internal/exchange"
)

// order.go - single-order submission with a bounded wait. Grounded on
// internal/bot/order.go's OrderExecutor, whose channel-plus-goroutine shape
// exists to run two legs in parallel; a reversion position only ever has
// one leg, so this keeps the channel/ctx-timeout pattern without the
// fan-out.

type orderOutcome struct {
	result exchange.OrderResult
	err    error
}

// submitWithTimeout calls MarketOrder on a goroutine and waits up to
// entry_fill_timeout_ms for it to return. On timeout, if
// use_market_if_not_filled is set the call is retried once on a fresh
// context capped at shutdownFlattenCap; otherwise the timeout is surfaced as an
// error and the caller skips the entry or exit this tick.
func (c *Core) submitWithTimeout(ctx context.Context, symbol string, side exchange.AdapterSide, qty float64) (exchange.OrderResult, error) {
	timeout := c.params.EntryFillTimeout
	if timeout <= 0 {
		return c.activeAdapter.MarketOrder(ctx, symbol, side, qty)
	}

	boundedCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := make(chan orderOutcome, 1)
	go func() {
		res, err := c.activeAdapter.MarketOrder(boundedCtx, symbol, side, qty)
		out <- orderOutcome{result: res, err: err}
	}()

	select {
	case o := <-out:
		return o.result, o.err
	case <-boundedCtx.Done():
		if !c.params.UseMarketIfNotFilled {
			return exchange.OrderResult{}, fmt.Errorf("order fill timed out after %s", timeout)
		}
		// Fall through to the retry below; boundedCtx is already expired
		// so a fresh context (capped at shutdownFlattenCap) is required.
	}

	retryCtx, retryCancel := context.WithTimeout(context.Background(), shutdownFlattenCap)
	defer retryCancel()
	return c.activeAdapter.MarketOrder(retryCtx, symbol, side, qty)
}

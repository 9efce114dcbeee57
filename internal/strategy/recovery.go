package strategy

import (
	"context"
	"fmt"
	"time"

	"reversion/internal/exchange"
	"reversion/internal/models"
	"reversion/pkg/utils"
)

// recovery.go implements the BOOTING-time reconciliation against the live
// adapter: a restart after a crash, a manual trade placed outside the bot,
// or an exit order that filled but whose confirmation never landed can all
// leave the venue holding a position this process doesn't know about.
// Grounded on internal/bot/recovery.go's RecoveryManager.Recover/
// discoverOpenPositions, collapsed from its multi-exchange/multi-pair shape
// down to the single adapter and single Open Position slot this engine
// tracks.

// reconcilePositions runs once from boot, only in live mode. It never
// leaves the core running with a phantom position: any live position found
// for a configured symbol is either adopted into the Open Position slot
// (matched against an open Trade Record if one exists, or recorded as a
// synthetic entry otherwise) or flattened immediately, per
// params.RecoveryFlattenOrphaned.
func (c *Core) reconcilePositions(ctx context.Context) error {
	if c.liveAdapter == nil {
		return nil
	}

	positions, err := c.liveAdapter.GetPositions(ctx)
	if err != nil {
		return fmt.Errorf("reconcile: GetPositions failed: %w", err)
	}

	live := firstConfiguredPosition(positions, c.params.Symbols)
	if live == nil {
		return nil
	}
	if c.position != nil {
		return nil
	}

	if c.log != nil {
		c.log.Error("orphaned live position found at boot",
			utils.String("symbol", live.Symbol), utils.Float64("signed_qty", live.SignedQty))
	}

	open, err := c.sink.ListOpenTrades(ctx)
	if err != nil && c.log != nil {
		c.log.Warn("reconcile: ListOpenTrades failed, continuing without a ledger match", utils.Err(err))
	}
	for _, tr := range open {
		if tr.Symbol == live.Symbol {
			c.position = &models.OpenPosition{
				Symbol:     tr.Symbol,
				Side:       tr.Side,
				EntryPrice: tr.EntryPrice,
				Quantity:   tr.Quantity,
				EntryTime:  tr.EntryTS,
				TradeID:    tr.ID,
			}
			if c.log != nil {
				c.log.Info("adopted orphaned position, matched to open trade record",
					utils.String("symbol", tr.Symbol), utils.Int64("trade_id", tr.ID))
			}
			return nil
		}
	}

	side := models.PositionLong
	qty := live.SignedQty
	if qty < 0 {
		side = models.PositionShort
		qty = -qty
	}

	if c.params.RecoveryFlattenOrphaned {
		c.position = &models.OpenPosition{
			Symbol:     live.Symbol,
			Side:       side,
			EntryPrice: live.EntryPrice,
			Quantity:   qty,
			EntryTime:  time.Now(),
		}
		if c.log != nil {
			c.log.Info("flattening orphaned position per recovery policy", utils.String("symbol", live.Symbol))
		}
		c.flatten(ctx, models.ExitFlatten)
		return nil
	}

	tradeID := c.sink.RecordTradeOpened(models.TradeRecord{
		Symbol:     live.Symbol,
		Side:       side,
		EntryPrice: live.EntryPrice,
		Quantity:   qty,
		EntryTS:    time.Now(),
	})
	c.position = &models.OpenPosition{
		Symbol:     live.Symbol,
		Side:       side,
		EntryPrice: live.EntryPrice,
		Quantity:   qty,
		EntryTime:  time.Now(),
		TradeID:    tradeID,
	}
	if c.log != nil {
		c.log.Info("adopted orphaned position as synthetic entry",
			utils.String("symbol", live.Symbol), utils.Int64("trade_id", tradeID))
	}
	return nil
}

func firstConfiguredPosition(positions []exchange.AdapterPosition, symbols []string) *exchange.AdapterPosition {
	for i := range positions {
		if positions[i].SignedQty == 0 {
			continue
		}
		for _, s := range symbols {
			if positions[i].Symbol == s {
				return &positions[i]
			}
		}
	}
	return nil
}

package utils

import (
	"math"
)

// math.go - pure numeric helpers shared by sizing, the position monitor, and
// the rolling-statistics package. No side effects, no allocation beyond the
// return value.

// RoundToLotSize rounds value DOWN to the nearest multiple of lotSize.
//
// Used to round an order's quantity to the exchange's lot step; rounding
// down guarantees the order never exceeds the computed risk budget.
// Returns value unchanged if lotSize <= 0.
func RoundToLotSize(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Floor(value/lotSize) * lotSize
}

// RoundToLotSizeUp rounds value UP to the nearest multiple of lotSize.
// Used when a minimum quantity (e.g. minQty) must be guaranteed.
func RoundToLotSizeUp(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Ceil(value/lotSize) * lotSize
}

// RoundToLotSizeNearest rounds value to the nearest multiple of lotSize.
func RoundToLotSizeNearest(value, lotSize float64) float64 {
	if lotSize <= 0 {
		return value
	}
	return math.Round(value/lotSize) * lotSize
}

// CalculatePNL computes the profit/loss of a single-sided position.
//
//	Long PNL  = (P_close - P_open) * qty
//	Short PNL = (P_open - P_close) * qty
func CalculatePNL(side string, entryPrice, currentPrice, quantity float64) float64 {
	if quantity <= 0 {
		return 0
	}
	switch side {
	case "long", "LONG":
		return (currentPrice - entryPrice) * quantity
	case "short", "SHORT":
		return (entryPrice - currentPrice) * quantity
	default:
		return 0
	}
}

// IsStopLossHit reports whether pnl has breached a stop-loss budget given in
// quote-currency units (stopLoss is a positive magnitude).
func IsStopLossHit(pnl, stopLoss float64) bool {
	if stopLoss <= 0 {
		return false
	}
	return pnl <= -stopLoss
}

// Abs returns the absolute value of x.
func Abs(x float64) float64 {
	return math.Abs(x)
}

// Min returns the smaller of a and b.
func Min(a, b float64) float64 {
	return math.Min(a, b)
}

// Max returns the larger of a and b.
func Max(a, b float64) float64 {
	return math.Max(a, b)
}

// Clamp restricts value to the closed interval [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

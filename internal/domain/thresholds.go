package domain

// DefaultVolatility is the recent-rate-volatility assumption used when the
// caller supplies none.
const DefaultVolatility = 0.02

// Notional tiers for dynamic thresholds. Larger books get tighter stops as a
// percentage of notional; first match wins, evaluated largest first.
var thresholdTiers = []struct {
	minNotional float64
	profitPct   float64
	lossPct     float64
}{
	{20_000_000, 0.003, 0.0015},
	{10_000_000, 0.005, 0.0025},
	{0, 0.01, 0.005},
}

// CalculateThresholds derives the profit target and stop loss for a position
// from its notional tier, scaled up by recent volatility (multiplier
// 1 + vol*10). A zero volatility falls back to DefaultVolatility. ProfitTarget
// is positive and StopLoss negative, both rounded to 2dp.
func CalculateThresholds(p Position, volatility float64) (ThresholdSet, error) {
	if p.PositionID == "" {
		return ThresholdSet{}, &ValidationError{Field: "position_id"}
	}
	if p.Notional <= 0 {
		return ThresholdSet{}, &ValidationError{Field: "notional", Detail: "must be positive"}
	}
	if volatility == 0 {
		volatility = DefaultVolatility
	}

	var profitPct, lossPct float64
	for _, tier := range thresholdTiers {
		if p.Notional >= tier.minNotional {
			profitPct = tier.profitPct
			lossPct = tier.lossPct
			break
		}
	}

	multiplier := 1 + volatility*10
	return ThresholdSet{
		PositionID:   p.PositionID,
		ProfitTarget: round2(p.Notional * profitPct * multiplier),
		StopLoss:     round2(-p.Notional * lossPct * multiplier),
	}, nil
}

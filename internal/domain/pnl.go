package domain

import (
	"time"

	"github.com/rs/zerolog/log"
)

// CalculatePnL computes the mark-to-market P&L for one position against the
// supplied current rate. Rates are decimal fractions (0.0410 means 4.10%),
// the same units as the position's fixed rate.
//
// dv01 = notional x 0.0001 x years; pnl = rate change in bps x dv01 x
// direction. A matured position short-circuits to zero DV01 and zero P&L.
func CalculatePnL(p Position, currentRate float64, now time.Time) (PnLResult, error) {
	if err := validatePosition(p); err != nil {
		return PnLResult{}, err
	}

	result := PnLResult{
		PositionID:  p.PositionID,
		EntryRate:   p.FixedRate,
		CurrentRate: currentRate,
		Notional:    p.Notional,
	}

	years := YearsToMaturity(p.MaturityDate, now)
	if years == 0 {
		// Matured: nothing at risk.
		return result, nil
	}

	dv01 := p.Notional * 0.0001 * years
	rateChangeBps := (currentRate - p.FixedRate) * 10000
	pnl := rateChangeBps * dv01 * p.PayReceive.Sign()

	result.RateChangeBps = round2(rateChangeBps)
	result.DV01 = round2(dv01)
	result.PnL = round2(pnl)

	log.Debug().
		Str("position_id", p.PositionID).
		Float64("rate_change_bps", result.RateChangeBps).
		Float64("dv01", result.DV01).
		Float64("pnl", result.PnL).
		Msg("Calculated position P&L")

	return result, nil
}

// PortfolioDV01 sums signed DV01 across the portfolio, rounded to 2dp. An
// empty portfolio yields 0.
func PortfolioDV01(positions []Position, now time.Time) float64 {
	var total float64
	for _, p := range positions {
		years := YearsToMaturity(p.MaturityDate, now)
		total += p.Notional * 0.0001 * years * p.PayReceive.Sign()
	}
	return round2(total)
}

func validatePosition(p Position) error {
	if p.PositionID == "" {
		return &ValidationError{Field: "position_id"}
	}
	if p.Notional <= 0 {
		return &ValidationError{Field: "notional", Detail: "must be positive"}
	}
	if p.MaturityDate.IsZero() {
		return &ValidationError{Field: "maturity_date"}
	}
	if !p.PayReceive.Valid() {
		return &ValidationError{Field: "pay_receive", Detail: "must be PAY_FIXED or RCV_FIXED"}
	}
	return nil
}

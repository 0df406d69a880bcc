package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// Default close bounds applied when the caller passes zero thresholds.
const (
	DefaultProfitTarget = 50000.0
	DefaultStopLoss     = -25000.0
)

// EvaluateSignal classifies a P&L figure against its thresholds. The profit
// check runs first and both bounds are inclusive: exact equality to either
// threshold yields CLOSE. Zero thresholds fall back to the defaults.
func EvaluateSignal(pnl, thresholdProfit, thresholdLoss float64) Signal {
	if thresholdProfit == 0 {
		thresholdProfit = DefaultProfitTarget
	}
	if thresholdLoss == 0 {
		thresholdLoss = DefaultStopLoss
	}

	switch {
	case pnl >= thresholdProfit:
		sig := Signal{
			Type:   SignalClose,
			Reason: fmt.Sprintf("Profit target hit: %s >= %s", formatUSD(pnl), formatUSD(thresholdProfit)),
			Action: "Close position to lock in profit",
		}
		log.Warn().Str("reason", sig.Reason).Msg("PROFIT TARGET HIT")
		return sig
	case pnl <= thresholdLoss:
		sig := Signal{
			Type:   SignalClose,
			Reason: fmt.Sprintf("Stop loss hit: %s <= %s", formatUSD(pnl), formatUSD(thresholdLoss)),
			Action: "Close position to limit loss",
		}
		log.Warn().Str("reason", sig.Reason).Msg("STOP LOSS HIT")
		return sig
	default:
		return Signal{
			Type:   SignalHold,
			Reason: fmt.Sprintf("P&L %s within acceptable range", formatUSD(pnl)),
			Action: "Continue monitoring",
		}
	}
}

// formatUSD renders a dollar amount with thousands separators, e.g.
// $-45,000.00.
func formatUSD(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	dot := strings.IndexByte(s, '.')
	intPart, frac := s[:dot], s[dot:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	sign := ""
	if neg {
		sign = "-"
	}
	return "$" + sign + b.String() + frac
}

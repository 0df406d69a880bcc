package domain

import "time"

// Direction is the fixed-leg side of a swap position.
type Direction string

const (
	PayFixed Direction = "PAY_FIXED"
	RcvFixed Direction = "RCV_FIXED"
)

// Sign returns the P&L sign convention for the direction: a fixed-rate payer
// is long rates (gains when rates rise), a receiver is short rates.
func (d Direction) Sign() float64 {
	if d == PayFixed {
		return 1
	}
	return -1
}

// Valid reports whether d is one of the two known directions.
func (d Direction) Valid() bool {
	return d == PayFixed || d == RcvFixed
}

// Position is an open interest-rate swap position. Positions are created by
// the persistence layer and are read-only to the risk engine.
type Position struct {
	PositionID   string    `json:"position_id" db:"position_id"`
	TradeDate    time.Time `json:"trade_date" db:"trade_date"`
	MaturityDate time.Time `json:"maturity_date" db:"maturity_date"`
	Notional     float64   `json:"notional" db:"notional"`
	FixedRate    float64   `json:"fixed_rate" db:"fixed_rate"`
	FloatIndex   string    `json:"float_index" db:"float_index"`
	PayReceive   Direction `json:"pay_receive" db:"pay_receive"`
	Currency     string    `json:"currency" db:"currency"`
}

// MarketRate is one observed swap rate for a tenor.
type MarketRate struct {
	Tenor     string    `json:"tenor" db:"tenor"`
	Currency  string    `json:"currency" db:"currency"`
	MidRate   float64   `json:"mid_rate" db:"mid_rate"`
	BidRate   float64   `json:"bid_rate" db:"bid_rate"`
	AskRate   float64   `json:"ask_rate" db:"ask_rate"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// PnLResult is the mark-to-market outcome for a single position.
type PnLResult struct {
	PositionID    string  `json:"position_id"`
	EntryRate     float64 `json:"entry_rate"`
	CurrentRate   float64 `json:"current_rate"`
	RateChangeBps float64 `json:"rate_change_bps"`
	DV01          float64 `json:"dv01"`
	PnL           float64 `json:"pnl"`
	Notional      float64 `json:"notional"`
}

// ThresholdSet holds the derived close bounds for a position. ProfitTarget is
// positive, StopLoss negative.
type ThresholdSet struct {
	PositionID   string  `json:"position_id"`
	ProfitTarget float64 `json:"profit_target"`
	StopLoss     float64 `json:"stop_loss"`
}

// SignalType classifies an evaluation outcome.
type SignalType string

const (
	SignalClose SignalType = "CLOSE"
	SignalHold  SignalType = "HOLD"
)

// Signal is the ephemeral result of evaluating one P&L figure against its
// thresholds.
type Signal struct {
	Type   SignalType `json:"signal"`
	Reason string     `json:"reason"`
	Action string     `json:"action"`
}

// TradeSignal is the persisted form of a Signal, written by the decision
// agents and read back for the dashboard.
type TradeSignal struct {
	SignalID          string     `json:"signal_id" db:"signal_id"`
	PositionID        string     `json:"position_id" db:"position_id"`
	SignalType        SignalType `json:"signal_type" db:"signal_type"`
	CurrentPnL        float64    `json:"current_pnl" db:"current_pnl"`
	Reason            string     `json:"reason" db:"reason"`
	RecommendedAction string     `json:"recommended_action" db:"recommended_action"`
	Timestamp         time.Time  `json:"timestamp" db:"timestamp"`
	Executed          bool       `json:"executed" db:"executed"`
}

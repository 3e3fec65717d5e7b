package models

import "time"

// PaperTrade is a simulated position. Rows are created at entry and
// mutated exactly once more, at close, to set the exit fields.
type PaperTrade struct {
	ID             string     `json:"id"`
	Currency       string     `json:"currency"`
	EntryTimestamp time.Time  `json:"entry_timestamp"`
	ExitTimestamp  *time.Time `json:"exit_timestamp,omitempty"`
	EntryAPR       float64    `json:"entry_apr"`
	ExitAPR        float64    `json:"exit_apr"`
	HoldingMinutes int        `json:"holding_minutes"`
	BorrowCost     float64    `json:"borrow_cost"`
	WithdrawalFee  float64    `json:"withdrawal_fee"`
	RealizedPnL    float64    `json:"realized_pnl"` // ROI percent of capital base
	ExitReason     string     `json:"exit_reason,omitempty"`
	SignalSnapshot string     `json:"signal_snapshot,omitempty"` // serialized entry signal, for audit
}

// IsOpen reports whether the trade has not been closed yet.
func (t *PaperTrade) IsOpen() bool {
	return t.ExitTimestamp == nil
}

// Exit reasons recorded at close. The hour counts are appended for audit,
// e.g. "Regime Decay (Earn:1h, Borrow:2h)".
const (
	ExitReasonDecay       = "Regime Decay"
	ExitReasonNegativeEV  = "Negative RA-EV"
	ExitReasonMaxDuration = "Max Duration"
)

// TradeEvent is published to Kafka when a trade opens or closes.
type TradeEvent struct {
	Type        string     `json:"type"` // "opened" | "closed"
	TradeID     string     `json:"trade_id"`
	Currency    string     `json:"currency"`
	EntryAPR    float64    `json:"entry_apr"`
	ExitAPR     float64    `json:"exit_apr,omitempty"`
	EntryTime   time.Time  `json:"entry_time"`
	ExitTime    *time.Time `json:"exit_time,omitempty"`
	RealizedPnL float64    `json:"realized_pnl,omitempty"`
	ExitReason  string     `json:"exit_reason,omitempty"`
}

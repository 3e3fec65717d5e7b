package models

// PerformanceStats aggregates closed paper trades over a trailing window.
// With zero trades all numeric fields are zero and SystemReady is false.
type PerformanceStats struct {
	TotalTrades      int     `json:"total_trades"`
	WinningTrades    int     `json:"winning_trades"`
	WinRate          float64 `json:"win_rate"`
	CumulativeReturn float64 `json:"cumulative_return"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	SharpeRatio      float64 `json:"sharpe_ratio"`
	WindowDays       int     `json:"window_days"`
	SystemReady      bool    `json:"system_ready"`
}

package backtest

import (
	"time"
)

// Exit reasons
const (
	ExitStop        = "stop"
	ExitTarget      = "target"
	ExitOverbought  = "rsi_overbought"
	ExitInvalidated = "invalidated"
	ExitTime        = "time"
	ExitEndOfData   = "end_of_data"
	ExitOpen        = "open"
)

// Trade is a single simulated trade. ExitDate is nil for a position that was
// still open when the simulation window ended; its metrics are unrealized.
type Trade struct {
	EntryDate      time.Time  `json:"entry_date"`
	EntryPrice     float64    `json:"entry_price"`
	ExitDate       *time.Time `json:"exit_date"`
	ExitPrice      float64    `json:"exit_price"`
	Shares         int        `json:"shares"`
	Stop           float64    `json:"stop"`
	Target         float64    `json:"target,omitempty"`
	ProfitAbsolute float64    `json:"profit_absolute"`
	ReturnPct      float64    `json:"return_pct"`
	RMultiple      float64    `json:"r_multiple"` // Return in R (risk units)
	IsWin          bool       `json:"is_win"`
	ExitReason     string     `json:"exit_reason"`
}

// Closed reports whether the trade has been exited
func (t Trade) Closed() bool {
	return t.ExitDate != nil
}

// position is the single open position of a simulation
type position struct {
	entryDate  time.Time
	entryPrice float64
	shares     int
	stop       float64
	target     float64
	days       int
}

func openPosition(date time.Time, price float64, shares int, stop, target float64) *position {
	return &position{
		entryDate:  date,
		entryPrice: price,
		shares:     shares,
		stop:       stop,
		target:     target,
	}
}

// close realizes the position at price. A zero date leaves the trade open.
func (p *position) close(date time.Time, price float64, reason string) Trade {
	t := Trade{
		EntryDate:  p.entryDate,
		EntryPrice: p.entryPrice,
		ExitPrice:  price,
		Shares:     p.shares,
		Stop:       p.stop,
		Target:     p.target,
		ExitReason: reason,
	}
	if !date.IsZero() {
		d := date
		t.ExitDate = &d
	}

	t.ProfitAbsolute = float64(p.shares) * (price - p.entryPrice)
	t.ReturnPct = (price - p.entryPrice) / p.entryPrice * 100
	if risk := p.entryPrice - p.stop; risk > 0 {
		t.RMultiple = (price - p.entryPrice) / risk
	}
	t.IsWin = t.ProfitAbsolute > 0
	return t
}

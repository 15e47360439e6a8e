package engine

import (
	"log"
	"sync"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/shopspring/decimal"
)

// Bankroll is a point-in-time snapshot of the managed funds.
type Bankroll struct {
	Initial  decimal.Decimal `json:"initial"`
	Current  decimal.Decimal `json:"current"`
	DailyPnL decimal.Decimal `json:"daily_pnl"`
}

// RiskOptions configures a RiskManager; zero values take defaults.
type RiskOptions struct {
	InitialBankroll float64
	MaxRiskPerBet   float64
	MaxDailyLoss    float64
	// ResetSchedule is a cron expression for the daily PnL boundary.
	ResetSchedule string
}

// RiskManager tracks the bankroll and enforces per-bet and per-day
// risk caps. Daily PnL resets lazily at the configured schedule
// boundary, checked on every operation.
type RiskManager struct {
	mu sync.Mutex

	initial  decimal.Decimal
	current  decimal.Decimal
	dailyPnL decimal.Decimal

	maxRiskPerBet float64
	maxDailyLoss  float64

	schedule  *cronexpr.Expression
	nextReset time.Time
	now       func() time.Time

	logger *log.Logger
}

// NewRiskManager builds a RiskManager with current = initial and a
// zero daily PnL.
func NewRiskManager(opts RiskOptions, logger *log.Logger) (*RiskManager, error) {
	if logger == nil {
		logger = log.New(log.Writer(), "[RISK] ", log.LstdFlags)
	}
	if opts.InitialBankroll == 0 {
		opts.InitialBankroll = 10000
	}
	if opts.MaxRiskPerBet == 0 {
		opts.MaxRiskPerBet = 0.05
	}
	if opts.MaxDailyLoss == 0 {
		opts.MaxDailyLoss = 0.10
	}
	if opts.ResetSchedule == "" {
		opts.ResetSchedule = "0 0 * * *"
	}

	schedule, err := cronexpr.Parse(opts.ResetSchedule)
	if err != nil {
		return nil, err
	}

	initial := decimal.NewFromFloat(opts.InitialBankroll)
	rm := &RiskManager{
		initial:       initial,
		current:       initial,
		dailyPnL:      decimal.Zero,
		maxRiskPerBet: opts.MaxRiskPerBet,
		maxDailyLoss:  opts.MaxDailyLoss,
		schedule:      schedule,
		now:           time.Now,
		logger:        logger,
	}
	rm.nextReset = schedule.Next(rm.now())
	return rm, nil
}

// CalculateBetAmount converts a recommended stake fraction into a
// currency amount. The fraction is derated by confidence, clamped at
// the per-bet cap, and forced to exactly zero once the daily loss
// circuit breaker has tripped.
func (r *RiskManager) CalculateBetAmount(betFraction, confidence float64) decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetDailyIfDue()

	adjusted := betFraction * confidence
	if adjusted > r.maxRiskPerBet {
		adjusted = r.maxRiskPerBet
	}

	lossCap := r.initial.Mul(decimal.NewFromFloat(r.maxDailyLoss))
	if r.dailyPnL.Abs().GreaterThanOrEqual(lossCap) {
		r.logger.Printf("daily loss limit reached, betting stopped")
		return decimal.Zero
	}

	amount := r.current.Mul(decimal.NewFromFloat(adjusted))
	r.logger.Printf("bet amount %s (%.2f%% of bankroll)", amount.StringFixed(2), adjusted*100)
	return amount
}

// UpdateBankroll applies a realized profit or loss to both the
// current balance and the daily PnL. The balance is deliberately not
// clamped at zero; the circuit breaker halts betting well before.
func (r *RiskManager) UpdateBankroll(pnl decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetDailyIfDue()

	r.current = r.current.Add(pnl)
	r.dailyPnL = r.dailyPnL.Add(pnl)
	r.logger.Printf("bankroll updated: %s (daily pnl %s)", r.current.StringFixed(2), r.dailyPnL.StringFixed(2))
}

// Snapshot returns the current bankroll state.
func (r *RiskManager) Snapshot() Bankroll {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resetDailyIfDue()

	return Bankroll{Initial: r.initial, Current: r.current, DailyPnL: r.dailyPnL}
}

// resetDailyIfDue zeroes the daily PnL once the schedule boundary has
// passed. Callers must hold the mutex.
func (r *RiskManager) resetDailyIfDue() {
	now := r.now()
	if now.Before(r.nextReset) {
		return
	}
	r.dailyPnL = decimal.Zero
	r.nextReset = r.schedule.Next(now)
	r.logger.Printf("daily pnl reset, next boundary %s", r.nextReset.Format(time.RFC3339))
}

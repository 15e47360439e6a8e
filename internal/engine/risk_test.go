package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestRiskManager(t *testing.T) *RiskManager {
	t.Helper()
	rm, err := NewRiskManager(RiskOptions{}, nil)
	if err != nil {
		t.Fatalf("NewRiskManager failed: %v", err)
	}
	return rm
}

func TestCalculateBetAmount(t *testing.T) {
	rm := newTestRiskManager(t)
	// 0.04 * 0.8 = 0.032 of 10000 = 320
	amount := rm.CalculateBetAmount(0.04, 0.8)
	if !amount.Equal(decimal.NewFromFloat(320)) {
		t.Fatalf("bet amount = %s, want 320", amount)
	}
}

func TestCalculateBetAmountClampsPerBet(t *testing.T) {
	rm := newTestRiskManager(t)
	// 0.2 * 0.9 = 0.18 clamps at maxRiskPerBet 0.05 -> 500
	amount := rm.CalculateBetAmount(0.2, 0.9)
	if !amount.Equal(decimal.NewFromFloat(500)) {
		t.Fatalf("bet amount = %s, want 500", amount)
	}
}

func TestCircuitBreakerReturnsExactlyZero(t *testing.T) {
	rm := newTestRiskManager(t)
	rm.UpdateBankroll(decimal.NewFromFloat(-1000)) // 10% of the 10000 initial

	amount := rm.CalculateBetAmount(0.05, 1.0)
	if !amount.IsZero() {
		t.Fatalf("bet amount = %s, want exactly zero after daily loss cap", amount)
	}

	// Winning it back in the same day also trips the breaker: the cap
	// is on absolute daily PnL.
	rm2 := newTestRiskManager(t)
	rm2.UpdateBankroll(decimal.NewFromFloat(1000))
	if !rm2.CalculateBetAmount(0.05, 1.0).IsZero() {
		t.Fatalf("absolute daily pnl at cap must stop betting")
	}
}

func TestUpdateBankrollUnconditional(t *testing.T) {
	rm := newTestRiskManager(t)
	rm.UpdateBankroll(decimal.NewFromFloat(-15000))

	snap := rm.Snapshot()
	if !snap.Current.Equal(decimal.NewFromFloat(-5000)) {
		t.Fatalf("current = %s, want -5000 (no clamp at zero)", snap.Current)
	}
	if !snap.DailyPnL.Equal(decimal.NewFromFloat(-15000)) {
		t.Fatalf("daily pnl = %s, want -15000", snap.DailyPnL)
	}
	if !snap.Initial.Equal(decimal.NewFromFloat(10000)) {
		t.Fatalf("initial must not change, got %s", snap.Initial)
	}
}

func TestDailyPnLResetsAtBoundary(t *testing.T) {
	rm := newTestRiskManager(t)

	current := time.Date(2025, 10, 17, 22, 0, 0, 0, time.UTC)
	rm.now = func() time.Time { return current }
	rm.nextReset = rm.schedule.Next(current)

	rm.UpdateBankroll(decimal.NewFromFloat(-1000))
	if !rm.CalculateBetAmount(0.05, 1.0).IsZero() {
		t.Fatalf("breaker should be tripped before midnight")
	}

	// Past midnight the daily PnL clears but the balance stays down.
	current = time.Date(2025, 10, 18, 0, 1, 0, 0, time.UTC)
	snap := rm.Snapshot()
	if !snap.DailyPnL.IsZero() {
		t.Fatalf("daily pnl = %s, want zero after reset", snap.DailyPnL)
	}
	if !snap.Current.Equal(decimal.NewFromFloat(9000)) {
		t.Fatalf("current = %s, want 9000", snap.Current)
	}
	if rm.CalculateBetAmount(0.05, 1.0).IsZero() {
		t.Fatalf("betting should resume after the daily reset")
	}
}

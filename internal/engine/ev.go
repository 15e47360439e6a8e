package engine

import "fmt"

const evThreshold = 0.05

// BetCandidate describes the best-EV outcome of an analysis.
type BetCandidate struct {
	Outcome           string  `json:"outcome"`
	EV                float64 `json:"ev"`
	Probability       float64 `json:"probability"`
	Odds              float64 `json:"odds"`
	BetSizePercentage float64 `json:"bet_size_percentage"`
}

// MarketEfficiency reports the bookmaker margin bucketed into
// high/medium/low efficiency.
type MarketEfficiency struct {
	BookmakerMargin         float64 `json:"bookmaker_margin"`
	Efficiency              string  `json:"efficiency"`
	ImpliedProbabilityTotal float64 `json:"implied_probability_total"`
}

// EVAnalysis is the full expected-value assessment of one prediction
// against market odds.
type EVAnalysis struct {
	ShouldBet        bool               `json:"should_bet"`
	Recommendation   string             `json:"recommendation"`
	BestBet          BetCandidate       `json:"best_bet"`
	AllEVs           map[string]float64 `json:"all_evs"`
	MarketEfficiency MarketEfficiency   `json:"market_efficiency"`
}

// MarketOdds holds decimal odds for the three match outcomes.
// Zero-value fields take the soft defaults used by the estimator.
type MarketOdds struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

func (o MarketOdds) withDefaults() MarketOdds {
	if o.Home == 0 {
		o.Home = 2.0
	}
	if o.Draw == 0 {
		o.Draw = 3.5
	}
	if o.Away == 0 {
		o.Away = 2.5
	}
	return o
}

// CalculateExpectedValue computes per-outcome EV, picks the best
// outcome (ties broken by the fixed home/draw/away order, first
// strictly greater wins), and sizes a fractional-Kelly stake when
// both the EV and confidence gates pass. Failing gate reasons are
// reported independently.
func (e *Engine) CalculateExpectedValue(prediction *EnsembleResult, odds MarketOdds) EVAnalysis {
	odds = odds.withDefaults()

	type outcome struct {
		name string
		ev   float64
		prob float64
		odds float64
	}
	outcomes := []outcome{
		{"home_win", prediction.HomeWinProb*odds.Home - 1, prediction.HomeWinProb, odds.Home},
		{"draw", prediction.DrawProb*odds.Draw - 1, prediction.DrawProb, odds.Draw},
		{"away_win", prediction.AwayWinProb*odds.Away - 1, prediction.AwayWinProb, odds.Away},
	}

	best := outcomes[0]
	for _, o := range outcomes[1:] {
		if o.ev > best.ev {
			best = o
		}
	}

	shouldBet := best.ev > evThreshold && prediction.Confidence >= e.confidenceThreshold

	var betSize float64
	var recommendation string
	if shouldBet {
		betSize = e.CalculateKellyBet(best.prob, best.odds)
		recommendation = fmt.Sprintf(
			"bet recommended on %s: EV %.2f%%, stake %.2f%% of bankroll, win probability %.2f%%, odds %.2f",
			best.name, best.ev*100, betSize*100, best.prob*100, best.odds)
	} else {
		var reasons []string
		if best.ev <= evThreshold {
			reasons = append(reasons, fmt.Sprintf("best EV %.2f%% below threshold %.2f%%", best.ev*100, evThreshold*100))
		}
		if prediction.Confidence < e.confidenceThreshold {
			reasons = append(reasons, fmt.Sprintf("confidence %.2f%% too low", prediction.Confidence*100))
		}
		recommendation = "no bet recommended"
		for i, r := range reasons {
			if i == 0 {
				recommendation += " - " + r
			} else {
				recommendation += "; " + r
			}
		}
	}

	return EVAnalysis{
		ShouldBet:      shouldBet,
		Recommendation: recommendation,
		BestBet: BetCandidate{
			Outcome:           best.name,
			EV:                best.ev,
			Probability:       best.prob,
			Odds:              best.odds,
			BetSizePercentage: betSize,
		},
		AllEVs: map[string]float64{
			"home_ev": outcomes[0].ev,
			"draw_ev": outcomes[1].ev,
			"away_ev": outcomes[2].ev,
		},
		MarketEfficiency: marketEfficiency(odds),
	}
}

// CalculateKellyBet sizes a stake with the Kelly criterion
// f* = (p*b - q)/b where b = odds-1 and q = 1-p, scaled by the
// fractional-Kelly multiplier and capped at the max bet percentage.
func (e *Engine) CalculateKellyBet(winProb, odds float64) float64 {
	b := odds - 1
	if b <= 0 {
		return 0
	}
	q := 1 - winProb
	kelly := (winProb*b - q) / b
	fractional := kelly * e.kellyFraction

	if fractional < 0 {
		return 0
	}
	if fractional > e.maxBetPercentage {
		return e.maxBetPercentage
	}
	return fractional
}

func marketEfficiency(odds MarketOdds) MarketEfficiency {
	impliedTotal := 1/odds.Home + 1/odds.Draw + 1/odds.Away
	margin := impliedTotal - 1.0

	efficiency := "low"
	switch {
	case margin < 0.05:
		efficiency = "high"
	case margin < 0.08:
		efficiency = "medium"
	}

	return MarketEfficiency{
		BookmakerMargin:         margin,
		Efficiency:              efficiency,
		ImpliedProbabilityTotal: impliedTotal,
	}
}

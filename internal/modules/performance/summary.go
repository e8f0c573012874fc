package performance

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// tradingDaysPerYear is the conventional annualization factor for daily data
const tradingDaysPerYear = 252

// summarize computes descriptive statistics over the rendered portfolio
// series. Returns nil when the series is too short to say anything useful.
func summarize(portfolio []SeriesPoint) *Summary {
	if len(portfolio) < 2 {
		return nil
	}

	// Point-to-point daily returns of the rendered curve. The curve is a
	// display metric, so simple growth-factor ratios are sufficient here.
	returns := make([]float64, 0, len(portfolio)-1)
	for i := 1; i < len(portfolio); i++ {
		prev := 1 + portfolio[i-1].ChangePercent/100
		curr := 1 + portfolio[i].ChangePercent/100
		if prev <= 0 {
			continue
		}
		returns = append(returns, (curr/prev-1)*100)
	}
	if len(returns) == 0 {
		return nil
	}

	mean := stat.Mean(returns, nil)
	stddev := 0.0
	if len(returns) > 1 {
		stddev = stat.StdDev(returns, nil)
	}

	return &Summary{
		CumulativeReturnPct: portfolio[len(portfolio)-1].ChangePercent,
		MeanDailyReturnPct:  mean,
		DailyVolatilityPct:  stddev,
		AnnualVolatilityPct: stddev * math.Sqrt(tradingDaysPerYear),
		MaxDrawdownPct:      maxDrawdown(portfolio),
		ObservedTradingDays: len(portfolio),
	}
}

// maxDrawdown is the largest peak-to-trough decline of the rendered curve,
// expressed as a positive percentage
func maxDrawdown(portfolio []SeriesPoint) float64 {
	peak := math.Inf(-1)
	worst := 0.0
	for _, point := range portfolio {
		growth := 1 + point.ChangePercent/100
		if growth > peak {
			peak = growth
		}
		if peak > 0 {
			drawdown := (peak - growth) / peak * 100
			if drawdown > worst {
				worst = drawdown
			}
		}
	}
	return worst
}

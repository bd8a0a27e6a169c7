// Package analysis computes season performance summaries from the aggregate
// portfolio value curve for the settlement view.
package analysis

import "math"

// TradingDaysPerYear scales daily volatility to an annual figure.
const TradingDaysPerYear = 252

// DayMove is a single day's fractional return.
type DayMove struct {
	Day    int
	Return float64
}

// Report summarizes one season's aggregate curve. All returns are fractions,
// not percentages.
type Report struct {
	TotalReturn float64
	MaxDrawdown float64
	Volatility  float64
	BestDay     DayMove
	WorstDay    DayMove
	UpDayRate   float64
}

// Summarize builds a report from the day-indexed aggregate portfolio values.
// Fewer than two points yields an empty report whose day indexes are -1 so
// callers can tell it apart from a real flat curve.
func Summarize(values []float64) Report {
	if len(values) < 2 || values[0] == 0 {
		return Report{BestDay: DayMove{Day: -1}, WorstDay: DayMove{Day: -1}}
	}

	var rep Report
	rep.TotalReturn = values[len(values)-1]/values[0] - 1
	rep.BestDay = DayMove{Day: -1, Return: math.Inf(-1)}
	rep.WorstDay = DayMove{Day: -1, Return: math.Inf(1)}

	peak := values[0]
	upDays := 0
	returns := make([]float64, 0, len(values)-1)

	for i := 1; i < len(values); i++ {
		if values[i] > peak {
			peak = values[i]
		}
		if peak > 0 {
			if dd := 1 - values[i]/peak; dd > rep.MaxDrawdown {
				rep.MaxDrawdown = dd
			}
		}

		if values[i-1] == 0 {
			continue
		}
		r := values[i]/values[i-1] - 1
		returns = append(returns, r)
		if r > 0 {
			upDays++
		}
		if r > rep.BestDay.Return {
			rep.BestDay = DayMove{Day: i, Return: r}
		}
		if r < rep.WorstDay.Return {
			rep.WorstDay = DayMove{Day: i, Return: r}
		}
	}

	if len(returns) > 0 {
		rep.UpDayRate = float64(upDays) / float64(len(returns))
		rep.Volatility = stddev(returns) * math.Sqrt(TradingDaysPerYear)
	}
	if math.IsInf(rep.BestDay.Return, 0) {
		rep.BestDay = DayMove{Day: -1}
		rep.WorstDay = DayMove{Day: -1}
	}
	return rep
}

func stddev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var sum float64
	for _, x := range xs {
		d := x - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

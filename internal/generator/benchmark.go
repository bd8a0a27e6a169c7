package generator

import (
	"math"

	"wallstreet-rpg/internal/models"
	"wallstreet-rpg/pkg/utils"
)

// BenchmarkSymbol names the synthetic index series.
const BenchmarkSymbol = "^IDX"

// benchmarkLevels is a coarse year -> index level table. Levels between
// anchor years are linearly interpolated. Deliberately cruder than the
// per-symbol catalog: the index is a comparison baseline, not a tradeable.
var benchmarkLevels = map[int]float64{
	1920: 9, 1930: 18, 1940: 12, 1950: 20, 1960: 58,
	1970: 92, 1980: 125, 1990: 350, 2000: 1420, 2010: 1150,
	2020: 3250, 2030: 5600,
}

// benchmarkTrends is a crude year -> annual drift table for the index.
// Years not listed drift mildly upward.
var benchmarkTrends = map[int]float64{
	1929: -0.35, 1930: -0.25, 1931: -0.30, 1937: -0.20,
	1973: -0.18, 1974: -0.22, 1987: -0.15, 2000: -0.18,
	2001: -0.14, 2002: -0.16, 2008: -0.35, 2020: -0.08,
	2009: 0.22, 1933: 0.30, 1995: 0.25, 1999: 0.20, 2021: 0.24,
}

const benchmarkVolatility = 0.01

// Benchmark generates the deterministic index series for a year. It uses
// the same seeded stream machinery as Historical but its own level and
// trend tables and a flat, low volatility.
func (g *Generator) Benchmark(year int) Series {
	rng := newLCG(BenchmarkSymbol, year).Float64

	level := benchmarkLevel(year)
	trend, ok := benchmarkTrends[year]
	if !ok {
		trend = 0.04 + rng()*0.04
	}
	dailyTrend := trend / float64(TradingDays)

	candles := make([]models.Candle, 0, TradingDays)
	day := utils.SeasonStart(year)
	open := level

	for i := 0; i < maxCalendarDays && len(candles) < TradingDays && day.Year() == year; i++ {
		if !utils.IsTradingDay(day) {
			day = day.AddDate(0, 0, 1)
			continue
		}

		vol := open * benchmarkVolatility
		close := open + (rng()-0.5)*2*vol + open*dailyTrend
		if close < priceFloor {
			close = priceFloor
		}
		span := math.Abs(close-open) + vol
		high := math.Max(open, close) + rng()*span*0.5
		low := math.Min(open, close) - rng()*span*0.5
		if low < priceFloor {
			low = priceFloor
		}

		candles = append(candles, models.Candle{
			Time:   day.Format("2006-01-02"),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: 0,
		})

		open = close
		day = day.AddDate(0, 0, 1)
	}

	return Series{Symbol: BenchmarkSymbol, StockName: "Composite Index", Year: year, Candles: candles}
}

func benchmarkLevel(year int) float64 {
	if lvl, ok := benchmarkLevels[year]; ok {
		return lvl
	}
	lo := (year / 10) * 10
	hi := lo + 10
	loLvl, okLo := benchmarkLevels[lo]
	hiLvl, okHi := benchmarkLevels[hi]
	switch {
	case okLo && okHi:
		return loLvl + (hiLvl-loLvl)*float64(year-lo)/10
	case okLo:
		return loLvl
	case okHi:
		return hiLvl
	default:
		return 100
	}
}

package generator

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	"wallstreet-rpg/internal/catalog"
)

// Property: for any symbol and year, regeneration is byte-identical and every
// candle satisfies the OHLC ordering invariant.
func TestProperty_SeriesDeterministicAndWellFormed(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	g := New(catalog.MustLoad(), zerolog.Nop())
	symbols := []string{"AAPL", "KO", "XOM", "NVDA", "JNJ", "NOCAT"}

	properties.Property("regeneration replays identical candles", prop.ForAll(
		func(symbolIdx, year int) bool {
			symbol := symbols[symbolIdx]
			a := g.Historical(symbol, year)
			b := g.Historical(symbol, year)
			if len(a.Candles) != len(b.Candles) {
				return false
			}
			for i := range a.Candles {
				if a.Candles[i] != b.Candles[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, len(symbols)-1),
		gen.IntRange(MinYear, MaxYear),
	))

	properties.Property("every candle has high >= body >= low > 0 and continuity holds", prop.ForAll(
		func(symbolIdx, year int) bool {
			s := g.Historical(symbols[symbolIdx], year)
			prev := -1.0
			for _, c := range s.Candles {
				hi, lo := c.Open, c.Open
				if c.Close > hi {
					hi = c.Close
				}
				if c.Close < lo {
					lo = c.Close
				}
				if c.High < hi || c.Low > lo || c.Low <= 0 {
					return false
				}
				if prev >= 0 && c.Open != prev {
					return false
				}
				prev = c.Close
			}
			return len(s.Candles) > 0 && len(s.Candles) <= TradingDays
		},
		gen.IntRange(0, len(symbols)-1),
		gen.IntRange(MinYear, MaxYear),
	))

	properties.TestingRun(t)
}

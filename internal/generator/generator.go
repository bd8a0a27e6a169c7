// Package generator produces synthetic full-year OHLCV price series with
// regime-dependent trend and volatility. Historical series are pure and
// deterministic per (symbol, year); the random mode draws a fresh sample
// on every call.
package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"wallstreet-rpg/internal/catalog"
	"wallstreet-rpg/internal/models"
	"wallstreet-rpg/pkg/utils"
)

const (
	// TradingDays is the target number of weekday candles per year.
	TradingDays = 252
	// maxCalendarDays bounds day iteration so a degenerate calendar can
	// never loop forever.
	maxCalendarDays = 370

	// MinYear and MaxYear bound the random sampling range.
	MinYear = 1925
	MaxYear = 2025

	priceFloor = 0.01
)

// Series is one generated trading year for a single instrument.
type Series struct {
	Symbol    string
	StockName string
	Year      int
	Candles   []models.Candle
}

// Generator builds synthetic price series from the catalog and event
// calendar.
type Generator struct {
	cat *catalog.Catalog
	rnd *rand.Rand
	log zerolog.Logger
}

// New creates a Generator.
func New(cat *catalog.Catalog, logger zerolog.Logger) *Generator {
	return &Generator{
		cat: cat,
		rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
		log: logger.With().Str("component", "generator").Logger(),
	}
}

// Historical generates the deterministic series for (symbol, year).
// Identical inputs always yield identical output.
func (g *Generator) Historical(symbol string, year int) Series {
	rng := newLCG(symbol, year)
	return g.build(symbol, year, rng.Float64)
}

// Random picks a uniformly random year in [MinYear, MaxYear], a random
// symbol available in that year, and generates a non-reproducible series.
func (g *Generator) Random() Series {
	year := MinYear + g.rnd.Intn(MaxYear-MinYear+1)
	eligible := g.cat.InEra(year)
	if len(eligible) == 0 {
		// Catalog always has century-spanning symbols; guard anyway.
		return g.build("SPX", year, g.rnd.Float64)
	}
	pick := eligible[g.rnd.Intn(len(eligible))]
	return g.build(pick.Symbol, year, g.rnd.Float64)
}

func (g *Generator) build(symbol string, year int, rng func() float64) Series {
	basePrice, name := g.resolveBase(symbol)

	events := g.cat.EventsForYear(year)
	yearTrend := yearTrendFor(events, rng)

	price := basePrice * eraPriceMultiplier(year)
	price *= 0.8 + rng()*0.4

	eraVol := eraVolatility(year)
	volumeBase := eraVolumeBase(year)
	dailyTrend := yearTrend / float64(TradingDays)

	candles := make([]models.Candle, 0, TradingDays)
	day := utils.SeasonStart(year)
	open := price

	for i := 0; i < maxCalendarDays && len(candles) < TradingDays && day.Year() == year; i++ {
		if !utils.IsTradingDay(day) {
			day = day.AddDate(0, 0, 1)
			continue
		}

		event, hasEvent := g.cat.EventForMonth(year, int(day.Month()))
		eventVol, eventMult := 1.0, 1.0
		if hasEvent {
			eventVol = eventVolatility(event)
			eventMult = eventMultiplier(event)
		}

		vol := open * eraVol * eventVol
		change := (rng()-0.5)*2*vol + open*dailyTrend*eventMult
		close := open + change
		if close < priceFloor {
			close = priceFloor
		}

		span := math.Abs(close-open) + vol
		high := math.Max(open, close) + rng()*span*0.5
		low := math.Min(open, close) - rng()*span*0.5
		if low < priceFloor {
			low = priceFloor
		}

		volume := int64(volumeBase * (0.5 + rng()) * eventVol)

		candles = append(candles, models.Candle{
			Time:   day.Format("2006-01-02"),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume,
		})

		open = close
		day = day.AddDate(0, 0, 1)
	}

	return Series{Symbol: symbol, StockName: name, Year: year, Candles: candles}
}

// resolveBase returns the catalog base price and display name, or a stable
// hash-derived fallback for symbols outside the catalog. Era gating affects
// draft availability only, never generation.
func (g *Generator) resolveBase(symbol string) (float64, string) {
	if e, ok := g.cat.Lookup(symbol); ok {
		return e.BasePrice, e.Name
	}
	var h uint32
	for _, ch := range symbol {
		h = h*31 + uint32(ch)
	}
	base := 25 + float64(h%80)
	g.log.Debug().Str("symbol", symbol).Float64("base", base).Msg("Symbol not in catalog, using hashed base price")
	return base, symbol
}

// yearTrendFor aggregates the calendar events of a year into a drift scalar.
// Quiet years get a small draw biased slightly upward to emulate long-run
// drift with occasional down years.
func yearTrendFor(events []models.MarketEvent, rng func() float64) float64 {
	if len(events) == 0 {
		return (rng() - 0.4) * 0.3
	}
	var trend float64
	for _, ev := range events {
		switch ev.Type {
		case models.EventCrash:
			trend -= ev.Magnitude * (0.3 + 0.7*rng())
		case models.EventBoom:
			trend += ev.Magnitude * (0.3 + 0.7*rng())
		case models.EventVolatile:
			trend += (rng() - 0.5) * ev.Magnitude
		}
		// Stable events damp nothing on trend; they only shape the
		// per-day volatility profile.
	}
	return trend
}

// eraPriceMultiplier scales the catalog base price into nominal dollars of
// the requested era.
func eraPriceMultiplier(year int) float64 {
	switch {
	case year < 1950:
		return 0.3
	case year < 1980:
		return 0.8
	case year < 2000:
		return 1.5
	case year < 2020:
		return 3
	default:
		return 5
	}
}

// eraVolatility is the base daily volatility fraction for the era.
func eraVolatility(year int) float64 {
	switch {
	case year < 1940:
		return 0.03
	case year < 1980:
		return 0.02
	default:
		return 0.025
	}
}

// eraVolumeBase is the era's baseline daily share volume.
func eraVolumeBase(year int) float64 {
	switch {
	case year < 1950:
		return 100_000
	case year < 1980:
		return 500_000
	case year < 2000:
		return 2_000_000
	default:
		return 10_000_000
	}
}

// eventVolatility is the volatility amplification for an event month.
func eventVolatility(ev models.MarketEvent) float64 {
	switch ev.Type {
	case models.EventCrash:
		return 2 + 3*ev.Magnitude
	case models.EventBoom:
		return 1.5 + 2*ev.Magnitude
	default: // volatile, stable
		return 2 + 2*ev.Magnitude
	}
}

// eventMultiplier is the drift bias for an event month: it concentrates the
// year trend into the months the event covers.
func eventMultiplier(ev models.MarketEvent) float64 {
	switch ev.Type {
	case models.EventCrash:
		return 1 + 2*ev.Magnitude
	case models.EventBoom:
		return 1 + 1.5*ev.Magnitude
	case models.EventStable:
		return 0.5
	default: // volatile
		return 1
	}
}

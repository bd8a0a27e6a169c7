// Package playback drives the simulated trading clock: one timer tick per
// simulated day, quarter-boundary pauses for re-drafts, and render-event
// emission for the chart layer.
package playback

import (
	"context"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"wallstreet-rpg/internal/draft"
	"wallstreet-rpg/internal/errors"
	"wallstreet-rpg/internal/fetch"
	"wallstreet-rpg/internal/ledger"
	"wallstreet-rpg/internal/metrics"
	"wallstreet-rpg/internal/models"
	"wallstreet-rpg/internal/stream"
)

// DisplayMode selects what the driver emits to the renderer.
type DisplayMode string

const (
	// ModeSingle emits the focused instrument's new-day candle.
	ModeSingle DisplayMode = "single"
	// ModeAggregate emits a synthetic candle over total asset value.
	ModeAggregate DisplayMode = "aggregate"
)

// QuarterPackSize is the number of cards offered at a quarter boundary.
const QuarterPackSize = 3

// Config holds driver options. Speed multiplies the one-tick-per-second
// base rate and must be in [1, 5].
type Config struct {
	Speed           int
	Mode            DisplayMode
	FocusPositionID string
}

// ValidateSpeed checks the speed multiplier range.
func ValidateSpeed(speed int) error {
	if speed < 1 || speed > 5 {
		return errors.ErrInvalidSpeed
	}
	return nil
}

// QuarterPack is a priced quarterly card pack delivered to the player.
type QuarterPack struct {
	Day    int
	Cards  []models.StockCard
	Infos  []models.CardPriceInfo
	Series map[string][]models.Candle
	Names  map[string]string
}

// Driver owns the playback loop for one season.
type Driver struct {
	ledger  *ledger.Ledger
	drafts  *draft.Generator
	fetcher *fetch.Client
	hub     *stream.Hub
	met     *metrics.Metrics
	cfg     Config
	log     zerolog.Logger

	mu        sync.Mutex
	running   bool
	stopCh    chan struct{}
	doneCh    chan struct{}
	lastTotal float64

	// quarterOpening guards the multi-suspension quarterly pricing fetch
	// against being started twice from overlapping ticks.
	quarterOpening atomic.Bool
	packCh         chan QuarterPack
}

// New creates a driver. met may be nil.
func New(l *ledger.Ledger, drafts *draft.Generator, fetcher *fetch.Client, hub *stream.Hub, met *metrics.Metrics, cfg Config, logger zerolog.Logger) (*Driver, error) {
	if err := ValidateSpeed(cfg.Speed); err != nil {
		return nil, err
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeAggregate
	}
	return &Driver{
		ledger:  l,
		drafts:  drafts,
		fetcher: fetcher,
		hub:     hub,
		met:     met,
		cfg:     cfg,
		log:     logger.With().Str("component", "playback").Logger(),
		packCh:  make(chan QuarterPack, 1),
	}, nil
}

// Packs delivers priced quarterly card packs as quarter boundaries open.
func (d *Driver) Packs() <-chan QuarterPack {
	return d.packCh
}

// Start launches the playback loop. Stopping is idempotent; the loop also
// exits on its own at settlement.
func (d *Driver) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	d.lastTotal = d.ledger.TotalAssets()
	go d.loop()
}

// Stop halts the loop. Cancellation is just clearing the clock: any
// in-flight quarterly pricing finishes and its pack is discarded if stale.
func (d *Driver) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	done := d.doneCh
	d.mu.Unlock()
	<-done
}

// Done is closed when the loop has exited.
func (d *Driver) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doneCh
}

func (d *Driver) loop() {
	defer close(d.doneCh)
	ticker := time.NewTicker(time.Second / time.Duration(d.cfg.Speed))
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			if settled := d.Tick(); settled {
				return
			}
		}
	}
}

// Tick advances the simulation by one step. It re-reads the phase from the
// ledger every time rather than trusting closed-over state: a transition
// made inside an earlier tick must suppress this one. Returns true once the
// season has settled.
func (d *Driver) Tick() bool {
	if d.quarterOpening.Load() {
		return false
	}

	switch d.ledger.Phase() {
	case models.PhaseSettlement:
		return true
	case models.PhasePlaying:
		// proceed
	default:
		return false
	}
	if !d.ledger.IsPlaying() {
		return false
	}

	day := d.ledger.CurrentDay()
	if day >= ledger.TradingDays {
		return d.settle()
	}

	if ledger.IsQuarterDay(day) {
		if err := d.ledger.EnterQuarterlyDraft(day); err == nil {
			d.quarterOpening.Store(true)
			go d.priceQuarterPack(day)
			return false
		}
		// Quarter already consumed: fall through and advance.
	}

	d.met.IncTick()
	d.ledger.AdvanceDay()
	newDay := d.ledger.CurrentDay()

	snap := d.ledger.Snapshot()
	for _, pos := range snap.Positions {
		if newDay < len(pos.Data) {
			if err := d.ledger.UpdatePositionPrice(pos.ID, pos.Data[newDay].Close, newDay); err != nil {
				d.log.Warn().Err(err).Str("symbol", pos.Symbol).Msg("Mark-to-market failed")
			}
		}
	}

	d.emit(newDay)
	return false
}

func (d *Driver) settle() bool {
	if err := d.ledger.Settle(); err != nil {
		d.log.Warn().Err(err).Msg("Settlement refused")
		return false
	}
	result := "defeat"
	if d.ledger.Victory() {
		result = "victory"
	}
	d.met.IncSeason(result)
	d.log.Info().Str("result", result).Float64("total_assets", d.ledger.TotalAssets()).Msg("Season settled")
	return true
}

// priceQuarterPack generates and prices a quarterly pack against AUM and
// current-day closes. Pricing spans one fetch per card; if the player has
// left the quarterly phase by the time it resolves, the pack is stale and
// simply discarded.
func (d *Driver) priceQuarterPack(day int) {
	defer d.quarterOpening.Store(false)

	snap := d.ledger.Snapshot()
	cards, err := d.drafts.Pack(snap.AUM, snap.SelectedYear, QuarterPackSize)
	if err != nil {
		d.log.Error().Err(err).Int("day", day).Msg("Quarterly pack generation failed, resuming play")
		if cerr := d.ledger.CancelQuarterlyDraft(); cerr != nil {
			d.log.Warn().Err(cerr).Msg("Could not resume play after failed pack")
		}
		return
	}

	symbols := make([]string, 0, len(cards))
	seen := make(map[string]bool)
	for _, c := range cards {
		if !seen[c.Symbol] {
			seen[c.Symbol] = true
			symbols = append(symbols, c.Symbol)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	series, names := d.fetcher.ResolveAdjusted(ctx, symbols, snap.SelectedYear)

	closes := make(map[string]float64, len(series))
	for sym, s := range series {
		if len(s) == 0 {
			continue
		}
		idx := day
		if idx >= len(s) {
			idx = len(s) - 1
		}
		closes[sym] = s[idx].Close
	}

	infos := d.drafts.PriceQuarterly(cards, closes, snap.AUM)
	d.met.IncDraft()

	if d.ledger.Phase() != models.PhaseQuarterlyDraft {
		d.log.Debug().Int("day", day).Msg("Phase changed during pricing, discarding stale pack")
		return
	}

	pack := QuarterPack{Day: day, Cards: cards, Infos: infos, Series: series, Names: names}
	select {
	case d.packCh <- pack:
	default:
		d.log.Warn().Int("day", day).Msg("Undelivered quarterly pack dropped")
	}
}

// emit publishes the day's render events: one candle (instrument or
// aggregate) and the full-history comparison line.
func (d *Driver) emit(day int) {
	snap := d.ledger.Snapshot()

	switch d.cfg.Mode {
	case ModeSingle:
		if pos, ok := d.focusPosition(snap); ok && day < len(pos.Data) {
			d.hub.Publish(models.NewCandleEvent(pos.Data[day], pos.ID))
		}
	default:
		prev, cur := d.lastTotal, snap.TotalAssets
		// High/low are padded for visual headroom only.
		candle := models.Candle{
			Time:   d.dayLabel(snap, day),
			Open:   prev,
			High:   math.Max(prev, cur) * 1.01,
			Low:    math.Min(prev, cur) * 0.99,
			Close:  cur,
			Volume: 0,
		}
		d.hub.Publish(models.NewCandleEvent(candle, "portfolio"))
	}
	d.lastTotal = snap.TotalAssets

	points := make([]models.PricePoint, 0, day+1)
	for i := 0; i <= day; i++ {
		points = append(points, models.PricePoint{Day: i, Price: d.ledger.AggregateValueAt(i)})
	}
	d.hub.Publish(models.ComparisonLineEvent(points))
}

func (d *Driver) focusPosition(snap ledger.Snapshot) (models.Position, bool) {
	if len(snap.Positions) == 0 {
		return models.Position{}, false
	}
	if d.cfg.FocusPositionID != "" {
		for _, pos := range snap.Positions {
			if pos.ID == d.cfg.FocusPositionID {
				return pos, true
			}
		}
	}
	return snap.Positions[0], true
}

func (d *Driver) dayLabel(snap ledger.Snapshot, day int) string {
	for _, pos := range snap.Positions {
		if day < len(pos.Data) {
			return pos.Data[day].Time
		}
	}
	return strconv.Itoa(day)
}

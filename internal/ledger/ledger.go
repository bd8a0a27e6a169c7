// Package ledger owns the portfolio state machine for a trading season:
// capital, open positions, the simulated day, and the game phase. All
// mutations go through ledger operations; derived totals are recomputed
// transactionally inside every mutator so no reader observes stale values.
package ledger

import (
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wallstreet-rpg/internal/errors"
	"wallstreet-rpg/internal/models"
)

const (
	// MaxPositions is the open-position cap.
	MaxPositions = 9
	// TradingDays is the length of a simulated year.
	TradingDays = 252
	// TargetMultiple is the asset multiple for outright victory.
	TargetMultiple = 1.5
	// DailyInflowRate is the fixed daily cash drip as a fraction of AUM.
	DailyInflowRate = 0.001

	// priceMatchTolerance flags displayed-vs-actual price drift. The
	// generator is deterministic, so any mismatch is a consistency bug;
	// the displayed value still wins.
	priceMatchTolerance = 1e-6
)

// QuarterDays are the day indexes where play pauses for a re-draft.
var QuarterDays = []int{63, 126, 189}

// Selection pairs a drafted card with its priced overlay and resolved
// series, ready to become a position.
type Selection struct {
	Card      models.StockCard
	Info      models.CardPriceInfo
	StockName string
	Series    []models.Candle
}

// Ledger is the season state. Safe for concurrent readers; mutations are
// serialized internally.
type Ledger struct {
	mu  sync.RWMutex
	log zerolog.Logger

	aum              float64
	realizedProfit   float64 // cash balance: spendable, includes sale proceeds and daily inflow
	unrealizedProfit float64 // mark-to-market value of open positions
	totalAssets      float64
	dailyInflow      float64
	targetAssets     float64
	alphaTarget      float64
	initialCost      float64

	currentDay   int
	selectedYear int
	playing      bool
	phase        models.GamePhase

	positions     []*models.Position
	quartersFired map[int]bool
	benchmark     []models.Candle
}

// New creates a ledger in the start phase.
func New(logger zerolog.Logger) *Ledger {
	return &Ledger{
		log:           logger.With().Str("component", "ledger").Logger(),
		phase:         models.PhaseStart,
		quartersFired: make(map[int]bool),
	}
}

// Initialize resets the ledger to the fixed initial state for a new season.
// Cash is deliberately not set here: it becomes aum minus the initial
// purchase cost only when the initial draft completes.
func (l *Ledger) Initialize(aum float64, year int, alphaTarget float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.aum = aum
	l.realizedProfit = 0
	l.unrealizedProfit = 0
	l.totalAssets = aum
	l.dailyInflow = aum * DailyInflowRate
	l.targetAssets = aum * TargetMultiple
	l.alphaTarget = alphaTarget
	l.initialCost = 0
	l.currentDay = 0
	l.selectedYear = year
	l.playing = false
	l.phase = models.PhaseDraft
	l.positions = nil
	l.quartersFired = make(map[int]bool)
	l.benchmark = nil

	l.log.Info().Float64("aum", aum).Int("year", year).Float64("alpha_target", alphaTarget).Msg("Season initialized")
}

// SetBenchmark installs the parallel index series used for the settlement
// comparison.
func (l *Ledger) SetBenchmark(candles []models.Candle) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.benchmark = candles
}

// CompleteInitialDraft converts the selected cards into positions and debits
// capital. The displayed card price is authoritative: positions are sized
// from the overlay, never from a re-fetched price. Post-condition:
// totalAssets equals aum to within floating tolerance.
func (l *Ledger) CompleteInitialDraft(selections []Selection) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase != models.PhaseDraft {
		return errors.NewLedgerError("CompleteInitialDraft", string(l.phase), errors.ErrInvalidPhase)
	}

	var totalCost float64
	for _, sel := range selections {
		totalCost += sel.Info.TotalCost
	}

	// Cash baseline first, so value computations during position-add see
	// the debited balance.
	l.realizedProfit = l.aum - totalCost
	l.initialCost = totalCost

	for _, sel := range selections {
		l.checkPriceMatch(sel, 0)
		pos := positionFromSelection(sel, 0)
		if err := l.addPositionLocked(pos); err != nil {
			l.log.Warn().Err(err).Str("symbol", sel.Card.Symbol).Msg("Initial draft position rejected")
		}
	}

	if diff := math.Abs(l.totalAssets - l.aum); diff > 0.01 {
		l.log.Error().Float64("total_assets", l.totalAssets).Float64("aum", l.aum).Float64("diff", diff).
			Msg("Conservation violated after initial draft")
	}

	l.phase = models.PhasePlaying
	l.playing = true
	l.log.Info().Float64("cost", totalCost).Float64("cash", l.realizedProfit).Int("positions", len(l.positions)).
		Msg("Initial draft complete")
	return nil
}

// AddPosition appends an open position. Rejected as a no-op when the
// portfolio already holds MaxPositions.
func (l *Ledger) AddPosition(pos *models.Position) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addPositionLocked(pos)
}

func (l *Ledger) addPositionLocked(pos *models.Position) error {
	if len(l.positions) >= MaxPositions {
		l.log.Warn().Str("symbol", pos.Symbol).Msg("Portfolio full, position rejected")
		return errors.ErrPortfolioFull
	}
	l.positions = append(l.positions, pos)
	l.recomputeTotals()
	return nil
}

// SellPosition credits the full mark-to-market proceeds to cash and removes
// the position. The sale itself leaves totalAssets unchanged.
func (l *Ledger) SellPosition(id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, pos := range l.positions {
		if pos.ID != id {
			continue
		}
		proceeds := pos.MarketValue()
		l.realizedProfit += proceeds
		l.positions = append(l.positions[:i], l.positions[i+1:]...)
		l.recomputeTotals()
		l.log.Info().Str("symbol", pos.Symbol).Int("quantity", pos.Quantity).Float64("proceeds", proceeds).Msg("Position sold")
		return nil
	}
	return errors.ErrPositionNotFound
}

// BuyMore adds quantity to an open position at the current price, debiting
// cash and recomputing the volume-weighted average buy price.
func (l *Ledger) BuyMore(id string, extraQty int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, pos := range l.positions {
		if pos.ID != id {
			continue
		}
		cost := pos.CurrentPrice * float64(extraQty)
		if cost > l.realizedProfit {
			l.log.Warn().Str("symbol", pos.Symbol).Float64("cost", cost).Float64("cash", l.realizedProfit).
				Msg("Buy-more rejected, insufficient cash")
			return errors.ErrInsufficientFunds
		}
		l.realizedProfit -= cost
		totalValue := pos.BuyPrice*float64(pos.Quantity) + cost
		pos.Quantity += extraQty
		pos.BuyPrice = totalValue / float64(pos.Quantity)
		l.recomputeTotals()
		l.log.Info().Str("symbol", pos.Symbol).Int("added", extraQty).Float64("avg_price", pos.BuyPrice).Msg("Position increased")
		return nil
	}
	return errors.ErrPositionNotFound
}

// AdvanceDay moves the simulated day forward and credits the daily capital
// inflow. Past the end of the year it is a no-op that also stops play.
// Returns false when the year is over.
func (l *Ledger) AdvanceDay() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentDay >= TradingDays {
		l.playing = false
		return false
	}
	l.currentDay++
	// The inflow is unconditional, not tied to performance.
	l.realizedProfit += l.dailyInflow
	l.recomputeTotals()
	return true
}

// UpdatePositionPrice marks a position to market for a simulated day.
func (l *Ledger) UpdatePositionPrice(id string, price float64, dayIndex int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, pos := range l.positions {
		if pos.ID != id {
			continue
		}
		pos.CurrentPrice = price
		pos.CurrentDayIndex = dayIndex
		l.recomputeTotals()
		return nil
	}
	return errors.ErrPositionNotFound
}

// EnterQuarterlyDraft transitions playing -> quarterly-draft for a quarter
// boundary day. The gate is structural: each boundary fires at most once per
// season, so duplicate tick delivery cannot open a second draft.
func (l *Ledger) EnterQuarterlyDraft(day int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase != models.PhasePlaying {
		return errors.ErrInvalidPhase
	}
	if !IsQuarterDay(day) {
		return errors.NewLedgerError("EnterQuarterlyDraft", "not a quarter boundary", errors.ErrInvalidPhase)
	}
	if l.quartersFired[day] {
		return errors.ErrQuarterAlreadyRun
	}
	l.quartersFired[day] = true
	l.phase = models.PhaseQuarterlyDraft
	l.playing = false
	l.log.Info().Int("day", day).Msg("Quarterly draft opened")
	return nil
}

// CompleteQuarterlySelect buys the selected quarterly card. The quantity is
// clamped to remaining cash when the displayed cost is no longer affordable;
// the buy and current price come from the actual close at the current day.
func (l *Ledger) CompleteQuarterlySelect(sel Selection) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase != models.PhaseQuarterlyDraft {
		return errors.NewLedgerError("CompleteQuarterlySelect", string(l.phase), errors.ErrInvalidPhase)
	}

	info := sel.Info
	if info.TotalCost > l.realizedProfit {
		qty := int(math.Floor(l.realizedProfit / info.Price))
		if qty < 1 {
			l.log.Warn().Str("symbol", sel.Card.Symbol).Float64("cost", info.TotalCost).Float64("cash", l.realizedProfit).
				Msg("Quarterly selection rejected, insufficient cash")
			return errors.ErrInsufficientFunds
		}
		l.log.Info().Str("symbol", sel.Card.Symbol).Int("displayed_qty", info.Quantity).Int("clamped_qty", qty).
			Msg("Quarterly quantity clamped to remaining cash")
		info.Quantity = qty
		info.TotalCost = info.Price * float64(qty)
	}

	l.checkPriceMatch(sel, l.currentDay)
	actualPrice := info.Price
	if l.currentDay < len(sel.Series) {
		actualPrice = sel.Series[l.currentDay].Close
	}

	pos := positionFromSelection(sel, l.currentDay)
	pos.BuyPrice = actualPrice
	pos.CurrentPrice = actualPrice
	pos.Quantity = info.Quantity

	if err := l.addPositionLocked(pos); err != nil {
		return err
	}
	l.realizedProfit -= info.TotalCost
	l.recomputeTotals()

	l.phase = models.PhasePlaying
	l.playing = true
	l.log.Info().Str("symbol", sel.Card.Symbol).Int("quantity", info.Quantity).Float64("cost", info.TotalCost).
		Msg("Quarterly selection complete")
	return nil
}

// CancelQuarterlyDraft resumes play without a purchase. A pack priced for
// the abandoned draft is simply discarded.
func (l *Ledger) CancelQuarterlyDraft() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase != models.PhaseQuarterlyDraft {
		return errors.ErrInvalidPhase
	}
	l.phase = models.PhasePlaying
	l.playing = true
	return nil
}

// Settle transitions to settlement once the year is over.
func (l *Ledger) Settle() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.currentDay < TradingDays {
		return errors.ErrInvalidPhase
	}
	l.phase = models.PhaseSettlement
	l.playing = false
	return nil
}

// PortfolioReturn is the percentage return of total assets over AUM.
func (l *Ledger) PortfolioReturn() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.aum == 0 {
		return 0
	}
	return (l.totalAssets - l.aum) / l.aum * 100
}

// BenchmarkReturn is the percentage return of the benchmark series from its
// first day to the current simulated day.
func (l *Ledger) BenchmarkReturn() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.benchmark) == 0 || l.benchmark[0].Close == 0 {
		return 0
	}
	idx := l.currentDay
	if idx >= len(l.benchmark) {
		idx = len(l.benchmark) - 1
	}
	return (l.benchmark[idx].Close - l.benchmark[0].Close) / l.benchmark[0].Close * 100
}

// Victory evaluates the settlement condition: hit the asset target outright,
// or beat the benchmark by the alpha target.
func (l *Ledger) Victory() bool {
	portfolioReturn := l.PortfolioReturn()
	benchmarkReturn := l.BenchmarkReturn()

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.totalAssets >= l.targetAssets {
		return true
	}
	return portfolioReturn > benchmarkReturn+l.alphaTarget
}

// recomputeTotals refreshes the derived fields. Callers must hold the lock.
func (l *Ledger) recomputeTotals() {
	var unrealized float64
	for _, pos := range l.positions {
		unrealized += pos.MarketValue()
	}
	l.unrealizedProfit = unrealized
	l.totalAssets = l.realizedProfit + unrealized
}

// checkPriceMatch warns when a card's displayed price drifts from the series
// close it was derived from. The displayed value always wins; this is a
// consistency check on generator determinism.
func (l *Ledger) checkPriceMatch(sel Selection, day int) {
	if day >= len(sel.Series) {
		return
	}
	actual := sel.Series[day].Close
	if math.Abs(actual-sel.Info.Price) > priceMatchTolerance {
		l.log.Warn().Str("symbol", sel.Card.Symbol).
			Float64("displayed", sel.Info.Price).
			Float64("actual", actual).
			Msg("Displayed card price differs from series close; displayed value wins")
	}
}

func positionFromSelection(sel Selection, buyDay int) *models.Position {
	name := sel.StockName
	if name == "" {
		name = sel.Card.Name
	}
	return &models.Position{
		ID:              uuid.NewString(),
		Symbol:          sel.Card.Symbol,
		StockName:       name,
		Sector:          sel.Card.Sector,
		Rarity:          sel.Card.Rarity,
		BuyPrice:        sel.Info.Price,
		Quantity:        sel.Info.Quantity,
		CurrentPrice:    sel.Info.Price,
		BuyDayIndex:     buyDay,
		Data:            sel.Series,
		CurrentDayIndex: buyDay,
	}
}

// IsQuarterDay reports whether day is a re-draft boundary.
func IsQuarterDay(day int) bool {
	for _, q := range QuarterDays {
		if day == q {
			return true
		}
	}
	return false
}

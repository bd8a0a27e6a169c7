package ledger

import (
	stderrors "errors"
	"fmt"
	"math"
	"testing"

	"github.com/rs/zerolog"

	apperrors "wallstreet-rpg/internal/errors"
	"wallstreet-rpg/internal/models"
)

func flatSeries(n int, price float64) []models.Candle {
	candles := make([]models.Candle, n)
	for i := range candles {
		candles[i] = models.Candle{
			Time:   fmt.Sprintf("2020-%03d", i),
			Open:   price,
			High:   price,
			Low:    price,
			Close:  price,
			Volume: 1000,
		}
	}
	return candles
}

func selection(symbol string, price float64, qty int, series []models.Candle) Selection {
	return Selection{
		Card: models.StockCard{ID: symbol + "-card", Symbol: symbol, Name: symbol},
		Info: models.CardPriceInfo{
			CardID:    symbol + "-card",
			Price:     price,
			Quantity:  qty,
			TotalCost: price * float64(qty),
		},
		StockName: symbol,
		Series:    series,
	}
}

func newSeason(t *testing.T, aum float64) *Ledger {
	t.Helper()
	l := New(zerolog.Nop())
	l.Initialize(aum, 2020, 5.0)
	return l
}

func TestInitialDraftConservation(t *testing.T) {
	l := newSeason(t, 10000)
	series := flatSeries(253, 50)

	err := l.CompleteInitialDraft([]Selection{
		selection("AAA", 50, 40, series), // 2000
		selection("BBB", 50, 60, series), // 3000
	})
	if err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}

	if got := l.Cash(); got != 5000 {
		t.Errorf("cash: got %f, want 5000", got)
	}
	if diff := math.Abs(l.TotalAssets() - 10000); diff > 0.01 {
		t.Errorf("total assets %f should equal aum after draft", l.TotalAssets())
	}
	if l.Phase() != models.PhasePlaying {
		t.Errorf("phase: got %s, want playing", l.Phase())
	}
	if !l.IsPlaying() {
		t.Errorf("playback should be running after the draft")
	}
}

func TestInitialDraftRequiresDraftPhase(t *testing.T) {
	l := New(zerolog.Nop())
	err := l.CompleteInitialDraft(nil)
	if !stderrors.Is(err, apperrors.ErrInvalidPhase) {
		t.Fatalf("expected ErrInvalidPhase, got %v", err)
	}
}

func TestSellKeepsTotalAssets(t *testing.T) {
	l := newSeason(t, 10000)
	series := flatSeries(253, 50)
	if err := l.CompleteInitialDraft([]Selection{selection("AAA", 50, 40, series)}); err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}

	before := l.TotalAssets()
	pos := l.Snapshot().Positions[0]
	if err := l.SellPosition(pos.ID); err != nil {
		t.Fatalf("SellPosition: %v", err)
	}

	if diff := math.Abs(l.TotalAssets() - before); diff > 1e-9 {
		t.Errorf("sale changed total assets by %f", diff)
	}
	if got := l.Cash(); math.Abs(got-10000) > 1e-9 {
		t.Errorf("cash after full liquidation: got %f, want 10000", got)
	}
	if len(l.Snapshot().Positions) != 0 {
		t.Errorf("position not removed")
	}
}

func TestSellPositionNotFound(t *testing.T) {
	l := newSeason(t, 10000)
	if err := l.SellPosition("nope"); !stderrors.Is(err, apperrors.ErrPositionNotFound) {
		t.Fatalf("expected ErrPositionNotFound, got %v", err)
	}
}

func TestAdvanceDayInflowAndTerminal(t *testing.T) {
	l := newSeason(t, 10000)
	series := flatSeries(253, 50)
	if err := l.CompleteInitialDraft([]Selection{selection("AAA", 50, 40, series)}); err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}

	cashBefore := l.Cash()
	if !l.AdvanceDay() {
		t.Fatalf("first AdvanceDay should succeed")
	}
	inflow := 10000 * DailyInflowRate
	if diff := math.Abs(l.Cash() - cashBefore - inflow); diff > 1e-9 {
		t.Errorf("inflow not credited: cash %f", l.Cash())
	}

	for l.CurrentDay() < TradingDays {
		l.AdvanceDay()
	}
	if l.AdvanceDay() {
		t.Errorf("AdvanceDay past year end must be a no-op")
	}
	if l.IsPlaying() {
		t.Errorf("play must stop at year end")
	}
	if l.CurrentDay() != TradingDays {
		t.Errorf("day overran year end: %d", l.CurrentDay())
	}
}

func TestBuyMoreVWAP(t *testing.T) {
	l := newSeason(t, 10000)
	series := flatSeries(253, 50)
	if err := l.CompleteInitialDraft([]Selection{selection("AAA", 50, 40, series)}); err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}
	pos := l.Snapshot().Positions[0]

	// Mark up to 100, then double up at the new price.
	if err := l.UpdatePositionPrice(pos.ID, 100, 1); err != nil {
		t.Fatalf("UpdatePositionPrice: %v", err)
	}
	if err := l.BuyMore(pos.ID, 40); err != nil {
		t.Fatalf("BuyMore: %v", err)
	}

	got := l.Snapshot().Positions[0]
	if got.Quantity != 80 {
		t.Errorf("quantity: got %d, want 80", got.Quantity)
	}
	want := (50.0*40 + 100.0*40) / 80
	if math.Abs(got.BuyPrice-want) > 1e-9 {
		t.Errorf("vwap: got %f, want %f", got.BuyPrice, want)
	}
}

func TestBuyMoreInsufficientFunds(t *testing.T) {
	l := newSeason(t, 10000)
	series := flatSeries(253, 50)
	if err := l.CompleteInitialDraft([]Selection{selection("AAA", 50, 199, series)}); err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}
	pos := l.Snapshot().Positions[0]

	// Cash is 50; 10 more shares at 50 cost 500.
	err := l.BuyMore(pos.ID, 10)
	if !stderrors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got := l.Snapshot().Positions[0].Quantity; got != 199 {
		t.Errorf("failed buy must not change quantity, got %d", got)
	}
}

func TestMaxPositions(t *testing.T) {
	l := newSeason(t, 100000)
	series := flatSeries(253, 10)

	var selections []Selection
	for i := 0; i < MaxPositions; i++ {
		selections = append(selections, selection(fmt.Sprintf("S%d", i), 10, 1, series))
	}
	if err := l.CompleteInitialDraft(selections); err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}

	err := l.AddPosition(&models.Position{ID: "extra", Symbol: "XTRA", Quantity: 1, CurrentPrice: 10})
	if !stderrors.Is(err, apperrors.ErrPortfolioFull) {
		t.Fatalf("expected ErrPortfolioFull, got %v", err)
	}
}

func TestQuarterGateFiresExactlyOnce(t *testing.T) {
	l := newSeason(t, 10000)
	series := flatSeries(253, 50)
	if err := l.CompleteInitialDraft([]Selection{selection("AAA", 50, 40, series)}); err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}
	for l.CurrentDay() < 63 {
		l.AdvanceDay()
	}

	if err := l.EnterQuarterlyDraft(63); err != nil {
		t.Fatalf("first quarter entry: %v", err)
	}
	if l.Phase() != models.PhaseQuarterlyDraft || l.IsPlaying() {
		t.Fatalf("quarter entry must pause play")
	}
	if err := l.CancelQuarterlyDraft(); err != nil {
		t.Fatalf("CancelQuarterlyDraft: %v", err)
	}

	// The same boundary must never fire twice, even with a duplicate tick.
	err := l.EnterQuarterlyDraft(63)
	if !stderrors.Is(err, apperrors.ErrQuarterAlreadyRun) {
		t.Fatalf("expected ErrQuarterAlreadyRun, got %v", err)
	}

	// Non-boundary days are rejected outright.
	if err := l.EnterQuarterlyDraft(64); err == nil {
		t.Fatalf("day 64 must not open a quarter")
	}
}

func TestCompleteQuarterlySelectClampsToCash(t *testing.T) {
	l := newSeason(t, 10000)
	series := flatSeries(253, 50)
	// Spend almost everything up front: cash is 500 plus inflow.
	if err := l.CompleteInitialDraft([]Selection{selection("AAA", 50, 190, series)}); err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}
	for l.CurrentDay() < 63 {
		l.AdvanceDay()
	}
	if err := l.EnterQuarterlyDraft(63); err != nil {
		t.Fatalf("EnterQuarterlyDraft: %v", err)
	}

	cash := l.Cash()
	quarterly := selection("BBB", 100, 50, flatSeries(253, 100)) // displayed cost 5000
	if err := l.CompleteQuarterlySelect(quarterly); err != nil {
		t.Fatalf("CompleteQuarterlySelect: %v", err)
	}

	snap := l.Snapshot()
	var bought models.Position
	for _, p := range snap.Positions {
		if p.Symbol == "BBB" {
			bought = p
		}
	}
	wantQty := int(math.Floor(cash / 100))
	if bought.Quantity != wantQty {
		t.Errorf("clamped quantity: got %d, want %d", bought.Quantity, wantQty)
	}
	if bought.BuyDayIndex != 63 {
		t.Errorf("buy day: got %d, want 63", bought.BuyDayIndex)
	}
	if math.Abs(l.Cash()-(cash-float64(wantQty)*100)) > 1e-9 {
		t.Errorf("cash not debited by clamped cost: %f", l.Cash())
	}
	if l.Phase() != models.PhasePlaying || !l.IsPlaying() {
		t.Errorf("selection must resume play")
	}
}

func TestCompleteQuarterlySelectRejectsUnaffordable(t *testing.T) {
	l := newSeason(t, 10000)
	series := flatSeries(253, 50)
	if err := l.CompleteInitialDraft([]Selection{selection("AAA", 50, 199, series)}); err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}
	for l.CurrentDay() < 63 {
		l.AdvanceDay()
	}
	if err := l.EnterQuarterlyDraft(63); err != nil {
		t.Fatalf("EnterQuarterlyDraft: %v", err)
	}

	// Cash is a few hundred dollars; a single share costs 100000.
	pricey := selection("BBB", 100000, 1, flatSeries(253, 100000))
	err := l.CompleteQuarterlySelect(pricey)
	if !stderrors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	// Rejection keeps the draft open for another pick or a pass.
	if l.Phase() != models.PhaseQuarterlyDraft {
		t.Errorf("rejection must not leave the quarterly phase")
	}
}

func TestSettleAndVictory(t *testing.T) {
	l := newSeason(t, 10000)
	series := flatSeries(253, 50)
	if err := l.CompleteInitialDraft([]Selection{selection("AAA", 50, 100, series)}); err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}
	// Index up 40% on the year. Flat prices plus inflow leave the portfolio
	// at ~25.2%, short of both the alpha gap and the 1.5x asset target.
	bench := flatSeries(253, 100)
	for i := range bench {
		bench[i].Close = 100 * (1 + 0.4*float64(i)/252)
	}
	l.SetBenchmark(bench)

	if err := l.Settle(); !stderrors.Is(err, apperrors.ErrInvalidPhase) {
		t.Fatalf("settlement before year end must fail, got %v", err)
	}

	for l.CurrentDay() < TradingDays {
		l.AdvanceDay()
	}
	if err := l.Settle(); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if l.Phase() != models.PhaseSettlement {
		t.Fatalf("phase: got %s, want settlement", l.Phase())
	}

	if l.Victory() {
		t.Errorf("trailing season should not be a victory (return %f vs benchmark %f)",
			l.PortfolioReturn(), l.BenchmarkReturn())
	}

	// A tenfold mark turns it into an outright asset-target win.
	pos := l.Snapshot().Positions[0]
	if err := l.UpdatePositionPrice(pos.ID, 500, TradingDays-1); err != nil {
		t.Fatalf("UpdatePositionPrice: %v", err)
	}
	if !l.Victory() {
		t.Errorf("asset target exceeded but no victory (assets %f)", l.TotalAssets())
	}
}

func TestBenchmarkReturn(t *testing.T) {
	l := newSeason(t, 10000)
	bench := flatSeries(253, 100)
	for i := range bench {
		bench[i].Close = 100 + float64(i) // +152% over the year
	}
	l.SetBenchmark(bench)
	series := flatSeries(253, 50)
	if err := l.CompleteInitialDraft([]Selection{selection("AAA", 50, 40, series)}); err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}
	for l.CurrentDay() < TradingDays {
		l.AdvanceDay()
	}

	got := l.BenchmarkReturn()
	want := (bench[252].Close - bench[0].Close) / bench[0].Close * 100
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("benchmark return: got %f, want %f", got, want)
	}
}

func TestAggregateValueAt(t *testing.T) {
	l := newSeason(t, 10000)
	series := flatSeries(253, 50)
	if err := l.CompleteInitialDraft([]Selection{selection("AAA", 50, 40, series)}); err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}

	// Day 0: cash baseline 8000 plus 40 shares at 50.
	if got := l.AggregateValueAt(0); math.Abs(got-10000) > 1e-9 {
		t.Errorf("day 0 aggregate: got %f, want 10000", got)
	}
	// Day 10 adds ten days of inflow at a flat price.
	want := 10000 + 10*10000*DailyInflowRate
	if got := l.AggregateValueAt(10); math.Abs(got-want) > 1e-9 {
		t.Errorf("day 10 aggregate: got %f, want %f", got, want)
	}
}

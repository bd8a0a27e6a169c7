package playback

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"wallstreet-rpg/internal/catalog"
	"wallstreet-rpg/internal/draft"
	"wallstreet-rpg/internal/fetch"
	"wallstreet-rpg/internal/generator"
	"wallstreet-rpg/internal/ledger"
	"wallstreet-rpg/internal/models"
	"wallstreet-rpg/internal/stream"
)

type season struct {
	book   *ledger.Ledger
	driver *Driver
	hub    *stream.Hub
	events <-chan models.RenderEvent
}

// newSeason wires a full season at year 2015 with two starting positions and
// an unconfigured fetcher, so every series resolves through the deterministic
// demo generator.
func newSeason(t *testing.T) *season {
	t.Helper()
	logger := zerolog.Nop()

	cat := catalog.MustLoad()
	gen := generator.New(cat, logger)
	fetcher := fetch.New(fetch.Config{}, gen, logger)
	drafts := draft.NewSeeded(cat, 7, logger)

	book := ledger.New(logger)
	book.Initialize(10000, 2015, 5.0)
	book.SetBenchmark(gen.Benchmark(2015).Candles)

	var selections []ledger.Selection
	for _, sym := range []string{"KO", "JNJ"} {
		s := gen.Historical(sym, 2015)
		price := s.Candles[0].Close
		qty := 10
		selections = append(selections, ledger.Selection{
			Card: models.StockCard{ID: sym + "-card", Symbol: sym, Name: s.StockName},
			Info: models.CardPriceInfo{
				CardID:    sym + "-card",
				Price:     price,
				Quantity:  qty,
				TotalCost: price * float64(qty),
			},
			StockName: s.StockName,
			Series:    s.Candles,
		})
	}
	if err := book.CompleteInitialDraft(selections); err != nil {
		t.Fatalf("CompleteInitialDraft: %v", err)
	}

	hub := stream.NewHubWithConfig(stream.HubConfig{SubscriberBufferSize: 4096}, logger)
	events := hub.Subscribe("test")

	driver, err := New(book, drafts, fetcher, hub, nil, Config{Speed: 1}, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &season{book: book, driver: driver, hub: hub, events: events}
}

func TestTickFullSeason(t *testing.T) {
	s := newSeason(t)

	var packs []QuarterPack
	settled := false
	for i := 0; i < 10000 && !settled; i++ {
		settled = s.driver.Tick()

		if s.book.Phase() == models.PhaseQuarterlyDraft {
			select {
			case pack := <-s.driver.Packs():
				packs = append(packs, pack)
				if err := s.book.CancelQuarterlyDraft(); err != nil {
					t.Fatalf("CancelQuarterlyDraft: %v", err)
				}
			case <-time.After(30 * time.Second):
				t.Fatalf("quarterly pack never arrived at day %d", s.book.CurrentDay())
			}
		}
	}

	if !settled {
		t.Fatalf("season never settled, stuck at day %d phase %s", s.book.CurrentDay(), s.book.Phase())
	}
	if s.book.Phase() != models.PhaseSettlement {
		t.Errorf("phase after settle: got %s", s.book.Phase())
	}
	if s.book.CurrentDay() != ledger.TradingDays {
		t.Errorf("final day: got %d, want %d", s.book.CurrentDay(), ledger.TradingDays)
	}

	if len(packs) != len(ledger.QuarterDays) {
		t.Fatalf("quarterly packs: got %d, want %d", len(packs), len(ledger.QuarterDays))
	}
	for i, pack := range packs {
		if pack.Day != ledger.QuarterDays[i] {
			t.Errorf("pack %d opened at day %d, want %d", i, pack.Day, ledger.QuarterDays[i])
		}
		if len(pack.Cards) != QuarterPackSize || len(pack.Infos) != QuarterPackSize {
			t.Errorf("pack %d: %d cards, %d infos, want %d", i, len(pack.Cards), len(pack.Infos), QuarterPackSize)
		}
		for _, card := range pack.Cards {
			if len(pack.Series[card.Symbol]) == 0 {
				t.Errorf("pack %d: no series resolved for %s", i, card.Symbol)
			}
		}
	}
}

func TestTickEmitsCandleAndComparisonPerDay(t *testing.T) {
	s := newSeason(t)

	for i := 0; i < 10; i++ {
		s.driver.Tick()
	}

	candles, comparisons := 0, 0
	lastLinePoints := 0
drain:
	for {
		select {
		case ev := <-s.events:
			switch ev.Kind {
			case models.RenderNewCandle:
				candles++
				if ev.Candle == nil || ev.Candle.High < ev.Candle.Low {
					t.Errorf("malformed aggregate candle: %+v", ev.Candle)
				}
			case models.RenderComparisonLine:
				comparisons++
				if len(ev.Points) <= lastLinePoints {
					t.Errorf("comparison line did not grow: %d then %d points", lastLinePoints, len(ev.Points))
				}
				lastLinePoints = len(ev.Points)
			}
		default:
			break drain
		}
	}

	if candles != 10 || comparisons != 10 {
		t.Fatalf("events per day: got %d candles, %d comparison lines, want 10 each", candles, comparisons)
	}
	// Day N's comparison line covers days 0..N inclusive.
	if lastLinePoints != 11 {
		t.Fatalf("final comparison line has %d points, want 11", lastLinePoints)
	}
}

func TestTickIgnoredOutsidePlay(t *testing.T) {
	logger := zerolog.Nop()
	cat := catalog.MustLoad()
	gen := generator.New(cat, logger)
	fetcher := fetch.New(fetch.Config{}, gen, logger)

	book := ledger.New(logger)
	book.Initialize(10000, 2015, 5.0)

	driver, err := New(book, draft.NewSeeded(cat, 7, logger), fetcher, nil, nil, Config{Speed: 1}, logger)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Still in the initial draft: the clock must not move.
	if driver.Tick() {
		t.Fatalf("tick in draft phase reported settlement")
	}
	if book.CurrentDay() != 0 {
		t.Fatalf("tick in draft phase advanced the day to %d", book.CurrentDay())
	}
}

func TestValidateSpeed(t *testing.T) {
	for _, speed := range []int{1, 2, 5} {
		if err := ValidateSpeed(speed); err != nil {
			t.Errorf("speed %d rejected: %v", speed, err)
		}
	}
	for _, speed := range []int{0, -1, 6} {
		if err := ValidateSpeed(speed); err == nil {
			t.Errorf("speed %d accepted", speed)
		}
	}

	if _, err := New(nil, nil, nil, nil, nil, Config{Speed: 0}, zerolog.Nop()); err == nil {
		t.Errorf("driver accepted speed 0")
	}
}

func TestStartStopIdempotent(t *testing.T) {
	s := newSeason(t)

	s.driver.Start()
	s.driver.Start() // second start is a no-op

	done := make(chan struct{})
	go func() {
		s.driver.Stop()
		s.driver.Stop() // second stop is a no-op
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("Stop did not return")
	}

	select {
	case <-s.driver.Done():
	default:
		t.Fatalf("Done not closed after Stop")
	}
}

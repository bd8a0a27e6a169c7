package draft

import (
	"testing"

	"github.com/rs/zerolog"

	"wallstreet-rpg/internal/catalog"
	"wallstreet-rpg/internal/models"
)

func newTestGenerator(t *testing.T) *Generator {
	t.Helper()
	return NewSeeded(catalog.MustLoad(), 42, zerolog.Nop())
}

func TestPackSizeAndEraGating(t *testing.T) {
	g := newTestGenerator(t)

	cards, err := g.Pack(10000, 1935, 5)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if len(cards) != 5 {
		t.Fatalf("expected 5 cards, got %d", len(cards))
	}
	for _, c := range cards {
		if !c.Era.Contains(1935) {
			t.Errorf("card %s not trading in 1935 (era %d-%d)", c.Symbol, c.Era.Start, c.Era.End)
		}
		if c.ID == "" {
			t.Errorf("card %s missing instance id", c.Symbol)
		}
	}
}

func TestPackInstancesAreUnique(t *testing.T) {
	g := newTestGenerator(t)
	cards, err := g.Pack(50000, 2010, 5)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	ids := make(map[string]bool)
	for _, c := range cards {
		if ids[c.ID] {
			t.Fatalf("duplicate card instance id %s", c.ID)
		}
		ids[c.ID] = true
	}
}

func TestPennyTierNeverRollsLegendary(t *testing.T) {
	g := newTestGenerator(t)
	for i := 0; i < 1000; i++ {
		if r := g.weightedRarity(models.TierPenny); r == models.RarityLegendary {
			t.Fatalf("penny tier rolled legendary on draw %d", i)
		}
	}
}

func TestPriceInitialSizesAgainstCapital(t *testing.T) {
	g := newTestGenerator(t)
	aum := 10000.0

	cards, err := g.Pack(aum, 2015, 5)
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	closes := make(map[string]float64)
	for _, c := range cards {
		closes[c.Symbol] = 50
	}

	infos := g.PriceInitial(cards, closes, aum)
	if len(infos) != len(cards) {
		t.Fatalf("expected %d infos, got %d", len(cards), len(infos))
	}
	for i, info := range infos {
		if info.CardID != cards[i].ID {
			t.Errorf("info %d bound to wrong card", i)
		}
		if info.Quantity < 1 {
			t.Errorf("info %d: quantity below 1", i)
		}
		if info.TotalCost != info.Price*float64(info.Quantity) {
			t.Errorf("info %d: cost %f inconsistent with price*qty", i, info.TotalCost)
		}
		// A single 15-30% tranche never exceeds the sizing window by more
		// than one extra share.
		if info.TotalCost > aum*InitialMaxFraction+info.Price {
			t.Errorf("info %d: cost %f outside sizing window", i, info.TotalCost)
		}
	}
}

func TestPriceCardsFallsBackToBasePrice(t *testing.T) {
	g := newTestGenerator(t)
	cards := []models.StockCard{{ID: "x", Symbol: "GHOST", BasePrice: 40}}

	infos := g.PriceCards(cards, map[string]float64{}, 10000, 0.15, 0.30)
	if infos[0].Price != 40 {
		t.Fatalf("expected base price fallback 40, got %f", infos[0].Price)
	}
}

func TestClampToCash(t *testing.T) {
	info := models.CardPriceInfo{CardID: "c", Price: 100, Quantity: 30, TotalCost: 3000}

	unchanged, clamped := ClampToCash(info, 5000)
	if clamped || unchanged != info {
		t.Fatalf("affordable purchase must pass through unchanged")
	}

	reduced, clamped := ClampToCash(info, 550)
	if !clamped {
		t.Fatalf("expected clamp")
	}
	if reduced.Quantity != 5 || reduced.TotalCost != 500 {
		t.Fatalf("expected 5 shares for 500, got %d for %f", reduced.Quantity, reduced.TotalCost)
	}

	// Below a single share the quantity floors at 1; the caller decides
	// whether that is affordable.
	floor, _ := ClampToCash(info, 10)
	if floor.Quantity != 1 {
		t.Fatalf("expected floor quantity 1, got %d", floor.Quantity)
	}
}

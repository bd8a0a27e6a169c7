// Package draft generates weighted-random card packs from the instrument
// catalog and computes the priced overlay shown to the player.
package draft

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"wallstreet-rpg/internal/catalog"
	"wallstreet-rpg/internal/errors"
	"wallstreet-rpg/internal/models"
)

// Investment-sizing fractions of the reference capital figure.
const (
	InitialMinFraction   = 0.15
	InitialMaxFraction   = 0.30
	QuarterlyMinFraction = 0.15
	QuarterlyMaxFraction = 0.25
)

var sectorWeights = map[models.CapitalTier]map[models.Sector]float64{
	models.TierPenny: {
		models.SectorValue: 0.30, models.SectorEnergy: 0.25, models.SectorDefensive: 0.20,
		models.SectorDividend: 0.15, models.SectorIT: 0.10,
	},
	models.TierValue: {
		models.SectorValue: 0.25, models.SectorDefensive: 0.20, models.SectorDividend: 0.20,
		models.SectorEnergy: 0.20, models.SectorIT: 0.15,
	},
	models.TierGrowth: {
		models.SectorIT: 0.30, models.SectorValue: 0.20, models.SectorEnergy: 0.20,
		models.SectorDefensive: 0.15, models.SectorDividend: 0.15,
	},
	models.TierBlueChip: {
		models.SectorIT: 0.40, models.SectorValue: 0.25, models.SectorDefensive: 0.15,
		models.SectorEnergy: 0.10, models.SectorDividend: 0.10,
	},
}

var rarityWeights = map[models.CapitalTier]map[models.Rarity]float64{
	models.TierPenny: {
		models.RarityCommon: 0.70, models.RarityRare: 0.25, models.RarityEpic: 0.05, models.RarityLegendary: 0,
	},
	models.TierValue: {
		models.RarityCommon: 0.50, models.RarityRare: 0.30, models.RarityEpic: 0.15, models.RarityLegendary: 0.05,
	},
	models.TierGrowth: {
		models.RarityCommon: 0.35, models.RarityRare: 0.35, models.RarityEpic: 0.20, models.RarityLegendary: 0.10,
	},
	models.TierBlueChip: {
		models.RarityCommon: 0.20, models.RarityRare: 0.30, models.RarityEpic: 0.30, models.RarityLegendary: 0.20,
	},
}

// Generator builds card packs.
type Generator struct {
	cat *catalog.Catalog
	rnd *rand.Rand
	log zerolog.Logger
}

// New creates a draft generator.
func New(cat *catalog.Catalog, logger zerolog.Logger) *Generator {
	return NewSeeded(cat, time.Now().UnixNano(), logger)
}

// NewSeeded creates a draft generator with a fixed random seed.
func NewSeeded(cat *catalog.Catalog, seed int64, logger zerolog.Logger) *Generator {
	return &Generator{
		cat: cat,
		rnd: rand.New(rand.NewSource(seed)),
		log: logger.With().Str("component", "draft").Logger(),
	}
}

// Pack generates count cards for the given capital and year. Each card is a
// fresh draft instance with its own id; the same underlying instrument may
// repeat only when the in-era catalog is exhausted.
func (g *Generator) Pack(capital float64, year, count int) ([]models.StockCard, error) {
	inEra := g.cat.InEra(year)
	if len(inEra) == 0 {
		return nil, errors.NewDraftError(string(models.TierForCapital(capital)), year, "no catalog entries in era", errors.ErrEmptyCatalog)
	}

	tier := models.TierForCapital(capital)
	used := make(map[string]bool)
	cards := make([]models.StockCard, 0, count)

	for i := 0; i < count; i++ {
		sector := g.weightedSector(tier)

		candidates := filterEntries(inEra, func(e catalog.Entry) bool {
			return !used[e.Symbol] && e.Sector == sector
		})
		if len(candidates) == 0 {
			candidates = filterEntries(inEra, func(e catalog.Entry) bool {
				return !used[e.Symbol]
			})
		}
		if len(candidates) == 0 {
			// Pack is larger than the in-era catalog: allow repeats.
			used = make(map[string]bool)
			candidates = inEra
		}

		rarity := g.weightedRarity(tier)
		if byRarity := filterEntries(candidates, func(e catalog.Entry) bool {
			return e.Rarity == rarity
		}); len(byRarity) > 0 {
			candidates = byRarity
		}

		pick := candidates[g.rnd.Intn(len(candidates))]
		used[pick.Symbol] = true

		cards = append(cards, models.StockCard{
			ID:        uuid.NewString(),
			Symbol:    pick.Symbol,
			Name:      pick.Name,
			Sector:    pick.Sector,
			Rarity:    pick.Rarity,
			BasePrice: pick.BasePrice,
			Era:       pick.Era,
		})
	}

	g.log.Debug().Str("tier", string(tier)).Int("year", year).Int("cards", len(cards)).Msg("Pack generated")
	return cards, nil
}

func filterEntries(entries []catalog.Entry, keep func(catalog.Entry) bool) []catalog.Entry {
	var out []catalog.Entry
	for _, e := range entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (g *Generator) weightedSector(tier models.CapitalTier) models.Sector {
	weights := sectorWeights[tier]
	r := g.rnd.Float64()
	// Fixed iteration order keeps the draw well-defined.
	order := []models.Sector{models.SectorIT, models.SectorValue, models.SectorDefensive, models.SectorDividend, models.SectorEnergy}
	var acc float64
	for _, s := range order {
		acc += weights[s]
		if r < acc {
			return s
		}
	}
	return order[len(order)-1]
}

func (g *Generator) weightedRarity(tier models.CapitalTier) models.Rarity {
	weights := rarityWeights[tier]
	r := g.rnd.Float64()
	order := []models.Rarity{models.RarityCommon, models.RarityRare, models.RarityEpic, models.RarityLegendary}
	var acc float64
	for _, rar := range order {
		acc += weights[rar]
		if r < acc {
			return rar
		}
	}
	return order[0]
}

// PriceCards computes the displayed price overlay for a pack. closes maps
// symbol to the first relevant day's closing price; refCapital is the sizing
// reference (AUM for both initial and quarterly drafts). The returned info
// is authoritative: whatever is shown here is exactly what the ledger later
// debits.
func (g *Generator) PriceCards(cards []models.StockCard, closes map[string]float64, refCapital, minFrac, maxFrac float64) []models.CardPriceInfo {
	infos := make([]models.CardPriceInfo, 0, len(cards))
	for _, card := range cards {
		price := closes[card.Symbol]
		if price <= 0 {
			g.log.Warn().Str("symbol", card.Symbol).Msg("Missing close for card pricing, using base price")
			price = card.BasePrice
		}
		target := refCapital * (minFrac + g.rnd.Float64()*(maxFrac-minFrac))
		qty := int(math.Floor(target / price))
		if qty < 1 {
			qty = 1
		}
		infos = append(infos, models.CardPriceInfo{
			CardID:    card.ID,
			Price:     price,
			Quantity:  qty,
			TotalCost: price * float64(qty),
		})
	}
	return infos
}

// PriceInitial prices an initial-draft pack against day-zero closes.
func (g *Generator) PriceInitial(cards []models.StockCard, closes map[string]float64, aum float64) []models.CardPriceInfo {
	return g.PriceCards(cards, closes, aum, InitialMinFraction, InitialMaxFraction)
}

// PriceQuarterly prices a quarterly-draft pack against current-day closes.
// Sizing runs against AUM, not remaining cash: card costs do not shrink as
// the player's cash depletes. Affordability is clamped later, at selection.
func (g *Generator) PriceQuarterly(cards []models.StockCard, closes map[string]float64, aum float64) []models.CardPriceInfo {
	return g.PriceCards(cards, closes, aum, QuarterlyMinFraction, QuarterlyMaxFraction)
}

// ClampToCash reduces a card's quantity so the purchase fits the player's
// remaining cash. The displayed overlay keeps the original figures; only the
// executed purchase shrinks. Returns the adjusted info and whether it was
// reduced.
func ClampToCash(info models.CardPriceInfo, cash float64) (models.CardPriceInfo, bool) {
	if info.TotalCost <= cash {
		return info, false
	}
	qty := int(math.Floor(cash / info.Price))
	if qty < 1 {
		qty = 1
	}
	clamped := info
	clamped.Quantity = qty
	clamped.TotalCost = info.Price * float64(qty)
	return clamped, true
}

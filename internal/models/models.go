// Package models provides domain models for the market simulation.
package models

import (
	"time"
)

// Sector classifies a catalog instrument.
type Sector string

const (
	SectorIT        Sector = "IT"
	SectorValue     Sector = "Value"
	SectorDefensive Sector = "Defensive"
	SectorDividend  Sector = "Dividend"
	SectorEnergy    Sector = "Energy"
)

// Rarity is the draft rarity band of a catalog instrument.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// CapitalTier maps player capital to a draft weight profile.
type CapitalTier string

const (
	TierPenny    CapitalTier = "penny"
	TierValue    CapitalTier = "value"
	TierGrowth   CapitalTier = "growth"
	TierBlueChip CapitalTier = "bluechip"
)

// TierForCapital returns the draft tier for a capital amount.
func TierForCapital(capital float64) CapitalTier {
	switch {
	case capital < 10_000:
		return TierPenny
	case capital < 100_000:
		return TierValue
	case capital < 1_000_000:
		return TierGrowth
	default:
		return TierBlueChip
	}
}

// GamePhase is the current state of a season.
type GamePhase string

const (
	PhaseStart          GamePhase = "start"
	PhaseDraft          GamePhase = "draft"
	PhasePlaying        GamePhase = "playing"
	PhaseQuarterlyDraft GamePhase = "quarterly-draft"
	PhaseSettlement     GamePhase = "settlement"
)

// EventType classifies a calendar market event.
type EventType string

const (
	EventCrash    EventType = "crash"
	EventBoom     EventType = "boom"
	EventVolatile EventType = "volatile"
	EventStable   EventType = "stable"
)

// MarketEvent is one entry of the historical event calendar.
// Month is 1-12, or 0 when the event spans the whole year.
type MarketEvent struct {
	Year      int       `yaml:"year"`
	Month     int       `yaml:"month,omitempty"`
	Type      EventType `yaml:"type"`
	Magnitude float64   `yaml:"magnitude"`
}

// Candle represents one trading day of OHLCV data.
// Prices never touch zero: Low > 0 and Low <= min(Open, Close) <= max(Open, Close) <= High.
type Candle struct {
	Time   string  `json:"time"` // "2006-01-02"
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Date parses the candle's trading date.
func (c Candle) Date() (time.Time, error) {
	return time.Parse("2006-01-02", c.Time)
}

// Era is the year range an instrument is available to appear in drafts.
type Era struct {
	Start int `yaml:"start"`
	End   int `yaml:"end"`
}

// Contains reports whether year falls inside the era (inclusive).
func (e Era) Contains(year int) bool {
	return year >= e.Start && year <= e.End
}

// StockCard is one draftable instrument. Catalog identity (symbol, sector,
// rarity, base price, era) is immutable; ID is unique per draft instance.
type StockCard struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"displayName"`
	Sector    Sector  `json:"sector"`
	Rarity    Rarity  `json:"rarity"`
	BasePrice float64 `json:"basePrice"`
	Era       Era     `json:"era"`
}

// CardPriceInfo is the priced overlay shown on a drafted card. It is the
// single source of truth for what the player pays: the ledger debits exactly
// TotalCost and sizes the resulting position from Price and Quantity.
type CardPriceInfo struct {
	CardID    string  `json:"cardId"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	TotalCost float64 `json:"totalCost"`
}

// Position is an open holding in the portfolio.
type Position struct {
	ID              string
	Symbol          string
	StockName       string
	Sector          Sector
	Rarity          Rarity
	BuyPrice        float64
	Quantity        int
	CurrentPrice    float64
	BuyDayIndex     int
	Data            []Candle
	CurrentDayIndex int
}

// MarketValue returns the mark-to-market value of the position.
func (p *Position) MarketValue() float64 {
	return p.CurrentPrice * float64(p.Quantity)
}

// CostBasis returns the capital originally committed to the position.
func (p *Position) CostBasis() float64 {
	return p.BuyPrice * float64(p.Quantity)
}

// PricePoint is one day of the aggregate portfolio comparison line.
type PricePoint struct {
	Day   int     `json:"day"`
	Price float64 `json:"price"`
}

// HistoricalRequest is the query accepted by the historical data endpoint.
type HistoricalRequest struct {
	Symbol string `json:"symbol,omitempty"`
	Year   int    `json:"year,omitempty"`
	Type   string `json:"type"` // "historical", "intraday" or "quote"
}

// HistoricalResponse is the payload returned by the historical data endpoint.
// IsDemo and IsHistorical are informational flags, never control flow.
type HistoricalResponse struct {
	Success      bool     `json:"success"`
	Symbol       string   `json:"symbol"`
	StockName    string   `json:"stockName,omitempty"`
	Year         int      `json:"year,omitempty"`
	Data         []Candle `json:"data"`
	Count        int      `json:"count,omitempty"`
	IsHistorical bool     `json:"isHistorical,omitempty"`
	IsDemo       bool     `json:"isDemo,omitempty"`
	Message      string   `json:"message,omitempty"`
}

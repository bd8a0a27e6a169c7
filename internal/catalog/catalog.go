// Package catalog provides the static instrument catalog and the historical
// market-event calendar backing the candle generator and the draft system.
package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"wallstreet-rpg/internal/models"
)

//go:embed data/catalog.yaml
var catalogYAML []byte

//go:embed data/events.yaml
var eventsYAML []byte

// Entry is one catalog instrument.
type Entry struct {
	Symbol    string        `yaml:"symbol"`
	Name      string        `yaml:"name"`
	Sector    models.Sector `yaml:"sector"`
	Rarity    models.Rarity `yaml:"rarity"`
	BasePrice float64       `yaml:"base_price"`
	Era       models.Era    `yaml:"era"`
}

// Catalog holds the instrument list and event calendar.
type Catalog struct {
	entries  []Entry
	bySymbol map[string]Entry
	events   map[int][]models.MarketEvent
}

type catalogFile struct {
	Stocks []Entry `yaml:"stocks"`
}

type eventsFile struct {
	Events []models.MarketEvent `yaml:"events"`
}

// Load parses the embedded catalog and event calendar.
func Load() (*Catalog, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(catalogYAML, &cf); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(cf.Stocks) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	var ef eventsFile
	if err := yaml.Unmarshal(eventsYAML, &ef); err != nil {
		return nil, fmt.Errorf("parse event calendar: %w", err)
	}

	c := &Catalog{
		entries:  cf.Stocks,
		bySymbol: make(map[string]Entry, len(cf.Stocks)),
		events:   make(map[int][]models.MarketEvent),
	}
	for _, e := range cf.Stocks {
		c.bySymbol[e.Symbol] = e
	}
	for _, ev := range ef.Events {
		c.events[ev.Year] = append(c.events[ev.Year], ev)
	}
	return c, nil
}

// MustLoad is Load that panics on error. The data is embedded, so a failure
// is a build defect, not a runtime condition.
func MustLoad() *Catalog {
	c, err := Load()
	if err != nil {
		panic(err)
	}
	return c
}

// Entries returns all catalog instruments.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Lookup returns the catalog entry for a symbol.
func (c *Catalog) Lookup(symbol string) (Entry, bool) {
	e, ok := c.bySymbol[symbol]
	return e, ok
}

// InEra returns all instruments available in the given year.
func (c *Catalog) InEra(year int) []Entry {
	var out []Entry
	for _, e := range c.entries {
		if e.Era.Contains(year) {
			out = append(out, e)
		}
	}
	return out
}

// EventsForYear returns the calendar events for a year, oldest first.
// Returns nil for quiet years.
func (c *Catalog) EventsForYear(year int) []models.MarketEvent {
	return c.events[year]
}

// EventForMonth returns the first event of the year matching the month.
// Year-wide events (Month == 0) match every month.
func (c *Catalog) EventForMonth(year, month int) (models.MarketEvent, bool) {
	for _, ev := range c.events[year] {
		if ev.Month == 0 || ev.Month == month {
			return ev, true
		}
	}
	return models.MarketEvent{}, false
}

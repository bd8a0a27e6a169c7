package catalog

import (
	"testing"

	"wallstreet-rpg/internal/models"
)

func TestLoadCatalog(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Entries()) < 40 {
		t.Fatalf("suspiciously small catalog: %d entries", len(c.Entries()))
	}

	ko, ok := c.Lookup("KO")
	if !ok {
		t.Fatalf("KO missing from catalog")
	}
	if ko.Sector != models.SectorDefensive || ko.Rarity != models.RarityLegendary {
		t.Errorf("KO entry: %+v", ko)
	}
	if ko.BasePrice <= 0 {
		t.Errorf("KO has no base price")
	}

	if _, ok := c.Lookup("NOPE"); ok {
		t.Errorf("unknown symbol resolved")
	}
}

func TestEntriesAreWellFormed(t *testing.T) {
	c := MustLoad()
	seen := make(map[string]bool)
	for _, e := range c.Entries() {
		if e.Symbol == "" || e.Name == "" {
			t.Errorf("entry missing identity: %+v", e)
		}
		if seen[e.Symbol] {
			t.Errorf("duplicate symbol %s", e.Symbol)
		}
		seen[e.Symbol] = true
		if e.BasePrice <= 0 {
			t.Errorf("%s: base price %f", e.Symbol, e.BasePrice)
		}
		if e.Era.Start == 0 || e.Era.End < e.Era.Start {
			t.Errorf("%s: bad era %+v", e.Symbol, e.Era)
		}
	}
}

func TestInEraFiltering(t *testing.T) {
	c := MustLoad()

	early := c.InEra(1930)
	if len(early) == 0 {
		t.Fatalf("no instruments trading in 1930")
	}
	for _, e := range early {
		if !e.Era.Contains(1930) {
			t.Errorf("%s leaked into 1930 (era %d-%d)", e.Symbol, e.Era.Start, e.Era.End)
		}
	}
	// The modern market is strictly larger than the 1930 one.
	if modern := c.InEra(2020); len(modern) <= len(early) {
		t.Errorf("2020 era (%d) not larger than 1930 era (%d)", len(modern), len(early))
	}
}

func TestEventCalendar(t *testing.T) {
	c := MustLoad()

	// October 1929 is a month-scoped crash.
	ev, ok := c.EventForMonth(1929, 10)
	if !ok || ev.Type != models.EventCrash {
		t.Fatalf("1929-10: got %+v ok=%v", ev, ok)
	}
	// Before October 1929 there is no event.
	if _, ok := c.EventForMonth(1929, 3); ok {
		t.Errorf("1929-03 matched a month-scoped October event")
	}
	// 1930 is a year-wide crash, any month matches.
	ev, ok = c.EventForMonth(1930, 7)
	if !ok || ev.Type != models.EventCrash {
		t.Errorf("1930-07: got %+v ok=%v", ev, ok)
	}

	if evs := c.EventsForYear(1931); len(evs) == 0 {
		t.Errorf("1931 has no calendar entries")
	}
}

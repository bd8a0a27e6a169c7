package ledger

import (
	"wallstreet-rpg/internal/models"
)

// Snapshot is a consistent read of the season state.
type Snapshot struct {
	AUM              float64
	RealizedProfit   float64
	UnrealizedProfit float64
	TotalAssets      float64
	DailyInflow      float64
	TargetAssets     float64
	AlphaTarget      float64
	InitialCost      float64
	CurrentDay       int
	SelectedYear     int
	Playing          bool
	Phase            models.GamePhase
	Positions        []models.Position
}

// Snapshot returns a copy of the full season state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	positions := make([]models.Position, len(l.positions))
	for i, p := range l.positions {
		positions[i] = *p
	}
	return Snapshot{
		AUM:              l.aum,
		RealizedProfit:   l.realizedProfit,
		UnrealizedProfit: l.unrealizedProfit,
		TotalAssets:      l.totalAssets,
		DailyInflow:      l.dailyInflow,
		TargetAssets:     l.targetAssets,
		AlphaTarget:      l.alphaTarget,
		InitialCost:      l.initialCost,
		CurrentDay:       l.currentDay,
		SelectedYear:     l.selectedYear,
		Playing:          l.playing,
		Phase:            l.phase,
		Positions:        positions,
	}
}

// Phase returns the current game phase.
func (l *Ledger) Phase() models.GamePhase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// CurrentDay returns the current simulated day index.
func (l *Ledger) CurrentDay() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.currentDay
}

// Cash returns the spendable cash balance.
func (l *Ledger) Cash() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.realizedProfit
}

// TotalAssets returns cash plus mark-to-market position value.
func (l *Ledger) TotalAssets() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalAssets
}

// AUM returns the season's starting capital.
func (l *Ledger) AUM() float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.aum
}

// IsPlaying reports whether the playback clock should be running.
func (l *Ledger) IsPlaying() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.playing
}

// SelectedYear returns the simulated historical year.
func (l *Ledger) SelectedYear() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.selectedYear
}

// AggregateValueAt reconstructs the aggregate portfolio value at a past day:
// the cash baseline (AUM minus initial cost plus accumulated inflow) plus
// the value of every position held by that day.
func (l *Ledger) AggregateValueAt(day int) float64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	value := l.aum - l.initialCost + l.dailyInflow*float64(day)
	for _, pos := range l.positions {
		if pos.BuyDayIndex > day || day >= len(pos.Data) {
			continue
		}
		value += pos.Data[day].Close * float64(pos.Quantity)
	}
	return value
}

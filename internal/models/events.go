package models

// RenderEventKind discriminates render events sent to the chart layer.
type RenderEventKind string

const (
	// RenderNewCandle carries a single new-day candle for an instrument or
	// the aggregate portfolio.
	RenderNewCandle RenderEventKind = "candle"
	// RenderBulkUpdate (re)initializes a view with a full candle series.
	RenderBulkUpdate RenderEventKind = "bulk"
	// RenderComparisonLine carries the full-history aggregate line for the
	// benchmark comparison overlay.
	RenderComparisonLine RenderEventKind = "comparison"
)

// RenderEvent is the envelope consumed by the chart renderer. Only the
// fields relevant to Kind are populated.
type RenderEvent struct {
	Kind RenderEventKind `json:"kind"`

	// RenderNewCandle
	Candle *Candle `json:"candle,omitempty"`
	ID     string  `json:"id,omitempty"`

	// RenderBulkUpdate
	Candles         []Candle `json:"candles,omitempty"`
	Symbol          string   `json:"symbol,omitempty"`
	TargetPrice     float64  `json:"targetPrice,omitempty"`
	ResistancePrice float64  `json:"resistancePrice,omitempty"`

	// RenderComparisonLine
	Points []PricePoint `json:"points,omitempty"`
}

// NewCandleEvent builds a single-candle render event.
func NewCandleEvent(c Candle, id string) RenderEvent {
	return RenderEvent{Kind: RenderNewCandle, Candle: &c, ID: id}
}

// BulkUpdateEvent builds a view-initialization render event.
func BulkUpdateEvent(candles []Candle, symbol string, target, resistance float64) RenderEvent {
	return RenderEvent{
		Kind:            RenderBulkUpdate,
		Candles:         candles,
		Symbol:          symbol,
		TargetPrice:     target,
		ResistancePrice: resistance,
	}
}

// ComparisonLineEvent builds a comparison-overlay render event.
func ComparisonLineEvent(points []PricePoint) RenderEvent {
	return RenderEvent{Kind: RenderComparisonLine, Points: points}
}

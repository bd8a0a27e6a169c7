// Package metrics holds Prometheus instrumentation for the simulation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics. A nil *Metrics is a valid no-op
// receiver so instrumentation can be optional.
type Metrics struct {
	TicksTotal       prometheus.Counter
	CandlesGenerated prometheus.Counter
	DraftsTotal      prometheus.Counter
	HistoricalReqs   *prometheus.CounterVec // labels: source
	WSClients        prometheus.Gauge
	SeasonsCompleted *prometheus.CounterVec // labels: result

	registry *prometheus.Registry
}

// New registers and returns all metrics on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsrpg_ticks_total",
			Help: "Total playback ticks processed",
		}),
		CandlesGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsrpg_candles_generated_total",
			Help: "Total synthetic candles generated",
		}),
		DraftsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wsrpg_drafts_total",
			Help: "Total card packs generated",
		}),
		HistoricalReqs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wsrpg_historical_requests_total",
			Help: "Historical data requests served",
		}, []string{"source"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wsrpg_ws_clients",
			Help: "Connected render-stream clients",
		}),
		SeasonsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wsrpg_seasons_completed_total",
			Help: "Settled seasons by result",
		}, []string{"result"}),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.TicksTotal, m.CandlesGenerated, m.DraftsTotal,
		m.HistoricalReqs, m.WSClients, m.SeasonsCompleted,
	)
	return m
}

// Handler returns the scrape endpoint handler.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncTick counts one playback tick.
func (m *Metrics) IncTick() {
	if m != nil {
		m.TicksTotal.Inc()
	}
}

// AddCandles counts generated candles.
func (m *Metrics) AddCandles(n int) {
	if m != nil {
		m.CandlesGenerated.Add(float64(n))
	}
}

// IncDraft counts one generated card pack.
func (m *Metrics) IncDraft() {
	if m != nil {
		m.DraftsTotal.Inc()
	}
}

// AddWSClient adjusts the connected render-client gauge.
func (m *Metrics) AddWSClient(delta float64) {
	if m != nil {
		m.WSClients.Add(delta)
	}
}

// IncHistorical counts one served historical request by source.
func (m *Metrics) IncHistorical(source string) {
	if m != nil {
		m.HistoricalReqs.WithLabelValues(source).Inc()
	}
}

// IncSeason counts one settled season by result.
func (m *Metrics) IncSeason(result string) {
	if m != nil {
		m.SeasonsCompleted.WithLabelValues(result).Inc()
	}
}

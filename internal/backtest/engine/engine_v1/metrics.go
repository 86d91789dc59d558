package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rxtech-lab/argo-contraction/internal/types"
)

// Metrics holds the Prometheus metrics of the backtest engine.
type Metrics struct {
	BarsEvaluated      *prometheus.CounterVec // labels: strategy
	SignalsEmitted     *prometheus.CounterVec // labels: strategy, signal_type
	InstrumentDuration prometheus.Histogram   // seconds per instrument
	InstrumentsTotal   *prometheus.CounterVec // labels: status=ok|failed
}

// NewMetrics creates the engine metrics and registers them on reg. A nil registerer
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BarsEvaluated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contraction_bars_evaluated_total",
			Help: "Bars evaluated, counted once per strategy",
		}, []string{"strategy"}),
		SignalsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contraction_signals_emitted_total",
			Help: "Signals emitted by strategy and type",
		}, []string{"strategy", "signal_type"}),
		InstrumentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contraction_instrument_duration_seconds",
			Help:    "Wall time spent evaluating one instrument",
			Buckets: prometheus.DefBuckets,
		}),
		InstrumentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contraction_instruments_total",
			Help: "Instruments processed by outcome",
		}, []string{"status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.BarsEvaluated,
			m.SignalsEmitted,
			m.InstrumentDuration,
			m.InstrumentsTotal,
		)
	}

	return m
}

func (m *Metrics) observeBar(strategyName string) {
	if m == nil {
		return
	}

	m.BarsEvaluated.WithLabelValues(strategyName).Inc()
}

func (m *Metrics) observeSignal(event types.SignalEvent) {
	if m == nil {
		return
	}

	m.SignalsEmitted.WithLabelValues(event.StrategyName, string(event.Type)).Inc()
}

func (m *Metrics) observeInstrument(started time.Time, err error) {
	if m == nil {
		return
	}

	m.InstrumentDuration.Observe(time.Since(started).Seconds())

	status := "ok"
	if err != nil {
		status = "failed"
	}

	m.InstrumentsTotal.WithLabelValues(status).Inc()
}

package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Recorder считает события прогона в собственном реестре
type Recorder struct {
	registry *prometheus.Registry
	ticks    prometheus.Counter
	bars     prometheus.Counter
	days     *prometheus.CounterVec
	signals  *prometheus.CounterVec
	duration prometheus.Gauge
}

// New создает реестр и метрики прогона
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		registry: reg,
		ticks: f.NewCounter(prometheus.CounterOpts{
			Name: "footprint_ticks_processed_total",
			Help: "Total number of ticks processed",
		}),
		bars: f.NewCounter(prometheus.CounterOpts{
			Name: "footprint_bars_closed_total",
			Help: "Total number of range bars closed",
		}),
		days: f.NewCounterVec(prometheus.CounterOpts{
			Name: "footprint_days_total",
			Help: "Trading days by outcome",
		}, []string{"status"}),
		signals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "footprint_signals_total",
			Help: "Bar signals by direction",
		}, []string{"kind"}),
		duration: f.NewGauge(prometheus.GaugeOpts{
			Name: "footprint_run_duration_seconds",
			Help: "Wall time of the last run",
		}),
	}
}

func (r *Recorder) TickProcessed() { r.ticks.Inc() }
func (r *Recorder) BarClosed()     { r.bars.Inc() }
func (r *Recorder) DayProcessed()  { r.days.WithLabelValues("processed").Inc() }
func (r *Recorder) DaySkipped()    { r.days.WithLabelValues("skipped").Inc() }

// SignalSet учитывает сигнал по направлению
func (r *Recorder) SignalSet(kind string) {
	r.signals.WithLabelValues(kind).Inc()
}

// ObserveRun фиксирует длительность прогона
func (r *Recorder) ObserveRun(d time.Duration) {
	r.duration.Set(d.Seconds())
}

// Push отправляет метрики в Pushgateway с группировкой по контракту и прогону
func (r *Recorder) Push(ctx context.Context, url, job, contract, runID string) error {
	err := push.New(url, job).
		Gatherer(r.registry).
		Grouping("contract", contract).
		Grouping("run_id", runID).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("ошибка отправки метрик: %w", err)
	}
	return nil
}

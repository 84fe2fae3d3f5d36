package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"
)

const (
	OperationCreate = "create"
	OperationRename = "rename"
	OperationDelete = "delete"
	OperationRole   = "role"
)

// Metrics owns its own prometheus registry so several instances can coexist in tests.
type Metrics struct {
	StartTime time.Time

	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	failures   *prometheus.CounterVec
	stats      *prometheus.GaugeVec
	tick       prometheus.Histogram
	ticks      *atomic.Int64
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		StartTime: time.Now(),
		registry:  reg,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "counter_channel_operations_total",
			Help: "Channel mutations issued to Discord by operation",
		}, []string{"operation"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "counter_failures_total",
			Help: "Failed Discord calls by operation",
		}, []string{"operation"}),
		stats: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "counter_guild_stats",
			Help: "Last computed stat value per guild and key",
		}, []string{"guild_id", "key"}),
		tick: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "counter_update_tick_duration_seconds",
			Help:    "Duration of a scheduled update over every guild",
			Buckets: prometheus.DefBuckets,
		}),
		ticks: atomic.NewInt64(0),
	}
}

func (m *Metrics) IncrementOperation(operation string) {
	m.operations.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrementFailure(operation string) {
	m.failures.WithLabelValues(operation).Inc()
}

func (m *Metrics) SetStat(guildID, key string, value int) {
	m.stats.WithLabelValues(guildID, key).Set(float64(value))
}

// DeleteGuild drops every series labelled with guildID.
func (m *Metrics) DeleteGuild(guildID string) {
	m.stats.DeletePartialMatch(prometheus.Labels{"guild_id": guildID})
}

func (m *Metrics) ObserveTick(d time.Duration) {
	m.ticks.Inc()
	m.tick.Observe(d.Seconds())
}

func (m *Metrics) Ticks() int64 {
	return m.ticks.Load()
}

func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.StartTime)
}

// Handler exposes the registry in prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// monitor/monitor.go
package monitor

import (
	"expvar"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/wfunc/scorekeeper/logger"
	"github.com/wfunc/scorekeeper/state"
)

type Metrics struct {
	ActiveSessions   prometheus.Gauge
	ActivePlayers    prometheus.Gauge
	ConnectedClients prometheus.Gauge
	ScoreEvents      *prometheus.CounterVec
	MessagesReceived prometheus.Counter
	MessageLatency   prometheus.Histogram
	PersistDuration  prometheus.Histogram
	PersistFailures  prometheus.Counter
}

func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of scoring sessions in the registry",
		}),
		ActivePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_players",
			Help:      "Number of players across all scoring sessions",
		}),
		ConnectedClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Number of connected websocket clients",
		}),
		ScoreEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_events_total",
			Help:      "Score changes registered, by sign",
		}, []string{"sign"}),
		MessagesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Total number of messages received",
		}),
		MessageLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "message_latency_seconds",
			Help:      "Message processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		PersistDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      "Time spent writing the state bundle",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "State bundle writes that failed",
		}),
	}

	reg.MustRegister(
		m.ActiveSessions,
		m.ActivePlayers,
		m.ConnectedClients,
		m.ScoreEvents,
		m.MessagesReceived,
		m.MessageLatency,
		m.PersistDuration,
		m.PersistFailures,
	)

	return m
}

// StatsSource provides the live overview the gauges mirror.
type StatsSource interface {
	Derived() state.DerivedStatistics
}

type Monitor struct {
	metrics      *Metrics
	registry     *prometheus.Registry
	source       StatsSource
	startTime    time.Time
	requestCount int64
	mutex        sync.Mutex
}

// NewMonitor uses its own registry so several monitors can coexist in tests.
func NewMonitor(namespace string) *Monitor {
	registry := prometheus.NewRegistry()
	return &Monitor{
		metrics:   NewMetrics(namespace, registry),
		registry:  registry,
		startTime: time.Now(),
	}
}

func (m *Monitor) Metrics() *Metrics {
	return m.metrics
}

// SetSource installs the gauge source and refreshes once.
func (m *Monitor) SetSource(source StatsSource) {
	m.mutex.Lock()
	m.source = source
	m.mutex.Unlock()
	m.Refresh()
}

// Refresh recomputes the session and player gauges.
func (m *Monitor) Refresh() {
	m.mutex.Lock()
	source := m.source
	m.mutex.Unlock()
	if source == nil {
		return
	}
	d := source.Derived()
	m.metrics.ActiveSessions.Set(float64(d.ActiveSessions))
	m.metrics.ActivePlayers.Set(float64(d.ActivePlayers))
}

// StateChanged implements state.Observer.
func (m *Monitor) StateChanged(ev state.Event) {
	switch ev.Kind {
	case state.ScoreRegistered:
		sign := "positive"
		if ev.Delta < 0 {
			sign = "negative"
		}
		m.metrics.ScoreEvents.WithLabelValues(sign).Inc()
	case state.SessionAdded, state.SessionUpdated, state.SessionsRemoved:
		m.Refresh()
	}
}

// ObserveSave matches persistence.SaveObserver.
func (m *Monitor) ObserveSave(elapsed time.Duration, err error) {
	m.metrics.PersistDuration.Observe(elapsed.Seconds())
	if err != nil {
		m.metrics.PersistFailures.Inc()
	}
}

func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

var publishOnce sync.Once

// StartServer serves /metrics and /debug/vars on addr in the background.
func (m *Monitor) StartServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	// 添加expvar指标
	publishOnce.Do(func() {
		expvar.Publish("uptime", expvar.Func(func() interface{} {
			return time.Since(m.startTime).Seconds()
		}))

		expvar.Publish("requests", expvar.Func(func() interface{} {
			m.mutex.Lock()
			defer m.mutex.Unlock()
			return m.requestCount
		}))
	})
	mux.Handle("/debug/vars", expvar.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Errorw("metrics server stopped", "addr", addr, "error", err)
		}
	}()
	return srv
}

func (m *Monitor) IncConnectedClients() {
	m.metrics.ConnectedClients.Inc()
}

func (m *Monitor) DecConnectedClients() {
	m.metrics.ConnectedClients.Dec()
}

func (m *Monitor) IncMessagesReceived() {
	m.metrics.MessagesReceived.Inc()
	m.mutex.Lock()
	m.requestCount++
	m.mutex.Unlock()
}

func (m *Monitor) ObserveMessageLatency(duration time.Duration) {
	m.metrics.MessageLatency.Observe(duration.Seconds())
}

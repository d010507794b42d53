package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the feed server. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry         *prometheus.Registry
	requestsTotal    prometheus.Counter
	errorsTotal      prometheus.Counter
	activeSessions   prometheus.Gauge
	openConnections  prometheus.Gauge
	wsMessagesTotal  *prometheus.CounterVec
	navigationsTotal *prometheus.CounterVec
	pageFetchesTotal *prometheus.CounterVec
	reportsTotal     *prometheus.CounterVec
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scrollfeed_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scrollfeed_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scrollfeed_active_sessions",
		Help: "Number of open feed sessions",
	})
	openConnections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scrollfeed_open_connections",
		Help: "Number of websocket connections held by this instance",
	})
	wsMessagesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollfeed_ws_messages_total",
		Help: "Inbound websocket messages by type",
	}, []string{"type"})
	navigationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollfeed_navigations_total",
		Help: "Scroll gestures by classified direction",
	}, []string{"direction"})
	pageFetchesTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollfeed_page_fetches_total",
		Help: "Video list page fetches by result",
	}, []string{"result"})
	reportsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scrollfeed_reports_total",
		Help: "Engagement reports by kind and result",
	}, []string{"kind", "result"})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		activeSessions,
		openConnections,
		wsMessagesTotal,
		navigationsTotal,
		pageFetchesTotal,
		reportsTotal,
	)

	return &Metrics{
		registry:         registry,
		requestsTotal:    requestsTotal,
		errorsTotal:      errorsTotal,
		activeSessions:   activeSessions,
		openConnections:  openConnections,
		wsMessagesTotal:  wsMessagesTotal,
		navigationsTotal: navigationsTotal,
		pageFetchesTotal: pageFetchesTotal,
		reportsTotal:     reportsTotal,
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) IncRequests() {
	if m == nil {
		return
	}
	m.requestsTotal.Inc()
}

func (m *Metrics) IncErrors() {
	if m == nil {
		return
	}
	m.errorsTotal.Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

func (m *Metrics) SetOpenConnections(n int) {
	if m == nil {
		return
	}
	m.openConnections.Set(float64(n))
}

func (m *Metrics) IncWSMessage(messageType string) {
	if m == nil {
		return
	}
	m.wsMessagesTotal.WithLabelValues(messageType).Inc()
}

func (m *Metrics) IncNavigation(direction string) {
	if m == nil {
		return
	}
	m.navigationsTotal.WithLabelValues(direction).Inc()
}

func (m *Metrics) ObservePageFetch(err error) {
	if m == nil {
		return
	}
	m.pageFetchesTotal.WithLabelValues(result(err)).Inc()
}

// ObserveReport counts one view or like report.
func (m *Metrics) ObserveReport(kind string, err error) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(kind, result(err)).Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}

package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector groups the service's instruments. Instruments are
// registered on the registerer passed to NewPrometheusCollector.
type PrometheusCollector struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	queueMutations *prometheus.CounterVec

	broadcastsTotal    prometheus.Counter
	framesDelivered    prometheus.Counter
	framesDropped      prometheus.Counter
	broadcastFanout    prometheus.Histogram
	viewerSessions     prometheus.Gauge
	rooms              prometheus.Gauge
	wsMessagesReceived *prometheus.CounterVec
}

func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	p := &PrometheusCollector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queuecast_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),

		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "queuecast_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		queueMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queuecast_queue_mutations_total",
			Help: "Queue mutations by operation and outcome.",
		}, []string{"operation", "outcome"}),

		broadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queuecast_broadcasts_total",
			Help: "Queue state broadcasts issued.",
		}),

		framesDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queuecast_broadcast_frames_enqueued_total",
			Help: "Broadcast frames handed to viewer sessions.",
		}),

		framesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "queuecast_broadcast_frames_dropped_total",
			Help: "Broadcast frames dropped because a viewer's buffer was full.",
		}),

		broadcastFanout: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "queuecast_broadcast_fanout",
			Help:    "Number of viewers reached per broadcast.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		}),

		viewerSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queuecast_viewer_sessions",
			Help: "Connected live-channel sessions.",
		}),

		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "queuecast_rooms",
			Help: "Queues with at least one viewer.",
		}),

		wsMessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "queuecast_ws_messages_received_total",
			Help: "Inbound live-channel frames by type.",
		}, []string{"type"}),
	}

	reg.MustRegister(
		p.httpRequests,
		p.httpDuration,
		p.queueMutations,
		p.broadcastsTotal,
		p.framesDelivered,
		p.framesDropped,
		p.broadcastFanout,
		p.viewerSessions,
		p.rooms,
		p.wsMessagesReceived,
	)

	return p
}

func (p *PrometheusCollector) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordQueueMutation(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.queueMutations.WithLabelValues(operation, outcome).Inc()
}

func (p *PrometheusCollector) RecordBroadcast(delivered, dropped int) {
	p.broadcastsTotal.Inc()
	p.framesDelivered.Add(float64(delivered))
	p.framesDropped.Add(float64(dropped))
	p.broadcastFanout.Observe(float64(delivered + dropped))
}

func (p *PrometheusCollector) RecordSessionOpened() {
	p.viewerSessions.Inc()
}

func (p *PrometheusCollector) RecordSessionClosed() {
	p.viewerSessions.Dec()
}

func (p *PrometheusCollector) SetRooms(n int) {
	p.rooms.Set(float64(n))
}

func (p *PrometheusCollector) RecordWSMessage(messageType string) {
	p.wsMessagesReceived.WithLabelValues(messageType).Inc()
}

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "dronelink_"

	IngestResultSuccess = "success"
	IngestResultError   = "error"

	PersistResultSuccess = "success"
	PersistResultError   = "error"

	DropReasonMalformed    = "malformed"
	DropReasonUnknownEvent = "unknown_event"
	DropReasonMissingDrone = "missing_drone_id"
	DropReasonSlowClient   = "slow_client"
	DropReasonQueueFull    = "queue_full"
)

var (
	registerOnce sync.Once

	relayConnections prometheus.Gauge
	relayMessages    *prometheus.CounterVec
	relayDropped     *prometheus.CounterVec
	relayDeliveries  prometheus.Counter

	persistQueueDepth prometheus.Gauge
	persistWrites     *prometheus.CounterVec

	ingestRequests *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec
)

// Init registers observability metrics.
func Init() {
	registerOnce.Do(func() {
		relayConnections = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "relay_connections",
				Help: "Currently open relay connections",
			},
		)
		relayMessages = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "relay_messages_total",
				Help: "Total inbound relay messages by event",
			},
			[]string{"event"},
		)
		relayDropped = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "relay_dropped_messages_total",
				Help: "Total dropped relay messages by reason",
			},
			[]string{"reason"},
		)
		relayDeliveries = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metricPrefix + "relay_fanout_deliveries_total",
				Help: "Total messages delivered to topic members",
			},
		)

		persistQueueDepth = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: metricPrefix + "persist_queue_depth",
				Help: "Pending records in the write-behind queue",
			},
		)
		persistWrites = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "persist_writes_total",
				Help: "Total write-behind storage writes by result",
			},
			[]string{"result"},
		)

		ingestRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "ingest_requests_total",
				Help: "Total REST ingest requests by result",
			},
			[]string{"result"},
		)
		ingestLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "ingest_latency_seconds",
				Help:    "REST ingest latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			relayConnections,
			relayMessages,
			relayDropped,
			relayDeliveries,
			persistQueueDepth,
			persistWrites,
			ingestRequests,
			ingestLatency,
		)
	})
}

// IncConnections increments the open connection gauge.
func IncConnections() {
	if relayConnections != nil {
		relayConnections.Inc()
	}
}

// DecConnections decrements the open connection gauge.
func DecConnections() {
	if relayConnections != nil {
		relayConnections.Dec()
	}
}

// IncMessage counts one inbound relay message.
func IncMessage(event string) {
	if relayMessages != nil {
		relayMessages.WithLabelValues(event).Inc()
	}
}

// IncDropped counts one dropped relay message.
func IncDropped(reason string) {
	if relayDropped != nil {
		relayDropped.WithLabelValues(reason).Inc()
	}
}

// AddDeliveries counts fan-out deliveries.
func AddDeliveries(n int) {
	if relayDeliveries != nil && n > 0 {
		relayDeliveries.Add(float64(n))
	}
}

// SetPersistQueueDepth records the pending queue depth.
func SetPersistQueueDepth(depth int) {
	if persistQueueDepth != nil {
		persistQueueDepth.Set(float64(depth))
	}
}

// IncPersist counts one write-behind storage write.
func IncPersist(result string) {
	if persistWrites != nil {
		persistWrites.WithLabelValues(result).Inc()
	}
}

// ObserveIngest records one REST ingest request.
func ObserveIngest(result string, elapsed time.Duration) {
	if ingestRequests != nil {
		ingestRequests.WithLabelValues(result).Inc()
	}
	if ingestLatency != nil {
		ingestLatency.WithLabelValues(result).Observe(elapsed.Seconds())
	}
}

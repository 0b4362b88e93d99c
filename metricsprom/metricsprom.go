// Package metricsprom exports attnlens operational metrics to Prometheus.
//
// Collector implements attnlens.MetricsCollector over a Prometheus
// registry:
//
//	reg := prometheus.NewRegistry()
//	sc, err := attnlens.Load(ctx, store, name,
//	    attnlens.WithMetricsCollector(metricsprom.New(reg)))
package metricsprom

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "attnlens"

// Collector is a Prometheus-backed attnlens.MetricsCollector.
type Collector struct {
	sceneLoads        *prometheus.CounterVec
	sceneLoadDuration prometheus.Histogram

	decodes        *prometheus.CounterVec
	decodeDuration *prometheus.HistogramVec

	fetches       prometheus.Counter
	fetchedBytes  prometheus.Counter
	fetchDuration prometheus.Histogram

	queries       *prometheus.CounterVec
	queryErrors   *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
	inverseKeys   prometheus.Histogram
}

// New registers the collector's metrics with reg and returns it. Passing
// the same registry twice panics on duplicate registration, as usual for
// promauto.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		sceneLoads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scene_loads_total",
			Help:      "Scene loads by outcome.",
		}, []string{"status"}),
		sceneLoadDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scene_load_duration_seconds",
			Help:      "End-to-end scene load latency.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		decodes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decodes_total",
			Help:      "Tensor decodes by variant and outcome.",
		}, []string{"variant", "status"}),
		decodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_duration_seconds",
			Help:      "Tensor fetch-and-decode latency by variant.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"variant"}),
		fetches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Side-car blob fetches.",
		}),
		fetchedBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetched_bytes_total",
			Help:      "Bytes fetched from the store, before decompression.",
		}),
		fetchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Side-car fetch latency.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Attention queries by kind.",
		}, []string{"kind"}),
		queryErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_errors_total",
			Help:      "Failed attention queries by kind.",
		}, []string{"kind"}),
		queryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Attention query latency by kind.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
		}, []string{"kind"}),
		inverseKeys: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "inverse_selected_keys",
			Help:      "Key-token selection size per inverse query.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

// RecordSceneLoad implements attnlens.MetricsCollector.
func (c *Collector) RecordSceneLoad(duration time.Duration, err error) {
	c.sceneLoads.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.sceneLoadDuration.Observe(duration.Seconds())
	}
}

// RecordDecode implements attnlens.MetricsCollector.
func (c *Collector) RecordDecode(variant string, duration time.Duration, err error) {
	c.decodes.WithLabelValues(variant, status(err)).Inc()
	if err == nil {
		c.decodeDuration.WithLabelValues(variant).Observe(duration.Seconds())
	}
}

// RecordFetch implements attnlens.MetricsCollector.
func (c *Collector) RecordFetch(bytes int64, duration time.Duration, err error) {
	c.fetches.Inc()
	if err != nil {
		return
	}
	c.fetchedBytes.Add(float64(bytes))
	c.fetchDuration.Observe(duration.Seconds())
}

// RecordInverseQuery implements attnlens.MetricsCollector.
func (c *Collector) RecordInverseQuery(selectedKeys int, duration time.Duration, err error) {
	c.recordQuery("inverse", duration, err)
	if err == nil {
		c.inverseKeys.Observe(float64(selectedKeys))
	}
}

// RecordForwardQuery implements attnlens.MetricsCollector.
func (c *Collector) RecordForwardQuery(duration time.Duration, err error) {
	c.recordQuery("forward", duration, err)
}

func (c *Collector) recordQuery(kind string, duration time.Duration, err error) {
	c.queries.WithLabelValues(kind).Inc()
	if err != nil {
		c.queryErrors.WithLabelValues(kind).Inc()
		return
	}
	c.queryDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

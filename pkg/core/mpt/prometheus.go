package mpt

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	// persistedSize prometheus metric.
	persistedSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Help:      "Number of key-value pairs in the last persisted trie",
			Name:      "persisted_trie_size",
			Namespace: "mptindex",
		},
	)
	// flushedNodes prometheus metric.
	flushedNodes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes written to the storage",
			Name:      "flushed_nodes_total",
			Namespace: "mptindex",
		},
	)
	// loadedNodes prometheus metric.
	loadedNodes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes read from the storage",
			Name:      "loaded_nodes_total",
			Namespace: "mptindex",
		},
	)
)

func init() {
	prometheus.MustRegister(
		persistedSize,
		flushedNodes,
		loadedNodes,
	)
}

func updatePersistedSizeMetric(size int) {
	persistedSize.Set(float64(size))
}

func addFlushedNodesMetric(n int) {
	flushedNodes.Add(float64(n))
}

func incLoadedNodesMetric() {
	loadedNodes.Inc()
}

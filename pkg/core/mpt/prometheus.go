package mpt

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics for monitoring service.
var (
	nodeReads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes loaded from the store",
			Name:      "mpt_node_reads_total",
			Namespace: "mptledger",
		},
	)
	cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes served from the node cache",
			Name:      "mpt_cache_hits_total",
			Namespace: "mptledger",
		},
	)
	nodeWrites = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie nodes written to the store",
			Name:      "mpt_node_writes_total",
			Namespace: "mptledger",
		},
	)
	commits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Help:      "Number of trie change sets committed",
			Name:      "mpt_commits_total",
			Namespace: "mptledger",
		},
	)
)

func init() {
	prometheus.MustRegister(
		nodeReads,
		cacheHits,
		nodeWrites,
		commits,
	)
}

func updateCommitMetrics(nodes int) {
	commits.Inc()
	nodeWrites.Add(float64(nodes))
}

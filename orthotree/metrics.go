package orthotree

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	operationLabel = "operation"
)

var (
	queriesPerformed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orthotree_queries_total",
		Help: "The number of queries performed against a tree, by operation.",
	}, []string{operationLabel})

	liveNodeCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orthotree_live_nodes",
		Help: "The number of nodes in the most recently built or edited tree.",
	})
)

func instrumentQuery(op string) {
	queriesPerformed.With(prometheus.Labels{operationLabel: op}).Inc()
}

func instrumentNodeCount(n int) {
	liveNodeCount.Set(float64(n))
}

package nftsync

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricNameSpace = "nftsync"
)

var (
	metricTxs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "processed_txs",
			Help:      "relevant txs processed, by intent",
		},
		[]string{"intent"},
	)
	metricMetadataFetch = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "metadata_fetch",
			Help:      "metadata resolutions, by result",
		},
		[]string{"result"},
	)
	metricDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "dropped_mutations",
			Help:      "token writes that did not happen, by reason",
		},
		[]string{"reason"},
	)
	metricAttributeColumns = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: MetricNameSpace,
			Name:      "attribute_columns_added",
			Help:      "attribute columns added to the tokens table",
		},
	)
	metricTokens = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "tokens",
			Help:      "tracked tokens",
		},
		[]string{"state"},
	)
	metricLastLedger = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: MetricNameSpace,
			Name:      "last_validated_ledger",
			Help:      "ledger index of the latest validated tx seen on the stream",
		},
	)
)

func init() {
	prometheus.MustRegister(
		metricTxs,
		metricMetadataFetch,
		metricDropped,
		metricAttributeColumns,
		metricTokens,
		metricLastLedger,
	)
}

func metricTokenCount(active, destroyed int64) {
	metricTokens.WithLabelValues("active").Set(float64(active))
	metricTokens.WithLabelValues("destroyed").Set(float64(destroyed))
}

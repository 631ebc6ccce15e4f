package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sephra1/lisk-sdk/logx"
)

type chainPromMetrics struct {
	nodeUpUnixSeconds prometheus.Gauge
	blockHeight       prometheus.Gauge
	blocksApplied     prometheus.Counter
	blocksReverted    prometheus.Counter
	txInBlock         prometheus.Histogram
	poolSize          prometheus.Gauge
	panicCount        prometheus.Counter
}

func newChainPromMetrics() *chainPromMetrics {
	return &chainPromMetrics{
		nodeUpUnixSeconds: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "chain_node_up_timestamp_unix_seconds",
				Help: "Unix timestamp of the node",
			},
		),
		blockHeight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "chain_block_height",
				Help: "Height of the last applied block",
			},
		),
		blocksApplied: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "chain_blocks_applied_total",
				Help: "Number of blocks applied since start",
			},
		),
		blocksReverted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "chain_blocks_reverted_total",
				Help: "Number of blocks removed by deleteLastBlock since start",
			},
		),
		txInBlock: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "chain_tx_in_block",
				Help:    "Number of transactions per applied block",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
			},
		),
		poolSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "chain_pool_size",
				Help: "Number of unconfirmed transactions in the pool",
			},
		),
		panicCount: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "chain_panic_total",
				Help: "Number of recovered panics",
			},
		),
	}
}

var metrics = newChainPromMetrics()

// Serve exposes /metrics on the given address
func Serve(addr string) {
	metrics.nodeUpUnixSeconds.Set(float64(time.Now().Unix()))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logx.Error("MONITORING", "metrics server stopped:", err.Error())
		}
	}()
}

func SetBlockHeight(height uint64) {
	metrics.blockHeight.Set(float64(height))
}

func IncreaseBlocksApplied(txCount int) {
	metrics.blocksApplied.Inc()
	metrics.txInBlock.Observe(float64(txCount))
}

func IncreaseBlocksReverted() {
	metrics.blocksReverted.Inc()
}

func SetPoolSize(size int) {
	metrics.poolSize.Set(float64(size))
}

func IncreasePanicCount() {
	metrics.panicCount.Inc()
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RPCRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ariya_rpc_requests_total", Help: "Full-node JSON-RPC calls by method and outcome"},
		[]string{"method", "outcome"},
	)
	RPCDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "ariya_rpc_duration_seconds", Help: "Full-node JSON-RPC latency", Buckets: prometheus.DefBuckets},
		[]string{"method"},
	)
	ScannedTransactions = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ariya_scanned_transactions_total", Help: "Transactions read by history scans"},
		[]string{"function"},
	)
	FlowSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ariya_flow_steps_total", Help: "Flow step completions by flow, step and outcome"},
		[]string{"flow", "step", "outcome"},
	)
	CheckinsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ariya_checkins_recorded_total", Help: "Check-in log writes by direction"},
		[]string{"direction"},
	)
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ariya_http_requests_total", Help: "HTTP requests by route and status"},
		[]string{"route", "status"},
	)
)

func Register() {
	prometheus.MustRegister(RPCRequests, RPCDuration, ScannedTransactions, FlowSteps, CheckinsRecorded, HTTPRequests)
}

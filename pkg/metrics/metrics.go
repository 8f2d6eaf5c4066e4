// Package metrics 提供 Prometheus helper，包含 HTTP 与借贷业务指标模板
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 指标集合
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求计数
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTP 请求耗时
	HTTPRequestDuration *prometheus.HistogramVec

	// 决策计数（按结果分类）
	DecisionsTotal *prometheus.CounterVec
	// 贷款状态流转计数
	LoanTransitionsTotal *prometheus.CounterVec
	// 累计放款金额（USD）
	DisbursedTotal prometheus.Counter
	// 累计还款金额（USD）
	RepaidTotal prometheus.Counter

	// 资金池余额（USD）
	PoolBalance prometheus.Gauge
	// 托管金库锁定总值（USD）
	EscrowLockedValue prometheus.Gauge
	// 活跃贷款数
	ActiveLoans prometheus.Gauge
}

// New 创建指标实例
func New(serviceName string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "decisions_total",
			Help:      "Lending decisions by outcome",
		}, []string{"outcome"}),
		LoanTransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "loan_transitions_total",
			Help:      "Loan status transitions",
		}, []string{"to_status"}),
		DisbursedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "disbursed_usd_total",
			Help:      "Total USD disbursed from the lending pool",
		}),
		RepaidTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "repaid_usd_total",
			Help:      "Total USD repaid to the lending pool",
		}),

		PoolBalance: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "pool_balance_usd",
			Help:      "Current lending pool balance in USD",
		}),
		EscrowLockedValue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "escrow_locked_usd",
			Help:      "Total USD value of collateral locked in escrow",
		}),
		ActiveLoans: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lending",
			Subsystem: serviceName,
			Name:      "active_loans",
			Help:      "Number of loans not yet completed or failed",
		}),
	}

	m.registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DecisionsTotal,
		m.LoanTransitionsTotal,
		m.DisbursedTotal,
		m.RepaidTotal,
		m.PoolBalance,
		m.EscrowLockedValue,
		m.ActiveLoans,
	)

	return m
}

// Handler 返回 /metrics 的 HTTP handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

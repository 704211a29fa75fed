package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/balanceledger/internal/domain"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Posting metrics
	PostingsTotal *prometheus.CounterVec
	PostedAmount  *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	Balance       prometheus.Gauge

	// API metrics
	HTTPRequests         *prometheus.CounterVec
	HTTPDuration         *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all Prometheus metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		PostingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balanceledger_postings_total",
				Help: "Total number of entries appended, by kind",
			},
			[]string{"kind"},
		),
		PostedAmount: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balanceledger_posted_amount_total",
				Help: "Sum of absolute posted amounts, by kind",
			},
			[]string{"kind"},
		),
		Rejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balanceledger_rejections_total",
				Help: "Postings rejected before reaching the store, by reason",
			},
			[]string{"reason"},
		),
		Balance: factory.NewGauge(prometheus.GaugeOpts{
			Name: "balanceledger_balance",
			Help: "Balance after the most recent posting",
		}),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balanceledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "balanceledger_http_request_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "balanceledger_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		}),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "balanceledger_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// RecordPosting counts an appended entry.
func (m *Metrics) RecordPosting(kind domain.EntryKind, amount decimal.Decimal) {
	m.PostingsTotal.WithLabelValues(string(kind)).Inc()
	m.PostedAmount.WithLabelValues(string(kind)).Add(amount.Abs().InexactFloat64())
}

// RecordRejection counts a posting refused for reason.
func (m *Metrics) RecordRejection(reason string) {
	m.Rejections.WithLabelValues(reason).Inc()
}

// SetBalance publishes the latest balance.
func (m *Metrics) SetBalance(balance decimal.Decimal) {
	m.Balance.Set(balance.InexactFloat64())
}

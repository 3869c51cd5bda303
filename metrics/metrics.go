package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

var (
	// Registry holds the POS collectors.
	Registry = prometheus.NewRegistry()

	kotsPunched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "restaurant_pos",
			Subsystem: "kot",
			Name:      "punched_total",
			Help:      "Total number of KOTs punched.",
		},
	)

	itemsPunched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "restaurant_pos",
			Subsystem: "kot",
			Name:      "items_punched_total",
			Help:      "Total quantity of dishes punched across all KOTs.",
		},
	)

	itemsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "restaurant_pos",
			Subsystem: "kot",
			Name:      "items_deleted_total",
			Help:      "Total number of KOT items voided.",
		},
	)

	billsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "restaurant_pos",
			Subsystem: "bill",
			Name:      "created_total",
			Help:      "Total number of bills generated.",
		},
	)

	billsSettled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restaurant_pos",
			Subsystem: "bill",
			Name:      "settled_total",
			Help:      "Total number of bills settled, by payment mode.",
		},
		[]string{"payment_mode"},
	)

	revenue = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restaurant_pos",
			Subsystem: "bill",
			Name:      "revenue_total",
			Help:      "Settled bill totals including tax, by payment mode.",
		},
		[]string{"payment_mode"},
	)

	activeTables = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "restaurant_pos",
			Subsystem: "table",
			Name:      "active",
			Help:      "Number of tables with an active session.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "restaurant_pos",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "restaurant_pos",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)
)

func init() {
	Registry.MustRegister(
		kotsPunched,
		itemsPunched,
		itemsDeleted,
		billsCreated,
		billsSettled,
		revenue,
		activeTables,
		httpRequests,
		httpDuration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RecordKOTPunched(quantity int) {
	kotsPunched.Inc()
	if quantity > 0 {
		itemsPunched.Add(float64(quantity))
	}
}

func RecordItemDeleted() {
	itemsDeleted.Inc()
}

func RecordBillCreated() {
	billsCreated.Inc()
}

// RecordBillSettled counts a settlement and adds its total to revenue.
func RecordBillSettled(paymentMode string, total decimal.Decimal) {
	if paymentMode == "" {
		paymentMode = "unknown"
	}
	billsSettled.WithLabelValues(paymentMode).Inc()
	revenue.WithLabelValues(paymentMode).Add(total.InexactFloat64())
}

func SetActiveTables(n int) {
	activeTables.Set(float64(n))
}

func ActiveTablesGauge() prometheus.Gauge {
	return activeTables
}

// RecordHTTPRequest records one handled request. path should be the route
// pattern, not the raw URL, to keep label cardinality bounded.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if path == "" {
		path = "unmatched"
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// OrdersCreatedTotal counts checkout outcomes by payment method.
	OrdersCreatedTotal *prometheus.CounterVec
	// OrderStatusTransitionsTotal counts admin status changes.
	OrderStatusTransitionsTotal *prometheus.CounterVec
	// InvoicesRenderedTotal counts invoice renders by outcome.
	InvoicesRenderedTotal *prometheus.CounterVec
	// InvoiceExportsTotal counts invoice export attempts by outcome.
	InvoiceExportsTotal *prometheus.CounterVec
	// PricingWarningsTotal counts pricing inputs that were excluded from totals.
	PricingWarningsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		counter := func(name, help string, labels ...string) *prometheus.CounterVec {
			return register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      name,
				Help:      help,
			}, labels))
		}
		OrdersCreatedTotal = counter("orders_created_total",
			"Count of checkout attempts by payment method and result.", "payment_method", "result")
		OrderStatusTransitionsTotal = counter("order_status_transitions_total",
			"Count of order status transitions.", "from", "to", "result")
		InvoicesRenderedTotal = counter("invoices_rendered_total",
			"Count of invoice renders by result.", "result")
		InvoiceExportsTotal = counter("invoice_exports_total",
			"Count of invoice exports by result.", "result")
		PricingWarningsTotal = counter("pricing_warnings_total",
			"Count of pricing terms excluded from totals.", "field")
	})
}

// IncCounter increments vec with labels when the collector has been registered.
func IncCounter(vec *prometheus.CounterVec, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}

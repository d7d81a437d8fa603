package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Latency of the place-order handler, transaction included
	PlaceOrderLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "storefront_place_order_latency_seconds",
		Help:    "Latency of order placement requests",
		Buckets: prometheus.DefBuckets,
	})

	OrdersPlaced = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Total number of successfully placed orders",
	})

	// Orders rolled back because an item failed the stock guard
	StockRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_insufficient_stock_total",
		Help: "Total number of orders rejected for insufficient stock",
	})

	ReceiptsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_receipts_sent_total",
		Help: "Total number of order confirmation emails sent",
	})

	ReceiptFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "storefront_receipt_failures_total",
		Help: "Total number of order confirmation emails that failed to send",
	})
)

func Init() {
	prometheus.MustRegister(
		PlaceOrderLatency,
		OrdersPlaced,
		StockRejections,
		ReceiptsSent,
		ReceiptFailures,
	)
}

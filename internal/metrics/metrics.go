package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Crawler
	PagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_pages_processed_total",
			Help: "Total number of listing pages processed",
		},
		[]string{"source", "status"},
	)

	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_fetch_attempts_total",
			Help: "Total number of single page fetch attempts",
		},
		[]string{"result"},
	)

	PageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalogue_page_duration_seconds",
			Help:    "Time taken to load a page including retries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	ProductsAccepted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_products_accepted_total",
			Help: "Total number of new or re-priced products accepted",
		},
		[]string{"source"},
	)

	ProductsUnchanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_products_unchanged_total",
			Help: "Total number of products skipped because their cached price is unchanged",
		},
		[]string{"source"},
	)

	CrawlsFinished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalogue_crawls_finished_total",
			Help: "Total number of crawls by stop reason",
		},
		[]string{"reason"},
	)

	// Consumer
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumer_messages_processed_total",
			Help: "Total number of messages processed",
		},
		[]string{"status"},
	)

	MessageProcessingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "consumer_message_processing_duration_seconds",
			Help:    "Time taken to process a message",
			Buckets: prometheus.DefBuckets,
		},
	)

	DatabaseInserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumer_database_inserts_total",
			Help: "Total number of database inserts",
		},
		[]string{"status"},
	)
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}

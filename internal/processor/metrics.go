package processor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FetchCycles counts started refresh cycles.
	FetchCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nntparc_fetch_cycles_total",
		Help: "Number of refresh cycles started.",
	})

	// MessagesIngested counts messages committed to the store.
	MessagesIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nntparc_messages_ingested_total",
		Help: "Number of new messages written to the archive.",
	})

	// ParseFailures counts articles skipped for unparseable headers.
	ParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nntparc_article_parse_failures_total",
		Help: "Number of articles skipped because a header could not be parsed.",
	})

	// FetchErrors counts failed per-server fetch attempts.
	FetchErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nntparc_fetch_errors_total",
		Help: "Number of failed fetch attempts per server.",
	}, []string{"server"})
)

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "textbin_rooms_created_total",
			Help: "Total rooms created",
		},
	)

	MessagesPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "textbin_messages_posted_total",
			Help: "Total messages posted",
		},
	)

	DuplicateTopics = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "textbin_duplicate_topics_total",
			Help: "Total room creations resolved to an existing topic",
		},
	)

	// Retention metrics
	RowsEvicted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textbin_rows_evicted_total",
			Help: "Total rows deleted by capacity retention",
		},
		[]string{"collection"}, // "rooms" or "messages"
	)

	EvictionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textbin_eviction_failures_total",
			Help: "Total failed eviction rounds",
		},
		[]string{"collection", "stage"}, // stage: "fetch" or "delete"
	)

	BlobRemoveFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "textbin_blob_remove_failures_total",
			Help: "Total blob keys that could not be removed during eviction",
		},
	)
)

package services

import "github.com/prometheus/client_golang/prometheus"

var (
	// submissionsTotal counts pipeline outcomes: "created" or an error code.
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sjdb",
			Name:      "submissions_total",
			Help:      "Submission attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// attachmentBytes records accepted attachment sizes.
	attachmentBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "sjdb",
			Name:      "attachment_size_bytes",
			Help:      "Size of stored attachments in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1<<10, 4, 8), // 1KiB..16MiB
		},
	)

	// storageFreeBytes is the last free-space probe per area.
	storageFreeBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "sjdb",
			Name:      "storage_free_bytes",
			Help:      "Free bytes observed by admission control.",
		},
		[]string{"area"},
	)

	// retrievalsTotal counts moderator reads by operation and outcome.
	retrievalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sjdb",
			Name:      "retrievals_total",
			Help:      "Retrieval gateway calls by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(submissionsTotal, attachmentBytes, storageFreeBytes, retrievalsTotal)
}

// outcomeLabel maps an error to a bounded label value.
func outcomeLabel(err error, success string) string {
	if err == nil {
		return success
	}
	if isNotFound(err) {
		return "not_found"
	}
	if se, ok := asStatus(err); ok {
		return se.Code()
	}
	return "error"
}

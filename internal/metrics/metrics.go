// Package metrics registers the prometheus instruments of the KYC workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal counts accepted KYC submissions by subject type.
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verikyc_submissions_total",
		Help: "Total number of accepted KYC submissions",
	}, []string{"subject_type"})

	// TransitionsTotal counts terminal transitions by subject type and outcome.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "verikyc_transitions_total",
		Help: "Total number of terminal KYC transitions",
	}, []string{"subject_type", "outcome"})

	// PendingRecords tracks the number of pending records per subject type,
	// refreshed by the summary job.
	PendingRecords = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "verikyc_pending_records",
		Help: "Number of KYC records currently pending review",
	}, []string{"subject_type"})

	// DirectoryLookupFailures counts subject-directory lookups that degraded
	// to a nil profile.
	DirectoryLookupFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "verikyc_directory_lookup_failures_total",
		Help: "Total number of subject directory lookups that failed",
	})
)

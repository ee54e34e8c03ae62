// Package metrics provides Prometheus metrics for uploads and notifications.
// Labels stay low cardinality: no match ids, no recipients.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Channel label values.
const (
	ChannelEmail = "email"
	ChannelPush  = "push"
)

var (
	// VideoUploadsTotal counts upload attempts by outcome and failing stage.
	VideoUploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "league_video_uploads_total",
		Help: "Total number of video uploads, by outcome and stage (blob/catalog).",
	}, []string{"outcome", "stage"})

	// VideoUploadBytes tracks stored video sizes.
	VideoUploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "league_video_upload_bytes",
		Help:    "Size of stored video uploads in bytes.",
		Buckets: prometheus.ExponentialBuckets(1<<20, 4, 8),
	})

	// NotificationSendsTotal counts individual sends per channel.
	NotificationSendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "league_notification_sends_total",
		Help: "Total number of notification sends, by channel and outcome.",
	}, []string{"channel", "outcome"})

	// NotificationRejectedTotal counts requests refused before any send.
	NotificationRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "league_notification_rejected_total",
		Help: "Total number of notification requests rejected before sending, by channel and reason.",
	}, []string{"channel", "reason"})
)

// SweeperBlobsTotal counts orphan blobs seen by the sweeper, by action.
var SweeperBlobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "league_sweeper_orphan_blobs_total",
	Help: "Total number of orphan blobs found by the sweeper, by action (deleted/kept/failed).",
}, []string{"action"})

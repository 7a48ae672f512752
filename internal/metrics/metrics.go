// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "hunyuan3d"

	sourceLabel = "source"
	resultLabel = "result"
	opLabel     = "op"
	statusLabel = "status"
)

// Submission sources.
const (
	SourceText     = "text"
	SourceImageURL = "image_url"
	SourceImage    = "image"
)

// Asset fetch outcomes.
const (
	AssetCacheHit = "hit"
	AssetFetched  = "fetched"
	AssetFailed   = "error"
)

var submissionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "number of generation submissions by input source and outcome",
	},
	[]string{sourceLabel, resultLabel},
)

var providerErrorsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "provider_errors_total",
		Help:      "number of failed provider calls by operation",
	},
	[]string{opLabel},
)

var statusPollsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_polls_total",
		Help:      "number of successful status polls by observed job status",
	},
	[]string{statusLabel},
)

var assetFetchesTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "asset_fetches_total",
		Help:      "number of result asset requests by cache outcome",
	},
	[]string{resultLabel},
)

// IncreaseSubmissions counts one submission attempt.
func IncreaseSubmissions(source string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	submissionsTotalMetric.With(prometheus.Labels{sourceLabel: source, resultLabel: result}).Inc()
}

func IncreaseProviderErrors(op string) {
	providerErrorsTotalMetric.With(prometheus.Labels{opLabel: op}).Inc()
}

func IncreaseStatusPolls(status string) {
	statusPollsTotalMetric.With(prometheus.Labels{statusLabel: status}).Inc()
}

func IncreaseAssetFetches(result string) {
	assetFetchesTotalMetric.With(prometheus.Labels{resultLabel: result}).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(submissionsTotalMetric)
	prometheus.MustRegister(providerErrorsTotalMetric)
	prometheus.MustRegister(statusPollsTotalMetric)
	prometheus.MustRegister(assetFetchesTotalMetric)
}

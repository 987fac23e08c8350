// Package metrics exposes pipeline counters and the HTTP request middleware.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "job_aggregator"

const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// PlatformUnknown labels requests for platforms without an adapter.
const PlatformUnknown = "unknown"

// Recorder counts pipeline outcomes. All methods are safe on a nil Recorder.
type Recorder struct {
	search       *prometheus.CounterVec
	score        *prometheus.CounterVec
	apply        *prometheus.CounterVec
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		search: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_total",
			Help:      "Platform searches by outcome",
		}, []string{"platform", "outcome"}),
		score: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "score_total",
			Help:      "Match score calculations by outcome",
		}, []string{"outcome"}),
		apply: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "apply_total",
			Help:      "Applications by platform and outcome",
		}, []string{"platform", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status_code"}),
	}

	for _, c := range []prometheus.Collector{r.search, r.score, r.apply, r.httpRequests, r.httpDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Recorder) Search(platform, outcome string) {
	if r == nil {
		return
	}
	r.search.WithLabelValues(platform, outcome).Inc()
}

func (r *Recorder) Score(outcome string) {
	if r == nil {
		return
	}
	r.score.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Apply(platform, outcome string) {
	if r == nil {
		return
	}
	r.apply.WithLabelValues(platform, outcome).Inc()
}

// Middleware records count and latency of every request by route template.
func (r *Recorder) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		ctx.Next()

		if r == nil {
			return
		}

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(ctx.Writer.Status())
		method := ctx.Request.Method

		r.httpDuration.WithLabelValues(method, path, status).Observe(time.Since(start).Seconds())
		r.httpRequests.WithLabelValues(method, path, status).Inc()
	}
}

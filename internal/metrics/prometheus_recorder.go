package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry      *prom.Registry
	stageDuration *prom.HistogramVec
	buildDuration prom.Histogram
	buildOutcome  *prom.CounterVec
	lintFindings  *prom.CounterVec
	linkResults   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on the
// given registry (a fresh one when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "docnav",
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual build stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "docnav",
		Name:      "build_duration_seconds",
		Help:      "Total navigation build duration",
		Buckets:   prom.DefBuckets,
	})
	pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "docnav",
		Name:      "build_outcomes_total",
		Help:      "Build outcomes by final status",
	}, []string{"outcome"})
	pr.lintFindings = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "docnav",
		Name:      "lint_findings_total",
		Help:      "Lint findings by severity",
	}, []string{"severity"})
	pr.linkResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "docnav",
		Name:      "linkcheck_results_total",
		Help:      "External link check results",
	}, []string{"result"})
	reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.buildOutcome, pr.lintFindings, pr.linkResults)
	return pr
}

// Handler returns an HTTP handler exposing the recorder's registry.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncLintFindings(severity string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.lintFindings.WithLabelValues(severity).Add(float64(n))
}

func (p *PrometheusRecorder) IncLinkCheckResult(ok bool) {
	if p == nil {
		return
	}
	result := "broken"
	if ok {
		result = "ok"
	}
	p.linkResults.WithLabelValues(result).Inc()
}

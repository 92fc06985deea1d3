package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	LLMGenerationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cpl_llm_generation_duration_seconds",
		Help:    "Duration of a single model request",
		Buckets: []float64{.5, 1, 2.5, 5, 10, 20, 30, 60, 90, 120, 180, 300},
	}, []string{"model", "status"})

	LLMTokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpl_llm_tokens_total",
		Help: "Tokens used by model requests",
	}, []string{"model", "type"})

	SearchRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpl_search_requests_total",
		Help: "Web searches issued by the active search tool",
	}, []string{"status"})

	ProtocolGenerationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpl_protocol_generations_total",
		Help: "CPL protocol generations by outcome",
	}, []string{"status"})

	ViralAnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpl_viral_analyses_total",
		Help: "Viral analysis runs by outcome",
	}, []string{"status"})

	ScreenshotsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpl_screenshots_total",
		Help: "Screenshot attempts by capture method and result",
	}, []string{"method", "result"})

	CaptureDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cpl_capture_duration_seconds",
		Help:    "Duration of a single capture attempt",
		Buckets: []float64{1, 2.5, 5, 10, 15, 20, 30, 45, 60},
	})

	SchedulerSweepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cpl_scheduler_sweeps_total",
		Help: "Scheduler sweeps of pending sessions",
	}, []string{"status"})
)

// MustRegister registers all collectors
func MustRegister(registerer prometheus.Registerer) {
	registerer.MustRegister(
		LLMGenerationDuration,
		LLMTokensTotal,
		SearchRequestsTotal,
		ProtocolGenerationsTotal,
		ViralAnalysesTotal,
		ScreenshotsTotal,
		CaptureDuration,
		SchedulerSweepsTotal,
	)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveLLMGeneration records duration and token usage of a model request
func ObserveLLMGeneration(model string, duration time.Duration, inputTokens, outputTokens int64, err error) {
	if model == "" {
		model = "unknown"
	}
	LLMGenerationDuration.WithLabelValues(model, status(err)).Observe(duration.Seconds())
	if inputTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		LLMTokensTotal.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// ObserveSearch counts a web search
func ObserveSearch(err error) {
	SearchRequestsTotal.WithLabelValues(status(err)).Inc()
}

// IncProtocolGeneration counts a protocol generation by its outcome
func IncProtocolGeneration(outcome string) {
	ProtocolGenerationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveViralAnalysis counts an analysis run
func ObserveViralAnalysis(err error) {
	ViralAnalysesTotal.WithLabelValues(status(err)).Inc()
}

// ObserveCapture records a capture attempt
func ObserveCapture(method string, start time.Time, ok bool) {
	result := "failed"
	if ok {
		result = "saved"
	}
	ScreenshotsTotal.WithLabelValues(method, result).Inc()
	CaptureDuration.Observe(time.Since(start).Seconds())
}

// ObserveSweep counts a scheduler sweep
func ObserveSweep(err error) {
	SchedulerSweepsTotal.WithLabelValues(status(err)).Inc()
}

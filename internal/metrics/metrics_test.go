package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { MustRegister(reg) })
	assert.Panics(t, func() { MustRegister(reg) })
}

func TestObserveLLMGeneration(t *testing.T) {
	before := testutil.ToFloat64(LLMTokensTotal.WithLabelValues("test-model", "input"))

	ObserveLLMGeneration("test-model", time.Second, 120, 30, nil)

	assert.Equal(t, before+120, testutil.ToFloat64(LLMTokensTotal.WithLabelValues("test-model", "input")))
	assert.Equal(t, float64(30), testutil.ToFloat64(LLMTokensTotal.WithLabelValues("test-model", "output")))
}

func TestObserveCapture(t *testing.T) {
	before := testutil.ToFloat64(ScreenshotsTotal.WithLabelValues("full_page", "failed"))

	ObserveCapture("full_page", time.Now(), false)

	assert.Equal(t, before+1, testutil.ToFloat64(ScreenshotsTotal.WithLabelValues("full_page", "failed")))
}

func TestObserveSearch(t *testing.T) {
	before := testutil.ToFloat64(SearchRequestsTotal.WithLabelValues("error"))

	ObserveSearch(errors.New("down"))

	assert.Equal(t, before+1, testutil.ToFloat64(SearchRequestsTotal.WithLabelValues("error")))
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Intent("notes")
	m.Intent("notes")
	m.Search("semantic_scholar", "error")
	m.LLMRetry()
	m.MessageHandled(120 * time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.intents.WithLabelValues("notes")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searchRequests.WithLabelValues("semantic_scholar", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.llmRetries))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Intent("x")
		m.LLMRetry()
		m.LLMError("other")
		m.Search("p", "ok")
		m.MessageHandled(time.Second)
		m.Panic()
	})
}

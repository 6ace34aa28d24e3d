package issuehub

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsUpstreamOutcomes(t *testing.T) {
	m := NewMetrics()
	m.ObserveUpstream("createIssue", "ok", 20*time.Millisecond)
	m.ObserveUpstream("createIssue", "ok", 30*time.Millisecond)
	m.ObserveUpstream("createIssue", "upstream_error", 10*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.upstreamRequests.WithLabelValues("createIssue", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.upstreamRequests.WithLabelValues("createIssue", "upstream_error")))
}

func TestMetricsUntimedRejections(t *testing.T) {
	m := NewMetrics()
	m.ObserveUpstream("getIssue", "invalid_input", 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.upstreamRequests.WithLabelValues("getIssue", "invalid_input")))
	assert.Equal(t, 0, testutil.CollectAndCount(m.upstreamDuration), "rejections are not timed")
}

func TestMetricsGraphQLRequests(t *testing.T) {
	m := NewMetrics()
	m.RecordGraphQL("ok")
	m.RecordGraphQL("error")
	m.RecordGraphQL("ok")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.graphqlRequests.WithLabelValues("ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.graphqlRequests.WithLabelValues("error")))
}

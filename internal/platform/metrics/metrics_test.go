package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncVote("post", "insert")
	m.IncVote("post", "insert")
	m.IncConflictRetry("vote_post")
	m.IncBanIssued()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.VotesApplied.WithLabelValues("post", "insert")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConflictRetries.WithLabelValues("vote_post")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BansIssued))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncVote("post", "insert")
		m.IncDenial("archive_post", "unauthorized")
		m.ObserveMutation("publish_post", time.Now())
		m.ObserveRequest("GET", "/posts/{postID}", 200, time.Now())
	})
}

func TestObserveRequest(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRequest("POST", "/posts/{postID}/votes", 200, time.Now())
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

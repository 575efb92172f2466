package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Methods are safe to
// call on a nil *Metrics so services can run without instrumentation.
type Metrics struct {
	VotesApplied         *prometheus.CounterVec
	ConflictRetries      *prometheus.CounterVec
	LifecycleTransitions *prometheus.CounterVec
	AuthorizationDenials *prometheus.CounterVec
	MutationDuration     *prometheus.HistogramVec
	BansIssued           prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
	RateLimited          *prometheus.CounterVec
}

// New creates and registers all metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		VotesApplied: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_votes_applied_total",
			Help: "Votes applied, by target kind and ledger operation",
		}, []string{"target", "op"}),
		ConflictRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_conflict_retries_total",
			Help: "Mutations re-run after an optimistic-lock or unique-constraint conflict",
		}, []string{"operation"}),
		LifecycleTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_lifecycle_transitions_total",
			Help: "Post and comment status transitions",
		}, []string{"aggregate", "transition"}),
		AuthorizationDenials: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_authorization_denials_total",
			Help: "Denied mutation attempts, by action and error code",
		}, []string{"action", "code"}),
		MutationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agora_mutation_duration_seconds",
			Help:    "Wall time of mutation services including retries",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		BansIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "agora_bans_issued_total",
			Help: "New community bans (idempotent re-bans are not counted)",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "agora_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "agora_rate_limited_total",
			Help: "Requests rejected by the per-member rate limiter",
		}, []string{"class"}),
	}
}

func (m *Metrics) IncVote(target, op string) {
	if m != nil {
		m.VotesApplied.WithLabelValues(target, op).Inc()
	}
}

func (m *Metrics) IncConflictRetry(operation string) {
	if m != nil {
		m.ConflictRetries.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) IncTransition(aggregate, transition string) {
	if m != nil {
		m.LifecycleTransitions.WithLabelValues(aggregate, transition).Inc()
	}
}

func (m *Metrics) IncDenial(action, code string) {
	if m != nil {
		m.AuthorizationDenials.WithLabelValues(action, code).Inc()
	}
}

func (m *Metrics) IncRateLimited(class string) {
	if m != nil {
		m.RateLimited.WithLabelValues(class).Inc()
	}
}

func (m *Metrics) IncBanIssued() {
	if m != nil {
		m.BansIssued.Inc()
	}
}

// ObserveMutation records the elapsed time since start.
func (m *Metrics) ObserveMutation(operation string, start time.Time) {
	if m != nil {
		m.MutationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) ObserveRequest(method, route string, status int, start time.Time) {
	if m != nil {
		m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	}
}

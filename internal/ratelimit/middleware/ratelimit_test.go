package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agora/internal/platform/metrics"
	"agora/internal/ratelimit"
	"agora/internal/ratelimit/store"
	id "agora/pkg/domain"
	"agora/pkg/requestcontext"
)

type failingChecker struct{}

func (failingChecker) Check(context.Context, ratelimit.Class, id.MemberID) (*ratelimit.Result, error) {
	return nil, errors.New("redis down")
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func request(method, path string, member id.MemberID) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	if !member.IsNil() {
		req = req.WithContext(requestcontext.WithMemberID(req.Context(), member))
	}
	return req
}

func TestClassify(t *testing.T) {
	tests := []struct {
		method, path string
		class        ratelimit.Class
		limited      bool
	}{
		{http.MethodGet, "/posts/x", "", false},
		{http.MethodHead, "/posts/x", "", false},
		{http.MethodPut, "/posts/x/vote", ratelimit.ClassVote, true},
		{http.MethodPut, "/comments/x/vote/", ratelimit.ClassVote, true},
		{http.MethodPost, "/posts/x/comments", ratelimit.ClassWrite, true},
		{http.MethodPut, "/communities/x/moderators/y", ratelimit.ClassWrite, true},
		{http.MethodDelete, "/comments/x", ratelimit.ClassWrite, true},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			class, limited := Classify(httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.limited, limited)
			assert.Equal(t, tt.class, class)
		})
	}
}

func TestPerMemberRejectsOverLimit(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	limiter := ratelimit.New(store.NewInMemoryWindows(), map[ratelimit.Class]ratelimit.Limit{
		ratelimit.ClassWrite: {Requests: 1, Window: time.Minute},
		ratelimit.ClassVote:  {Requests: 2, Window: time.Minute},
	})
	h := New(limiter, discard(), m).PerMember(okHandler())
	member := id.NewMemberID()

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, request(http.MethodPost, "/posts", member))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "1", rr.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, request(http.MethodPost, "/posts", member))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), `"error":"rate_limited"`)
	assert.Contains(t, rr.Body.String(), `"retryable":true`)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues("write")))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, request(http.MethodPut, "/posts/p/vote", member))
	assert.Equal(t, http.StatusOK, rr.Code, "votes have their own window")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, request(http.MethodGet, "/posts/p", member))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, rr.Header().Get("X-RateLimit-Limit"), "reads are not counted")
}

func TestPerMemberPassesThrough(t *testing.T) {
	h := New(failingChecker{}, discard(), nil).PerMember(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, request(http.MethodPost, "/posts", id.NewMemberID()))
	assert.Equal(t, http.StatusOK, rr.Code, "limiter errors fail open")

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, request(http.MethodPost, "/posts", id.MemberID{}))
	assert.Equal(t, http.StatusOK, rr.Code, "unauthenticated requests are left to the auth layer")
}

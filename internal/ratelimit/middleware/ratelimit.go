package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"agora/internal/platform/metrics"
	"agora/internal/ratelimit"
	id "agora/pkg/domain"
	dErrors "agora/pkg/domain-errors"
	"agora/pkg/platform/httputil"
	"agora/pkg/requestcontext"
)

// Checker is satisfied by *ratelimit.Limiter.
type Checker interface {
	Check(ctx context.Context, class ratelimit.Class, memberID id.MemberID) (*ratelimit.Result, error)
}

type Middleware struct {
	limiter Checker
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func New(limiter Checker, logger *slog.Logger, m *metrics.Metrics) *Middleware {
	return &Middleware{limiter: limiter, logger: logger, metrics: m}
}

// Classify maps a request to its quota. Reads are not limited.
func Classify(r *http.Request) (ratelimit.Class, bool) {
	switch r.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return "", false
	}
	if r.Method == http.MethodPut && strings.HasSuffix(strings.TrimSuffix(r.URL.Path, "/"), "/vote") {
		return ratelimit.ClassVote, true
	}
	return ratelimit.ClassWrite, true
}

// PerMember limits mutations by the authenticated member. It must run after
// bearer-token authentication. Limiter errors let the request through.
func (m *Middleware) PerMember(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		class, limited := Classify(r)
		memberID := requestcontext.MemberID(ctx)
		if !limited || memberID.IsNil() {
			next.ServeHTTP(w, r)
			return
		}

		result, err := m.limiter.Check(ctx, class, memberID)
		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed",
				"error", err,
				"class", class,
				"member_id", memberID.String(),
			)
			next.ServeHTTP(w, r)
			return
		}
		if result == nil {
			next.ServeHTTP(w, r)
			return
		}

		addRateLimitHeaders(w, result)
		if !result.Allowed {
			m.metrics.IncRateLimited(string(class))
			m.logger.InfoContext(ctx, "rate limited",
				"class", class,
				"member_id", memberID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
			w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter(requestcontext.Now(ctx))))
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many "+string(class)+" requests, retry later"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *ratelimit.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
	if result.Degraded {
		w.Header().Set("X-RateLimit-Status", "degraded")
	}
}

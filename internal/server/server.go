// Package server assembles stores, services and the HTTP router for one
// persistence mode. cmd/server and the end-to-end suite share it.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agora/internal/admin"
	"agora/internal/authorization"
	communityhandler "agora/internal/community/handler"
	communitysvc "agora/internal/community/service"
	communitystore "agora/internal/community/store"
	contenthandler "agora/internal/content/handler"
	contentsvc "agora/internal/content/service"
	contentstore "agora/internal/content/store"
	identityhandler "agora/internal/identity/handler"
	identitysvc "agora/internal/identity/service"
	identitystore "agora/internal/identity/store"
	jwttoken "agora/internal/jwt_token"
	"agora/internal/platform/config"
	"agora/internal/platform/metrics"
	"agora/internal/platform/middleware"
	"agora/internal/platform/postgres"
	"agora/internal/platform/redis"
	"agora/internal/ratelimit"
	ratelimitmw "agora/internal/ratelimit/middleware"
	ratelimitstore "agora/internal/ratelimit/store"
	audit "agora/pkg/platform/audit"
	auditpublisher "agora/pkg/platform/audit/publisher"
	auditmemory "agora/pkg/platform/audit/store/memory"
	auditpg "agora/pkg/platform/audit/store/postgres"
	"agora/pkg/platform/httputil"
	"agora/pkg/platform/middleware/metadata"
	"agora/pkg/platform/middleware/requesttime"
	txcontext "agora/pkg/platform/tx"
)

// TokenAudience is the audience of bearer tokens accepted by the API.
const TokenAudience = "agora-api"

// Backend holds the stores of one persistence mode. Outbox is only set for
// Postgres, where audit events can be relayed to Kafka.
type Backend struct {
	members     identitysvc.Store
	communities communitysvc.CommunityStore
	moderators  communitysvc.ModeratorStore
	bans        communitysvc.BanStore
	posts       contentsvc.PostStore
	comments    contentsvc.CommentStore
	votes       contentsvc.VoteStore
	audit       audit.Store
	trail       admin.Trail
	windows     ratelimit.Store

	// windowsFallback answers rate limit checks while Redis is failing.
	windowsFallback ratelimit.Store

	Outbox  *auditpg.Store
	Tx      txcontext.Runner
	closers []func() error
}

func (b *Backend) InMemory() bool {
	return b.Outbox == nil
}

// OnClose registers fn to run, in reverse registration order, on Close.
func (b *Backend) OnClose(fn func() error) {
	b.closers = append(b.closers, fn)
}

func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		_ = b.closers[i]()
	}
}

func NewMemoryBackend(cfg config.Config) *Backend {
	events := auditmemory.NewInMemoryStore()
	return &Backend{
		members:     identitystore.NewInMemory(),
		communities: communitystore.NewInMemoryCommunities(),
		moderators:  communitystore.NewInMemoryModerators(),
		bans:        communitystore.NewInMemoryBans(),
		posts:       contentstore.NewInMemoryPosts(),
		comments:    contentstore.NewInMemoryComments(),
		votes:       contentstore.NewInMemoryVotes(),
		audit:       events,
		trail:       events,
		windows:     ratelimitstore.NewInMemoryWindows(),
		Tx:          txcontext.NewShardedMemory(cfg.Content.TxTimeout),
	}
}

// NewPostgresBackend takes ownership of db. When Redis is configured, per-target
// lock keys are also guarded by a Redis lock so several replicas queue on
// Redis instead of holding pool connections.
func NewPostgresBackend(ctx context.Context, cfg config.Config, db *sql.DB, logger *slog.Logger) (*Backend, error) {
	b := &Backend{closers: []func() error{db.Close}}
	if cfg.Postgres.AutoMigrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			b.Close()
			return nil, err
		}
		logger.Info("postgres migrations applied")
	}

	txOpts := []postgres.TxOption{postgres.WithTimeout(cfg.Content.TxTimeout), postgres.WithLogger(logger)}
	b.windows = ratelimitstore.NewInMemoryWindows()
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if client != nil {
		b.OnClose(client.Close)
		txOpts = append(txOpts, postgres.WithLocker(redis.NewLocker(client, cfg.Redis.LockTTL, cfg.Redis.LockWait)))
		logger.Info("redis target locks enabled", "lock_ttl", cfg.Redis.LockTTL)
		b.windowsFallback = b.windows
		b.windows = ratelimitstore.NewRedisWindows(client)
	}

	outbox := auditpg.New(db)
	b.members = identitystore.NewPostgres(db)
	b.communities = communitystore.NewPostgresCommunities(db)
	b.moderators = communitystore.NewPostgresModerators(db)
	b.bans = communitystore.NewPostgresBans(db)
	b.posts = contentstore.NewPostgresPosts(db)
	b.comments = contentstore.NewPostgresComments(db)
	b.votes = contentstore.NewPostgresVotes(db)
	b.audit = outbox
	b.trail = outbox
	b.Outbox = outbox
	b.Tx = postgres.NewTxRunner(db, txOpts...)
	return b, nil
}

type Services struct {
	Identity  *identitysvc.Service
	Community *communitysvc.Service
	Content   *contentsvc.Service
	Admin     *admin.Service

	// Limiter is nil when rate limiting is disabled.
	Limiter *ratelimit.Limiter
}

func NewServices(cfg config.Config, b *Backend, logger *slog.Logger, m *metrics.Metrics) *Services {
	publisher := auditpublisher.NewPublisher(b.audit, auditpublisher.WithLogger(logger))
	authz := authorization.New(b.members, b.moderators, b.bans,
		authorization.WithLogger(logger),
		authorization.WithMetrics(m),
	)
	community := communitysvc.New(b.communities, b.moderators, b.bans, authz, b.Tx,
		communitysvc.WithLogger(logger),
		communitysvc.WithMetrics(m),
		communitysvc.WithAuditPublisher(publisher),
		communitysvc.WithConflictRetries(cfg.Content.ConflictRetries),
	)
	identity := identitysvc.New(b.members, b.Tx,
		identitysvc.WithLogger(logger),
		identitysvc.WithMetrics(m),
		identitysvc.WithAuditPublisher(publisher),
		identitysvc.WithConflictRetries(cfg.Content.ConflictRetries),
	)
	content := contentsvc.New(b.posts, b.comments, b.votes, community, authz, b.Tx,
		contentsvc.WithLogger(logger),
		contentsvc.WithMetrics(m),
		contentsvc.WithAuditPublisher(publisher),
		contentsvc.WithConflictRetries(cfg.Content.ConflictRetries),
	)
	svcs := &Services{
		Identity:  identity,
		Community: community,
		Content:   content,
		Admin:     admin.NewService(authz, b.trail, admin.WithLogger(logger)),
	}
	if cfg.RateLimit.Enabled {
		opts := []ratelimit.Option{ratelimit.WithLogger(logger)}
		if b.windowsFallback != nil {
			opts = append(opts, ratelimit.WithFallback(b.windowsFallback))
		}
		svcs.Limiter = ratelimit.New(b.windows, map[ratelimit.Class]ratelimit.Limit{
			ratelimit.ClassWrite: {Requests: cfg.RateLimit.Writes, Window: cfg.RateLimit.Window},
			ratelimit.ClassVote:  {Requests: cfg.RateLimit.Votes, Window: cfg.RateLimit.Window},
		}, opts...)
	}
	return svcs
}

// NewRouter mounts every handler behind bearer-token authentication. gatherer
// backs /metrics.
func NewRouter(svcs *Services, tokens *jwttoken.JWTService, logger *slog.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(metadata.ClientMetadata)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Latency(m))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		r.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(tokens), logger))
		if svcs.Limiter != nil {
			r.Use(ratelimitmw.New(svcs.Limiter, logger, m).PerMember)
		}
		identityhandler.New(svcs.Identity, logger).Register(r)
		communityhandler.New(svcs.Community, logger).Register(r)
		contenthandler.New(svcs.Content, logger).Register(r)
		admin.NewHandler(svcs.Admin, logger).Register(r)
	})
	return r
}

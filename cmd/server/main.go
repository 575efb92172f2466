package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	communitysvc "agora/internal/community/service"
	identitymodels "agora/internal/identity/models"
	identitysvc "agora/internal/identity/service"
	jwttoken "agora/internal/jwt_token"
	"agora/internal/platform/config"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/kafka"
	"agora/internal/platform/logger"
	"agora/internal/platform/metrics"
	"agora/internal/platform/postgres"
	"agora/internal/platform/tracing"
	"agora/internal/server"
	audit "agora/pkg/platform/audit"
	"agora/pkg/platform/audit/worker"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the stores, services and HTTP adapter, then serves until SIGINT or
// SIGTERM. Business logic lives in the internal service packages.
func run() error {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		return err
	}
	log := logger.New(cfg.Server.LogLevel)
	if cfg.Server.TraceSampleRatio > 0 {
		shutdownTracing := tracing.Install(log, cfg.Server.TraceSampleRatio)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				log.Warn("tracer provider shutdown failed", "error", err)
			}
		}()
		log.Info("tracing enabled", "sample_ratio", cfg.Server.TraceSampleRatio)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.Postgres)
	if err != nil {
		return err
	}
	var b *server.Backend
	if db != nil {
		b, err = server.NewPostgresBackend(ctx, cfg, db, log)
		if err != nil {
			return err
		}
		log.Info("using postgres backend")
	} else {
		b = server.NewMemoryBackend(cfg)
		log.Info("using in-memory backend")
	}
	defer b.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	svcs := server.NewServices(cfg, b, log, m)
	tokens := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, server.TokenAudience)

	if cfg.Server.SeedDemoData {
		if !b.InMemory() {
			log.Warn("seed_demo_data ignored on the postgres backend")
		} else if err := seedDemoData(ctx, svcs, tokens, log); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	relay, err := newRelay(gctx, cfg, b, log)
	if err != nil {
		return err
	}
	if relay != nil {
		g.Go(func() error {
			if err := relay.Run(gctx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	srv := httpserver.New(cfg.Server.Addr, server.NewRouter(svcs, tokens, log, m, prometheus.DefaultGatherer), log)
	g.Go(func() error {
		log.Info("starting agora", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		log.Info("server stopped")
		return nil
	})
	return g.Wait()
}

// loadConfig applies, lowest precedence first: defaults, the --config file,
// the environment, then explicit flags.
func loadConfig(args []string) (config.Config, error) {
	cfg := config.Default()

	var path string
	flags := pflag.NewFlagSet("agora", pflag.ContinueOnError)
	flags.StringVar(&path, "config", "", "path to a YAML config file")
	addr := flags.String("addr", "", "listen address (overrides server.addr)")
	level := flags.String("log-level", "", "debug, info, warn or error")
	seed := flags.Bool("seed-demo-data", false, "create demo members and a community on the in-memory backend")
	ratio := flags.Float64("trace-sample-ratio", 0, "share of root spans to trace, 0 disables tracing")
	if err := flags.Parse(args); err != nil {
		return cfg, err
	}

	if path != "" {
		if err := config.LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv(os.LookupEnv)
	if flags.Changed("addr") {
		cfg.Server.Addr = *addr
	}
	if flags.Changed("log-level") {
		cfg.Server.LogLevel = *level
	}
	if flags.Changed("seed-demo-data") {
		cfg.Server.SeedDemoData = *seed
	}
	if flags.Changed("trace-sample-ratio") {
		cfg.Server.TraceSampleRatio = *ratio
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newRelay returns nil unless both Kafka and the Postgres outbox are
// available. Topics are created up front so the first batch does not race
// broker auto-creation.
func newRelay(ctx context.Context, cfg config.Config, b *server.Backend, log *slog.Logger) (*worker.Relay, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	if b.InMemory() {
		log.Warn("kafka brokers configured without postgres; audit relay disabled")
		return nil, nil
	}
	producer, err := kafka.NewProducer(ctx, cfg.Kafka)
	if err != nil {
		return nil, err
	}
	b.OnClose(func() error {
		producer.Close()
		return nil
	})
	topicFor := func(c audit.EventCategory) string { return cfg.Kafka.Topic(string(c)) }
	if err := producer.EnsureTopics(ctx, 3, 1, topicFor(audit.CategoryGovernance), topicFor(audit.CategoryContent)); err != nil {
		return nil, err
	}
	log.Info("audit outbox relay enabled", "brokers", cfg.Kafka.Brokers)
	return worker.NewRelay(b.Outbox, b.Tx, producer, topicFor,
		worker.WithBatchSize(cfg.Kafka.RelayBatch),
		worker.WithInterval(cfg.Kafka.RelayInterval),
		worker.WithLogger(log),
	), nil
}

// seedDemoData registers an admin and a member, creates a community, and logs
// bearer tokens for both members.
func seedDemoData(ctx context.Context, svcs *server.Services, tokens *jwttoken.JWTService, log *slog.Logger) error {
	operator, err := svcs.Identity.Register(ctx, identitysvc.RegisterRequest{
		Handle:        "admin",
		Email:         "admin@agora.local",
		EmailVerified: true,
		Roles:         []identitymodels.Role{identitymodels.RoleAdmin},
	})
	if err != nil {
		return err
	}
	member, err := svcs.Identity.Register(ctx, identitysvc.RegisterRequest{
		Handle:        "member",
		Email:         "member@agora.local",
		EmailVerified: true,
	})
	if err != nil {
		return err
	}
	c, err := svcs.Community.CreateCommunity(ctx, operator.ID, communitysvc.CreateCommunityRequest{
		Name:        "general",
		DisplayName: "General",
		Description: "Demo community",
	})
	if err != nil {
		return err
	}
	for _, who := range []*identitymodels.Member{operator, member} {
		token, err := tokens.GenerateAccessToken(who.ID, 24*time.Hour)
		if err != nil {
			return err
		}
		log.Info("demo member", "handle", who.Handle, "member_id", who.ID.String(), "token", token)
	}
	log.Info("demo community", "community_id", c.ID.String(), "name", c.NameKey)
	return nil
}

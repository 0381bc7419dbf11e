package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"empverify/internal/platform/config"
	"empverify/internal/platform/db"
	"empverify/internal/platform/db/migrate"
	"empverify/internal/platform/httpserver"
	platformkafka "empverify/internal/platform/kafka"
	"empverify/internal/platform/logger"
	platformredis "empverify/internal/platform/redis"
	"empverify/internal/platform/telemetry"
	"empverify/pkg/platform/audit/publisher"
	kafkastore "empverify/pkg/platform/audit/store/kafka"
	auditmemory "empverify/pkg/platform/audit/store/memory"
	auditpostgres "empverify/pkg/platform/audit/store/postgres"
	"empverify/pkg/platform/audit/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

// infra holds the optional backing services. Nil fields mean not configured.
type infra struct {
	db    *sql.DB
	redis *platformredis.Client
	kafka *kgo.Client
}

func (i *infra) close() {
	if i.kafka != nil {
		i.kafka.Close()
	}
	if i.redis != nil {
		_ = i.redis.Close()
	}
	if i.db != nil {
		_ = i.db.Close()
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.New(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	tp.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	deps, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer deps.close()

	g, gctx := errgroup.WithContext(ctx)

	auditPublisher, relay := buildAudit(cfg, deps, log)
	defer auditPublisher.Close()
	if relay != nil {
		g.Go(func() error { return relay.Run(gctx) })
	}

	handlers, err := buildApp(ctx, cfg, deps, auditPublisher, otel.Tracer("empverify"), log)
	if err != nil {
		return err
	}

	router, err := newRouter(cfg, handlers, log)
	if err != nil {
		return err
	}
	srv := httpserver.New(cfg.Server, router)

	g.Go(func() error {
		log.Info("starting empverify",
			"addr", cfg.Server.Addr,
			"env", cfg.Env,
			"ledger_backend", cfg.Ledger.Backend,
			"max_attempts", cfg.Ledger.MaxAttempts,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openInfra(ctx context.Context, cfg *config.Config, log *slog.Logger) (*infra, error) {
	deps := &infra{}

	if cfg.Database.URL != "" {
		if cfg.Database.AutoMigrate {
			if err := migrate.Run(cfg.Database.URL, migrate.Up); err != nil {
				return nil, err
			}
			log.Info("database migrations applied")
		}
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		deps.db = conn
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		deps.close()
		return nil, err
	}
	deps.redis = rc

	kc, err := platformkafka.NewClient(cfg.Kafka)
	if err != nil {
		deps.close()
		return nil, err
	}
	if kc != nil {
		deps.kafka = kc
		if err := platformkafka.EnsureTopic(ctx, kc, cfg.Kafka.AuditTopic, cfg.Kafka.Partitions, cfg.Kafka.Replication); err != nil {
			// Brokers with auto-creation or restricted ACLs still accept produces.
			log.Warn("audit topic bootstrap failed", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
	}
	return deps, nil
}

// buildAudit picks the audit sink. With Postgres and Kafka, events go through the
// transactional outbox and a relay forwards them; Kafka alone gets an async
// publisher; otherwise events stay in memory next to the log mirror.
func buildAudit(cfg *config.Config, deps *infra, log *slog.Logger) (*publisher.Publisher, *worker.OutboxRelay) {
	switch {
	case deps.kafka != nil && deps.db != nil:
		outbox := auditpostgres.New(deps.db)
		relay := worker.NewOutboxRelay(outbox, kafkastore.New(deps.kafka, cfg.Kafka.AuditTopic),
			worker.WithLogger(log),
		)
		return publisher.NewPublisher(outbox, publisher.WithLogger(log)), relay
	case deps.kafka != nil:
		return publisher.NewPublisher(kafkastore.New(deps.kafka, cfg.Kafka.AuditTopic),
			publisher.WithAsyncBuffer(1024),
			publisher.WithLogger(log),
		), nil
	default:
		return publisher.NewPublisher(auditmemory.NewInMemoryStore(), publisher.WithLogger(log)), nil
	}
}

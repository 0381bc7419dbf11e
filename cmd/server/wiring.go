package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	appealHandler "empverify/internal/appeal/handler"
	appealPorts "empverify/internal/appeal/ports"
	appealService "empverify/internal/appeal/service"
	appealStore "empverify/internal/appeal/store"
	employeeHandler "empverify/internal/employee/handler"
	"empverify/internal/employee/seed"
	employeeService "empverify/internal/employee/service"
	employeeStore "empverify/internal/employee/store"
	jwttoken "empverify/internal/jwt_token"
	"empverify/internal/platform/config"
	platformmetrics "empverify/internal/platform/metrics"
	"empverify/internal/verification/adapters"
	verificationAdmin "empverify/internal/verification/admin"
	verificationHandler "empverify/internal/verification/handler"
	verificationMetrics "empverify/internal/verification/metrics"
	verificationPorts "empverify/internal/verification/ports"
	verificationService "empverify/internal/verification/service"
	"empverify/internal/verification/store/ledger"
	"empverify/pkg/platform/audit/publisher"
	"empverify/pkg/platform/circuit"
	"empverify/pkg/platform/httputil"
	authmw "empverify/pkg/platform/middleware/auth"
	"empverify/pkg/platform/middleware/metadata"
	"empverify/pkg/platform/middleware/request"
	"empverify/pkg/platform/middleware/requesttime"
	"empverify/pkg/platform/middleware/throttle"
	"empverify/pkg/platform/tx"
	"empverify/pkg/requestcontext"
)

// app bundles the HTTP handlers built from the configured backends.
type app struct {
	verification *verificationHandler.Handler
	appeals      *appealHandler.Handler
	employees    *employeeHandler.Handler
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

func buildApp(ctx context.Context, cfg *config.Config, deps *infra, pub *publisher.Publisher, tracer trace.Tracer, log *slog.Logger) (*app, error) {
	var runner txRunner = tx.NoopRunner{}
	if deps.db != nil {
		runner = tx.NewSQLRunner(deps.db)
	}

	attemptLedger, err := buildLedger(cfg, deps)
	if err != nil {
		return nil, err
	}

	records := buildEmployeeStore(cfg, deps, log)
	employees, err := employeeService.New(records,
		employeeService.WithLogger(log),
		employeeService.WithAuditPublisher(pub),
		employeeService.WithTxRunner(runner),
	)
	if err != nil {
		return nil, err
	}
	if cfg.Database.SeedFile != "" {
		if err := seedEmployees(ctx, employees, cfg.Database.SeedFile, log); err != nil {
			return nil, err
		}
	}

	m := verificationMetrics.New()
	gate, err := verificationService.New(attemptLedger, adapters.NewEmployeeAdapter(records),
		verificationService.WithLogger(log),
		verificationService.WithAuditPublisher(pub),
		verificationService.WithMetrics(m),
		verificationService.WithMaxAttempts(cfg.Ledger.MaxAttempts),
		verificationService.WithStoreTimeout(cfg.Ledger.StoreTimeout),
		verificationService.WithTracer(tracer),
	)
	if err != nil {
		return nil, err
	}
	attemptAdmin, err := verificationAdmin.New(attemptLedger,
		verificationAdmin.WithLogger(log),
		verificationAdmin.WithAuditPublisher(pub),
		verificationAdmin.WithMetrics(m),
	)
	if err != nil {
		return nil, err
	}

	var appeals appealPorts.Store = appealStore.NewInMemoryStore()
	if deps.db != nil {
		appeals = appealStore.NewPostgres(deps.db)
	}
	appealSvc, err := appealService.New(appeals, attemptAdmin,
		appealService.WithLogger(log),
		appealService.WithAuditPublisher(pub),
		appealService.WithTxRunner(runner),
	)
	if err != nil {
		return nil, err
	}

	return &app{
		verification: verificationHandler.New(gate, attemptAdmin, log),
		appeals:      appealHandler.New(appealSvc, log),
		employees:    employeeHandler.New(employees, log),
	}, nil
}

func buildLedger(cfg *config.Config, deps *infra) (verificationPorts.AttemptLedger, error) {
	switch cfg.Ledger.Backend {
	case config.BackendPostgres:
		if deps.db == nil {
			return nil, fmt.Errorf("postgres ledger requires DATABASE_URL")
		}
		return ledger.NewPostgres(deps.db), nil
	case config.BackendRedis:
		if deps.redis == nil {
			return nil, fmt.Errorf("redis ledger requires REDIS_URL")
		}
		return ledger.NewRedis(deps.redis.Client), nil
	default:
		return ledger.NewInMemoryStore(), nil
	}
}

// buildEmployeeStore prefers Postgres and fronts it with the Redis cache when
// Redis is configured. The cache breaker sends reads straight to the primary
// while Redis is failing.
func buildEmployeeStore(cfg *config.Config, deps *infra, log *slog.Logger) employeeStore.Primary {
	var primary employeeStore.Primary = employeeStore.NewInMemoryStore()
	if deps.db != nil {
		primary = employeeStore.NewPostgres(deps.db)
	}
	if deps.redis == nil {
		return primary
	}
	return employeeStore.NewCachedStore(primary, deps.redis.Client, cfg.Redis.RecordTTL,
		employeeStore.WithBreaker(circuit.New("employee-cache")),
		employeeStore.WithCacheLogger(log),
	)
}

func seedEmployees(ctx context.Context, svc *employeeService.Service, path string, log *slog.Logger) error {
	records, err := seed.LoadFile(path)
	if err != nil {
		return err
	}
	ctx = requestcontext.WithPrincipal(ctx, requestcontext.AuthPrincipal{ID: "seed", Role: requestcontext.RoleHRAdmin})
	n, err := svc.Import(ctx, records)
	if err != nil {
		return fmt.Errorf("seed employees from %s: imported %d: %w", path, n, err)
	}
	log.Info("employee records seeded", "file", path, "count", n)
	return nil
}

func newRouter(cfg *config.Config, a *app, log *slog.Logger) (http.Handler, error) {
	clientIP, err := metadata.NewResolver(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r := chi.NewRouter()
	httpMetrics := platformmetrics.New()

	r.Use(request.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(clientIP.Middleware)
	r.Use(httpMetrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", platformmetrics.Handler())

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, cfg.Auth.JWTAudience)
	requireAuth := authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), log)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(authmw.RequireRole(requestcontext.RoleVerifier, log))

		r.Group(func(r chi.Router) {
			if cfg.Server.VerifyRatePerSecond > 0 {
				r.Use(throttle.New(cfg.Server.VerifyRatePerSecond, cfg.Server.VerifyBurst, throttle.WithLogger(log)).Middleware)
			}
			a.verification.Register(r)
		})
		a.appeals.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Use(authmw.RequireRole(requestcontext.RoleHRAdmin, log))

		a.verification.RegisterAdmin(r)
		a.appeals.RegisterAdmin(r)
		a.employees.RegisterAdmin(r)
	})

	return r, nil
}

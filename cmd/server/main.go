package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"namereg/internal/approval"
	"namereg/internal/order"
	"namereg/internal/payments"
	"namereg/internal/platform/config"
	"namereg/internal/platform/httpserver"
	"namereg/internal/platform/logger"
	"namereg/internal/platform/metrics"
	pgplatform "namereg/internal/platform/postgres"
	redisplatform "namereg/internal/platform/redis"
	"namereg/internal/quota"
	"namereg/internal/registrar"
	"namereg/internal/registry"
	"namereg/internal/token"
	httptransport "namereg/internal/transport/http"
	"namereg/pkg/audit"
	auditkafka "namereg/pkg/audit/kafka"
	auditmemory "namereg/pkg/audit/memory"
	auditworker "namereg/pkg/audit/worker"
	"namereg/pkg/domain"
)

// seedNames are preloaded in development mode, owned by the service principal.
var seedNames = []string{"user1.org", "user2.org", "user3.org", "user4.org"}

const servicePrincipal = domain.Principal("namereg-service")

// main wires dependencies and runs the server lifecycle. Business logic lives
// in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Stores: PostgreSQL when a DSN is configured, in-memory otherwise.
	var (
		registryStore registry.Store
		approvalStore approval.Store
		quotaStore    quota.Store
		health        func() error
	)
	if cfg.PostgresDSN != "" {
		db, err := pgplatform.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			return
		}
		defer db.Close()
		if err := pgplatform.EnsureSchema(ctx, db); err != nil {
			log.Error("failed to ensure schema", "error", err)
			return
		}
		registryStore = registry.NewPostgres(db)
		approvalStore = approval.NewPostgres(db)
		quotaStore = quota.NewPostgres(db)
		health = db.Ping
	} else {
		log.Warn("no postgres DSN configured, using in-memory stores")
		registryStore = registry.NewInMemoryStore()
		approvalStore = approval.NewInMemoryStore()
		quotaStore = quota.NewInMemoryStore()
	}

	// Pending-order locks: shared via redis when configured, else in-process.
	var locks order.LockStore
	if cfg.RedisURL != "" {
		client, err := redisplatform.New(ctx, cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			return
		}
		defer client.Close()
		locks = order.NewRedisLockStore(client.Client)
	} else {
		locks = order.NewInMemoryLockStore()
	}

	g, gctx := errgroup.WithContext(ctx)

	// Audit trail: kafka when brokers are configured, else an in-memory store
	// fed by a background worker.
	var publisher audit.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := auditkafka.New(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			return
		}
		defer kp.Close()
		publisher = kp
	} else {
		inbox := make(chan audit.Event, 256)
		worker := auditworker.New(auditmemory.NewInMemoryStore(), inbox)
		publisher = auditworker.NewChannelPublisher(inbox)
		g.Go(func() error {
			err := worker.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	var ledger payments.Ledger
	if cfg.PaymentLedgerURL != "" {
		ledger = payments.NewHTTPLedger(cfg.PaymentLedgerURL)
	} else {
		log.Warn("no payment ledger configured, using in-memory fake")
		ledger = payments.NewFake()
	}

	registrarSvc, err := registrar.New(registryStore, approvalStore,
		registrar.WithLogger(log),
		registrar.WithAuditPublisher(publisher),
		registrar.WithMetrics(m),
	)
	if err != nil {
		log.Error("failed to build registrar service", "error", err)
		return
	}
	quotaSvc, err := quota.New(quotaStore,
		quota.WithLogger(log),
		quota.WithAuditPublisher(publisher),
		quota.WithMetrics(m),
		quota.WithAdmins(cfg.AdminPrincipals...),
	)
	if err != nil {
		log.Error("failed to build quota service", "error", err)
		return
	}
	orderSvc, err := order.New(registryStore, quotaSvc, locks, ledger,
		order.WithLogger(log),
		order.WithAuditPublisher(publisher),
		order.WithMetrics(m),
		order.WithLockTTL(cfg.OrderLockTTL),
	)
	if err != nil {
		log.Error("failed to build order service", "error", err)
		return
	}

	if cfg.SeedRegistrations {
		for _, name := range seedNames {
			if err := registrarSvc.SeedRegistration(ctx, servicePrincipal, name, servicePrincipal); err != nil {
				log.Warn("failed to seed registration", "name", name, "error", err)
			}
		}
	}

	jwtService := token.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	handler := httptransport.NewHandler(registrarSvc, quotaSvc, orderSvc, log)
	router := httptransport.NewRouter(handler, httptransport.RouterConfig{
		Validator: jwtService,
		Admins:    cfg.AdminPrincipals,
		Health:    health,
	})

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting namereg", "addr", cfg.Addr)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
	}
}

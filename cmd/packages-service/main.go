package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RodolfoDevApp/eventshop-packages-go/internal/api"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/application"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/config"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/domain"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/infrastructure/cache"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/infrastructure/db"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/infrastructure/memstore"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/infrastructure/messaging"
	outboxinfra "github.com/RodolfoDevApp/eventshop-packages-go/internal/infrastructure/outbox"
	"github.com/RodolfoDevApp/eventshop-packages-go/internal/infrastructure/telemetry"
)

func main() {
	cfg := config.Load()
	log.Printf("Starting packages service on port %s (store=%s)", cfg.HttpPort, cfg.Store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.OtelEndpoint, cfg.ServiceName)
	if err != nil {
		log.Fatalf("failed to init telemetry: %v", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Printf("telemetry shutdown error: %v", err)
		}
	}()

	// Stores
	var (
		txRunner     domain.TxRunner
		employeeRepo domain.EmployeeRepository
		outboxRepo   domain.OutboxRepository
	)
	switch cfg.Store {
	case config.StoreMemory:
		mem := memstore.New()
		txRunner = mem
		outboxRepo = mem.Outbox()
		employeeRepo = memstore.NewEmployeeRepository()
	default:
		gormDB, err := db.OpenGorm(cfg.PgDsn)
		if err != nil {
			log.Fatalf("failed to open postgres: %v", err)
		}
		if err := db.Migrate(gormDB); err != nil {
			log.Fatalf("failed to migrate schema: %v", err)
		}
		if sqlDB, err := gormDB.DB(); err == nil {
			defer sqlDB.Close()
		}

		pool, err := pgxpool.New(ctx, cfg.PgDsn)
		if err != nil {
			log.Fatalf("failed to create pgx pool: %v", err)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("failed to ping postgres: %v", err)
		}

		pgStore := db.NewPgStore(pool)
		txRunner = pgStore
		outboxRepo = pgStore.Outbox()
		employeeRepo = db.NewGormEmployeeRepository(gormDB)
	}

	// Cache del listado de paquetes confirmados
	var listCache domain.PackageListCache
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.Printf("Redis unavailable at %s, listing cache disabled: %v", cfg.RedisAddr, err)
		} else {
			defer client.Close()
			listCache = cache.NewRedisPackageListCache(client, cfg.RedisTTL)
		}
	}

	// Application services
	packageSvc := application.NewPackageService(txRunner, listCache)
	productSvc := application.NewProductService(txRunner, listCache)
	employeeSvc := application.NewEmployeeService(employeeRepo)

	if cfg.BootstrapBossUser != "" {
		created, err := employeeSvc.Bootstrap(ctx, cfg.BootstrapBossUser, cfg.BootstrapBossPassword, cfg.BootstrapBossPhone)
		if err != nil {
			log.Fatalf("failed to bootstrap boss account: %v", err)
		}
		if created {
			log.Printf("Bootstrap boss account %s created", cfg.BootstrapBossUser)
		}
	}

	// Event buses + outbox dispatcher
	if cfg.RabbitUri != "" {
		producer := messaging.NewProducerBus(cfg.RabbitUri)
		catalogBus := messaging.NewCatalogEventBus(cfg.RabbitUri, "packages.catalog-events.v1")

		dispatcher := outboxinfra.NewDispatcher(
			outboxRepo,
			messaging.PublisherFor(producer),
			cfg.OutboxMaxRetry,
			cfg.OutboxBatchSize,
		)
		outboxinfra.NewScheduler(dispatcher, cfg.OutboxIntervalSec).Start(ctx)

		productCreatedHandler := application.NewProductCreatedHandler(productSvc)
		if err := messaging.RegisterCatalogSubscriptions(ctx, catalogBus, productCreatedHandler); err != nil {
			log.Fatalf("failed to start catalog subscriptions: %v", err)
		}
	}

	// Expiración de borradores
	if cfg.DraftTTL > 0 {
		sweep := func(ctx context.Context) (int, error) {
			return packageSvc.SweepExpiredDrafts(ctx, cfg.DraftTTL)
		}
		outboxinfra.NewJobScheduler("Draft sweep", sweep, cfg.DraftSweepIntervalSec).Start(ctx)
	}

	// HTTP API
	apiServer := api.NewServer(cfg, packageSvc, productSvc, employeeSvc)
	httpSrv := &http.Server{
		Addr:    ":" + cfg.HttpPort,
		Handler: apiServer.NewRouter(),
	}

	go func() {
		log.Printf("HTTP listening on :%s", cfg.HttpPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	// Esperar señal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("Shutting down packages service, signal: %s", sig.String())
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
}

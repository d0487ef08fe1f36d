package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/simaogato/partio-backend/internal/adapter/cache"
	grpcadapter "github.com/simaogato/partio-backend/internal/adapter/grpc"
	"github.com/simaogato/partio-backend/internal/adapter/repository/memory"
	"github.com/simaogato/partio-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/partio-backend/internal/adapter/rest"
	"github.com/simaogato/partio-backend/internal/config"
	"github.com/simaogato/partio-backend/internal/domain"
	"github.com/simaogato/partio-backend/internal/logging"
	"github.com/simaogato/partio-backend/internal/telemetry"
	"github.com/simaogato/partio-backend/internal/usecase/expense"
	"github.com/simaogato/partio-backend/internal/usecase/group"
	"github.com/simaogato/partio-backend/internal/usecase/seeder"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		os.Stderr.WriteString("failed to build logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	// 1. Tracing
	shutdownTracing, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}

	// 2. Repositories
	groupRepo, expenseRepo, closeStorage := openStorage(ctx, cfg, logger)
	defer closeStorage()

	if cfg.SeedDemo {
		if err := seeder.NewDemoSeeder(groupRepo, expenseRepo).Seed(ctx); err != nil {
			logger.Fatal("failed to seed demo group", zap.Error(err))
		}
		logger.Info("demo group seeded", zap.String("group_id", seeder.DemoGroupID.String()))
	}

	// 3. Cache
	ledgerCache, closeCache := openCache(ctx, cfg, logger)
	defer closeCache()

	// 4. Services (Use Cases)
	ttl := cfg.Cache.TTL()
	groupService := group.NewGroupService(groupRepo, expenseRepo, ledgerCache, ttl, logger)
	expenseService := expense.NewExpenseService(groupRepo, expenseRepo, ledgerCache, ttl, logger)

	// 5. gRPC server with AuthInterceptor
	grpcServer := grpclib.NewServer(
		grpclib.StatsHandler(otelgrpc.NewServerHandler()),
		grpclib.UnaryInterceptor(grpcadapter.AuthInterceptor(cfg.APIToken)),
	)
	grpcadapter.RegisterLedgerServer(grpcServer, grpcadapter.NewServer(groupService, expenseService))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(grpcadapter.ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		logger.Fatal("failed to listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal("failed to serve gRPC server", zap.Error(err))
		}
	}()

	// 6. HTTP server
	httpServer := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: rest.NewRouter(&rest.Handler{
			GroupService:   groupService,
			ExpenseService: expenseService,
			Logger:         logger,
		}, cfg.APIToken),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to serve HTTP server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	waitForShutdown(logger, grpcServer, healthServer, httpServer, shutdownTracing)
}

func openStorage(ctx context.Context, cfg config.Config, logger *zap.Logger) (domain.GroupRepository, domain.ExpenseRepository, func()) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("using in-memory storage; data is lost on restart")
		store := memory.NewStore()
		return memory.NewGroupRepository(store), memory.NewExpenseRepository(store), func() {}
	}

	if cfg.StartupDelay > 0 {
		time.Sleep(cfg.StartupDelay)
	}

	db, err := postgres.NewDB(cfg.DB.DSN())
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}
	logger.Info("database schema ready")

	return postgres.NewGroupRepository(db), postgres.NewExpenseRepository(db), func() {
		if err := db.Close(); err != nil {
			logger.Warn("failed to close database", zap.Error(err))
		}
	}
}

func openCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (domain.Cache, func()) {
	if cfg.RedisURL == "" {
		logger.Info("using in-process cache")
		return cache.NewMemoryCache(), func() {}
	}

	redisCache, err := cache.NewRedisCacheFromURL(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("failed to connect to redis", zap.Error(err))
	}
	logger.Info("using redis cache")

	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down the servers
func waitForShutdown(
	logger *zap.Logger,
	grpcServer *grpclib.Server,
	healthServer *health.Server,
	httpServer *http.Server,
	shutdownTracing telemetry.ShutdownFunc,
) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("shutting down gracefully", zap.String("signal", sig.String()))

	healthServer.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("HTTP server shutdown", zap.Error(err))
	}

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")

	if err := shutdownTracing(ctx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
}

package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	apiv1 "github.com/sanketnighot/hookified/pkg/api/v1"
	"github.com/sanketnighot/hookified/pkg/common"
	"github.com/sanketnighot/hookified/pkg/cron"
	"github.com/sanketnighot/hookified/pkg/executor"
	"github.com/sanketnighot/hookified/pkg/hooks"
	"github.com/sanketnighot/hookified/pkg/onchain"
	"github.com/sanketnighot/hookified/pkg/registry"
	"github.com/sanketnighot/hookified/pkg/repository"
	"github.com/sanketnighot/hookified/pkg/types"
)

type Gateway struct {
	Config      types.AppConfig
	RedisClient *common.RedisClient
	BackendRepo repository.BackendRepository
	httpServer  *http.Server
	echo        *echo.Echo
	ctx         context.Context
	cancelFunc  context.CancelFunc

	baseRouteGroup *echo.Group

	registry       *registry.Registry
	engine         *executor.Engine
	pool           *executor.Pool
	reconciler     *cron.Reconciler
	setupValidator *cron.SetupValidator
	onchainEngine  *onchain.Engine
	hookService    *hooks.Service
}

func NewGateway() (*Gateway, error) {
	configManager, err := common.NewConfigManager[types.AppConfig]()
	if err != nil {
		return nil, err
	}
	config := configManager.GetConfig()

	// Setup logging
	if config.PrettyLogs {
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	redisClient, err := common.NewRedisClient(config.Database.Redis, common.WithClientName("HookifiedGateway"))
	if err != nil {
		return nil, err
	}

	backendRepo, err := repository.NewPostgresBackend(config.Database.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	gateway := &Gateway{
		Config:      config,
		RedisClient: redisClient,
		BackendRepo: backendRepo,
		ctx:         ctx,
		cancelFunc:  cancel,
	}

	if err := gateway.migrate(backendRepo); err != nil {
		cancel()
		return nil, err
	}

	gateway.initCore(backendRepo)
	return gateway, nil
}

// migrate runs schema migrations under a distributed lock so concurrent
// replicas don't race each other.
func (g *Gateway) migrate(backendRepo *repository.PostgresBackend) error {
	release, err := g.initLock("migrations")
	if err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	defer release()

	if err := backendRepo.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run postgres migrations: %w", err)
	}
	return nil
}

// initCore wires the execution engine and trigger engines.
func (g *Gateway) initCore(backendRepo *repository.PostgresBackend) {
	chainExec := registry.NewChainExecutor()
	g.registry = registry.New(
		registry.NewTelegramExecutor(g.Config.Telegram, g.Config.Executor.ActionTimeout),
		registry.NewWebhookExecutor(g.Config.Executor.ActionTimeout),
		registry.NewContractCallExecutor(g.Config.Executor.ActionTimeout),
		chainExec,
	)

	g.engine = executor.NewEngine(g.BackendRepo, g.registry, g.Config.Executor)
	chainExec.SetInvoker(g.engine)

	g.pool = executor.NewPool(g.engine, g.Config.Executor)

	baseURL := g.Config.Gateway.PublicBaseURL
	g.reconciler = cron.NewReconciler(cron.NewPostgresScheduler(backendRepo.DB()), g.Config.Cron, baseURL)
	g.setupValidator = cron.NewSetupValidator(backendRepo.DB(), g.Config.Cron, baseURL)

	seen := common.NewSeenTracker(g.RedisClient)
	g.onchainEngine = onchain.NewEngine(onchain.NewAlchemyClient(g.Config.Onchain), g.pool, seen, g.Config.Onchain, baseURL)

	g.hookService = &hooks.Service{
		Backend:  g.BackendRepo,
		Registry: g.registry,
		Cron:     g.reconciler,
		Onchain:  g.onchainEngine,
	}
}

func (g *Gateway) initLock(name string) (func(), error) {
	lockKey := common.Keys.GatewayInitLock(name)
	lock := common.NewRedisLock(g.RedisClient)

	if err := lock.Acquire(g.ctx, lockKey, common.RedisLockOptions{TtlS: 10, Retries: 1}); err != nil {
		return nil, err
	}

	return func() {
		if err := lock.Release(lockKey); err != nil {
			log.Error().Str("lock_key", lockKey).Err(err).Msg("failed to release init lock")
		}
	}, nil
}

func (g *Gateway) initHTTP() error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())

	// Configure logging middleware
	if g.Config.Gateway.HTTP.EnablePrettyLogs {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "${time_rfc3339} ${method} ${uri} ${status} ${latency_human}\n",
		}))
	}

	// CORS
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: g.Config.Gateway.HTTP.CORS.AllowedOrigins,
		AllowHeaders: g.Config.Gateway.HTTP.CORS.AllowedHeaders,
		AllowMethods: g.Config.Gateway.HTTP.CORS.AllowedMethods,
	}))

	e.Use(middleware.Recover())

	g.echo = e
	g.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", g.Config.Gateway.HTTP.Host, g.Config.Gateway.HTTP.Port),
		Handler: e,
	}

	g.baseRouteGroup = e.Group(apiv1.HttpServerBaseRoute)

	g.registerRoutes()
	return nil
}

func (g *Gateway) registerRoutes() {
	apiv1.NewHealthGroup(g.baseRouteGroup.Group("/health"), g.RedisClient, g.BackendRepo)

	// Unauthenticated trigger surfaces. Webhook deliveries authenticate
	// with signatures, scheduler callbacks with the shared secret.
	apiv1.NewWebhooksGroup(g.baseRouteGroup.Group("/webhooks"), g.BackendRepo, g.pool, g.onchainEngine, g.Config.Onchain.SigningKey)
	cronGroup := apiv1.NewCronGroup(g.baseRouteGroup.Group("/cron"), g.BackendRepo, g.hookService, g.engine, g.reconciler, g.setupValidator, g.Config.Cron.Secret)

	// User-facing API, JWT-protected.
	authed := g.baseRouteGroup.Group("")
	authed.Use(apiv1.NewUserAuthMiddleware(g.Config.Gateway.JWTSecret))
	apiv1.NewHooksGroup(authed.Group("/hooks"), g.hookService, g.engine)
	apiv1.NewRunsGroup(authed.Group("/runs"), g.hookService)
	cronGroup.RegisterDiagnostics(authed.Group("/cron"))

	log.Info().Msg("hooks, runs, webhooks, and cron APIs registered")
}

// StartAsync starts the gateway servers without blocking.
// Use this when embedding the gateway in another process (e.g., CLI).
func (g *Gateway) StartAsync() error {
	if err := g.initHTTP(); err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}

	g.pool.Start(g.ctx)

	// Start HTTP server
	go func() {
		addr := fmt.Sprintf("%s:%d", g.Config.Gateway.HTTP.Host, g.Config.Gateway.HTTP.Port)
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			log.Error().Err(err).Msg("failed to listen on http")
			return
		}

		if err := g.httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	log.Info().
		Str("host", g.Config.Gateway.HTTP.Host).
		Int("port", g.Config.Gateway.HTTP.Port).
		Msg("gateway http server running")

	return nil
}

func (g *Gateway) Start() error {
	if err := g.StartAsync(); err != nil {
		return err
	}

	terminationSignal := make(chan os.Signal, 1)
	signal.Notify(terminationSignal, os.Interrupt, syscall.SIGTERM)
	<-terminationSignal

	log.Info().Msg("termination signal received. shutting down...")
	g.shutdown()

	return nil
}

// Shutdown gracefully shuts down the gateway (exported for external use)
func (g *Gateway) Shutdown() {
	g.shutdown()
}

// shutdown gracefully shuts down the gateway
func (g *Gateway) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), g.Config.Gateway.ShutdownTimeout)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	// Stop HTTP server
	eg.Go(func() error {
		return g.httpServer.Shutdown(ctx)
	})

	// Drain in-flight firings
	eg.Go(func() error {
		g.pool.Stop()
		return nil
	})

	// Close Postgres backend
	if g.BackendRepo != nil {
		eg.Go(func() error {
			return g.BackendRepo.Close()
		})
	}

	g.cancelFunc()

	if err := eg.Wait(); err != nil {
		log.Error().Err(err).Msg("failed to shutdown gateway gracefully")
	}

	log.Info().Msg("gateway stopped")
}

// HookService returns the hook service, for embedding callers.
func (g *Gateway) HookService() *hooks.Service {
	return g.hookService
}

// SetupValidator returns the scheduler prerequisite validator.
func (g *Gateway) SetupValidator() *cron.SetupValidator {
	return g.setupValidator
}

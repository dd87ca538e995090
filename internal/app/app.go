package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MikhailRaia/menu-scraper/internal/auth"
	"github.com/MikhailRaia/menu-scraper/internal/config"
	"github.com/MikhailRaia/menu-scraper/internal/handler"
	"github.com/MikhailRaia/menu-scraper/internal/logger"
	"github.com/MikhailRaia/menu-scraper/internal/middleware"
	"github.com/MikhailRaia/menu-scraper/internal/proto"
	"github.com/MikhailRaia/menu-scraper/internal/service"
	"github.com/MikhailRaia/menu-scraper/internal/storage"
	"github.com/MikhailRaia/menu-scraper/internal/storage/file"
	"github.com/MikhailRaia/menu-scraper/internal/storage/memory"
	"github.com/MikhailRaia/menu-scraper/internal/storage/mongodb"
	"github.com/MikhailRaia/menu-scraper/internal/storage/postgres"
	"github.com/MikhailRaia/menu-scraper/internal/validation"
)

const (
	storageCheckInterval = 15 * time.Second
	storagePingTimeout   = 3 * time.Second
)

type App struct {
	config       *config.Config
	menuService  *service.MenuService
	closeStorage func()
	handler      http.Handler
	grpcServer   *grpc.Server
	healthServer *health.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	currencies, err := validation.NewCurrencySet(cfg.AllowedCurrencies)
	if err != nil {
		return nil, fmt.Errorf("invalid allowed currencies: %w", err)
	}
	if codes := currencies.Codes(); codes != nil {
		log.Info().Strs("currencies", codes).Msg("Allowed currencies configured")
	} else {
		log.Info().Msg("All ISO 4217 currencies allowed")
	}

	store, closeStorage, err := newStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	menuService := service.NewMenuService(store, validation.New(currencies, cfg.MaxBatchItems), cfg.ListLimit)

	var (
		httpAuth     *middleware.AuthMiddleware
		interceptors = []grpc.UnaryServerInterceptor{logger.UnaryLogger}
	)
	if cfg.AuthSecret != "" {
		jwtService := auth.NewJWTService(cfg.AuthSecret, cfg.TokenTTL)
		httpAuth = middleware.NewAuthMiddleware(jwtService)
		interceptors = append(interceptors, middleware.NewGRPCAuthMiddleware(jwtService, proto.MethodSaveBatch).UnaryInterceptor)
	} else {
		log.Warn().Msg("AUTH_SECRET is not set, batch ingestion is open to everyone")
	}

	a := &App{
		config:       cfg,
		menuService:  menuService,
		closeStorage: closeStorage,
		handler:      handler.NewHandler(menuService, httpAuth).RegisterRoutes(),
	}

	if cfg.GRPCAddress != "" {
		a.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
		proto.RegisterMenuScraperServiceServer(a.grpcServer, handler.NewMenuGRPCServer(menuService))

		a.healthServer = health.NewServer()
		a.healthServer.SetServingStatus(proto.ServiceName, healthpb.HealthCheckResponse_SERVING)
		healthpb.RegisterHealthServer(a.grpcServer, a.healthServer)
	}

	return a, nil
}

func newStorage(ctx context.Context, cfg *config.Config) (storage.MenuStorage, func(), error) {
	noop := func() {}

	switch cfg.StorageKind() {
	case "postgres":
		s, err := postgres.NewStorage(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize database storage: %w", err)
		}
		log.Info().Msg("Using PostgreSQL storage")
		return s, s.Close, nil
	case "mongodb":
		s, err := mongodb.NewStorage(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize mongodb storage: %w", err)
		}
		log.Info().Str("database", cfg.MongoDatabase).Msg("Using MongoDB storage")
		return s, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := s.Close(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to disconnect from MongoDB")
			}
		}, nil
	case "file":
		s, err := file.NewStorage(cfg.FileStoragePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize file storage: %w", err)
		}
		log.Info().Str("path", cfg.FileStoragePath).Msg("Using file storage")
		return s, noop, nil
	default:
		log.Info().Msg("Using in-memory storage")
		return memory.NewStorage(), noop, nil
	}
}

// Handler returns the HTTP handler of the application.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP (and gRPC when configured) until ctx is canceled or a server fails,
// then shuts both down within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	defer a.closeStorage()

	httpListener, err := net.Listen("tcp", a.config.ServerAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.ServerAddress, err)
	}

	var grpcListener net.Listener
	if a.grpcServer != nil {
		grpcListener, err = net.Listen("tcp", a.config.GRPCAddress)
		if err != nil {
			httpListener.Close()
			return fmt.Errorf("failed to listen on %s: %w", a.config.GRPCAddress, err)
		}
	}

	httpServer := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("address", httpListener.Addr().String()).Msg("Starting HTTP server")
		if err := httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.grpcServer != nil {
		g.Go(func() error {
			log.Info().Str("address", grpcListener.Addr().String()).Msg("Starting gRPC server")
			if err := a.grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("grpc server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			a.watchStorage(gctx)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down servers")
		return a.shutdown(httpServer)
	})

	return g.Wait()
}

// watchStorage mirrors storage reachability into the gRPC health service until ctx is done.
func (a *App) watchStorage(ctx context.Context) {
	ticker := time.NewTicker(storageCheckInterval)
	defer ticker.Stop()

	for {
		a.checkStorage(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (a *App) checkStorage(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, storagePingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := a.menuService.Ping(ctx); err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return
		}
		log.Warn().Err(err).Msg("Storage ping failed")
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	a.healthServer.SetServingStatus(proto.ServiceName, status)
}

func (a *App) shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
	defer cancel()

	if a.grpcServer != nil {
		a.healthServer.Shutdown()

		stopped := make(chan struct{})
		go func() {
			a.grpcServer.GracefulStop()
			close(stopped)
		}()

		select {
		case <-stopped:
		case <-ctx.Done():
			log.Warn().Msg("gRPC graceful stop timed out, forcing shutdown")
			a.grpcServer.Stop()
		}
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	log.Info().Msg("Servers stopped")
	return nil
}

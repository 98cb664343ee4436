// Package server wires configuration, storage and services together and runs
// the HTTP API and the gRPC health service until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/productkeeper/internal/logging"
	"github.com/dmitrijs2005/productkeeper/internal/server/config"
	"github.com/dmitrijs2005/productkeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/productkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/productkeeper/internal/server/services"
	"github.com/dmitrijs2005/productkeeper/internal/server/sessioncache"
	"github.com/dmitrijs2005/productkeeper/internal/server/storage"
	_ "github.com/jackc/pgx/v5/stdlib"

	gs "github.com/dmitrijs2005/productkeeper/internal/server/grpc"
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	closers        []io.Closer
	userService    *services.UserService
	productService *services.ProductService
}

func NewApp(c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)
	ctx := context.Background()

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	st, err := newImageStorage(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	cache, err := newSessionCache(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("session cache init error: %w", err)
	}

	app := &App{
		config:         c,
		logger:         logger,
		db:             db,
		userService:    services.NewUserService(db, rm, cache, c, logger),
		productService: services.NewProductService(db, rm, st, c, logger),
	}
	if cl, ok := cache.(io.Closer); ok {
		app.closers = append(app.closers, cl)
	}
	app.closers = append(app.closers, db)

	return app, nil
}

// newImageStorage picks the product image backend named by the config.
func newImageStorage(ctx context.Context, c *config.Config) (storage.ImageStorage, error) {
	switch c.StorageBackend {
	case config.StorageLocal:
		return storage.NewLocalStorage(c.LocalImageDir)
	case config.StorageS3:
		return storage.NewS3Storage(ctx, storage.S3Config{
			User:         c.S3RootUser,
			Password:     c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}
}

// newSessionCache returns a Redis cache, or a no-op one when no address is
// configured.
func newSessionCache(ctx context.Context, c *config.Config) (sessioncache.Cache, error) {
	if c.RedisAddr == "" {
		return sessioncache.Nop{}, nil
	}
	return sessioncache.NewRedisCache(ctx, sessioncache.Config{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	proxies, err := app.config.TrustedProxyNets()
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	s := httpserver.NewServer(app.config.EndpointAddrHTTP, app.logger, app.userService, app.productService, httpserver.Options{
		ExposeErrors:       app.config.ExposeErrors,
		LoginRatePerSecond: app.config.LoginRatePerSecond,
		LoginRateBurst:     app.config.LoginRateBurst,
		TrustedProxies:     proxies,
		MaxImageSize:       app.config.MaxImageSize,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.logger, app.db, app.config.HealthCheckInterval)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			app.logger.Error(ctx, "close failed", "error", err)
		}
	}

	app.logger.Info(ctx, "App stopped")
}

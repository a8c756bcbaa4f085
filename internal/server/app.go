// Package server wires configuration, storage, the token codec and the users
// service together and runs the gRPC and metrics servers until shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/eeye/internal/cryptox"
	"github.com/dmitrijs2005/eeye/internal/logging"
	"github.com/dmitrijs2005/eeye/internal/server/auth"
	"github.com/dmitrijs2005/eeye/internal/server/config"
	"github.com/dmitrijs2005/eeye/internal/server/metrics"
	"github.com/dmitrijs2005/eeye/internal/server/secrets"
	"github.com/dmitrijs2005/eeye/internal/server/storage"
	"github.com/dmitrijs2005/eeye/internal/server/users"

	gs "github.com/dmitrijs2005/eeye/internal/server/grpc"
)

// seams for tests
var (
	logOutput     io.Writer = os.Stdout
	openStorage             = storage.Open
	resolveSecret           = secrets.Resolve
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	metrics     *metrics.Metrics
	userService *users.Service
	grpcServer  *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(logOutput, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	secret, err := resolveSecret(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("secret init error: %w", err)
	}
	if secret.Insecure() {
		logger.Warn(ctx, "signing access tokens with the insecure development key; configure EEYE_SECRET_KEY")
	}

	codec, err := auth.NewCodec(secret.Key,
		auth.WithIssuer(c.TokenIssuer),
		auth.WithLifetime(c.AccessTokenLifetime),
	)
	if err != nil {
		return nil, fmt.Errorf("token codec init error: %w", err)
	}

	db, err := openStorage(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := metrics.New()
	us := users.NewService(storage.Users(db), cryptox.NewHasher(cryptox.DefaultParams), codec, m, logger,
		users.WithTxFunc(storage.InTx(db)),
	)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		metrics:     m,
		userService: us,
		grpcServer:  gs.NewGRPCServer(c.EndpointAddrGRPC, logger, us),
	}, nil
}

// Run serves until ctx is done, SIGINT/SIGTERM/SIGQUIT arrives or a server
// fails, then releases resources.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.logger.Info(ctx, "Starting app...")

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() { firstErr = err })
		app.logger.Error(ctx, "server stopped", "error", err)
		cancel()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.grpcServer.Run(ctx); err != nil {
			fail(err)
		}
	}()

	if app.config.MetricsAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.metrics.Serve(ctx, app.config.MetricsAddr, app.logger); err != nil {
				fail(err)
			}
		}()
	}

	<-ctx.Done()
	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Warn(context.Background(), "close database", "error", err)
	}
	if z, ok := app.logger.(*logging.ZapLogger); ok {
		_ = z.Sync()
	}

	app.logger.Info(context.Background(), "App stopped")
	return firstErr
}

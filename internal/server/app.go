// Package server initializes and runs the SiteCrew backend: the REST API
// used by field devices, the gRPC health endpoint, and their dependencies
// (PostgreSQL, S3 media storage and the Kafka fall-alert topic).
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dmitrijs2005/sitecrew/internal/logging"
	"github.com/dmitrijs2005/sitecrew/internal/server/config"
	"github.com/dmitrijs2005/sitecrew/internal/server/events"
	"github.com/dmitrijs2005/sitecrew/internal/server/httpapi"
	"github.com/dmitrijs2005/sitecrew/internal/server/media"
	"github.com/dmitrijs2005/sitecrew/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sitecrew/internal/server/services"

	gs "github.com/dmitrijs2005/sitecrew/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	publisher  events.Publisher
	httpServer *http.Server
	grpcServer *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, logging.ParseLevel(c.LogLevel))

	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := media.NewS3Store(ctx, c)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("s3 init error: %w", err)
	}

	publisher := events.NewNoopPublisher()
	if len(c.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(c.KafkaBrokers, c.FallTopic)
	} else {
		logger.Warn(ctx, "no kafka brokers configured, fall alerts are not published")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := httpapi.NewHandler(httpapi.Deps{
		Users:          services.NewUserService(db, rm, c),
		Projects:       services.NewProjectService(db, rm),
		Timesheets:     services.NewTimesheetService(db, rm, store, publisher, logger),
		DB:             db,
		Metrics:        httpapi.NewMetrics(reg),
		MaxUploadBytes: c.MaxUploadBytes,
	})

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		Secret:     []byte(c.SecretKey),
		LoginRate:  rate.Limit(c.LoginRatePerSecond),
		LoginBurst: c.LoginBurst,
	})

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		publisher: publisher,
		httpServer: &http.Server{
			Addr:              c.EndpointAddrHTTP,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		grpcServer: gs.NewGRPCServer(c.EndpointAddrGRPC, logger, db),
	}, nil
}

func (app *App) startHTTPServer(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.httpServer.Shutdown(sctx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves HTTP and gRPC until SIGINT/SIGTERM or until either server
// fails, then releases the database and the Kafka writer.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	app.logger.Info(ctx, "Starting app...")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.startHTTPServer(gctx) })
	g.Go(func() error { return app.grpcServer.Run(gctx) })
	err := g.Wait()

	if cerr := app.publisher.Close(); cerr != nil {
		app.logger.Error(ctx, "publisher close error", "error", cerr)
	}
	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")
	return err
}

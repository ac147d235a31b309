package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	lambdaevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/imrishuroy/dishflow/internal/aws"
	"github.com/imrishuroy/dishflow/internal/chain"
	"github.com/imrishuroy/dishflow/internal/config"
	"github.com/imrishuroy/dishflow/internal/dishes"
	"github.com/imrishuroy/dishflow/internal/events"
	"github.com/imrishuroy/dishflow/internal/handlers"
	"github.com/imrishuroy/dishflow/internal/httpx"
	"github.com/imrishuroy/dishflow/internal/idempotency"
	"github.com/imrishuroy/dishflow/internal/logger"
	"github.com/imrishuroy/dishflow/internal/metrics"
	"github.com/imrishuroy/dishflow/internal/orders"
	"github.com/imrishuroy/dishflow/internal/seed"
	"github.com/imrishuroy/dishflow/internal/store"
	"github.com/imrishuroy/dishflow/internal/tracing"
	"github.com/imrishuroy/dishflow/internal/validation"
)

const serviceName = "dishflow"

func setupRouter(lg *zap.Logger, cfg handlers.HandlerConfig, idem *idempotency.Store, rec *metrics.Recorder) *gin.Engine {
	r := gin.New()
	r.Use(httpx.RequestID(), httpx.Logger(lg), httpx.Recovery(lg))
	if rec != nil {
		r.Use(rec.Middleware())
	}
	r.Use(idempotency.Middleware(idem, lg), chain.ReportErrors(lg))

	handlers.RegisterRoutes(r, cfg)

	return r
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}

	lg, err := logger.New(cfg.LogLevel, cfg.Development)
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	defer func() { _ = lg.Sync() }()

	if err := run(ctx, lg, cfg); err != nil {
		lg.Fatal("Run failed", zap.Error(err))
	}
}

func run(ctx context.Context, lg *zap.Logger, cfg *config.Config) error {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracing, err := tracing.Setup(ctx, tracing.Config{
		ServiceName: serviceName,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		return errors.Wrap(err, "setup tracing")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			lg.Warn("Tracing shutdown failed", zap.Error(err))
		}
	}()

	var clients *aws.Clients
	if cfg.Seed.Source == seed.SourceDynamoDB || cfg.Events.QueueURL != "" || cfg.Metrics.Namespace != "" {
		clients, err = aws.NewClients(ctx, aws.ConfigOptions{
			Region:   cfg.AWS.Region,
			Endpoint: cfg.AWS.Endpoint,
		})
		if err != nil {
			return errors.Wrap(err, "init aws clients")
		}
	}

	var loader seed.Loader
	switch cfg.Seed.Source {
	case seed.SourceFile:
		loader = seed.File{Path: cfg.Seed.File}
	case seed.SourceDynamoDB:
		loader = seed.DynamoDB{
			Client:      clients.DynamoDB,
			DishesTable: cfg.Seed.DishesTable,
			OrdersTable: cfg.Seed.OrdersTable,
		}
	default:
		loader = seed.Embedded{}
	}

	v := validation.New()
	data, err := seed.Load(ctx, loader, v)
	if err != nil {
		return errors.Wrap(err, "load seed")
	}

	dishRecords := store.NewCollection[*dishes.Dish]("dishes")
	if err := dishRecords.Load(data.Dishes); err != nil {
		return errors.Wrap(err, "load dishes")
	}
	orderRecords := store.NewCollection[*orders.Order]("orders")
	if err := orderRecords.Load(data.Orders); err != nil {
		return errors.Wrap(err, "load orders")
	}
	logLoaded(lg, cfg.Seed.Source, dishRecords, orderRecords)

	var publisher events.Publisher = events.Nop{}
	if cfg.Events.QueueURL != "" {
		publisher = aws.NewEventQueue(clients.SQS, cfg.Events.QueueURL)
	}

	var rec *metrics.Recorder
	if cfg.Metrics.Namespace != "" {
		rec = metrics.NewRecorder(clients.CloudWatch, cfg.Metrics.Namespace)
		defer flushMetrics(lg, rec)
	}

	r := setupRouter(lg, handlers.HandlerConfig{
		Dishes:   dishRecords,
		Orders:   orderRecords,
		Events:   publisher,
		Validate: v,
		Logger:   lg,
	}, idempotency.NewStore(cfg.Idempotency.TTL), rec)

	if cfg.Lambda() {
		adapter := ginadapter.New(r)
		lambda.StartWithOptions(func(ctx context.Context, req lambdaevents.APIGatewayProxyRequest) (lambdaevents.APIGatewayProxyResponse, error) {
			resp, err := adapter.ProxyWithContext(ctx, req)
			if rec != nil {
				flushMetrics(lg, rec)
			}
			return resp, err
		}, lambda.WithContext(ctx))
		return nil
	}

	if rec != nil {
		go rec.Run(ctx, cfg.Metrics.FlushInterval, lg)
	}
	return serve(ctx, lg, cfg, r)
}

func serve(ctx context.Context, lg *zap.Logger, cfg *config.Config, h http.Handler) error {
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           h,
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

func flushMetrics(lg *zap.Logger, rec *metrics.Recorder) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rec.Flush(ctx); err != nil {
		lg.Warn("Flush metrics failed", zap.Error(err))
	}
}

type loadedCollection interface {
	Name() string
	Len() int
}

func logLoaded(lg *zap.Logger, source string, cols ...loadedCollection) {
	for _, c := range cols {
		lg.Info("Collection loaded",
			zap.String("source", source),
			zap.String("collection", c.Name()),
			zap.Int("records", c.Len()),
		)
	}
}

package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bibbank/fraud-detection/internal/application/usecase"
	"github.com/bibbank/fraud-detection/internal/domain/port"
	"github.com/bibbank/fraud-detection/internal/domain/service"
	"github.com/bibbank/fraud-detection/internal/domain/valueobject"
	"github.com/bibbank/fraud-detection/internal/infrastructure/config"
	"github.com/bibbank/fraud-detection/internal/infrastructure/csvtable"
	infrakafka "github.com/bibbank/fraud-detection/internal/infrastructure/kafka"
	"github.com/bibbank/fraud-detection/internal/infrastructure/metrics"
	"github.com/bibbank/fraud-detection/internal/infrastructure/ml"
	grpcpresentation "github.com/bibbank/fraud-detection/internal/presentation/grpc"
	"github.com/bibbank/fraud-detection/internal/presentation/rest"
	"github.com/bibbank/fraud-detection/pkg/kafka"
	"github.com/bibbank/fraud-detection/pkg/observability"
	"github.com/bibbank/fraud-detection/pkg/tlsutil"
)

const (
	serviceName    = "fraud-detection"
	serviceVersion = "1.0.0"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fraud-detection exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()

	// Initialize structured logger via shared observability package.
	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger.Info("starting fraud-detection",
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
		"model_source", cfg.ModelSource,
	)

	// Initialize tracing.
	shutdownTracer, err := observability.InitTracer(ctx, observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       !cfg.IsProduction(),
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer shutdownTracer(context.Background())
	}

	// Initialize metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	defer meterProvider.Shutdown(context.Background())

	recorder, err := metrics.NewRecorder(meterProvider)
	if err != nil {
		return fmt.Errorf("failed to create metrics recorder: %w", err)
	}

	// Wire the event publisher.
	publisher, closePublisher, err := newPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closePublisher()

	// Wire domain services and use cases.
	labels := valueobject.DetectorLabels{Classifier: cfg.ClassifierLabel, Anomaly: cfg.DetectorLabel}
	engine := service.NewDecisionEngine()
	registry := ml.NewRegistry()

	predictUC := usecase.NewPredictTransaction(registry, engine, publisher, recorder, labels, logger)
	scoreBatchUC := usecase.NewScoreBatch(registry, csvtable.NewReader(), service.NewBatchIngestor(), engine,
		publisher, recorder, usecase.BatchOptions{Workers: cfg.BatchWorkers, ChunkSize: cfg.BatchChunkSize}, logger)

	// gRPC server.
	grpcOpts := grpcpresentation.ServerOptions{
		MaxRecvBytes:  int(cfg.MaxUploadBytes) + 1<<20,
		EnableReflect: cfg.GRPCReflection,
	}
	if cfg.GRPCTLSCert != "" {
		grpcOpts.Creds, err = tlsutil.ServerTLSConfig(cfg.GRPCTLSCert, cfg.GRPCTLSKey)
		if err != nil {
			return fmt.Errorf("failed to load gRPC TLS: %w", err)
		}
	}
	grpcHandler := grpcpresentation.NewFraudDetectionHandler(predictUC, scoreBatchUC, labels, logger)
	grpcServer := grpcpresentation.NewServer(grpcHandler, cfg.GRPCAddress(), grpcOpts, logger)

	// HTTP server.
	httpMux := http.NewServeMux()
	rest.NewHandler(predictUC, scoreBatchUC, labels, rest.HandlerOptions{MaxUploadBytes: cfg.MaxUploadBytes}).
		RegisterRoutes(httpMux)
	rest.NewHealthHandler(serviceName, registry, logger).RegisterRoutes(httpMux)
	httpMux.Handle("GET /metrics", metricsHandler)

	httpServer := &http.Server{
		Addr: cfg.HTTPAddress(),
		Handler: otelhttp.NewHandler(rest.Chain(httpMux,
			rest.RequestID(),
			rest.Logging(logger),
			rest.RateLimit(cfg.RateLimitRPS),
		), "fraud-detection-http"),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Load score providers in the background; requests get 503 until then.
	tlsCfg, err := tlsutil.ClientConfig(cfg.ModelServerCA, false)
	if err != nil {
		return fmt.Errorf("failed to load model server CA: %w", err)
	}
	go loadProviders(ctx, cfg, tlsCfg, registry, recorder, grpcServer, logger)

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info("fraud-detection started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
	)

	// Wait for shutdown signal.
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		logger.Error("server error", "error", runErr)
	}

	// Graceful shutdown.
	logger.Info("shutting down fraud-detection")

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("fraud-detection stopped")
	return runErr
}

// newPublisher returns a Kafka publisher when brokers are configured and a
// logging no-op otherwise.
func newPublisher(cfg *config.Config, logger *slog.Logger) (port.EventPublisher, func(), error) {
	kafkaCfg := kafka.Config{
		ClientID:      serviceName,
		Brokers:       cfg.KafkaBrokers,
		TLS:           cfg.KafkaTLS,
		SASLEnabled:   cfg.KafkaSASLMechanism != "",
		SASLMechanism: cfg.KafkaSASLMechanism,
		SASLUsername:  cfg.KafkaSASLUsername,
		SASLPassword:  cfg.KafkaSASLPassword,
		WriteTimeout:  5 * time.Second,
	}
	if !kafkaCfg.Enabled() {
		logger.Info("KAFKA_BROKERS not set, events are logged only")
		return infrakafka.NewLogPublisher(logger), func() {}, nil
	}

	producer, err := kafka.NewProducer(kafkaCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	logger.Info("publishing events to kafka",
		"brokers", cfg.KafkaBrokers,
		"topic", cfg.KafkaTopic,
	)

	closeFn := func() {
		if err := producer.Close(); err != nil {
			logger.Error("failed to close kafka producer", "error", err)
		}
	}
	return infrakafka.NewPublisher(producer, cfg.KafkaTopic, logger), closeFn, nil
}

func loadProviders(
	ctx context.Context,
	cfg *config.Config,
	tlsCfg *tls.Config,
	registry *ml.Registry,
	recorder *metrics.Recorder,
	grpcServer *grpcpresentation.Server,
	logger *slog.Logger,
) {
	classifier, detector, err := ml.Load(ctx, ml.Options{
		Source:    cfg.ModelSource,
		File:      cfg.ModelFile,
		ServerURL: cfg.ModelServerURL,
		TLS:       tlsCfg,
		Timeout:   cfg.ModelTimeout,
		Wait:      cfg.ModelWait,
		CacheSize: cfg.ModelCacheSize,
	}, logger)
	if err != nil {
		if ctx.Err() == nil {
			logger.Error("failed to load score providers, predictions stay unavailable", "error", err)
		}
		return
	}

	registry.Publish(recorder.InstrumentClassifier(classifier), recorder.InstrumentDetector(detector))
	grpcServer.SetServing(true)
	logger.Info("score providers published")
}

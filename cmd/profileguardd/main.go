package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bibbank/profileguard/internal/application/usecase"
	"github.com/bibbank/profileguard/internal/domain/model"
	"github.com/bibbank/profileguard/internal/domain/port"
	"github.com/bibbank/profileguard/internal/domain/service"
	"github.com/bibbank/profileguard/internal/infrastructure/config"
	"github.com/bibbank/profileguard/internal/infrastructure/kafka"
	"github.com/bibbank/profileguard/internal/infrastructure/llm"
	"github.com/bibbank/profileguard/internal/infrastructure/memory"
	"github.com/bibbank/profileguard/internal/infrastructure/messaging"
	"github.com/bibbank/profileguard/internal/infrastructure/ml"
	"github.com/bibbank/profileguard/internal/infrastructure/observability"
	"github.com/bibbank/profileguard/internal/infrastructure/postgres"
	"github.com/bibbank/profileguard/internal/infrastructure/tlsutil"
	grpcpresentation "github.com/bibbank/profileguard/internal/presentation/grpc"
	"github.com/bibbank/profileguard/internal/presentation/rest"
)

const serviceName = "profileguard"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// historyStore is the repository plus its readiness probe.
type historyStore interface {
	port.AssessmentRepository
	Ping(ctx context.Context) error
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
		Version: version,
	})

	logger.Info("starting "+serviceName,
		"http_port", cfg.HTTPPort,
		"grpc_port", cfg.GRPCPort,
	)

	// Initialize tracing.
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Endpoint:       cfg.OTLPEndpoint,
		Insecure:       !cfg.TLSEnabled(),
		SampleRatio:    1,
	})
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() { _ = shutdownTracing(context.Background()) }()
	}

	// Initialize metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{ServiceName: serviceName})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }()

	assessmentMetrics, err := observability.NewAssessmentMetrics(meterProvider)
	if err != nil {
		logger.Error("failed to register assessment metrics", "error", err)
		os.Exit(1)
	}

	// Scoring policy and classifier.
	policy, err := config.LoadScoringPolicy(cfg.ScoringPolicyFile)
	if err != nil {
		logger.Error("failed to load scoring policy", "error", err)
		os.Exit(1)
	}

	classifier, err := ml.LoadArtifactClassifier(cfg.ClassifierArtifactPath, logger)
	if err != nil {
		// A broken artifact must not take the service down; scoring degrades.
		logger.Error("failed to load classifier artifact, scoring will be rules-only",
			"path", cfg.ClassifierArtifactPath,
			"error", err,
		)
		classifier = ml.NewArtifactClassifier(nil, logger)
	}

	analyzer := llm.NewGeminiAnalyzer(llm.Config{
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		APIKey:  cfg.LLMAPIKey,
		Timeout: cfg.LLMTimeout,
	}, logger)
	if policy.QualitativeTimeout <= 0 || cfg.LLMTimeout < policy.QualitativeTimeout {
		policy.QualitativeTimeout = cfg.LLMTimeout
	}

	// History store.
	history, closeHistory, err := openHistory(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open assessment history", "error", err)
		os.Exit(1)
	}
	defer closeHistory()

	// Event publishing.
	publisher, closePublisher := openPublisher(cfg, logger)
	defer closePublisher()

	// Wire domain services.
	scorer, err := service.NewHybridScorer(
		service.NewRuleExtractor(),
		service.NewTextScanner(service.DefaultSuspiciousPhrases),
		classifier,
		analyzer,
		policy,
		logger,
	)
	if err != nil {
		logger.Error("failed to build scorer", "error", err)
		os.Exit(1)
	}

	// Wire use cases.
	assessAccountUC := usecase.NewAssessAccount(scorer, history, publisher, assessmentMetrics, featureLimits(cfg), logger)
	assessAccountUC.SetRecordTimeout(cfg.RecordTimeout)
	analyzeProfileUC := usecase.NewAnalyzeProfile(assessAccountUC, history)
	getAssessmentUC := usecase.NewGetAssessment(history)
	listRecentUC := usecase.NewListRecentAssessments(history)

	// gRPC server.
	grpcHandler := grpcpresentation.NewProfileRiskHandler(assessAccountUC, getAssessmentUC, logger)
	grpcServer, err := grpcpresentation.NewServer(grpcHandler, grpcpresentation.ServerConfig{
		Address:          cfg.GRPCAddress(),
		TLSCertFile:      cfg.TLSCertFile,
		TLSKeyFile:       cfg.TLSKeyFile,
		EnableReflection: cfg.EnableReflection,
	}, logger)
	if err != nil {
		logger.Error("failed to build gRPC server", "error", err)
		os.Exit(1)
	}

	// HTTP server.
	healthHandler := rest.NewHealthHandler(logger,
		rest.ReadinessCheck{Name: "history", Critical: true, Check: history.Ping},
		rest.ReadinessCheck{Name: "classifier", Check: func(context.Context) error {
			if !classifier.Ready() {
				return model.ErrClassifierUnavailable
			}
			return nil
		}},
		rest.ReadinessCheck{Name: "llm", Check: func(context.Context) error {
			if !analyzer.Configured() {
				return errors.New("no API key configured")
			}
			return nil
		}},
	)
	assessmentHandler := rest.NewAssessmentHandler(assessAccountUC, analyzeProfileUC, getAssessmentUC, listRecentUC, cfg.MaxBodyBytes, logger)

	httpServer := &http.Server{
		Addr: cfg.HTTPAddress(),
		Handler: rest.NewRouter(rest.RouterConfig{
			Assessments:   assessmentHandler,
			Health:        healthHandler,
			Metrics:       metricsHandler,
			PolicyVersion: policy.Version,
			Limiter:       rest.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
			Logger:        logger,
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	if cfg.TLSEnabled() {
		tlsConfig, err := tlsutil.ServerConfig(cfg.TLSCertFile, cfg.TLSKeyFile)
		if err != nil {
			logger.Error("failed to load HTTP TLS config", "error", err)
			os.Exit(1)
		}
		httpServer.TLSConfig = tlsConfig
	}

	// Reload the classifier artifact on SIGHUP.
	go watchReload(ctx, cfg.ClassifierArtifactPath, classifier, logger)

	// Start servers.
	errCh := make(chan error, 2)

	go func() {
		if err := grpcServer.Start(); err != nil {
			errCh <- fmt.Errorf("gRPC server error: %w", err)
		}
	}()

	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress(), "tls", cfg.TLSEnabled())
		var err error
		if cfg.TLSEnabled() {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	logger.Info(serviceName+" started",
		"grpc_address", cfg.GRPCAddress(),
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
		"policy_version", policy.Version,
		"artifact_version", classifier.Version(),
	)

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	logger.Info("shutting down " + serviceName)

	grpcServer.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info(serviceName + " stopped")
}

func featureLimits(cfg *config.Config) model.FeatureLimits {
	return model.FeatureLimits{MaxCount: cfg.FeatureMaxCount}
}

// openHistory connects to PostgreSQL when DATABASE_URL is set and keeps a
// bounded in-memory history otherwise.
func openHistory(ctx context.Context, cfg *config.Config, logger *slog.Logger) (historyStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Info("no database configured, keeping assessment history in memory",
			"capacity", cfg.HistoryCapacity,
		)
		return memory.NewAssessmentRepository(cfg.HistoryCapacity), func() {}, nil
	}

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return nil, nil, err
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, 10*time.Second)
	defer dbCancel()

	pool, err := postgres.Open(dbCtx, postgres.PoolConfig{
		DSN:             cfg.DatabaseURL,
		MaxConns:        int32(cfg.DBMaxConns),
		MinConns:        int32(cfg.DBMinConns),
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("connected to database")

	return postgres.NewAssessmentRepository(pool, featureLimits(cfg)), pool.Close, nil
}

// openPublisher publishes to Kafka when brokers are configured and logs
// events otherwise.
func openPublisher(cfg *config.Config, logger *slog.Logger) (port.EventPublisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("no kafka brokers configured, events will be logged")
		return messaging.NewLogPublisher(logger), func() {}
	}

	pub := kafka.NewPublisher(kafka.NewWriter(kafka.WriterConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaTopic,
	}), logger)
	logger.Info("publishing events to kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)

	return pub, func() {
		if err := pub.Close(); err != nil {
			logger.Error("failed to close kafka writer", "error", err)
		}
	}
}

func watchReload(ctx context.Context, path string, classifier *ml.ArtifactClassifier, logger *slog.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if path == "" {
				logger.Warn("reload requested but no classifier artifact is configured")
				continue
			}
			next, err := ml.LoadArtifact(path)
			if err != nil {
				logger.Error("classifier reload failed, keeping current artifact", "error", err)
				continue
			}
			prev, err := classifier.Swap(next)
			if err != nil {
				logger.Error("classifier reload rejected", "error", err)
				continue
			}
			prevVersion := ""
			if prev != nil {
				prevVersion = prev.Version
			}
			logger.Info("classifier artifact reloaded", "previous", prevVersion, "current", next.Version)
		}
	}
}

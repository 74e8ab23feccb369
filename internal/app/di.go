// Package app provides the dependency injection container that assembles
// the application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"

	academicRepository "github.com/GarciaKevinFab/academico-sync/internal/academic/repository"
	"github.com/GarciaKevinFab/academico-sync/internal/circuit"
	"github.com/GarciaKevinFab/academico-sync/internal/config"
	"github.com/GarciaKevinFab/academico-sync/internal/database"
	"github.com/GarciaKevinFab/academico-sync/internal/http"
	"github.com/GarciaKevinFab/academico-sync/internal/metrics"
	"github.com/GarciaKevinFab/academico-sync/internal/ministry"
	outboxHTTP "github.com/GarciaKevinFab/academico-sync/internal/outbox/http"
	outboxRepository "github.com/GarciaKevinFab/academico-sync/internal/outbox/repository"
	outboxUsecase "github.com/GarciaKevinFab/academico-sync/internal/outbox/usecase"
	reconciliationHTTP "github.com/GarciaKevinFab/academico-sync/internal/reconciliation/http"
	reconciliationRepository "github.com/GarciaKevinFab/academico-sync/internal/reconciliation/repository"
	reconciliationUsecase "github.com/GarciaKevinFab/academico-sync/internal/reconciliation/usecase"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger         *slog.Logger
	db             *sql.DB
	ministryClient *ministry.Client
	breaker        *circuit.Breaker
	reportsBucket  *blob.Bucket

	// Managers
	txManager database.TxManager

	// Metrics
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Repositories
	eventRepo          outboxUsecase.EventRepository
	deadLetterRepo     outboxUsecase.DeadLetterRepository
	academicRepo       reconciliationUsecase.AcademicRepository
	reconciliationRepo reconciliationUsecase.ResultRepository

	// Worker wake-up channel shared by producer and worker.
	wake chan struct{}

	// Use Cases
	producerUseCase   *outboxUsecase.ProducerUseCase
	workerUseCase     *outboxUsecase.WorkerUseCase
	adminUseCase      *outboxUsecase.AdminUseCase
	reconcilerUseCase *reconciliationUsecase.ReconcilerUseCase

	// Servers and Workers
	httpServer    *http.Server
	metricsServer *http.MetricsServer

	// Initialization flags and mutex for thread-safety
	mu                     sync.Mutex
	loggerInit             sync.Once
	dbInit                 sync.Once
	txManagerInit          sync.Once
	ministryClientInit     sync.Once
	breakerInit            sync.Once
	reportsBucketInit      sync.Once
	metricsProviderInit    sync.Once
	businessMetricsInit    sync.Once
	eventRepoInit          sync.Once
	deadLetterRepoInit     sync.Once
	academicRepoInit       sync.Once
	reconciliationRepoInit sync.Once
	wakeInit               sync.Once
	producerUseCaseInit    sync.Once
	workerUseCaseInit      sync.Once
	adminUseCaseInit       sync.Once
	reconcilerUseCaseInit  sync.Once
	httpServerInit         sync.Once
	metricsServerInit      sync.Once
	initErrors             map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := c.initDB()
		if err != nil {
			c.initErrors["db"] = err
			return
		}
		c.db = db
	})
	if storedErr, exists := c.initErrors["db"]; exists {
		return nil, storedErr
	}
	return c.db, nil
}

// TxManager returns the transaction manager.
// It requires a database connection to be initialized first.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		txManager, err := c.initTxManager()
		if err != nil {
			c.initErrors["txManager"] = err
			return
		}
		c.txManager = txManager
	})
	if storedErr, exists := c.initErrors["txManager"]; exists {
		return nil, storedErr
	}
	return c.txManager, nil
}

// MinistryClient returns the HTTP client for the ministry integration API.
func (c *Container) MinistryClient() *ministry.Client {
	c.ministryClientInit.Do(func() {
		c.ministryClient = ministry.NewClient(
			c.config.MinistryBaseURL,
			c.config.MinistryToken,
			c.config.MinistryInstitutionCode,
			c.Logger(),
			ministry.WithTimeout(c.config.MinistryTimeout),
		)
	})
	return c.ministryClient
}

// Breaker returns the circuit breaker guarding ministry calls.
func (c *Container) Breaker() *circuit.Breaker {
	c.breakerInit.Do(func() {
		c.breaker = circuit.New(
			circuit.WithFailureThreshold(c.config.CircuitFailureThreshold),
			circuit.WithRecoveryTimeout(c.config.CircuitRecoveryTimeout),
		)
	})
	return c.breaker
}

// ReportsBucket returns the blob bucket where reconciliation reports are
// written. Returns nil when no bucket URL is configured; report export is
// skipped in that case.
func (c *Container) ReportsBucket() (*blob.Bucket, error) {
	c.reportsBucketInit.Do(func() {
		if c.config.ReportsBucketURL == "" {
			return
		}
		bucket, err := blob.OpenBucket(context.Background(), c.config.ReportsBucketURL)
		if err != nil {
			c.initErrors["reportsBucket"] = fmt.Errorf("failed to open reports bucket: %w", err)
			return
		}
		c.reportsBucket = bucket
	})
	if storedErr, exists := c.initErrors["reportsBucket"]; exists {
		return nil, storedErr
	}
	return c.reportsBucket, nil
}

// MetricsProvider returns the OpenTelemetry/Prometheus metrics provider.
// Returns nil when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder is
// returned when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		businessMetrics, err := c.initBusinessMetrics()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		c.businessMetrics = businessMetrics
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// EventRepository returns the outbox event repository instance.
func (c *Container) EventRepository() (outboxUsecase.EventRepository, error) {
	c.eventRepoInit.Do(func() {
		eventRepo, err := c.initEventRepository()
		if err != nil {
			c.initErrors["eventRepo"] = err
			return
		}
		c.eventRepo = eventRepo
	})
	if storedErr, exists := c.initErrors["eventRepo"]; exists {
		return nil, storedErr
	}
	return c.eventRepo, nil
}

// DeadLetterRepository returns the dead letter repository instance.
func (c *Container) DeadLetterRepository() (outboxUsecase.DeadLetterRepository, error) {
	c.deadLetterRepoInit.Do(func() {
		deadLetterRepo, err := c.initDeadLetterRepository()
		if err != nil {
			c.initErrors["deadLetterRepo"] = err
			return
		}
		c.deadLetterRepo = deadLetterRepo
	})
	if storedErr, exists := c.initErrors["deadLetterRepo"]; exists {
		return nil, storedErr
	}
	return c.deadLetterRepo, nil
}

// AcademicRepository returns the read-only academic records repository.
func (c *Container) AcademicRepository() (reconciliationUsecase.AcademicRepository, error) {
	c.academicRepoInit.Do(func() {
		academicRepo, err := c.initAcademicRepository()
		if err != nil {
			c.initErrors["academicRepo"] = err
			return
		}
		c.academicRepo = academicRepo
	})
	if storedErr, exists := c.initErrors["academicRepo"]; exists {
		return nil, storedErr
	}
	return c.academicRepo, nil
}

// ReconciliationRepository returns the reconciliation result repository.
func (c *Container) ReconciliationRepository() (reconciliationUsecase.ResultRepository, error) {
	c.reconciliationRepoInit.Do(func() {
		reconciliationRepo, err := c.initReconciliationRepository()
		if err != nil {
			c.initErrors["reconciliationRepo"] = err
			return
		}
		c.reconciliationRepo = reconciliationRepo
	})
	if storedErr, exists := c.initErrors["reconciliationRepo"]; exists {
		return nil, storedErr
	}
	return c.reconciliationRepo, nil
}

// WakeChannel returns the channel the producer signals to wake the worker
// when fresh events are recorded.
func (c *Container) WakeChannel() chan struct{} {
	c.wakeInit.Do(func() {
		c.wake = make(chan struct{}, 1)
	})
	return c.wake
}

// ProducerUseCase returns the event producer use case instance.
func (c *Container) ProducerUseCase() (*outboxUsecase.ProducerUseCase, error) {
	c.producerUseCaseInit.Do(func() {
		producerUseCase, err := c.initProducerUseCase()
		if err != nil {
			c.initErrors["producerUseCase"] = err
			return
		}
		c.producerUseCase = producerUseCase
	})
	if storedErr, exists := c.initErrors["producerUseCase"]; exists {
		return nil, storedErr
	}
	return c.producerUseCase, nil
}

// WorkerUseCase returns the delivery worker use case instance.
func (c *Container) WorkerUseCase() (*outboxUsecase.WorkerUseCase, error) {
	c.workerUseCaseInit.Do(func() {
		workerUseCase, err := c.initWorkerUseCase()
		if err != nil {
			c.initErrors["workerUseCase"] = err
			return
		}
		c.workerUseCase = workerUseCase
	})
	if storedErr, exists := c.initErrors["workerUseCase"]; exists {
		return nil, storedErr
	}
	return c.workerUseCase, nil
}

// AdminUseCase returns the operator admin use case instance.
func (c *Container) AdminUseCase() (*outboxUsecase.AdminUseCase, error) {
	c.adminUseCaseInit.Do(func() {
		adminUseCase, err := c.initAdminUseCase()
		if err != nil {
			c.initErrors["adminUseCase"] = err
			return
		}
		c.adminUseCase = adminUseCase
	})
	if storedErr, exists := c.initErrors["adminUseCase"]; exists {
		return nil, storedErr
	}
	return c.adminUseCase, nil
}

// ReconcilerUseCase returns the reconciliation use case instance.
func (c *Container) ReconcilerUseCase() (*reconciliationUsecase.ReconcilerUseCase, error) {
	c.reconcilerUseCaseInit.Do(func() {
		reconcilerUseCase, err := c.initReconcilerUseCase()
		if err != nil {
			c.initErrors["reconcilerUseCase"] = err
			return
		}
		c.reconcilerUseCase = reconcilerUseCase
	})
	if storedErr, exists := c.initErrors["reconcilerUseCase"]; exists {
		return nil, storedErr
	}
	return c.reconcilerUseCase, nil
}

// HTTPServer returns the operator API server instance.
func (c *Container) HTTPServer() (*http.Server, error) {
	c.httpServerInit.Do(func() {
		httpServer, err := c.initHTTPServer()
		if err != nil {
			c.initErrors["httpServer"] = err
			return
		}
		c.httpServer = httpServer
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the Prometheus metrics server instance.
// Returns nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		metricsServer, err := c.initMetricsServer()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = metricsServer
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.httpServer != nil {
		if err := c.httpServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("http server shutdown: %w", err))
		}
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.reportsBucket != nil {
		if err := c.reportsBucket.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("reports bucket close: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

// initDB creates and configures the database connection.
func (c *Container) initDB() (*sql.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:             c.config.DBDriver,
		ConnectionString:   c.config.DBConnectionString,
		MaxOpenConnections: c.config.DBMaxOpenConnections,
		MaxIdleConnections: c.config.DBMaxIdleConnections,
		ConnMaxLifetime:    c.config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// initTxManager creates the transaction manager using the database connection.
func (c *Container) initTxManager() (database.TxManager, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for tx manager: %w", err)
	}
	return database.NewTxManager(db), nil
}

// initBusinessMetrics creates the business metrics recorder.
func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}

	businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	return businessMetrics, nil
}

// initEventRepository creates the outbox event repository instance.
func (c *Container) initEventRepository() (outboxUsecase.EventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for event repository: %w", err)
	}

	// Select the appropriate repository based on the database driver
	switch c.config.DBDriver {
	case "mysql":
		return outboxRepository.NewMySQLEventRepository(db), nil
	case "postgres":
		return outboxRepository.NewPostgreSQLEventRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initDeadLetterRepository creates the dead letter repository instance.
func (c *Container) initDeadLetterRepository() (outboxUsecase.DeadLetterRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for dead letter repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return outboxRepository.NewMySQLDeadLetterRepository(db), nil
	case "postgres":
		return outboxRepository.NewPostgreSQLDeadLetterRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initAcademicRepository creates the academic records repository instance.
func (c *Container) initAcademicRepository() (reconciliationUsecase.AcademicRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for academic repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return academicRepository.NewMySQLAcademicRepository(db), nil
	case "postgres":
		return academicRepository.NewPostgreSQLAcademicRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initReconciliationRepository creates the reconciliation result repository instance.
func (c *Container) initReconciliationRepository() (reconciliationUsecase.ResultRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for reconciliation repository: %w", err)
	}

	switch c.config.DBDriver {
	case "mysql":
		return reconciliationRepository.NewMySQLReconciliationRepository(db), nil
	case "postgres":
		return reconciliationRepository.NewPostgreSQLReconciliationRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initProducerUseCase creates the event producer use case with all its dependencies.
func (c *Container) initProducerUseCase() (*outboxUsecase.ProducerUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for producer use case: %w", err)
	}

	eventRepo, err := c.EventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get event repository for producer use case: %w", err)
	}

	return outboxUsecase.NewProducerUseCase(
		txManager,
		eventRepo,
		c.config.WorkerMaxRetries,
		c.WakeChannel(),
		c.Logger(),
	), nil
}

// initWorkerUseCase creates the delivery worker use case with all its dependencies.
func (c *Container) initWorkerUseCase() (*outboxUsecase.WorkerUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for worker use case: %w", err)
	}

	eventRepo, err := c.EventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get event repository for worker use case: %w", err)
	}

	deadLetterRepo, err := c.DeadLetterRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get dead letter repository for worker use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for worker use case: %w", err)
	}

	workerConfig := outboxUsecase.WorkerConfig{
		PollInterval: c.config.WorkerPollInterval,
		BatchSize:    c.config.WorkerBatchSize,
		MaxRetries:   c.config.WorkerMaxRetries,
		BackoffBase:  c.config.WorkerBackoffBase,
		BackoffMax:   c.config.WorkerBackoffMax,
	}

	return outboxUsecase.NewWorkerUseCase(
		workerConfig,
		txManager,
		eventRepo,
		deadLetterRepo,
		c.MinistryClient(),
		c.Breaker(),
		businessMetrics,
		c.WakeChannel(),
		c.Logger(),
	), nil
}

// initAdminUseCase creates the admin use case with all its dependencies.
func (c *Container) initAdminUseCase() (*outboxUsecase.AdminUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for admin use case: %w", err)
	}

	eventRepo, err := c.EventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get event repository for admin use case: %w", err)
	}

	deadLetterRepo, err := c.DeadLetterRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get dead letter repository for admin use case: %w", err)
	}

	return outboxUsecase.NewAdminUseCase(
		txManager,
		eventRepo,
		deadLetterRepo,
		c.Breaker(),
		c.Logger(),
	), nil
}

// initReconcilerUseCase creates the reconciliation use case with all its dependencies.
func (c *Container) initReconcilerUseCase() (*reconciliationUsecase.ReconcilerUseCase, error) {
	academicRepo, err := c.AcademicRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get academic repository for reconciler use case: %w", err)
	}

	reconciliationRepo, err := c.ReconciliationRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get reconciliation repository for reconciler use case: %w", err)
	}

	eventRepo, err := c.EventRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get event repository for reconciler use case: %w", err)
	}

	reportsBucket, err := c.ReportsBucket()
	if err != nil {
		return nil, fmt.Errorf("failed to get reports bucket for reconciler use case: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for reconciler use case: %w", err)
	}

	return reconciliationUsecase.NewReconcilerUseCase(
		academicRepo,
		c.MinistryClient(),
		reconciliationRepo,
		eventRepo,
		reportsBucket,
		businessMetrics,
		c.Logger(),
	), nil
}

// initHTTPServer creates the operator API server with all its dependencies.
func (c *Container) initHTTPServer() (*http.Server, error) {
	logger := c.Logger()

	producerUseCase, err := c.ProducerUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get producer use case for http server: %w", err)
	}

	adminUseCase, err := c.AdminUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get admin use case for http server: %w", err)
	}

	reconcilerUseCase, err := c.ReconcilerUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get reconciler use case for http server: %w", err)
	}

	handlers := http.Handlers{
		Event:          outboxHTTP.NewEventHandler(producerUseCase, adminUseCase, logger),
		DeadLetter:     outboxHTTP.NewDeadLetterHandler(adminUseCase, logger),
		Reconciliation: reconciliationHTTP.NewReconciliationHandler(reconcilerUseCase, logger),
	}

	opts := http.Options{
		Host:             c.config.ServerHost,
		Port:             c.config.ServerPort,
		GinMode:          c.config.GetGinMode(),
		RateLimitEnabled: c.config.RateLimitEnabled,
		RateLimitRPS:     c.config.RateLimitRequestsPerSec,
		RateLimitBurst:   c.config.RateLimitBurst,
		CORSEnabled:      c.config.CORSEnabled,
		CORSAllowOrigins: c.config.CORSAllowOrigins,
	}

	return http.NewServer(opts, handlers, logger), nil
}

// initMetricsServer creates the metrics server with its provider.
func (c *Container) initMetricsServer() (*http.MetricsServer, error) {
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for metrics server: %w", err)
	}

	return http.NewMetricsServer(c.config.ServerHost, c.config.MetricsPort, c.Logger(), provider), nil
}

package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"expensebot-go/internal/agent"
	"expensebot-go/internal/config"
	"expensebot-go/internal/llm"
	"expensebot-go/internal/parser"
	"expensebot-go/internal/router"
	"expensebot-go/internal/service"
	"expensebot-go/internal/storage"
)

// MessageProcessor handles one inbound message end to end.
type MessageProcessor interface {
	Process(ctx context.Context, telegramID, message string) service.Result
}

// Application holds all the major components of the service.
type Application struct {
	Config        *config.Config
	Logger        *log.Logger
	DB            *sql.DB
	Storage       *storage.SQLiteStorage
	Processor     MessageProcessor
	HttpServer    *http.Server
	MetricsServer *http.Server
}

// New creates and initializes a new Application instance. Every
// collaborator is constructed once here and passed by reference.
func New(cfg *config.Config) (*Application, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	logger := log.New(os.Stdout, "expensebot: ", log.LstdFlags)

	// Setup: Database
	dbCfg := storage.DefaultConfig()
	dbCfg.Path = cfg.DBPath
	store, err := storage.OpenDatabase(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store.SetLogger(logger)

	// Setup: Model pipeline
	client := llm.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Timeout.Duration)
	classifier := router.NewClassifier(client, logger)
	extractor := parser.NewParser(client, logger)
	responder := agent.New(client, store, logger,
		agent.WithMaxIterations(cfg.Agent.MaxIterations),
		agent.WithQueryTimeout(cfg.Agent.QueryTimeout.Duration),
	)

	// Setup: Orchestration
	expenses := service.NewExpenseService(store, extractor, logger)
	queries := service.NewQueryService(responder, logger)
	processor := service.NewProcessor(store, classifier, expenses, queries, logger)

	// Setup: HTTP Server for metrics
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.MetricsPort),
		Handler: metricsMux,
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		DB:            store.DB(),
		Storage:       store,
		Processor:     processor,
		MetricsServer: metricsServer,
	}

	// Setup: Main HTTP Server
	httpMux := http.NewServeMux()
	httpMux.HandleFunc("/health", app.handleHealth)
	httpMux.HandleFunc("/process-message", app.handleProcessMessage)

	app.HttpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: app.withRequestID(app.withLogging(app.withMetrics(httpMux))),
	}

	return app, nil
}

// Start begins the application's services.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.Println("Starting application services...")

	// Start the metrics server
	go func() {
		a.Logger.Printf("Starting metrics server on %s", a.MetricsServer.Addr)
		if err := a.MetricsServer.ListenAndServe(); err != http.ErrServerClosed {
			a.Logger.Fatalf("Metrics server ListenAndServe: %v", err)
		}
	}()

	// Start the main HTTP server
	go func() {
		a.Logger.Printf("Starting HTTP server on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != http.ErrServerClosed {
			a.Logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the application's services.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.Println("Stopping application services...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := a.HttpServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Printf("HTTP server shutdown error: %v", err)
	}

	if err := a.MetricsServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Printf("Metrics server shutdown error: %v", err)
	}

	if err := a.DB.Close(); err != nil {
		a.Logger.Printf("Error closing database: %v", err)
	}

	a.Logger.Println("Application stopped gracefully.")
	return nil
}

// Package main is the entry point for the assistant API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/localfirst-ai/hybrid-assistant/internal/calendar"
	"github.com/localfirst-ai/hybrid-assistant/internal/config"
	"github.com/localfirst-ai/hybrid-assistant/internal/events"
	"github.com/localfirst-ai/hybrid-assistant/internal/handler"
	"github.com/localfirst-ai/hybrid-assistant/internal/llm"
	"github.com/localfirst-ai/hybrid-assistant/internal/middleware"
	"github.com/localfirst-ai/hybrid-assistant/internal/nlu"
	"github.com/localfirst-ai/hybrid-assistant/internal/orchestrator"
	"github.com/localfirst-ai/hybrid-assistant/internal/privacy"
	"github.com/localfirst-ai/hybrid-assistant/internal/session"
	"github.com/localfirst-ai/hybrid-assistant/internal/speech"
	"github.com/localfirst-ai/hybrid-assistant/internal/task"
	"github.com/localfirst-ai/hybrid-assistant/internal/vision"
	"github.com/localfirst-ai/hybrid-assistant/internal/worker"
	"github.com/localfirst-ai/hybrid-assistant/pkg/logger"
	"github.com/localfirst-ai/hybrid-assistant/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting assistant server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "hybrid-assistant", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect the optional NATS journal. Without a broker the assistant
	// runs fully local and events are dropped.
	var natsClient *events.Client
	var publisher events.Publisher = events.Noop{}
	if cfg.NATSURL != "" {
		natsClient, err = events.Connect(ctx, events.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsClient.Close()

		publisher, err = events.NewJetStreamPublisher(ctx, natsClient)
		if err != nil {
			log.Error("failed to ensure journal stream", zap.Error(err))
			os.Exit(1)
		}
	}

	// Open the local stores
	calendarStore, err := calendar.Open(cfg.CalendarSnapshot, log)
	if err != nil {
		log.Error("failed to open calendar store", zap.Error(err))
		os.Exit(1)
	}
	taskStore, err := task.Open(cfg.TasksSnapshot, publisher, log)
	if err != nil {
		log.Error("failed to open task store", zap.Error(err))
		os.Exit(1)
	}
	sessionStore := session.NewStore()
	engine := calendar.NewEngine(calendarStore, publisher, log)

	// Local model client; without one the keyword fallback still resolves.
	var localClient llm.Client
	if lc, err := llm.NewLocalClient(cfg.LocalLLMBaseURL, cfg.LocalLLMModel); err != nil {
		log.Warn("local model client unavailable, using keyword fallback only", zap.Error(err))
	} else {
		localClient = lc
	}
	resolver := nlu.NewResolver(localClient, log)

	// Remote escalation client, gated behind the deployment flag.
	var remoteClient llm.Client
	if cfg.RemoteEnabled {
		rc, err := llm.NewRemoteClient(cfg.AnthropicAPIKey, cfg.OpenAIAPIKey)
		switch {
		case err != nil:
			log.Warn("remote client unavailable, escalation disabled", zap.Error(err))
		case rc == nil:
			log.Warn("remote inference enabled but no provider key is set")
		default:
			remoteClient = rc
		}
	}

	// Speech and vision collaborators are optional.
	var speechSvc speech.Service
	if cfg.DeepgramAPIKey != "" {
		speechSvc, err = speech.NewDeepgramService(cfg.DeepgramAPIKey, log)
		if err != nil {
			log.Warn("speech service unavailable", zap.Error(err))
		}
	}
	var visionSvc vision.Service
	if cfg.OpenAIAPIKey != "" {
		visionSvc, err = vision.NewOpenAIService(cfg.OpenAIAPIKey, log)
		if err != nil {
			log.Warn("vision service unavailable", zap.Error(err))
		}
	}

	// Background workers for media analysis
	pool := worker.NewPool(cfg.WorkerCount, cfg.WorkerQueue, log)
	defer pool.Shutdown()

	orch := orchestrator.New(resolver, engine, taskStore, sessionStore, privacy.NewGate(), orchestrator.Options{
		Remote:        remoteClient,
		RemoteEnabled: cfg.RemoteEnabled,
		RemoteTimeout: cfg.RemoteTimeout,
		Speech:        speechSvc,
	}, log)

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(natsClient)
	assistantHandler := handler.NewAssistantHandler(orch, log)
	calendarHandler := handler.NewCalendarHandler(engine, log)
	taskHandler := handler.NewTaskHandler(taskStore, log)
	mediaHandler := handler.NewMediaHandler(visionSvc, taskStore, pool, publisher, filepath.Join(cfg.DataDir, "images"), log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Conversational turns
		r.Route("/assistant", func(r chi.Router) {
			r.Post("/text", assistantHandler.Text)
			r.Post("/voice", assistantHandler.Voice)
		})

		// Calendar
		r.Route("/calendar", func(r chi.Router) {
			r.Get("/availability", calendarHandler.Availability)
			r.Get("/windows", calendarHandler.Windows)
			r.Post("/appointments", calendarHandler.Book)
			r.Delete("/appointments/{id}", calendarHandler.Cancel)
		})

		// Tasks
		r.Route("/tasks", func(r chi.Router) {
			r.Post("/", taskHandler.Create)
			r.Get("/", taskHandler.List)
			r.Get("/{id}", taskHandler.Get)
			r.Get("/{id}/timeline", taskHandler.Timeline)
		})

		// Media uploads
		r.Post("/media/images", mediaHandler.Upload)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

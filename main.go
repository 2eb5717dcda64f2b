package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	clerk "github.com/clerk/clerk-sdk-go/v2"
	gorilllaHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"yumyumCoachAPI/handlers"
	"yumyumCoachAPI/internal/config"
	"yumyumCoachAPI/internal/metrics"
	"yumyumCoachAPI/internal/notification"
	"yumyumCoachAPI/internal/storage/postgres"
	"yumyumCoachAPI/internal/storage/seed"
	"yumyumCoachAPI/internal/storage/sqlite"
	"yumyumCoachAPI/internal/workers"
	"yumyumCoachAPI/middleware"
	"yumyumCoachAPI/services"
)

type appStore interface {
	services.Store
	seed.Writer
	Ping(ctx context.Context) error
	Close() error
}

func openStore(ctx context.Context, cfg *config.Config) (appStore, error) {
	if cfg.StorageDriver == config.DriverSQLite {
		store, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		log.Printf("Opened SQLite database at %s", cfg.SQLitePath)
		return store, nil
	}

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	store := postgres.NewStore(pool)
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	log.Println("Successfully connected to Postgres")
	return store, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	clerk.SetKey(cfg.ClerkSecretKey)
	log.Println("Clerk initialized successfully")

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := openStore(startupCtx, cfg)
	if err != nil {
		log.Fatal("Failed to open storage: ", err)
	}
	defer func() {
		log.Println("Closing database...")
		store.Close()
	}()

	if cfg.SeedFile != "" {
		fixtures, err := seed.LoadFile(cfg.SeedFile)
		if err != nil {
			log.Fatal("Failed to load seed file: ", err)
		}
		n, err := seed.Apply(startupCtx, store, fixtures)
		if err != nil {
			log.Fatal("Failed to seed challenges: ", err)
		}
		log.Printf("Seeded %d challenges from %s", n, cfg.SeedFile)
	}

	opts := []services.Option{
		services.WithLocation(cfg.Location()),
		services.WithRejoinPolicy(cfg.Rejoin()),
	}
	fcmService, err := notification.NewFCMService(startupCtx, cfg.FCMServiceAccountJSON, cfg.FCMCredentialsFile)
	if err != nil {
		log.Printf("Warning: Could not initialize FCM: %v", err)
	} else {
		opts = append(opts, services.WithCompletionNotifier(fcmService))
		log.Println("FCM Push Provider initialized successfully")
	}

	challengeService := services.NewChallengeService(store, opts...)

	metrics.Register(prometheus.DefaultRegisterer)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	progressWorker := workers.NewProgressWorker(store, store, challengeService.Evaluator(), cfg.ProgressEvalInterval, cfg.ProgressEvalWorkers, cfg.Location())
	progressWorker.Start(ctx)
	log.Printf("Progress worker started: every %s with %d workers", cfg.ProgressEvalInterval, cfg.ProgressEvalWorkers)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rateLimiter.Cleanup(ctx)

	challengeHandler := handlers.NewChallengeHandler(challengeService)

	r := mux.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(rateLimiter.Middleware)
	r.Use(middleware.MonitorMiddleware)

	r.Handle("/metrics", middleware.BasicAuthMiddleware(cfg.MetricsUser, cfg.MetricsPass)(promhttp.Handler()))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status": "unhealthy", "error": "database connection failed"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy", "service": "yumyum-coach-api"}`))
	}).Methods("GET")

	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(middleware.ClerkAuthMiddleware)
	challengeHandler.Register(protected)

	corsHandler := gorilllaHandlers.CORS(
		gorilllaHandlers.AllowedOrigins([]string{"*"}),
		gorilllaHandlers.AllowedMethods([]string{"GET", "POST", "OPTIONS"}),
		gorilllaHandlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
		gorilllaHandlers.ExposedHeaders([]string{"Content-Length", middleware.RequestIDHeader}),
		gorilllaHandlers.AllowCredentials(),
	)

	port := ":" + cfg.Port
	server := http.Server{
		Addr:         port,
		Handler:      corsHandler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Error starting server:", err)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Println("Got signal:", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	stop()
	progressWorker.Wait()

	log.Println("Server shutdown complete")
}

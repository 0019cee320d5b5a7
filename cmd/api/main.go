package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/nestlog/analytics-service/internal/adapters/handler"
	"github.com/nestlog/analytics-service/internal/adapters/middleware"
	"github.com/nestlog/analytics-service/internal/adapters/repository"
	"github.com/nestlog/analytics-service/internal/config"
	"github.com/nestlog/analytics-service/internal/core/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database with retry logic
	db, err := config.ConnectDatabase(cfg.DatabaseURL, 5, 2*time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize schema (idempotent)
	if err := config.InitDatabase(db); err != nil {
		log.Fatalf("Failed to initialize database schema: %v", err)
	}

	// Initialize RabbitMQ publisher for dosing safety alerts
	alertPublisher, err := repository.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.AlertQueueName)
	if err != nil {
		log.Fatalf("Failed to initialize RabbitMQ publisher: %v", err)
	}
	defer alertPublisher.Close()

	// Initialize repositories
	sqlRepo := repository.NewSQLRepository(db)

	// Initialize services
	babyService := services.NewBabyService(sqlRepo)
	recordService := services.NewRecordService(sqlRepo, sqlRepo)
	statisticsService := services.NewStatisticsService(sqlRepo, sqlRepo)
	growthService := services.NewGrowthService(sqlRepo, sqlRepo, sqlRepo)
	dosingService := services.NewDosingService(sqlRepo, sqlRepo, sqlRepo, alertPublisher, cfg.DosingPolicy)

	// Initialize RabbitMQ consumer for care events from the speech
	// classifier. Runs in the same pod and persists events through the
	// record service, so ingested events feed the same aggregations as
	// events created over HTTP.
	recordConsumer, err := repository.NewRecordConsumer(cfg.RabbitMQURL, cfg.RecordQueueName, recordService)
	if err != nil {
		log.Fatalf("Failed to initialize RabbitMQ record consumer: %v", err)
	}
	defer recordConsumer.Close()

	// Start record consumer in background goroutine (non-blocking)
	// Note: In multi-replica deployments, each replica will have its own
	// consumer, and RabbitMQ will distribute messages across replicas
	// using round-robin
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	go func() {
		if err := recordConsumer.StartConsuming(consumerCtx); err != nil {
			log.Printf("Record consumer error: %v", err)
		}
	}()
	log.Println("Record consumer started in background, listening for care events")

	// Register dosing-engine metrics
	handler.RegisterEngineMetrics()

	// Initialize handlers
	babyHandler := handler.NewBabyHandler(babyService)
	recordHandler := handler.NewRecordHandler(recordService)
	statisticsHandler := handler.NewStatisticsHandler(statisticsService)
	growthHandler := handler.NewGrowthHandler(growthService)
	dosingHandler := handler.NewDosingHandler(dosingService)
	healthHandler := handler.NewHealthHandler(db)

	// Initialize JWT middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey)
	defer authMiddleware.Stop()

	// Setup HTTP router
	mux := http.NewServeMux()

	// Health endpoints (OpenShift compatible, no auth required)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /health/live", healthHandler.Live)

	// API endpoints (require authentication)
	// POST /babies - ADMIN only
	mux.HandleFunc("POST /babies", authMiddleware.RequireRole(middleware.RoleAdmin, babyHandler.CreateBaby))

	// GET /babies - ADMIN: all, CAREGIVER: owned only
	mux.HandleFunc("GET /babies", authMiddleware.RequireAuth(babyHandler.ListBabies))

	// GET /babies/{baby_id} - ADMIN: any, CAREGIVER: owned only
	mux.HandleFunc("GET /babies/{baby_id}", authMiddleware.RequireAuth(babyHandler.GetBaby))

	// POST /babies/{baby_id}/records - CAREGIVER: owned only (ADMIN cannot create)
	mux.HandleFunc("POST /babies/{baby_id}/records", authMiddleware.RequireAuth(recordHandler.CreateRecord))

	// GET /babies/{baby_id}/records - ADMIN: any, CAREGIVER: owned only
	mux.HandleFunc("GET /babies/{baby_id}/records", authMiddleware.RequireAuth(recordHandler.GetRecords))

	// GET /babies/{baby_id}/statistics/weekly - weekly active-time summary
	mux.HandleFunc("GET /babies/{baby_id}/statistics/weekly", authMiddleware.RequireAuth(statisticsHandler.GetWeeklyStatistics))

	// POST /babies/{baby_id}/growth-samples - CAREGIVER: owned only
	mux.HandleFunc("POST /babies/{baby_id}/growth-samples", authMiddleware.RequireAuth(growthHandler.RecordSample))

	// GET /babies/{baby_id}/growth/{type}/percentile - band classification
	mux.HandleFunc("GET /babies/{baby_id}/growth/{type}/percentile", authMiddleware.RequireAuth(growthHandler.GetPercentile))

	// GET /babies/{baby_id}/growth/{type}/history - median trend + own samples
	mux.HandleFunc("GET /babies/{baby_id}/growth/{type}/history", authMiddleware.RequireAuth(growthHandler.GetHistory))

	// POST /babies/{baby_id}/dosing/check - dry-run safety check
	mux.HandleFunc("POST /babies/{baby_id}/dosing/check", authMiddleware.RequireAuth(dosingHandler.CheckSafety))

	// POST /babies/{baby_id}/doses - validate-then-record, 422 on disallow
	mux.HandleFunc("POST /babies/{baby_id}/doses", authMiddleware.RequireAuth(dosingHandler.RecordDose))

	// Wrap mux with metrics middleware to track all HTTP requests
	loggedRouter := middleware.MetricsMiddleware(mux)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      loggedRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting Analytics Service on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Cancel consumer context first to stop processing new messages
	consumerCancel()
	log.Println("Record consumer stopped")

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

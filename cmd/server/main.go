package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/verikyc/backend/internal/config"
	"github.com/verikyc/backend/internal/database"
	"github.com/verikyc/backend/internal/handlers"
	"github.com/verikyc/backend/internal/jobs"
	"github.com/verikyc/backend/internal/routes"
	"github.com/verikyc/backend/internal/services/directory"
	"github.com/verikyc/backend/internal/services/query"
	"github.com/verikyc/backend/internal/services/review"
	"github.com/verikyc/backend/internal/store/kycstore"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()

	// Initialize database
	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis client; the directory cache and summary snapshot
	// degrade gracefully when Redis is down, so a failed ping is not fatal.
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		log.Printf("Warning: Redis unavailable, caching disabled: %v", err)
	}

	// Wire the KYC core
	store := kycstore.NewPostgres(db)
	dir := directory.NewClient(cfg.Directory.BaseURL, cfg.Directory.Timeout, redisClient, cfg.Directory.CacheTTL)
	reviewSvc := review.NewService(store)
	querySvc := query.NewService(store, dir)

	// Start the pending-summary refresh job
	summaryJob := jobs.NewSummaryJob(querySvc, redisClient)
	if err := summaryJob.Start(time.Minute); err != nil {
		log.Fatalf("Failed to start summary job: %v", err)
	}
	defer summaryJob.Stop()

	// Build the router
	kycHandler := handlers.NewKYCHandler(reviewSvc, querySvc)
	router := routes.SetupRouter(kycHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

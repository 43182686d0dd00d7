package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"assettrack/config"
	"assettrack/database"
	"assettrack/handlers"
	"assettrack/middleware"
	"assettrack/routes"
	"assettrack/scheduler"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it")
	}

	config.LoadConfig()

	// Database connection
	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Disconnect()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.EnsureIndexes(ctx); err != nil {
			log.Printf("Index creation warning: %v", err)
		}
		cancel()
	}

	handlers.InitCollections()
	handlers.InitActivityHandlers()

	gate := middleware.NewMaintenanceGate(nil)
	handlers.Gate = gate

	// Daily maintenance scan
	sched, err := scheduler.New(config.NotifySchedule, handlers.RunMaintenanceScan)
	if err != nil {
		log.Fatalf("Invalid NOTIFY_SCHEDULE %q: %v", config.NotifySchedule, err)
	}
	sched.Start()
	defer sched.Stop()

	// Router setup
	router := mux.NewRouter()
	routes.RegisterRoutes(router, gate)

	// Global middlewares (order matters!)
	router.Use(middleware.LoggingMiddleware)
	router.Use(middleware.RecoveryMiddleware)
	router.Use(middleware.CorsMiddleware)

	// HTTP server configuration
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s", config.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

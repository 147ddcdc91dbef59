package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/admitra/leadflow/internal/auth"
	"github.com/admitra/leadflow/internal/config"
	"github.com/admitra/leadflow/internal/db"
	"github.com/admitra/leadflow/internal/leadimport"
	"github.com/admitra/leadflow/internal/middleware"
	"github.com/admitra/leadflow/internal/repository"

	"github.com/rs/cors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	leadRepo := repository.NewLeadRepository(conn.Pool)
	jobRepo := repository.NewImportJobRepository(conn.Pool)
	masterDataRepo := repository.NewMasterDataRepository(conn.Pool)

	sessions := leadimport.NewSessionStore(cfg.Import.SessionTTL)
	importService := leadimport.NewService(
		leadRepo,
		jobRepo,
		masterDataRepo,
		sessions,
		leadimport.WithUploadDirectory(cfg.Import.UploadDir),
		leadimport.WithChunkSize(cfg.Import.ChunkSize),
		leadimport.WithWorkerConcurrency(cfg.Import.WorkerConcurrency),
		leadimport.WithQueueCapacity(cfg.Import.QueueCapacity),
		leadimport.WithPreviewRows(cfg.Import.PreviewRows),
		leadimport.WithPreviewSizeLimit(cfg.Import.PreviewMaxBytes),
		leadimport.WithProgressInterval(cfg.Import.ProgressInterval),
	)
	importService.Start(ctx)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	importHandler := middleware.LoggingMiddleware(
		auth.Middleware(leadimport.NewHTTPHandler(importService)),
	)

	mux := http.NewServeMux()
	mux.Handle("/api/leads/import", corsHandler.Handler(importHandler))
	mux.Handle("/api/leads/import/", corsHandler.Handler(importHandler))

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting lead import server on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	// Drain in-flight imports before releasing the database pool.
	importService.Stop()

	log.Println("Server exited")
}

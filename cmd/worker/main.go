package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"bookreview-backend/pkg/container"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using system environment variables")
	}

	// Step 1: Container (DB, Redis, MinIO, services, job handlers)
	c, err := container.NewContainer()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize container")
	}
	defer c.Cleanup()

	// Step 2: Worker + scheduler + health endpoint
	srv := startAsynqServer(c)
	scheduler := startScheduler(c)
	health := startHealthServer(c)

	// Step 3: Chờ signal rồi shutdown theo thứ tự ngược lại
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Worker shutting down...")

	scheduler.Shutdown()
	srv.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := health.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Health server forced to shutdown")
	}

	log.Info().Msg("Worker stopped")
}

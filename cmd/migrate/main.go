package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/config"
	"bookreview-backend/internal/infrastructure/database"
	"bookreview-backend/pkg/logger"
)

const usage = `Usage: migrate <command> [args]

Commands:
  up          Apply all pending migrations
  down        Roll back the latest migration
  status      Print the status of every migration
  version     Print the current schema version
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}
	command := flag.Arg(0)

	switch command {
	case "up", "down", "status", "version":
	default:
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

	// Step 1: Mở database/sql connection (goose không dùng pgxpool)
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load database config")
	}

	db, err := sql.Open("postgres", dbConfig.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Str("host", dbConfig.Host).Msg("Database unreachable")
	}

	// Step 2: Chạy goose command trên migrations đã embed
	if err := database.Migrate(ctx, db, command, flag.Args()[1:]...); err != nil {
		log.Fatal().Err(err).Str("command", command).Msg("Migration failed")
	}

	log.Info().Str("command", command).Msg("Migration finished")
}

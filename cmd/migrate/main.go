package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"railbite/internal/config"
	"railbite/internal/db"
	"railbite/internal/logger"
)

func main() {
	var dbPath, logLevel string
	flag.StringVar(&dbPath, "db", "", "SQLite database path (default: database.path from config)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		printUsage()
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if dbPath == "" {
		_ = godotenv.Load()
		cfg, err := config.LoadWithDefaults()
		if err != nil {
			log.Fatal("load config", zap.Error(err))
		}
		dbPath = cfg.Database.Path
	}

	d, err := db.Connect(dbPath)
	if err != nil {
		log.Fatal("connect database", zap.Error(err))
	}
	defer func() { _ = d.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch args[0] {
	case "up":
		if err := db.Migrate(ctx, d); err != nil {
			log.Fatal("migrate up", zap.Error(err))
		}
		log.Info("schema up to date", zap.String("db", dbPath))
	case "down":
		if err := db.RollbackLast(ctx, d); err != nil {
			log.Fatal("migrate down", zap.Error(err))
		}
		log.Info("rolled back last migration", zap.String("db", dbPath))
	case "status":
		st, err := db.Status(ctx, d)
		if err != nil {
			log.Fatal("migration status", zap.Error(err))
		}
		for _, m := range st {
			state := "pending"
			if m.Applied {
				state = "applied " + m.AppliedAt
			}
			fmt.Printf("%04d_%s\t%s\n", m.Version, m.Name, state)
		}
	default:
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: migrate [flags] <command>

Commands:
  up      apply pending migrations
  down    roll back the most recent migration
  status  list migrations and whether they are applied

Flags:
`)
	flag.PrintDefaults()
}

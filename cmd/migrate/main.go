package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"saave-bot/internal/config"
	"saave-bot/internal/storage"
	"saave-bot/pkg/logger"
)

func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: migrate [flags] up|down|status")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	zapLogger, err := logger.New(*logLevel, "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	cfg, err := config.LoadDB(*envFile)
	if err != nil {
		zapLogger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgStorage, err := storage.NewPostgresStorage(ctx, *cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer pgStorage.Close()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		err = storage.RunMigrations(ctx, pgStorage.DB(), zapLogger)
	case "down":
		err = storage.RollbackMigration(ctx, pgStorage.DB(), zapLogger)
	case "status":
		err = storage.MigrationStatus(ctx, pgStorage.DB(), zapLogger)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		zapLogger.Fatal("Migration command failed", zap.Error(err))
	}
}

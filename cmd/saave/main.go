package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"saave-bot/internal/bot"
	"saave-bot/internal/config"
	"saave-bot/internal/httpapi"
	"saave-bot/internal/leads"
	"saave-bot/internal/metrics"
	"saave-bot/internal/quote"
	"saave-bot/internal/storage"
	"saave-bot/internal/storage/redis"
	"saave-bot/pkg/crm"
	"saave-bot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	if err := run(cfg, zapLogger); err != nil {
		zapLogger.Fatal("Service stopped with error", zap.Error(err))
	}
	zapLogger.Info("Service shutdown gracefully")
}

func run(cfg *config.Config, zapLogger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sessions := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
	defer sessions.Close()
	if err := sessions.Ping(ctx); err != nil {
		return fmt.Errorf("redis: %w", err)
	}

	pgStorage, err := storage.NewPostgresStorage(ctx, cfg.DB, zapLogger)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pgStorage.Close()

	if err := storage.RunMigrations(ctx, pgStorage.DB(), zapLogger); err != nil {
		return err
	}

	scheme, err := quote.SchemeByName(cfg.PricingScheme, cfg.ConstructionRate)
	if err != nil {
		return err
	}
	quoter, err := quote.NewQuoter(scheme, quote.DefaultCatalog())
	if err != nil {
		return err
	}

	var submitter leads.Submitter
	if cfg.CRM.URL != "" {
		submitter = crm.NewClient(cfg.CRM.URL, cfg.CRM.Token, cfg.CRM.Timeout, zapLogger)
	} else {
		zapLogger.Info("CRM submission disabled - CRM_URL not set")
	}

	m := metrics.New()
	svc := leads.NewService(quoter, pgStorage, submitter, cfg.CRM.Timeout, m, zapLogger)

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}
	zapLogger.Info("Authorized on Telegram", zap.String("account", api.Self.UserName))

	tgBot := bot.New(api, sessions, pgStorage, svc, m, zapLogger, bot.Options{
		AdminChatIDs: cfg.AdminChatIDs,
		RateLimit:    cfg.RateLimit,
		RateWindow:   cfg.RateWindow,
	})

	server := httpapi.NewServer(svc, pgStorage, map[string]httpapi.Pinger{
		"redis":    sessions,
		"postgres": pgStorage,
	}, m, zapLogger).WithCRMEvents(cfg.CRM.WebhookToken, tgBot)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      server.Router(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	httpErr := make(chan error, 1)
	botDone := make(chan error, 1)
	go func() {
		zapLogger.Info("Starting HTTP server", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		botDone <- tgBot.Start(ctx)
	}()

	var runErr error
	botStopped := false
	select {
	case <-ctx.Done():
	case runErr = <-httpErr:
		cancel()
	case runErr = <-botDone:
		botStopped = true
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	// the bot may be in the middle of a quotation; let it finish before
	// draining the CRM submissions it can still start
	if !botStopped {
		select {
		case err := <-botDone:
			if runErr == nil {
				runErr = err
			}
		case <-shutdownCtx.Done():
			zapLogger.Warn("Bot did not stop before the shutdown timeout")
		}
	}
	if err := svc.Wait(shutdownCtx); err != nil {
		zapLogger.Warn("Pending CRM submissions abandoned", zap.Error(err))
	}
	return runErr
}

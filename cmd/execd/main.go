package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"live-exec/internal/alert"
	"live-exec/internal/config"
	"live-exec/internal/exchange/deepcoin"
	"live-exec/internal/server"
)

const version = "1.0.0"

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/config.yaml", "config yaml path")
	flag.Parse()

	// Credentials may live in a local .env; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		fatal(err.Error())
	}

	logger, err := buildLogger()
	if err != nil {
		fatal(err.Error())
	}
	defer logger.Sync()

	alerts := buildAlertManager(cfg, logger)
	if alerts != nil {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := alerts.Close(closeCtx); err != nil {
				logger.Warn("close alert manager failed", zap.Error(err))
			}
		}()
	}

	client, err := deepcoin.NewClient(deepcoin.Options{
		APIKey:           cfg.Exchange.APIKey,
		SecretKey:        cfg.Exchange.SecretKey,
		Passphrase:       cfg.Exchange.Passphrase,
		BaseURL:          cfg.Exchange.RestBaseURL,
		MarketType:       cfg.Exchange.MarketType,
		HTTPTimeoutSec:   cfg.Exchange.HTTPTimeoutSec,
		InstrumentTTLSec: cfg.Execution.InstrumentTTLSec,
		LeverageTTLSec:   cfg.Execution.LeverageTTLSec,
	})
	if err != nil {
		fatal(err.Error())
	}
	client.SetAlerter(alerts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(client, logger, version)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.ListenAddr, cfg.Server.AllowedOrigins)
	}()

	logger.Info("execution adapter started",
		zap.String("exchange", client.Name()),
		zap.String("market", cfg.Exchange.MarketType),
		zap.String("listen_addr", cfg.Server.ListenAddr),
	)

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("status server shutdown failed", zap.Error(err))
	}
}

func buildLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func buildAlertManager(cfg config.Config, logger *zap.Logger) *alert.Manager {
	tg := cfg.Alert.Telegram
	if !tg.Enabled {
		return nil
	}
	notifier := alert.NewTelegramNotifier(
		tg.BotToken,
		tg.ChatID,
		tg.APIBaseURL,
		time.Duration(tg.TimeoutSec)*time.Second,
	)
	return alert.NewManager(cfg.Exchange.Name, cfg.Exchange.MarketType, notifier, logger)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}

package main

import (
	"context"
	"errors"
	"net/http"

	"farmledger/internal/auth"
	"farmledger/internal/backend"
	"farmledger/internal/cli"
	"farmledger/internal/config"
	apphttp "farmledger/internal/http"
	"farmledger/internal/ledger"
	applog "farmledger/internal/log"
	"farmledger/internal/notify"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err)
	}
	res, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).Create(context.Background(), backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, "backend", cfg.DataBackend)
	}

	var opts []ledger.Option
	if res.Publisher != nil {
		opts = append(opts, ledger.WithPublisher(res.Publisher))
	}
	ledgerSvc := ledger.NewService(res.Repository, opts...)

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize tokens", err)
	}

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Ledger:             ledgerSvc,
		Auth:               auth.NewService(res.Repository, tokens),
		Tokens:             tokens,
		Contact:            notify.NewContactService(newSender(cfg, logger), cfg.SupportEmail),
		Store:              res.Repository,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		TrustedProxies:     cfg.TrustedProxies,
		AllowedOrigins:     cfg.AllowedOrigins,
	})
	if err != nil {
		cli.Fatal(logger, "Failed to build HTTP server", err)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup error", "error", err)
		}
	})

	logger.Info("Starting farmledger server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"events", res.Publisher != nil,
		"smtp", cfg.SMTPEnabled(),
		"cors_origins", len(cfg.AllowedOrigins))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		cli.Fatal(logger, "Server error", err, "port", cfg.Port)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

func newSender(cfg *config.Config, logger *applog.Logger) notify.Sender {
	if !cfg.SMTPEnabled() {
		logger.Warn("SMTP not configured, contact mails will only be logged")
		return notify.LogSender{}
	}
	logger.Info("SMTP sender configured", "host", cfg.SMTPHost, "port", cfg.SMTPPort)
	return notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
}

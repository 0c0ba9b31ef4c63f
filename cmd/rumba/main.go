package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"rumba/internal/auth"
	"rumba/internal/backend"
	"rumba/internal/cli"
	"rumba/internal/config"
	apphttp "rumba/internal/http"
	"rumba/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp, (*config.Config).Validate)

	authn, err := auth.NewAuthenticator(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.AdminPassword)
	if err != nil {
		logger.Error("Failed to configure login", log.FieldError, err)
		os.Exit(1)
	}
	if cfg.AdminPasswordHash == "" {
		logger.Warn("ADMIN_PASSWORD is set in clear text; prefer ADMIN_PASSWORD_HASH from rumba-passwd")
	}

	csrfKey, generated, err := auth.CSRFKey(cfg.CSRFKey)
	if err != nil {
		logger.Error("Failed to set up CSRF protection", log.FieldError, err)
		os.Exit(1)
	}
	if generated {
		logger.Warn("CSRF_KEY not set; using a random key, open forms break on restart")
	}

	ctx, stop := cli.ShutdownContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:               ":" + cfg.Port,
		Logger:             logger,
		Backend:            res,
		Sessions:           auth.NewSessionStore(cfg.SessionTTL),
		Authenticator:      authn,
		CookieSecure:       cfg.CookieSecure,
		SessionTTL:         cfg.SessionTTL,
		CSRFKey:            csrfKey,
		DraftTTL:           cfg.DraftTTL,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		logger.Error("Failed to create HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting rumba server",
			"port", cfg.Port,
			log.FieldBackend, cfg.DataBackend,
			log.FieldOperation, log.OpStartup)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		}
	}

	cli.RunCleanup(30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				logger.Error("Backend cleanup error", log.FieldError, err)
			}
		}
	})
	logger.Info("Server stopped gracefully")
}

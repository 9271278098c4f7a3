package main

import (
	"log"
	"log/slog"
	"net/http"
	"time"

	"librarium/internal/app"
	"librarium/internal/config"
	"librarium/internal/ratelimit"
	"librarium/internal/server"
	"librarium/internal/util"
	"librarium/pkg/storage"
)

func main() {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	var covers storage.CoverStore
	if cfg.MinioEndpoint != "" {
		covers, err = storage.NewMinioCoverStore(storage.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("failed to init cover storage: %v", err)
		}
	}

	appCore, err := app.New(app.Config{
		DatabaseURL: cfg.DatabaseURL,
		TokenSecret: cfg.TokenSecret,
		TokenIssuer: cfg.TokenIssuer,
		TokenTTL:    cfg.TokenTTL(),
		Covers:      covers,
	})
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}

	var limiter *ratelimit.FixedWindowLimiter
	if cfg.RedisAddr != "" {
		loginLimit := cfg.LoginRateLimit
		if loginLimit <= 0 {
			loginLimit = 10
		}
		limiter, err = ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "librarium:ratelimit:login", loginLimit, cfg.LoginRateWindow())
		if err != nil {
			log.Fatalf("failed to init rate limiter: %v", err)
		}
	}

	proxies, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatalf("failed to parse trusted proxies: %v", err)
	}

	httpServer := server.New(server.Config{
		App:            appCore,
		Limiter:        limiter,
		TrustedProxies: proxies,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("librarium server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}

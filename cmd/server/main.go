package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"railbite/internal/auth"
	"railbite/internal/cache"
	"railbite/internal/config"
	"railbite/internal/db"
	"railbite/internal/events"
	grpcserver "railbite/internal/grpc"
	"railbite/internal/httpapi"
	"railbite/internal/logger"
	"railbite/internal/service"
	"railbite/repository"
)

func main() {
	// A missing .env is fine; real deployments use the environment.
	_ = godotenv.Load()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: cfg.Log.Output})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zl = zl.With(zap.String("app", cfg.App.Name), zap.String("env", cfg.App.Env))
	zl.Info("configuration loaded", zap.Stringer("config", cfg))

	d, err := db.Open(cfg.Database.Path)
	if err != nil {
		zl.Fatal("open database", zap.Error(err))
	}
	defer func() {
		if err := d.Close(); err != nil {
			zl.Warn("close database", zap.Error(err))
		}
	}()

	var publisher service.EventPublisher = service.NopPublisher{}
	if cfg.Kafka.Enabled {
		kp := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, zl)
		defer func() { _ = kp.Close() }()
		publisher = kp
		zl.Info("publishing order events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	var reportCache service.ReportCache
	if cfg.Redis.Enabled {
		rc, err := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, zl)
		if err != nil {
			zl.Warn("report cache disabled", zap.Error(err))
		} else {
			defer func() { _ = rc.Close() }()
			reportCache = rc
		}
	}

	svc := service.New(service.Deps{
		Store:     repository.NewStore(d),
		Hasher:    auth.NewBcrypt(cfg.Auth.BcryptCost),
		Events:    publisher,
		Cache:     reportCache,
		Log:       zl,
		JWTSecret: cfg.Auth.JWTSecret,
		TokenTTL:  cfg.Auth.TokenTTL,
		ReportTTL: cfg.Redis.ReportTTL,
		Staff:     service.StaffOptions{Location: cfg.Location(), OnTimeWindow: cfg.Delivery.OnTimeWindow},
	})

	bootCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Accounts.EnsureAdmin(bootCtx, cfg.Auth.AdminName, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
		cancel()
		zl.Fatal("ensure admin account", zap.Error(err))
	}
	cancel()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      httpapi.NewRouter(httpapi.Config{Services: svc, JWTSecret: cfg.Auth.JWTSecret, Logger: zl, DB: d}),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		zl.Info("http server listening", zap.String("address", cfg.HTTP.Address))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server", zap.Error(err))
		}
	}()

	var opsSrv *grpcserver.Server
	if cfg.GRPC.Enabled {
		opsSrv, err = grpcserver.Start(cfg.GRPC.Address, grpcserver.Options{
			JWTSecret:      cfg.Auth.JWTSecret,
			Services:       svc,
			DB:             d,
			HealthInterval: cfg.GRPC.HealthInterval,
			Logger:         zl,
		})
		if err != nil {
			zl.Fatal("start grpc", zap.Error(err))
		}
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigc
	zl.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		zl.Warn("http shutdown", zap.Error(err))
	}
	if opsSrv != nil {
		if err := opsSrv.Shutdown(ctx); err != nil {
			zl.Warn("grpc shutdown", zap.Error(err))
		}
	}
}

// loadConfig requires a JWT secret unless RAILBITE_APP_ENV is development.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err == nil {
		return cfg, nil
	}
	if env := os.Getenv("RAILBITE_APP_ENV"); env == "" || env == "development" {
		log.Printf("config: %v; falling back to development defaults", err)
		return config.LoadWithDefaults()
	}
	return nil, err
}

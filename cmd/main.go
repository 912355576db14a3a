package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dnlflores/starter-ios-app-backend/internal/cache"
	"github.com/dnlflores/starter-ios-app-backend/internal/config"
	"github.com/dnlflores/starter-ios-app-backend/internal/consumer"
	"github.com/dnlflores/starter-ios-app-backend/internal/domain"
	"github.com/dnlflores/starter-ios-app-backend/internal/handler"
	"github.com/dnlflores/starter-ios-app-backend/internal/hub"
	"github.com/dnlflores/starter-ios-app-backend/internal/push"
	"github.com/dnlflores/starter-ios-app-backend/internal/registry"
	"github.com/dnlflores/starter-ios-app-backend/internal/repository"
	"github.com/dnlflores/starter-ios-app-backend/internal/service"
	"github.com/dnlflores/starter-ios-app-backend/pkg/database"
	"github.com/dnlflores/starter-ios-app-backend/pkg/jwt"
	pkglog "github.com/dnlflores/starter-ios-app-backend/pkg/log"
	"github.com/dnlflores/starter-ios-app-backend/pkg/middleware"
)

const serviceName = "realtime-delivery"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	advertise := cfg.Server.AdvertiseAddress + ":" + strconv.Itoa(cfg.Server.Port)

	// Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Pretty,
		ServiceName: serviceName,
		Instance:    advertise,
	})
	logger := pkglog.L()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	verifier, err := jwt.NewVerifier(jwt.Options{
		Secret:        cfg.JWT.Secret,
		Issuer:        cfg.JWT.Issuer,
		RequireExpiry: cfg.JWT.RequireExpiry,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create jwt verifier")
	}

	// Connect to database using GORM
	db, err := database.New(&database.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	// Only device_tokens belongs to this service; users is read-only.
	if err := database.AutoMigrate(db, &domain.DeviceTokenModel{}); err != nil {
		logger.Fatal().Err(err).Msg("failed to auto-migrate")
	}
	logger.Info().Str("driver", cfg.Database.Driver).Msg("database migration completed")

	// Optional redis: presence mirror and identity cache
	var (
		redisClient   *redis.Client
		presence      registry.Registry = registry.NoopRegistry{}
		identityCache cache.IdentityCache
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()

		presence = registry.NewRedisRegistry(redisClient, cfg.Redis, advertise)
		identityCache = cache.NewRedisIdentityCache(redisClient, "identity")
		logger.Info().Str("address", cfg.Redis.Address).Msg("redis connected")
	}
	defer presence.Close()

	// Push providers
	providers := make(map[domain.Platform]push.Provider)
	if cfg.Push.APNs.Enabled() {
		apns, err := push.NewAPNsProvider(cfg.Push.APNs)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create apns provider")
		}
		providers[domain.PlatformIOS] = apns
	}
	if cfg.Push.FCM.Enabled() {
		fcm, err := push.NewFCMProvider(ctx, cfg.Push.FCM)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create fcm provider")
		}
		providers[domain.PlatformAndroid] = fcm
	}

	// Services
	wsHub := hub.NewHub()
	tokenSvc := service.NewTokenService(repository.NewGormDeviceTokenRepository(db), nil)
	identitySvc := service.NewIdentityService(repository.NewGormIdentityRepository(db), identityCache, cfg.Redis.IdentityCacheTTL)
	pushSvc := service.NewPushService(tokenSvc, identitySvc, providers, nil)
	notifier := service.NewNotificationService(service.NewBroadcastService(wsHub), pushSvc, cfg.Push.SendTimeout)
	connSvc := service.NewConnectionService(wsHub, verifier, presence)

	// HTTP + websocket
	wsHandler := handler.NewWSHandler(wsHub, connSvc, cfg.WebSocket)
	httpHandler := handler.NewHandler(tokenSvc, notifier, pushSvc, wsHub, wsHandler,
		middleware.NewAuthMiddleware(verifier), cfg.Internal.APIKey)

	r := gin.New()
	r.Use(gin.Recovery(), pkglog.GinMiddleware(logger))
	httpHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:        fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:     r,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Int("providers", len(providers)).Msg("realtime delivery service listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return tokenSvc.StartCleanup(gctx, cfg.Tokens.CleanupInterval, cfg.Tokens.MaxAgeDays)
	})

	g.Go(func() error {
		return presence.RunHeartbeat(gctx)
	})

	if cfg.Kafka.Enabled {
		chatConsumer, err := consumer.NewConfluentConsumer(cfg.Kafka, notifier)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create kafka consumer")
		}
		g.Go(func() error {
			defer chatConsumer.Close()
			return chatConsumer.Run(gctx)
		})
		logger.Info().Str("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("kafka consumer enabled")
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down realtime delivery service")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		wsHub.CloseAll()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("server forced to shutdown")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("service exited with error")
	}

	notifier.Wait()
	logger.Info().Msg("realtime delivery service stopped")
}

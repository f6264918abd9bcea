package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/guide-delivery/internal/api"
	"github.com/akylbek/payment-system/guide-delivery/internal/artifact"
	"github.com/akylbek/payment-system/guide-delivery/internal/config"
	"github.com/akylbek/payment-system/guide-delivery/internal/events"
	"github.com/akylbek/payment-system/guide-delivery/internal/gateway"
	"github.com/akylbek/payment-system/guide-delivery/internal/handlers"
	"github.com/akylbek/payment-system/guide-delivery/internal/interfaces"
	"github.com/akylbek/payment-system/guide-delivery/internal/repository"
	"github.com/akylbek/payment-system/guide-delivery/internal/service"
	"github.com/akylbek/payment-system/guide-delivery/internal/telemetry"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize telemetry
	if err := telemetry.InitTelemetry("guide-delivery", cfg.OTLPEndpoint); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting Guide Delivery",
		zap.String("store", cfg.StoreBackend),
		zap.String("artifact_driver", cfg.ArtifactDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Order ledger and grant store
	var (
		ledger interfaces.OrderLedger
		grants interfaces.GrantStore
	)
	switch cfg.StoreBackend {
	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			telemetry.Logger.Fatal("Invalid REDIS_URL", zap.Error(err))
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			telemetry.Logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		ledger = repository.NewRedisOrderLedger(redisClient, cfg.OrderTTL)
		store := repository.NewRedisGrantStore(redisClient, cfg.GrantTTL)
		store.SetTransferLease(cfg.TransferLease)
		grants = store
	default:
		ledger = repository.NewMemoryOrderLedger(cfg.OrderTTL)
		store := repository.NewMemoryGrantStore(cfg.GrantTTL)
		store.SetTransferLease(cfg.TransferLease)
		grants = store
	}

	// Event sinks
	var publishers events.Multi
	var audit handlers.AuditReader

	if len(cfg.KafkaBrokers) > 0 {
		kafkaWriter := events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaWriter.Close()
		publishers = append(publishers, events.NewKafkaPublisher(kafkaWriter))
	}

	if cfg.NatsURL != "" {
		nc, err := nats.Connect(cfg.NatsURL, nats.Name("guide-delivery"))
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer nc.Drain()
		publishers = append(publishers, events.NewNatsPublisher(nc, cfg.NatsSubject))
	}

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		repo := repository.NewGrantAuditRepository(db)
		if err := repo.InitDB(ctx); err != nil {
			telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		publishers = append(publishers, events.NewAuditPublisher(repo))
		audit = repo
	}

	// Artifact and gateway
	source, err := artifact.New(ctx, artifact.FactoryConfig{
		Driver:    cfg.ArtifactDriver,
		LocalPath: cfg.ArtifactPath,
		S3Region:  cfg.ArtifactS3Region,
		S3Bucket:  cfg.ArtifactS3Bucket,
		S3Key:     cfg.ArtifactS3Key,
	})
	if err != nil {
		telemetry.Logger.Fatal("Failed to configure artifact source", zap.Error(err))
	}

	gw := gateway.NewRazorpay(gateway.Config{
		BaseURL:   cfg.RazorpayBaseURL,
		KeyID:     cfg.RazorpayKeyID,
		KeySecret: cfg.RazorpayKeySecret,
		Timeout:   cfg.GatewayTimeout,
	})

	// Services
	orders := service.NewOrderService(gw, ledger, publishers)
	payments := service.NewConfirmationService(gw, ledger, grants, publishers)
	delivery := service.NewDeliveryService(grants, source, publishers, cfg.DownloadFilename)

	go service.NewSweeper(grants, ledger, cfg.SweepInterval).Run(ctx)

	routerCfg := api.RouterConfig{
		Orders:         orders,
		Payments:       payments,
		Delivery:       delivery,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		Audit:          audit,
	}

	// Setup HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		telemetry.Logger.Info("Guide Delivery starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	<-ctx.Done()

	telemetry.Logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}

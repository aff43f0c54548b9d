package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mansoorceksport/metafit/internal/config"
	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/mansoorceksport/metafit/internal/middleware"
	"github.com/mansoorceksport/metafit/internal/repository"
	"github.com/mansoorceksport/metafit/internal/server"
	"github.com/mansoorceksport/metafit/internal/session"
	"github.com/mansoorceksport/metafit/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		log.SetLevel(level)
	}

	log.Info("Starting Metafit API...")

	ctx := context.Background()

	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:  cfg.OTEL.ServiceName,
		OTLPEndpoint: cfg.OTEL.Endpoint,
		Insecure:     strings.HasPrefix(cfg.OTEL.Endpoint, "localhost"),
		Enabled:      cfg.OTEL.Enabled,
	}, log)
	if err != nil {
		log.WithError(err).Warn("Failed to initialize OpenTelemetry")
	}
	if otelProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := otelProvider.Shutdown(shutdownCtx); err != nil {
				log.WithError(err).Warn("OpenTelemetry shutdown failed")
			}
		}()
	}

	// Initialize Firebase
	firebaseApp, err := middleware.InitFirebase(
		cfg.Firebase.ProjectID,
		cfg.Firebase.PrivateKey,
		cfg.Firebase.ClientEmail,
	)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to get Firebase Auth client: %v", err)
	}
	log.Info("✓ Firebase initialized")

	// Connect to MongoDB with OpenTelemetry instrumentation
	ctxMongo, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
	if cfg.OTEL.Enabled {
		mongoOpts.SetMonitor(otelmongo.NewMonitor())
	}

	mongoClient, err := mongo.Connect(ctxMongo, mongoOpts)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.WithError(err).Error("Error disconnecting from MongoDB")
		}
	}()

	if err := mongoClient.Ping(ctxMongo, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Info("✓ MongoDB connected")

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Info("✓ Redis connected")

	// Raw response archive is optional
	var archive domain.PlanArchive
	if cfg.S3.Enabled() {
		s3Repo, err := repository.NewS3ArchiveRepository(ctx, cfg.S3)
		if err != nil {
			log.WithError(err).Warn("Failed to initialize S3 archive, raw responses will not be kept")
		} else {
			archive = s3Repo
			log.WithField("bucket", cfg.S3.Bucket).Info("✓ S3 archive ready")
		}
	}

	registry := session.NewRegistry(session.TickerScheduler{}, cfg.Session.TickInterval, log)
	defer registry.CloseAll()

	app := server.NewApp(server.AppDependencies{
		Config:      cfg,
		MongoDB:     mongoClient.Database(cfg.MongoDB.Database),
		MongoClient: mongoClient,
		RedisClient: redisClient,
		AuthClient:  authClient,
		Logger:      log,
		Archive:     archive,
		Registry:    registry,
	})

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("Shutting down gracefully...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.WithError(err).Error("Server shutdown failed")
		}
	}()

	log.Infof("🚀 Server starting on port %s", cfg.Server.Port)
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		log.Errorf("Server stopped: %v", err)
	}
}

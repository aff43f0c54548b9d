package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/mansoorceksport/metafit/internal/config"
	"github.com/mansoorceksport/metafit/internal/domain"
	"github.com/mansoorceksport/metafit/internal/handler"
	"github.com/mansoorceksport/metafit/internal/middleware"
	"github.com/mansoorceksport/metafit/internal/repository"
	"github.com/mansoorceksport/metafit/internal/service"
	"github.com/mansoorceksport/metafit/internal/session"
	"github.com/mansoorceksport/metafit/internal/telemetry"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// AppDependencies holds the dependencies required to start the application
type AppDependencies struct {
	Config      *config.Config
	MongoDB     *mongo.Database
	MongoClient *mongo.Client // only needed when transactions are enabled
	RedisClient *redis.Client
	AuthClient  service.FirebaseAuthClient
	Logger      *logrus.Logger

	// Optional overrides
	Generator domain.PlanGenerator
	Archive   domain.PlanArchive
	Registry  *session.Registry
}

// NewApp creates and configures the Fiber application with the given dependencies
func NewApp(deps AppDependencies) *fiber.App {
	log := deps.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	cfg := deps.Config

	// Initialize repositories
	planRepo := repository.NewMongoPlanRepository(deps.MongoDB)
	profileRepo := repository.NewMongoFitnessProfileRepository(deps.MongoDB)
	cacheRepo := repository.NewRedisCacheRepository(deps.RedisClient)

	storeOpts := []service.PlanStoreOption{
		service.WithWorkoutCache(cacheRepo, cfg.Redis.WorkoutCacheTTL),
	}
	if cfg.MongoDB.Transactions {
		if deps.MongoClient != nil {
			storeOpts = append(storeOpts, service.WithTransactions(repository.NewMongoTxRunner(deps.MongoClient)))
		} else {
			log.Warn("MONGODB_TRANSACTIONS set without a mongo client, plans are saved without a transaction")
		}
	}

	// Initialize services
	generator := deps.Generator
	if generator == nil {
		generator = service.NewGeminiPlanGenerator(
			cfg.Gemini.BaseURL,
			cfg.Gemini.APIKey,
			cfg.Gemini.Model,
			deps.Archive,
			log,
		)
	}

	planStore := service.NewPlanStore(planRepo, log, storeOpts...)
	planService := service.NewPlanService(profileRepo, generator, planStore, log)
	authService := service.NewAuthService(deps.AuthClient, cfg.JWT.Secret, cfg.JWT.TokenExpiry)

	registry := deps.Registry
	if registry == nil {
		registry = session.NewRegistry(session.TickerScheduler{}, cfg.Session.TickInterval, log)
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	profileHandler := handler.NewProfileHandler(planService)
	planHandler := handler.NewPlanHandler(planService, planStore)
	workoutHandler := handler.NewWorkoutHandler(planStore)
	sessionHandler := handler.NewSessionHandler(registry, planStore)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Metafit API",
		ErrorHandler: customErrorHandler(log),
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(telemetry.FiberMiddleware())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Correlation-ID",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"service": "metafit-api",
		})
	})

	// API v1 routes
	v1 := app.Group("/v1")

	// Auth endpoints (public)
	auth := v1.Group("/auth")
	auth.Post("/exchange", authHandler.Exchange)

	// ===========================================
	// MEMBER API - /v1/me/*
	// ===========================================
	me := v1.Group("/me")
	me.Use(middleware.VerifyMetafitToken(cfg.JWT.Secret))

	me.Get("/profile", profileHandler.GetProfile)
	me.Put("/profile", profileHandler.PutProfile)

	mePlans := me.Group("/plans")
	mePlans.Post("/generate",
		middleware.IdempotencyMiddleware(deps.RedisClient, cfg.Server.IdempotencyTTL, log),
		planHandler.GeneratePlan,
	)
	mePlans.Get("/", planHandler.ListPlans)
	mePlans.Delete("/:id", planHandler.DeletePlan)

	meWorkouts := me.Group("/workouts")
	meWorkouts.Get("/", workoutHandler.ListWorkouts)
	meWorkouts.Get("/:id", workoutHandler.GetWorkout)
	meWorkouts.Post("/:id/session", sessionHandler.Start)

	meSession := me.Group("/session")
	meSession.Get("/", sessionHandler.Get)
	meSession.Post("/timer", sessionHandler.StartTimer)
	meSession.Post("/complete-set", sessionHandler.CompleteSet)
	meSession.Post("/skip-rest", sessionHandler.SkipRest)
	meSession.Delete("/", sessionHandler.Close)

	return app
}

func customErrorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			code = e.Code
		}
		entry := log.WithError(err).WithFields(logrus.Fields{
			"method": c.Method(),
			"path":   c.Path(),
			"status": code,
		})
		if code >= fiber.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Debug("request rejected")
		}
		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

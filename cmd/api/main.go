// Package main is the entry point for the Kumbhmela leads API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/shreyas/kumbhmela-leads/config"
	"github.com/shreyas/kumbhmela-leads/internal/cache"
	"github.com/shreyas/kumbhmela-leads/internal/events"
	"github.com/shreyas/kumbhmela-leads/internal/handlers"
	"github.com/shreyas/kumbhmela-leads/internal/models"
	"github.com/shreyas/kumbhmela-leads/internal/realtime"
	"github.com/shreyas/kumbhmela-leads/internal/repositories"
	"github.com/shreyas/kumbhmela-leads/internal/services"
	"github.com/shreyas/kumbhmela-leads/internal/utils"
	"github.com/shreyas/kumbhmela-leads/internal/validation"
	"github.com/shreyas/kumbhmela-leads/pkg/kafka"
	"github.com/shreyas/kumbhmela-leads/pkg/mongodb"
)

// @title Kumbhmela Leads API
// @version 1.0
// @description Lead pipeline, activity log, inventory, orders and bookings for the Kumbhmela sales team.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load environment variables (ignore error in dev)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func newLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}
	gstRate, err := decimal.NewFromString(cfg.Orders.GSTRate)
	if err != nil {
		return fmt.Errorf("invalid orders.gst_rate %q: %w", cfg.Orders.GSTRate, err)
	}

	// MongoDB
	mongoClient, err := mongodb.NewClient(mongodb.Config{
		URI:         cfg.MongoDB.URI,
		Database:    cfg.MongoDB.Database,
		MaxPoolSize: cfg.MongoDB.MaxPoolSize,
		MinPoolSize: cfg.MongoDB.MinPoolSize,
		MaxRetries:  cfg.MongoDB.MaxRetries,
		TLSCAFile:   cfg.MongoDB.TLSCAFile,
	}, logger)
	if err != nil {
		return err
	}
	defer mongoClient.Disconnect(context.Background())

	// Query cache: Redis when enabled so every instance shares it
	var (
		store       cache.Cache = cache.NewMemory()
		redisHealth handlers.Pinger
	)
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		redisCache := cache.NewRedisCache(rdb, "kumbhmela:")
		if err := redisCache.Ping(ctx); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		store, redisHealth = redisCache, redisCache
		logger.Info("query cache backed by redis", zap.String("addr", cfg.Redis.Addr))
	}
	queries := cache.NewQueryCache(store, cfg.Query.TTL, cfg.Query.Retry, logger)

	// Change events: in-process hub, fanned out across instances over Kafka
	hub := realtime.NewHub(0, logger)
	defer hub.Close()

	var producer events.KafkaPublisher
	if cfg.Kafka.Enabled {
		kafkaProducer, err := kafka.NewProducer(cfg.Kafka, logger)
		if err != nil {
			return err
		}
		defer kafkaProducer.Close()
		producer = kafkaProducer
	}
	publisher := events.NewChangePublisher(hub, producer, cfg.Kafka.Topics.Changes, logger)
	if !cfg.Redis.Enabled {
		publisher.WithInvalidator(queries)
	}
	if cfg.Kafka.Enabled {
		consumer, err := kafka.NewConsumer(cfg.Kafka, publisher.Origin(), logger)
		if err != nil {
			return err
		}
		defer consumer.Close()
		if err := consumer.Subscribe([]string{cfg.Kafka.Topics.Changes}); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", cfg.Kafka.Topics.Changes, err)
		}
		go func() {
			if err := consumer.Consume(ctx, publisher.HandleRemote); err != nil {
				logger.Error("change consumer stopped", zap.Error(err))
			}
		}()
	}

	// Repositories
	leadRepo := repositories.NewMongoLeadRepository(mongoClient)
	statusRepo := repositories.NewMongoLeadStatusRepository(mongoClient)
	activityRepo := repositories.NewMongoActivityRepository(mongoClient)
	inventoryRepo := repositories.NewMongoInventoryRepository(mongoClient)
	orderRepo := repositories.NewMongoOrderRepository(mongoClient)
	bookingRepo := repositories.NewMongoBookingRepository(mongoClient)
	noteRepo := repositories.NewMongoNoteRepository(mongoClient)
	todoRepo := repositories.NewMongoTodoRepository(mongoClient)
	projectionRepo := repositories.NewMongoProjectionRepository(mongoClient)
	memberRepo := repositories.NewMongoTeamMemberRepository(mongoClient)
	sessionRepo := repositories.NewMongoSessionRepository(mongoClient)
	permissionRepo := repositories.NewPermissionRepository(mongoClient)
	lookupRepo := repositories.NewLookupRepository(mongoClient)
	profileRepo := repositories.NewProfileRepository(mongoClient)
	fileRepo, err := repositories.NewGridFSFileRepository(mongoClient)
	if err != nil {
		return err
	}

	if err := ensureIndexes(ctx, logger,
		leadRepo, statusRepo, activityRepo, inventoryRepo, orderRepo,
		projectionRepo, memberRepo, sessionRepo, permissionRepo, lookupRepo,
	); err != nil {
		return err
	}

	// Services
	deps := services.Deps{Notifier: publisher, Queries: queries, Log: logger}
	jwtService, err := utils.NewJWTService(cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	permissionSvc := services.NewPermissionService(permissionRepo, deps)
	authSvc := services.NewAuthService(memberRepo, sessionRepo, permissionSvc, jwtService, deps)
	leadSvc := services.NewLeadService(leadRepo, statusRepo, activityRepo, loc, deps)
	activitySvc := services.NewActivityService(activityRepo, leadRepo, loc, deps)
	inventorySvc := services.NewInventoryService(inventoryRepo, deps)
	orderSvc := services.NewOrderService(orderRepo, inventoryRepo, gstRate, deps)
	bookingSvc := services.NewBookingService(bookingRepo, inventoryRepo, deps)
	noteSvc := services.NewNoteService(noteRepo, deps)
	todoSvc := services.NewTodoService(todoRepo, deps)
	projectionSvc := services.NewProjectionService(projectionRepo, deps)
	fileSvc := services.NewFileService(fileRepo, deps)
	lookupSvc := services.NewLookupService(lookupRepo, memberRepo, deps)
	profileSvc := services.NewProfileService(profileRepo, deps)
	importSvc := services.NewImportService(leadSvc, cfg.Import.MaxRows, deps)

	if err := authSvc.EnsureAdmin(ctx,
		os.Getenv("ADMIN_EMAIL"),
		os.Getenv("ADMIN_PASSWORD"),
		getEnvWithDefault("ADMIN_NAME", "Administrator"),
	); err != nil {
		return fmt.Errorf("failed to bootstrap admin: %w", err)
	}

	// The lead table stays in memory and refetches on lead or activity changes
	liveLeads, err := realtime.NewLiveCollection(ctx, hub, leadSvc.LoadAll,
		realtime.LiveOptions[models.Lead]{Mode: realtime.ModeRefetch, Log: logger},
		models.TableLeads, models.TableActivities)
	if err != nil {
		return fmt.Errorf("failed to load leads: %w", err)
	}
	defer liveLeads.Close()
	leadSvc.UseLive(liveLeads)

	if cfg.Query.PollInterval > 0 {
		go inventorySvc.Poll(ctx, cfg.Query.PollInterval)
		go orderSvc.PollPending(ctx, cfg.Query.PollInterval)
	}

	// HTTP
	validator := validation.New()
	router := handlers.NewRouter(handlers.Handlers{
		Auth:        handlers.NewAuthHandler(authSvc, permissionSvc, validator, logger),
		Leads:       handlers.NewLeadHandler(leadSvc, importSvc, loc, validator, logger),
		Activities:  handlers.NewActivityHandler(activitySvc, loc, validator, logger),
		Inventory:   handlers.NewInventoryHandler(inventorySvc, validator, logger),
		Orders:      handlers.NewOrderHandler(orderSvc, bookingSvc, validator, logger),
		Notes:       handlers.NewNoteHandler(noteSvc, todoSvc, validator, logger),
		Projections: handlers.NewProjectionHandler(projectionSvc, validator, logger),
		Files:       handlers.NewFileHandler(fileSvc, validator, logger),
		Lookups:     handlers.NewLookupHandler(lookupSvc, profileSvc, validator, logger),
		Realtime:    handlers.NewRealtimeHandler(hub, cfg.Server.AllowedOrigins, logger),
		Health: handlers.NewHealthHandler(cfg.Server.Version).
			Check("mongodb", mongoClient).
			Check("redis", redisHealth).
			Detail("realtime", func() interface{} {
				return map[string]int{"subscribers": hub.Len()}
			}),
	}, authSvc, handlers.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		SwaggerURL:     getEnvWithDefault("SWAGGER_URL", "/swagger/doc.json"),
	}, logger)

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Uploads and the realtime stream outlive a short write timeout;
		// handlers bound their own store calls.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", zap.String("addr", srv.Addr), zap.String("environment", cfg.Server.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

func ensureIndexes(ctx context.Context, logger *zap.Logger, repos ...indexer) error {
	for _, r := range repos {
		if err := r.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to ensure indexes for %T: %w", r, err)
		}
	}
	logger.Info("mongodb indexes ensured", zap.Int("repositories", len(repos)))
	return nil
}

// getEnvWithDefault returns an environment variable or a default value.
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

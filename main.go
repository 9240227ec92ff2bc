package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"places-api/config"
	"places-api/handlers"
	"places-api/logger"
	"places-api/middleware"
	"places-api/services"
	"places-api/storage"
	"places-api/store"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run wires the server and blocks until a signal arrives or serving fails.
// Every client it opens is released before it returns.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persistence
	dataStore, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	defer closeStore()

	// Geocoding, optionally cached in Redis
	var geocodeCache services.GeocodeCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unreachable, geocode cache will miss", "addr", cfg.RedisAddr, "error", err)
		}
		geocodeCache = services.NewRedisGeocodeCache(rdb, cfg.GeocodeCacheTTL, log)
	}
	geocoder := services.NewGoogleGeocoder(cfg.GoogleAPIKey, cfg.GeocodeURL, geocodeCache, log)

	// Images
	blobs, err := storage.NewS3Store(ctx, storage.S3Config{
		Region:    cfg.S3Region,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Bucket:    cfg.S3Bucket,
		Endpoint:  cfg.S3Endpoint,
		PublicURL: cfg.S3PublicURL,
	})
	if err != nil {
		return fmt.Errorf("configure s3: %w", err)
	}
	cleaner := services.NewImageCleaner(blobs, log)

	credentials := services.NewCredentialService(cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	placeService := services.NewPlaceService(dataStore, geocoder, cleaner, log)
	userService := services.NewUserService(dataStore, credentials, cleaner, log)

	authLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go authLimiter.Run(ctx, time.Minute)

	router := handlers.NewRouter(handlers.RouterDeps{
		Places:         placeService,
		Users:          userService,
		Blobs:          blobs,
		Tokens:         credentials,
		Log:            log,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxImageSize:   cfg.MaxUploadSize,
		AuthLimiter:    authLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", "addr", srv.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case runErr = <-serveErr:
		log.Error("Server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", "error", err)
	}
	cleaner.Wait()
	return runErr
}

// openStore connects the configured store and returns a function releasing it.
func openStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (store.Store, func(), error) {
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn("Using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Warn("Mongo disconnect failed", "error", err)
		}
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		closeFn()
		return nil, nil, err
	}

	mongoStore := store.NewMongoStore(client, cfg.MongoDatabase)
	if err := mongoStore.EnsureIndexes(connectCtx); err != nil {
		closeFn()
		return nil, nil, err
	}
	log.Info("Connected to MongoDB", "database", cfg.MongoDatabase)
	return mongoStore, closeFn, nil
}

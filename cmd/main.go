package main

import (
	"os"
	"os/signal"
	"syscall"

	configs "github.com/Streamly-Media/accounts/config"
	"github.com/Streamly-Media/accounts/internal/handler"
	"github.com/Streamly-Media/accounts/internal/middleware"
	"github.com/Streamly-Media/accounts/internal/repository"
	"github.com/Streamly-Media/accounts/internal/router"
	"github.com/Streamly-Media/accounts/internal/service"
	"github.com/Streamly-Media/accounts/pkg/database"
	"github.com/Streamly-Media/accounts/pkg/logger"
	"github.com/Streamly-Media/accounts/pkg/media"
	"github.com/Streamly-Media/accounts/pkg/redis"
	"go.uber.org/zap"
)

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
	)

	db, err := database.NewPostgresDB(database.Config{
		Host:            config.Database.Host,
		Port:            config.Database.Port,
		User:            config.Database.User,
		Password:        config.Database.Password,
		Database:        config.Database.Name,
		SSLMode:         config.Database.SSLMode,
		MaxIdleConns:    config.Database.MaxIdleConns,
		MaxOpenConns:    config.Database.MaxOpenConns,
		ConnMaxLifetime: config.Database.ConnMaxLifetime,
		ConnMaxIdleTime: config.Database.ConnMaxIdleTime,
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.CloseDB(db)

	if err := database.AutoMigrate(db); err != nil {
		logger.GetLogger().Fatal("Failed to run database migrations", zap.Error(err))
	}
	if err := database.EnsureIndexes(db); err != nil {
		logger.GetLogger().Fatal("Failed to ensure database indexes", zap.Error(err))
	}
	logger.GetLogger().Info("Database migrated successfully")

	if err := os.MkdirAll(config.Upload.TempDir, 0o755); err != nil {
		logger.GetLogger().Fatal("Failed to create upload temp directory",
			zap.String("dir", config.Upload.TempDir),
			zap.Error(err))
	}

	redisClient := redis.NewClient(redis.Config{
		Host:         config.Redis.Host,
		Port:         config.Redis.Port,
		Password:     config.Redis.Password,
		DB:           config.Redis.Database,
		Enabled:      config.Redis.Enabled,
		PoolSize:     config.Redis.PoolSize,
		MinIdleConns: config.Redis.MinIdleConns,
	}, logger.GetLogger())
	defer redisClient.Close()

	logger.GetLogger().Info("Redis client initialized",
		zap.Bool("enabled", redisClient.IsEnabled()),
	)

	mediaStore, err := media.NewS3Store(media.Config{
		Endpoint:      config.Media.Endpoint,
		Region:        config.Media.Region,
		Bucket:        config.Media.Bucket,
		AccessKey:     config.Media.AccessKey,
		SecretKey:     config.Media.SecretKey,
		PublicBaseURL: config.Media.PublicBaseURL,
	})
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize media store", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)

	// Services
	tokenService := service.NewTokenService(config.Token)
	profileCache := service.NewProfileCache(redisClient)
	userService := service.NewUserService(userRepo, tokenService, mediaStore, profileCache)

	// Handlers
	authHandler := handler.NewAuthHandler(userService, config)
	userHandler := handler.NewUserHandler(userService, config)
	healthHandler := handler.NewHealthHandler(db, redisClient)

	jwtMiddleware := middleware.NewJWTMiddleware(tokenService)

	r := router.NewRouter(
		authHandler,
		userHandler,
		healthHandler,
		jwtMiddleware,
		config,
	).SetupRoutes()

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
		)
		if err := r.Run(":" + config.App.Port); err != nil {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.GetLogger().Info("Shutting down server...")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/config"
	"github.com/gtracker/forum-backend/internal/database"
	"github.com/gtracker/forum-backend/internal/handler"
	"github.com/gtracker/forum-backend/internal/middleware"
	"github.com/gtracker/forum-backend/internal/migration"
	"github.com/gtracker/forum-backend/internal/repository"
	"github.com/gtracker/forum-backend/internal/routes"
	"github.com/gtracker/forum-backend/internal/service"
	pkgcache "github.com/gtracker/forum-backend/pkg/cache"
	pkges "github.com/gtracker/forum-backend/pkg/elasticsearch"
	"github.com/gtracker/forum-backend/pkg/jwt"
	pkglogger "github.com/gtracker/forum-backend/pkg/logger"
	"github.com/gtracker/forum-backend/pkg/mailer"
	pkgredis "github.com/gtracker/forum-backend/pkg/redis"
	"github.com/gtracker/forum-backend/pkg/steam"
	pkgstorage "github.com/gtracker/forum-backend/pkg/storage"
	"github.com/gtracker/forum-backend/pkg/tmdb"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// @title           Gtracker Forum API
// @version         1.0
// @description     Fórum com categorias, threads por template, moderação e catálogo externo (TMDB/Steam)
//
// @host            localhost:3001
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

const (
	dbStatsInterval  = 15 * time.Second
	banSweepInterval = 10 * time.Minute
)

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := config.AppEnv()
	pkglogger.InitStructured(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	configPath := config.ConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		pkglogger.Fatal("Failed to load config: %v", err)
	}
	if cfg.Server.Env == "" {
		cfg.Server.Env = env
	}
	config.LogResolved(cfg)
	gin.SetMode(cfg.Server.Mode)

	db, err := database.Open(cfg)
	if err != nil {
		pkglogger.Fatal("Failed to connect to database: %v", err)
	}
	pkglogger.Info("Connected to %s", cfg.Database.Driver)
	if err := migration.Run(db); err != nil {
		pkglogger.Fatal("Migration failed: %v", err)
	}

	redisClient, err := pkgredis.Connect(context.Background(), pkgredis.Options{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	switch {
	case err != nil:
		pkglogger.Warn("Failed to connect to Redis: %v (continuing without Redis)", err)
		redisClient = nil
	case redisClient == nil:
		pkglogger.Warn("Redis not configured; rate limiting and token cache disabled")
	default:
		pkglogger.Info("Connected to Redis")
	}
	cacheService := pkgcache.NewService(redisClient)

	var threadIndex service.ThreadSearchIndex
	if cfg.Elasticsearch.Enabled && len(cfg.Elasticsearch.Addresses) > 0 {
		esClient, esErr := pkges.NewClient(pkges.Config{
			Addresses: cfg.Elasticsearch.Addresses,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
		})
		if esErr != nil {
			pkglogger.Warn("Elasticsearch connection failed: %v (search falls back to the database)", esErr)
		} else {
			idx := pkges.NewThreadIndex(esClient, cfg.Elasticsearch.Index)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := idx.EnsureIndex(ctx); err != nil {
				pkglogger.Warn("Elasticsearch index setup failed: %v", err)
			}
			cancel()
			threadIndex = idx
			pkglogger.Info("Connected to Elasticsearch")
		}
	}

	var media pkgstorage.MediaStore
	if cfg.Storage.Enabled && cfg.Storage.Bucket != "" {
		s3Client, s3Err := pkgstorage.NewS3Client(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			CDNURL:          cfg.Storage.CDNURL,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
		})
		if s3Err != nil {
			pkglogger.Warn("S3 storage init failed: %v (profile uploads disabled)", s3Err)
		} else {
			media = s3Client
			pkglogger.Info("Connected to S3 storage")
		}
	}

	mail := mailer.New(mailer.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		FromName: cfg.SMTP.FromName,
	})
	if !mail.IsConfigured() {
		pkglogger.Warn("SMTP not configured; verification codes are only logged")
	}

	jwtManager := jwt.NewManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)

	// Repositories
	userRepo := repository.NewUserRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	threadRepo := repository.NewThreadRepository(db)

	// Services
	defaults := service.ProfileDefaults{AvatarURL: cfg.Profile.DefaultAvatarURL, BannerURL: cfg.Profile.DefaultBannerURL}
	blacklist := service.NewTokenBlacklist(repository.NewTokenBlacklistRepository(db), cacheService)
	inviteService := service.NewInviteService(repository.NewInviteRepository(db))
	settingsService := service.NewSettingsService(repository.NewSettingsRepository(db))
	authService := service.NewAuthService(userRepo, profileRepo, inviteService, settingsService, blacklist, jwtManager, defaults)
	profileService := service.NewProfileService(userRepo, profileRepo, repository.NewVerificationCodeRepository(db), media, mail, defaults)
	categoryService := service.NewCategoryService(categoryRepo, cacheService)
	threadService := service.NewThreadService(threadRepo, categoryRepo, threadIndex)
	postService := service.NewPostService(repository.NewPostRepository(db), threadRepo)
	likeService := service.NewLikeService(repository.NewLikeRepository(db))
	moderationService := service.NewModerationService(repository.NewModerationRepository(db), profileRepo, userRepo)
	contentService := service.NewContentService(
		repository.NewContentCacheRepository(db),
		tmdb.NewClient(cfg.External.TMDBAPIKey, cfg.External.TMDBBaseURL),
		steam.NewCatalog(cfg.External.SteamAppIDPath),
		steam.NewClient(cfg.External.SteamBaseURL),
		cfg.External.CacheTTLDays,
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg.CORS.AllowOrigins)))
	router.Use(middleware.SecurityHeaders(!cfg.IsDevelopment()))
	router.Use(middleware.InputSanitizer())
	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	var userLimit gin.HandlerFunc
	if redisClient != nil && cfg.RateLimit.Enabled && !cfg.IsDevelopment() {
		limitCfg := middleware.DefaultRateLimitConfig()
		limitCfg.RequestsPerMinute = cfg.RateLimit.RequestsPerMinute
		router.Use(middleware.RateLimit(redisClient, limitCfg))
		userLimit = middleware.RateLimitPerUser(redisClient, cfg.RateLimit.RequestsPerMinute)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.Setup(router, &routes.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Invite:     handler.NewInviteHandler(inviteService, settingsService),
		Admin:      handler.NewAdminHandler(settingsService),
		Profile:    handler.NewProfileHandler(profileService),
		Category:   handler.NewCategoryHandler(categoryService),
		Thread:     handler.NewThreadHandler(threadService),
		Post:       handler.NewPostHandler(postService),
		Like:       handler.NewLikeHandler(likeService),
		Moderation: handler.NewModerationHandler(moderationService),
		Content:    handler.NewContentHandler(contentService),
	}, middleware.NewAuthenticator(jwtManager, blacklist, profileRepo), routes.Options{
		Environment:   cfg.Server.Env,
		UserRateLimit: userLimit,
		Probes:        readinessProbes(db, cacheService),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go every(ctx, dbStatsInterval, func() { recordDBStats(db) })
	go every(ctx, banSweepInterval, func() {
		if n, err := moderationService.ExpireTemporaryBans(time.Now()); err != nil {
			pkglogger.GetLogger().Error().Err(err).Msg("temporary ban sweep failed")
		} else if n > 0 {
			pkglogger.GetLogger().Info().Int64("expired", n).Msg("temporary bans expired")
		}
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		pkglogger.Info("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			pkglogger.Fatal("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	pkglogger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		pkglogger.Error("Graceful shutdown failed: %v", err)
	}
	closeRedis(redisClient)
}

func corsConfig(allowOrigins string) cors.Config {
	origins := splitAndTrim(allowOrigins, ",")
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Remaining"},
		MaxAge:           12 * time.Hour,
	}
}

// splitAndTrim splits s by sep and drops empty parts
func splitAndTrim(s, sep string) []string {
	var parts []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

// every runs fn each interval until ctx is done
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func recordDBStats(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	middleware.RecordDBStats(sqlDB.Stats())
}

func closeRedis(client *redis.Client) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		pkglogger.Warn("Redis close: %v", err)
	}
}

func readinessProbes(db *gorm.DB, cacheService pkgcache.Service) map[string]func(context.Context) error {
	probes := map[string]func(context.Context) error{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if cacheService.IsAvailable() {
		probes["redis"] = cacheService.Ping
	}
	return probes
}

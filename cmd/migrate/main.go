package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/gtracker/forum-backend/internal/config"
	"github.com/gtracker/forum-backend/internal/database"
	"github.com/gtracker/forum-backend/internal/migration"
	"github.com/gtracker/forum-backend/internal/repository"
	"github.com/gtracker/forum-backend/internal/service"
	pkgcache "github.com/gtracker/forum-backend/pkg/cache"
	pkges "github.com/gtracker/forum-backend/pkg/elasticsearch"
	pkglogger "github.com/gtracker/forum-backend/pkg/logger"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "", "config file path (default configs/config.<APP_ENV>.yaml)")
	doMigrate := flag.Bool("migrate", false, "create or update the schema")
	doSeed := flag.Bool("seed", false, "insert default settings and starter categories")
	doCleanup := flag.Bool("cleanup-cache", false, "delete expired content cache, blacklisted tokens and verification codes")
	doExpire := flag.Bool("expire-bans", false, "lift temporary bans past their expiry")
	doReindex := flag.Bool("reindex", false, "rebuild the Elasticsearch thread index")
	flag.Parse()

	config.LoadDotEnv()
	pkglogger.InitStructured(config.AppEnv())

	if *configPath == "" {
		*configPath = config.ConfigPath()
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		pkglogger.Fatal("Failed to load config: %v", err)
	}

	if !*doMigrate && !*doSeed && !*doCleanup && !*doExpire && !*doReindex {
		flag.Usage()
		os.Exit(2)
	}

	db, err := database.Open(cfg)
	if err != nil {
		pkglogger.Fatal("Failed to connect to database: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if *doMigrate {
		if err := migration.Run(db); err != nil {
			pkglogger.Fatal("Migration failed: %v", err)
		}
		pkglogger.Info("Schema up to date")
	}
	if *doSeed {
		if err := migration.Seed(db); err != nil {
			pkglogger.Fatal("Seed failed: %v", err)
		}
		pkglogger.Info("Seed data inserted")
	}
	if *doCleanup {
		runCleanup(db, cfg)
	}
	if *doExpire {
		moderation := service.NewModerationService(
			repository.NewModerationRepository(db),
			repository.NewProfileRepository(db),
			repository.NewUserRepository(db),
		)
		n, err := moderation.ExpireTemporaryBans(time.Now())
		if err != nil {
			pkglogger.Fatal("Ban expiry failed: %v", err)
		}
		pkglogger.Info("Expired %d temporary bans", n)
	}
	if *doReindex {
		runReindex(db, cfg)
	}
}

func runCleanup(db *gorm.DB, cfg *config.Config) {
	now := time.Now()

	content := service.NewContentService(repository.NewContentCacheRepository(db), nil, nil, nil, cfg.External.CacheTTLDays)
	n, err := content.CleanupCache()
	if err != nil {
		pkglogger.Fatal("Content cache cleanup failed: %v", err)
	}
	pkglogger.Info("Removed %d expired content cache entries", n)

	blacklist := service.NewTokenBlacklist(repository.NewTokenBlacklistRepository(db), pkgcache.NewService(nil))
	n, err = blacklist.Cleanup(now)
	if err != nil {
		pkglogger.Fatal("Token blacklist cleanup failed: %v", err)
	}
	pkglogger.Info("Removed %d expired blacklisted tokens", n)

	n, err = repository.NewVerificationCodeRepository(db).DeleteExpired(now)
	if err != nil {
		pkglogger.Fatal("Verification code cleanup failed: %v", err)
	}
	pkglogger.Info("Removed %d expired verification codes", n)
}

func runReindex(db *gorm.DB, cfg *config.Config) {
	if !cfg.Elasticsearch.Enabled || len(cfg.Elasticsearch.Addresses) == 0 {
		pkglogger.Fatal("Elasticsearch is not enabled in %s config", cfg.Server.Env)
	}
	client, err := pkges.NewClient(pkges.Config{
		Addresses: cfg.Elasticsearch.Addresses,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,
	})
	if err != nil {
		pkglogger.Fatal("Elasticsearch connection failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	index := pkges.NewThreadIndex(client, cfg.Elasticsearch.Index)
	if err := index.EnsureIndex(ctx); err != nil {
		pkglogger.Fatal("Index setup failed: %v", err)
	}
	threads := service.NewThreadService(repository.NewThreadRepository(db), repository.NewCategoryRepository(db), index)
	n, err := threads.Reindex(ctx)
	if err != nil {
		pkglogger.Fatal("Reindex failed: %v", err)
	}
	pkglogger.Info("Indexed %d threads", n)
}

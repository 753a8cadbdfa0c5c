// Package database opens the gorm connection for the configured driver.
package database

import (
	"fmt"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/gtracker/forum-backend/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open connects to mysql, postgres or sqlite and applies the pool settings
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg.Database)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if cfg.IsDevelopment() {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	if cfg.Database.Driver == "sqlite" {
		db.Exec("PRAGMA foreign_keys = ON")
		return db, nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}

func dialectorFor(d config.DatabaseConfig) (gorm.Dialector, error) {
	switch d.Driver {
	case "postgres":
		return postgres.Open(d.GetDSN()), nil
	case "sqlite":
		path := d.GetDSN()
		if path == "" {
			path = "file::memory:?cache=shared"
		}
		return sqlite.Open(path), nil
	case "mysql":
		mysqlCfg, err := mysqldriver.ParseDSN(d.GetDSN())
		if err != nil {
			return nil, fmt.Errorf("parse mysql dsn: %w", err)
		}
		if mysqlCfg.Params == nil {
			mysqlCfg.Params = map[string]string{}
		}
		mysqlCfg.Params["time_zone"] = "'+00:00'"
		return mysql.Open(mysqlCfg.FormatDSN()), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", d.Driver)
}

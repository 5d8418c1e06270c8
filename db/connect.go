package db

import (
	"fmt"
	"strings"

	"articles-server/confs"
	"articles-server/entities"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg confs.DatabaseConfig, log *zap.Logger) (Database, error) {
	var dialector gorm.Dialector

	switch cfg.Driver {
	case "sqlite":
		path := cfg.Path
		if path == "" {
			path = "articles.db"
		}
		dialector = sqlite.Open(path)
		log.Info("connecting to sqlite database", zap.String("path", path))
	case "postgres":
		dsn, err := PostgresDSN(cfg)
		if err != nil {
			return nil, err
		}
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
		PrepareStmt:    cfg.Driver == "postgres",
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if cfg.Driver == "sqlite" {
		// a single connection keeps in-memory databases shared and serializes writers
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(0)
	}

	log.Info("database connection established", zap.String("driver", cfg.Driver))

	database := &GormDatabase{DB: db}
	if cfg.AutoMigrate {
		if err := Migrate(database, log); err != nil {
			return nil, err
		}
	}
	return database, nil
}

// Migrate creates or updates the users, articles and sessions tables.
func Migrate(database Database, log *zap.Logger) error {
	log.Info("running database migrations")
	if err := database.GetDB().AutoMigrate(&entities.User{}, &entities.Article{}, &entities.Session{}); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Info("database migrations completed")
	return nil
}

// PostgresDSN builds a connection string from DB_URL or the individual
// DB_* parameters. Remote hosts default to sslmode=require.
func PostgresDSN(cfg confs.DatabaseConfig) (string, error) {
	if cfg.URL != "" {
		dsn := cfg.URL
		if !strings.Contains(dsn, "sslmode=") {
			if strings.Contains(dsn, "?") {
				dsn += "&sslmode=require"
			} else {
				dsn += "?sslmode=require"
			}
		}
		return dsn, nil
	}

	if cfg.Host == "" || cfg.Port == "" || cfg.User == "" || cfg.Password == "" || cfg.Name == "" {
		return "", fmt.Errorf("missing required database configuration: DB_URL or (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME)")
	}

	sslMode := "require"
	if cfg.Host == "localhost" || cfg.Host == "127.0.0.1" {
		sslMode = "disable"
	}

	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port, sslMode), nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info", "debug":
		return logger.Info
	default:
		return logger.Warn
	}
}

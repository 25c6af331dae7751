package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yatube/backend/internal/config"
	applogger "github.com/yatube/backend/internal/logger"
	"github.com/yatube/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB holds the database connection
var DB *gorm.DB

// Initialize opens the configured database and stores it in DB
func Initialize(cfg config.DatabaseConfig, verbose bool) error {
	db, err := Open(cfg, verbose)
	if err != nil {
		return err
	}
	DB = db
	applogger.Log.Info("Database connected", zap.String("driver", cfg.Driver))
	return nil
}

// Open connects to postgres or sqlite. Constraint violations come back as
// gorm.ErrDuplicatedKey / gorm.ErrForeignKeyViolated.
func Open(cfg config.DatabaseConfig, verbose bool) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.PostgresDSN())
	case "sqlite", "":
		path := cfg.SQLitePath
		if path == "" {
			path = "yatube.db"
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create sqlite directory: %w", err)
			}
		}
		// foreign keys are off by default in sqlite and must be enabled per connection
		dialector = sqlite.Open(path + "?_foreign_keys=on&_busy_timeout=5000")
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	gormLogger := logger.Default.LogMode(logger.Warn)
	if verbose {
		gormLogger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if cfg.Driver == "postgres" {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
	} else {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY under load
		sqlDB.SetMaxOpenConns(1)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate creates or updates the schema for every model
func Migrate(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
		&models.PasswordReset{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	applogger.Log.Info("Database migrations completed")
	return nil
}

// createIndexes adds the composite indexes behind the feed queries
func createIndexes(db *gorm.DB) error {
	statements := []string{
		"CREATE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))",
		"CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email))",
		"CREATE INDEX IF NOT EXISTS idx_posts_created ON posts (created_at DESC, id DESC)",
		"CREATE INDEX IF NOT EXISTS idx_posts_author_created ON posts (author_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_posts_group_created ON posts (group_id, created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_comments_post_created ON comments (post_id, created_at DESC)",
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func Close() error {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Health pings the database
func Health(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

package sqlite

import (
	"fmt"
	"log/slog"
	"time"

	"subtrack/internal/domain/entity"
	appErrors "subtrack/internal/pkg/errors"
	"subtrack/internal/pkg/logger"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connection owns the database handle for the lifetime of the process.
// It is opened once at startup and closed at shutdown.
type Connection struct {
	db  *gorm.DB
	log logger.Logger
}

// Open connects to the SQLite database at dsn and migrates the schema.
// Use ":memory:" for a throwaway database.
func Open(dsn string, logSQL bool, log logger.Logger) (*Connection, error) {
	level := gormlogger.Warn
	if logSQL {
		level = gormlogger.Info // Log all SQL
	}
	gormLog := gormlogger.New(
		logger.StdLogger(log, slog.LevelInfo),
		gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormLog,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database %s: %v", appErrors.ErrDatabaseOperation, dsn, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get underlying *sql.DB: %v", appErrors.ErrDatabaseOperation, err)
	}
	// SQLite allows a single writer; one connection also keeps an in-memory
	// database alive for as long as the pool is open.
	sqlDB.SetMaxOpenConns(1)

	if err := AutoMigrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	log.Info(fmt.Sprintf("Connected to database %s, schema migrated.", dsn))
	return &Connection{db: db, log: log}, nil
}

// AutoMigrate automatically migrates the database schema for the defined entities.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&entity.User{},
		&entity.Subscription{},
		&entity.ReminderLog{},
		&entity.ReminderClaim{},
	)
	if err != nil {
		return fmt.Errorf("%w: schema migration failed: %v", appErrors.ErrDatabaseOperation, err)
	}
	return nil
}

// DB returns the gorm handle shared by the repositories.
func (c *Connection) DB() *gorm.DB {
	return c.db
}

// Ping checks that the database is reachable.
func (c *Connection) Ping() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Close closes the database connection.
func (c *Connection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying *sql.DB: %w", err)
	}
	c.log.Info("Closing database connection...")
	return sqlDB.Close()
}

// Package store implements the C1 Vector Store Adapter: transactional CRUD,
// bulk scans with pagination, and parameterized ANN similarity queries
// (spec §4.1), grounded on the teacher's gorm-backed repository pattern
// (internal/application/repository/custom_agent.go).
package store

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openhive/retrieval-engine/internal/config"
	"github.com/openhive/retrieval-engine/internal/types"
)

// Open establishes the connection pool: it pre-pings once on open and
// recycles idle connections after ConnMaxIdleTime. It sets no keepalive or
// connect-timeout option of its own and does not read cfg.ConnectTimeout.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.DSN,
		PreferSimpleProtocol: false,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("store: underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 20))
	sqlDB.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 5))
	sqlDB.SetConnMaxIdleTime(orDefaultDuration(cfg.ConnMaxIdleTime, 5*time.Minute))

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("store: pre-ping: %w", err)
	}
	return db, nil
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

func orDefaultDuration(v, d time.Duration) time.Duration {
	if v <= 0 {
		return d
	}
	return v
}

// AutoMigrate creates/updates all entity tables. Production deployments use
// the SQL files in migrations/ via Migrate; this is the fast path for tests
// and local development.
func AutoMigrate(db *gorm.DB) error {
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("store: create vector extension: %w", err)
	}
	return db.AutoMigrate(
		&types.Issue{},
		&types.ForumPost{},
		&types.Doc{},
		&types.QA{},
		&types.Keyword{},
		&types.Synonym{},
		&types.BatchProcess{},
		&types.ApiKey{},
		&types.ChatSession{},
		&types.ChatSessionEntity{},
	)
}

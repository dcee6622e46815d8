package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"capwatch/core"

	"github.com/samber/lo"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// SQLStorage implements the core.WatchStorage interface using a SQL database
// via GORM
type SQLStorage struct {
	db *gorm.DB
}

// Config holds the configuration for SQL database connections
type Config struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// DefaultConfig returns a default configuration for SQL connections
func DefaultConfig() Config {
	return Config{
		MaxIdleConns:    5,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
	}
}

// NewFromSQLite creates a new SQLite storage instance
func NewFromSQLite(dbPath string, config Config, opts ...gorm.Option) (*SQLStorage, error) {
	return newFromSQL(sqlite.Open(dbPath), config, opts...)
}

// newFromSQL creates a new SQL storage instance with the specified
// configuration
func newFromSQL(dialect gorm.Dialector, config Config, opts ...gorm.Option) (*SQLStorage, error) {
	db, err := gorm.Open(dialect, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(config.MaxIdleConns)
	sqlDB.SetMaxOpenConns(config.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	if err = db.AutoMigrate(&core.Watch{}); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLStorage{db: db}, nil
}

// CreateWatch creates a new watch, enforcing (chat, contract) uniqueness
func (s *SQLStorage) CreateWatch(ctx context.Context, watch *core.Watch) error {
	tx := s.db.WithContext(ctx)

	var existing core.Watch
	err := tx.Where("chat_id = ? AND contract = ?", watch.ChatID, watch.Contract).
		First(&existing).Error
	if err == nil {
		return core.ErrWatchExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check existing watch: %w", err)
	}

	if result := tx.Create(watch); result.Error != nil {
		return fmt.Errorf("failed to create watch: %w", result.Error)
	}
	return nil
}

// Watches retrieves watches from the SQL database based on provided filters
func (s *SQLStorage) Watches(ctx context.Context, filters ...core.WatchFilter) ([]*core.Watch, error) {
	tx := s.db.WithContext(ctx)

	var watches []*core.Watch
	if result := tx.Find(&watches); result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to fetch watches: %w", result.Error)
	}

	// Filters are applied in memory, matching the buntdb backend
	if len(filters) > 0 {
		watches = lo.Filter(watches, func(watch *core.Watch, _ int) bool {
			for _, filter := range filters {
				if !filter(*watch) {
					return false
				}
			}
			return true
		})
	}

	return watches, nil
}

// UpdateAlert persists a new alert level together with the seen market cap
func (s *SQLStorage) UpdateAlert(ctx context.Context, id int64, level core.Level, seenCap float64) error {
	return s.update(ctx, id, map[string]any{
		"last_alert_level": level,
		"last_seen_cap":    seenCap,
	})
}

// UpdateSeen persists the seen market cap, leaving the alert level untouched
func (s *SQLStorage) UpdateSeen(ctx context.Context, id int64, seenCap float64) error {
	return s.update(ctx, id, map[string]any{"last_seen_cap": seenCap})
}

// UpdateThresholds rewrites the threshold triple for one contract of the user,
// or all of them when contract is empty
func (s *SQLStorage) UpdateThresholds(ctx context.Context, chatID int64, contract string, low, mid, high float64) (int64, error) {
	query := s.db.WithContext(ctx).Model(&core.Watch{}).Where("chat_id = ?", chatID)
	if contract != "" {
		query = query.Where("contract = ?", contract)
	}

	result := query.Updates(map[string]any{
		"threshold_low":  low,
		"threshold_mid":  mid,
		"threshold_high": high,
	})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to update thresholds: %w", result.Error)
	}

	return result.RowsAffected, nil
}

// Close closes the database connection
func (s *SQLStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

func (s *SQLStorage) update(ctx context.Context, id int64, fields map[string]any) error {
	result := s.db.WithContext(ctx).Model(&core.Watch{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to update watch: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", core.ErrWatchNotFound, id)
	}
	return nil
}

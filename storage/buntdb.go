package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"capwatch/core"

	"github.com/tidwall/buntdb"
)

const (
	// DefaultIndexName is the default index used for watch retrieval
	DefaultIndexName = "update_index"
)

// BuntStorage implements the core.WatchStorage interface using BuntDB
type BuntStorage struct {
	lastID int64
	db     *buntdb.DB
}

// BuntConfig holds configuration options for BuntDB
type BuntConfig struct {
	// SyncPolicy determines how often data is synchronized to disk
	SyncPolicy buntdb.SyncPolicy
}

// DefaultBuntConfig returns the default configuration for BuntDB
func DefaultBuntConfig() BuntConfig {
	return BuntConfig{SyncPolicy: buntdb.EverySecond}
}

// NewFromMemory creates an in-memory storage with default configuration
func NewFromMemory() (*BuntStorage, error) {
	return NewBuntStorage(":memory:", DefaultBuntConfig())
}

// NewFromFile creates a file-based storage with default configuration
func NewFromFile(file string) (*BuntStorage, error) {
	return NewBuntStorage(file, DefaultBuntConfig())
}

// NewBuntStorage creates a new BuntDB storage instance with the specified
// configuration
func NewBuntStorage(sourceFile string, config BuntConfig) (*BuntStorage, error) {
	db, err := buntdb.Open(sourceFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}

	if err := db.SetConfig(buntdb.Config{SyncPolicy: config.SyncPolicy}); err != nil {
		return nil, fmt.Errorf("failed to configure buntdb: %w", err)
	}

	if err := db.CreateIndex(DefaultIndexName, "*", buntdb.IndexJSON("updated_at")); err != nil {
		return nil, fmt.Errorf("failed to create default index: %w", err)
	}

	storage := &BuntStorage{db: db}

	// Restore the ID counter so records created after a restart stay unique
	err = db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend("", func(key, _ string) bool {
			if id, err := strconv.ParseInt(key, 10, 64); err == nil && id > storage.lastID {
				storage.lastID = id
			}
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan existing watches: %w", err)
	}

	return storage, nil
}

// getID generates a unique ID for watches
func (b *BuntStorage) getID() int64 {
	return atomic.AddInt64(&b.lastID, 1)
}

// CreateWatch stores a new watch, enforcing (chat, contract) uniqueness
func (b *BuntStorage) CreateWatch(_ context.Context, watch *core.Watch) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		var exists bool
		err := tx.Ascend("", func(_, value string) bool {
			var stored core.Watch
			if json.Unmarshal([]byte(value), &stored) != nil {
				return true
			}
			if stored.ChatID == watch.ChatID && stored.Contract == watch.Contract {
				exists = true
				return false
			}
			return true
		})
		if err != nil {
			return err
		}
		if exists {
			return core.ErrWatchExists
		}

		if watch.ID == 0 {
			watch.ID = b.getID()
		}
		now := time.Now()
		if watch.CreatedAt.IsZero() {
			watch.CreatedAt = now
		}
		watch.UpdatedAt = now

		return b.set(tx, watch)
	})
}

// Watches retrieves watches matching all provided filters
func (b *BuntStorage) Watches(_ context.Context, filters ...core.WatchFilter) ([]*core.Watch, error) {
	watches := make([]*core.Watch, 0)

	err := b.db.View(func(tx *buntdb.Tx) error {
		return tx.Ascend(DefaultIndexName, func(_, value string) bool {
			var watch core.Watch
			if err := json.Unmarshal([]byte(value), &watch); err != nil {
				return true
			}

			for _, filter := range filters {
				if !filter(watch) {
					return true
				}
			}

			watches = append(watches, &watch)
			return true
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch watches: %w", err)
	}

	return watches, nil
}

// UpdateAlert persists a new alert level together with the seen market cap
func (b *BuntStorage) UpdateAlert(_ context.Context, id int64, level core.Level, seenCap float64) error {
	return b.mutate(id, func(watch *core.Watch) {
		watch.LastAlertLevel = level
		watch.LastSeenCap = &seenCap
	})
}

// UpdateSeen persists the seen market cap, leaving the alert level untouched
func (b *BuntStorage) UpdateSeen(_ context.Context, id int64, seenCap float64) error {
	return b.mutate(id, func(watch *core.Watch) {
		watch.LastSeenCap = &seenCap
	})
}

// UpdateThresholds rewrites the threshold triple for one contract of the user,
// or all of them when contract is empty
func (b *BuntStorage) UpdateThresholds(_ context.Context, chatID int64, contract string, low, mid, high float64) (int64, error) {
	var updated int64

	err := b.db.Update(func(tx *buntdb.Tx) error {
		var matches []*core.Watch
		err := tx.Ascend("", func(_, value string) bool {
			var watch core.Watch
			if json.Unmarshal([]byte(value), &watch) != nil {
				return true
			}
			if watch.ChatID != chatID {
				return true
			}
			if contract != "" && watch.Contract != contract {
				return true
			}
			matches = append(matches, &watch)
			return true
		})
		if err != nil {
			return err
		}

		for _, watch := range matches {
			watch.ThresholdLow = low
			watch.ThresholdMid = mid
			watch.ThresholdHigh = high
			watch.UpdatedAt = time.Now()
			if err := b.set(tx, watch); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return updated, nil
}

// Close releases the underlying database
func (b *BuntStorage) Close() error {
	return b.db.Close()
}

// mutate applies fn to the stored watch with the given ID inside one update
// transaction
func (b *BuntStorage) mutate(id int64, fn func(watch *core.Watch)) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		key := strconv.FormatInt(id, 10)

		value, err := tx.Get(key)
		if err != nil {
			return fmt.Errorf("%w: id %d", core.ErrWatchNotFound, id)
		}

		var watch core.Watch
		if err := json.Unmarshal([]byte(value), &watch); err != nil {
			return fmt.Errorf("failed to unmarshal watch: %w", err)
		}

		fn(&watch)
		watch.UpdatedAt = time.Now()

		return b.set(tx, &watch)
	})
}

func (b *BuntStorage) set(tx *buntdb.Tx, watch *core.Watch) error {
	content, err := json.Marshal(watch)
	if err != nil {
		return fmt.Errorf("failed to marshal watch: %w", err)
	}

	key := strconv.FormatInt(watch.ID, 10)
	if _, _, err := tx.Set(key, string(content), nil); err != nil {
		return fmt.Errorf("failed to store watch: %w", err)
	}
	return nil
}

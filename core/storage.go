package core

import (
	"context"
)

// WatchStorage defines the interface for watch persistence.
// Updates touch a single record at a time; no multi-record transaction is
// required by any caller.
type WatchStorage interface {
	// CreateWatch stores a new watch, failing with ErrWatchExists when the
	// (chat, contract) pair is already tracked
	CreateWatch(ctx context.Context, watch *Watch) error

	// Watches retrieves watches matching all provided filters
	Watches(ctx context.Context, filters ...WatchFilter) ([]*Watch, error)

	// UpdateAlert persists a new alert level together with the seen market cap
	UpdateAlert(ctx context.Context, id int64, level Level, seenCap float64) error

	// UpdateSeen persists the seen market cap, leaving the alert level untouched
	UpdateSeen(ctx context.Context, id int64, seenCap float64) error

	// UpdateThresholds rewrites the threshold triple for one of the user's
	// contracts, or for all of them when contract is empty. Returns the number
	// of updated records.
	UpdateThresholds(ctx context.Context, chatID int64, contract string, low, mid, high float64) (int64, error)
}

func WithChatID(chatID int64) WatchFilter {
	return func(watch Watch) bool {
		return watch.ChatID == chatID
	}
}

func WithContract(contract string) WatchFilter {
	return func(watch Watch) bool {
		return watch.Contract == contract
	}
}

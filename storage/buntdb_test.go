package storage

import (
	"context"
	"testing"

	"capwatch/core"

	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *BuntStorage {
	t.Helper()

	storage, err := NewFromMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	return storage
}

func TestBuntStorage_CreateWatch(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	watch := core.NewWatch(42, "alice", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, storage.CreateWatch(ctx, watch))
	require.NotZero(t, watch.ID)
	require.False(t, watch.CreatedAt.IsZero())

	stored, err := storage.Watches(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, float64(core.DefaultThresholdLow), stored[0].ThresholdLow)
	require.Equal(t, float64(core.DefaultThresholdMid), stored[0].ThresholdMid)
	require.Equal(t, float64(core.DefaultThresholdHigh), stored[0].ThresholdHigh)
	require.Nil(t, stored[0].LastSeenCap)
}

func TestBuntStorage_CreateWatch_Duplicate(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	contract := "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	require.NoError(t, storage.CreateWatch(ctx, core.NewWatch(42, "alice", contract)))

	err := storage.CreateWatch(ctx, core.NewWatch(42, "alice", contract))
	require.ErrorIs(t, err, core.ErrWatchExists)

	// Same contract for another chat is a different watch
	require.NoError(t, storage.CreateWatch(ctx, core.NewWatch(7, "bob", contract)))
}

func TestBuntStorage_Watches_Filters(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.CreateWatch(ctx, core.NewWatch(1, "alice", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")))
	require.NoError(t, storage.CreateWatch(ctx, core.NewWatch(1, "alice", "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")))
	require.NoError(t, storage.CreateWatch(ctx, core.NewWatch(2, "bob", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")))

	all, err := storage.Watches(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	mine, err := storage.Watches(ctx, core.WithChatID(1))
	require.NoError(t, err)
	require.Len(t, mine, 2)

	one, err := storage.Watches(ctx, core.WithChatID(1), core.WithContract("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"))
	require.NoError(t, err)
	require.Len(t, one, 1)
	require.Equal(t, int64(1), one[0].ChatID)
}

func TestBuntStorage_UpdateAlert(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	watch := core.NewWatch(42, "alice", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, storage.CreateWatch(ctx, watch))

	require.NoError(t, storage.UpdateAlert(ctx, watch.ID, core.LevelMid, 1200))

	stored, err := storage.Watches(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, core.LevelMid, stored[0].LastAlertLevel)
	require.NotNil(t, stored[0].LastSeenCap)
	require.Equal(t, 1200.0, *stored[0].LastSeenCap)
}

func TestBuntStorage_UpdateSeen_KeepsAlertLevel(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	watch := core.NewWatch(42, "alice", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	require.NoError(t, storage.CreateWatch(ctx, watch))
	require.NoError(t, storage.UpdateAlert(ctx, watch.ID, core.LevelMid, 1200))

	require.NoError(t, storage.UpdateSeen(ctx, watch.ID, 900))

	stored, err := storage.Watches(ctx)
	require.NoError(t, err)
	require.Equal(t, core.LevelMid, stored[0].LastAlertLevel)
	require.Equal(t, 900.0, *stored[0].LastSeenCap)
}

func TestBuntStorage_Update_UnknownID(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.ErrorIs(t, storage.UpdateAlert(ctx, 999, core.LevelLow, 500), core.ErrWatchNotFound)
	require.ErrorIs(t, storage.UpdateSeen(ctx, 999, 500), core.ErrWatchNotFound)
}

func TestBuntStorage_UpdateThresholds(t *testing.T) {
	storage := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, storage.CreateWatch(ctx, core.NewWatch(1, "alice", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")))
	require.NoError(t, storage.CreateWatch(ctx, core.NewWatch(1, "alice", "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")))
	require.NoError(t, storage.CreateWatch(ctx, core.NewWatch(2, "bob", "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")))

	// Single contract
	updated, err := storage.UpdateThresholds(ctx, 1, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", 100, 200, 300)
	require.NoError(t, err)
	require.Equal(t, int64(1), updated)

	// All contracts of one chat
	updated, err = storage.UpdateThresholds(ctx, 1, "", 10, 20, 30)
	require.NoError(t, err)
	require.Equal(t, int64(2), updated)

	// Unknown contract touches nothing
	updated, err = storage.UpdateThresholds(ctx, 1, "0xcccccccccccccccccccccccccccccccccccccccc", 1, 2, 3)
	require.NoError(t, err)
	require.Zero(t, updated)

	mine, err := storage.Watches(ctx, core.WithChatID(1))
	require.NoError(t, err)
	for _, watch := range mine {
		require.Equal(t, 10.0, watch.ThresholdLow)
		require.Equal(t, 20.0, watch.ThresholdMid)
		require.Equal(t, 30.0, watch.ThresholdHigh)
	}

	// Other chats stay untouched
	other, err := storage.Watches(ctx, core.WithChatID(2))
	require.NoError(t, err)
	require.Equal(t, float64(core.DefaultThresholdLow), other[0].ThresholdLow)
}

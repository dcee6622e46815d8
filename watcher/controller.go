// Package watcher runs the periodic threshold-evaluation and
// notification-dispatch loop.
package watcher

import (
	"context"
	"sync"
	"time"

	"capwatch/core"
	"capwatch/logger"

	"github.com/StudioSol/set"
)

// Status represents the current state of the watcher controller
type Status string

// Available controller statuses
const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
)

const (
	defaultInterval     = 30 * time.Second
	defaultInitialDelay = 5 * time.Second
)

// Controller loads watches on a fixed interval, fetches market data in bulk,
// evaluates level transitions and dispatches alerts
type Controller struct {
	storage  core.WatchStorage
	feeder   core.Feeder
	notifier core.Notifier
	log      logger.Logger

	interval     time.Duration
	initialDelay time.Duration

	// cycleMu serializes cycles so a slow fetch can never overlap the next
	// tick and double-notify a level
	cycleMu sync.Mutex

	mu     sync.Mutex
	status Status
	finish chan bool
}

// NewController creates a new watcher controller
func NewController(
	storage core.WatchStorage,
	feeder core.Feeder,
	log logger.Logger,
	settings core.WatcherSettings,
) *Controller {
	interval := settings.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	initialDelay := settings.InitialDelay
	if initialDelay < 0 {
		initialDelay = defaultInitialDelay
	}

	return &Controller{
		storage:      storage,
		feeder:       feeder,
		log:          log,
		interval:     interval,
		initialDelay: initialDelay,
		status:       StatusStopped,
		// Buffered so Stop never blocks when the loop already exited with its
		// context
		finish: make(chan bool, 1),
	}
}

// SetNotifier configures the alert dispatcher for the controller
func (c *Controller) SetNotifier(notifier core.Notifier) {
	c.notifier = notifier
}

// Status returns the current controller status
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Start begins the polling loop
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == StatusRunning {
		return
	}
	c.status = StatusRunning

	go func() {
		select {
		case <-time.After(c.initialDelay):
		case <-c.finish:
			return
		case <-ctx.Done():
			return
		}

		c.runCycle(ctx)

		ticker := time.NewTicker(c.interval)
		for {
			select {
			case <-ticker.C:
				c.runCycle(ctx)
			case <-c.finish:
				ticker.Stop()
				return
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()

	c.log.Infof("Watcher started, polling every %s", c.interval)
}

// Stop halts the polling loop
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusRunning {
		return
	}
	c.status = StatusStopped
	c.finish <- true
	c.log.Info("Watcher stopped")
}

// runCycle executes a single poll: load watches, batch-fetch market data,
// evaluate every record independently. A failed record never aborts the rest
// of the cycle.
func (c *Controller) runCycle(ctx context.Context) {
	if !c.cycleMu.TryLock() {
		c.log.Warn("previous cycle still running, skipping tick")
		return
	}
	defer c.cycleMu.Unlock()

	watches, err := c.storage.Watches(ctx)
	if err != nil {
		c.log.WithError(err).Error("failed to load watches")
		return
	}
	if len(watches) == 0 {
		return
	}

	contracts := set.NewLinkedHashSetString()
	for _, watch := range watches {
		contracts.Add(watch.Contract)
	}

	distinct := make([]string, 0, contracts.Length())
	for contract := range contracts.Iter() {
		distinct = append(distinct, contract)
	}

	stats, err := c.feeder.Stats(ctx, distinct)
	if err != nil {
		c.log.WithError(err).Error("bulk price fetch aborted")
		return
	}

	for _, watch := range watches {
		c.evaluate(ctx, watch, stats[watch.Contract])
	}
}

// evaluate processes one watch record against its contract's observation
func (c *Controller) evaluate(ctx context.Context, watch *core.Watch, observation core.PriceObservation) {
	if !observation.Usable() {
		// Data was unusable this cycle; leave the record untouched
		c.log.WithFields(map[string]any{
			"contract": watch.Contract,
			"reason":   observation.Err,
		}).Debug("skipping watch, no market cap data")
		return
	}

	marketCap := *observation.MarketCap
	newLevel := core.LevelFor(marketCap, watch.ThresholdLow, watch.ThresholdMid, watch.ThresholdHigh)
	prevLevel := watch.PrevLevel()

	if newLevel.CrossedUp(prevLevel) {
		text := formatAlert(watch, marketCap, newLevel, observation.PairURL)
		if c.notifier != nil {
			// A failed send is swallowed: the user may have blocked the bot
			if err := c.notifier.Notify(watch.ChatID, text); err != nil {
				c.log.WithError(err).WithField("chat_id", watch.ChatID).Warn("alert dispatch failed")
			}
		}

		// The level is marked sent even when delivery failed, so the user is
		// never re-notified for the same level
		if err := c.storage.UpdateAlert(ctx, watch.ID, newLevel, marketCap); err != nil {
			c.log.WithError(err).WithField("watch_id", watch.ID).Error("failed to persist alert level")
		}
		return
	}

	if watch.LastSeenCap == nil || *watch.LastSeenCap != marketCap {
		if err := c.storage.UpdateSeen(ctx, watch.ID, marketCap); err != nil {
			c.log.WithError(err).WithField("watch_id", watch.ID).Error("failed to persist seen market cap")
		}
	}
}

package core

import (
	"fmt"
	"regexp"
	"time"
)

// Default thresholds applied when a user starts tracking a contract
const (
	DefaultThresholdLow  = 500
	DefaultThresholdMid  = 1000
	DefaultThresholdHigh = 1500
)

// Supported contract address formats: EVM (0x + 40 hex) and base58 (32-44 chars)
var (
	evmAddressRegexp    = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	base58AddressRegexp = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
)

// ValidContract reports whether addr looks like a trackable contract address
func ValidContract(addr string) bool {
	return evmAddressRegexp.MatchString(addr) || base58AddressRegexp.MatchString(addr)
}

// WatchFilter defines a function type for filtering watches
type WatchFilter func(watch Watch) bool

// Watch represents a tracked (user, contract) pair with its thresholds and
// alert state. Unique per (ChatID, Contract).
type Watch struct {
	ID       int64  `db:"id" json:"id" gorm:"primaryKey,autoIncrement"`
	ChatID   int64  `db:"chat_id" json:"chat_id" gorm:"index:idx_chat_contract,unique"`
	Username string `db:"username" json:"username"`
	Contract string `db:"contract" json:"contract" gorm:"index:idx_chat_contract,unique"`

	ThresholdLow  float64 `db:"threshold_low" json:"threshold_low"`
	ThresholdMid  float64 `db:"threshold_mid" json:"threshold_mid"`
	ThresholdHigh float64 `db:"threshold_high" json:"threshold_high"`

	// LastAlertLevel is the highest level already notified; it only moves up
	LastAlertLevel Level `db:"last_alert_level" json:"last_alert_level"`

	// LastSeenCap is the market cap observed on the last usable poll, nil
	// before the first successful observation
	LastSeenCap *float64 `db:"last_seen_cap" json:"last_seen_cap"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// NewWatch creates a watch with the default thresholds and no alert history
func NewWatch(chatID int64, username, contract string) *Watch {
	return &Watch{
		ChatID:         chatID,
		Username:       username,
		Contract:       contract,
		ThresholdLow:   DefaultThresholdLow,
		ThresholdMid:   DefaultThresholdMid,
		ThresholdHigh:  DefaultThresholdHigh,
		LastAlertLevel: LevelNone,
	}
}

// PrevLevel returns the stored alert level, treating an unset field as none
func (w Watch) PrevLevel() Level {
	if w.LastAlertLevel == "" {
		return LevelNone
	}
	return w.LastAlertLevel
}

// ValidThresholds checks the 0 < low <= mid <= high invariant
func ValidThresholds(low, mid, high float64) bool {
	return 0 < low && low <= mid && mid <= high
}

func (w Watch) String() string {
	return fmt.Sprintf("%s [%v/%v/%v] level=%s",
		w.Contract, w.ThresholdLow, w.ThresholdMid, w.ThresholdHigh, w.PrevLevel())
}

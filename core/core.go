package core

import (
	"context"
)

// Feeder provides normalized market data for contract addresses
type Feeder interface {
	// TokenStats fetches and normalizes the observation for a single contract
	TokenStats(ctx context.Context, contract string) PriceObservation

	// Stats fetches observations for every contract in the set, one entry per
	// contract. The error is non-nil only when the context is canceled.
	Stats(ctx context.Context, contracts []string) (map[string]PriceObservation, error)
}

// Notifier delivers alert messages to a user chat
type Notifier interface {
	// Notify sends a Markdown-formatted message to the given chat
	Notify(chatID int64, text string) error
	OnError(err error)
}

// NotifierWithStart is a notifier that runs its own receive loop
type NotifierWithStart interface {
	Notifier
	Start()
}

// Package events defines the domain events emitted by the application.
package events

import (
	"context"
	"time"
)

// TransferCompleted is emitted after a transfer has been durably committed.
type TransferCompleted struct {
	TransferID    int64     `json:"transfer_id"`
	FromAccountID int32     `json:"from_account_id"`
	ToAccountID   int32     `json:"to_account_id"`
	Amount        string    `json:"amount"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Publisher publishes domain events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event any) error
}

// NopPublisher discards all events. It is used when no broker is configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(ctx context.Context, event any) error {
	return nil
}

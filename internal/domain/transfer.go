package domain

import (
	"errors"
	"time"
)

var (
	// ErrInvalidAmount indicates that the amount is not a valid decimal.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount indicates a zero or negative amount.
	ErrNegativeAmount = errors.New("amount must be positive")
	// ErrSameAccount indicates that sender and receiver accounts are the same.
	ErrSameAccount = errors.New("sender and receiver accounts are the same")
	// ErrSenderNotFound indicates that the sender account is not found.
	ErrSenderNotFound = errors.New("sender account not found")
	// ErrReceiverNotFound indicates that the receiver account is not found.
	ErrReceiverNotFound = errors.New("receiver account not found")
	// ErrInsufficientBalance indicates that the sender does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidOwner indicates that the user is unauthorized to transfer money from the account.
	ErrInvalidOwner = errors.New("unauthorized owner")
	// ErrLockTimeout indicates that the account locks were not acquired within the
	// configured bound. The transfer was not applied and is safe to retry.
	ErrLockTimeout = errors.New("transfer lock timeout")
	// ErrTransferCancelled indicates that the caller cancelled the transfer before
	// any mutation took place.
	ErrTransferCancelled = errors.New("transfer cancelled")
	// ErrReconciliationRequired indicates that the transfer failed mid-flight and
	// its rollback failed too. Account state must be reconciled manually; this is
	// the only non-retryable transfer error.
	ErrReconciliationRequired = errors.New("transfer state unknown: manual reconciliation required")
	// ErrTransferNotFound indicates that the transfer is not found.
	ErrTransferNotFound = errors.New("transfer not found")
)

// Transfer is the immutable record of a committed funds movement between two
// accounts. A row exists iff the paired balance mutations were durably
// committed; rows are never updated or deleted.
type Transfer struct {
	ID            int64     `json:"id"`
	FromAccountID int32     `json:"from_account_id"`
	ToAccountID   int32     `json:"to_account_id"`
	Amount        string    `json:"amount"` // always positive
	CreatedAt     time.Time `json:"created_at"`
}

// CreateTransferParams is the input data for the transfer transaction.
type CreateTransferParams struct {
	FromAccountID int32  `json:"from_account_id"`
	ToAccountID   int32  `json:"to_account_id"`
	Amount        string `json:"amount"`
}

// ListTransfersParams is the input data to list transfers touching an account.
type ListTransfersParams struct {
	AccountID int32 `json:"account_id"`
	Limit     int32 `json:"limit"`
	Offset    int32 `json:"offset"`
}

// TransferTxResult is the result of a committed transfer: the record plus both
// updated accounts, so the caller can render a receipt without a second read.
type TransferTxResult struct {
	Transfer    Transfer `json:"transfer"`
	FromAccount Account  `json:"from_account"`
	ToAccount   Account  `json:"to_account"`
}

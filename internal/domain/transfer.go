package domain

import (
	"errors"
	"time"
)

var (
	// ErrInvalidAmount indicates invalid amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount indicates non-positive amount.
	ErrNegativeAmount = errors.New("negative amount")
	// ErrSameAccountTransfer indicates that sender and receiver are the same account.
	ErrSameAccountTransfer = errors.New("cannot transfer to same account")
	// ErrInsufficientBalance indicates that the sender does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient funds")
	// ErrDailyLimitExceeded indicates that the transfer would exceed the sender's daily limit.
	ErrDailyLimitExceeded = errors.New("exceeds daily limit")
	// ErrTransferContention indicates that account locks could not be acquired in time.
	// The transfer was not applied and may be retried by the caller.
	ErrTransferContention = errors.New("transfer contention")
)

// StatusCompleted is the only status the engine persists; failed transfers
// abort before any row is written.
const StatusCompleted = "COMPLETED"

// Transfer holds one completed movement of funds between two accounts.
// Rows are append-only and immutable once written.
type Transfer struct {
	ID            string    `json:"id"`
	FromAccountID string    `json:"from_account_id"`
	ToAccountID   string    `json:"to_account_id"`
	Amount        string    `json:"amount"` // must be positive
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateTransferParams is the input data for the transfer transaction.
type CreateTransferParams struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
}

// TransferTxResult is the result of the transfer transaction.
type TransferTxResult struct {
	Transfer    Transfer   `json:"transfer"`
	FromAccount Account    `json:"from_account"`
	ToAccount   Account    `json:"to_account"`
	Usage       DailyUsage `json:"usage"`
}

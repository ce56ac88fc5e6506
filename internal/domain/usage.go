package domain

import "time"

// DailyUsage holds the cumulative amount an account has sent out during one
// calendar day. One row per (account, date), created lazily on the first
// transfer of the day and mutated only inside the transfer transaction.
type DailyUsage struct {
	ID               string    `json:"id"`
	AccountID        string    `json:"account_id"`
	Date             time.Time `json:"date"`
	TotalTransferred string    `json:"total_transferred"` // non-decreasing within a day
}

package domain

import "time"

// ActionMoneyTransfer tags audit entries written by the transfer engine.
const ActionMoneyTransfer = "MONEY_TRANSFER"

// AuditLogEntry holds one append-only audit record. Entries are written in
// the same transaction as the action they describe and are never updated
// or deleted.
type AuditLogEntry struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

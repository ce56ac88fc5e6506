// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
)

// Account holds balance and daily spending limit data.
//
// Accounts are created outside this service and never deleted by it;
// balances change only through the transfer engine.
type Account struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Balance    string    `json:"balance"`
	DailyLimit string    `json:"daily_limit"`
	CreatedAt  time.Time `json:"created_at"`
}

// Package helpers provides seed fixtures for integration tests.
//
// Accounts are created outside the transfer core in production, so tests
// seed them with plain inserts rather than through a repository.
package helpers

import (
	"context"
	"testing"

	"github.com/smartbank/ledger-core/internal/domain"
	"github.com/smartbank/ledger-core/pkg/dbpkg"
	"github.com/smartbank/ledger-core/pkg/randompkg"
)

const insertAccountQuery = `
INSERT INTO
    accounts (id, name, balance, daily_limit)
VALUES
    ($1, $2, $3, $4)
RETURNING id, name, balance, daily_limit, created_at
`

// SeedAccount creates an account with the given balance and daily limit.
func SeedAccount(t *testing.T, db dbpkg.SQLInterface, balance, dailyLimit string) domain.Account {
	t.Helper()

	return SeedNamedAccount(t, db, randompkg.AccountName(), balance, dailyLimit)
}

// SeedNamedAccount creates an account with the given display name.
func SeedNamedAccount(t *testing.T, db dbpkg.SQLInterface, name, balance, dailyLimit string) domain.Account {
	t.Helper()

	row := db.QueryRowContext(context.Background(), insertAccountQuery,
		randompkg.AccountID(), name, balance, dailyLimit)

	var a domain.Account

	err := row.Scan(&a.ID, &a.Name, &a.Balance, &a.DailyLimit, &a.CreatedAt)
	if err != nil {
		t.Fatalf("seeding account failed: %v", err)
	}

	return a
}

// RandomAccount returns an in-memory account fixture for handler tests.
func RandomAccount() domain.Account {
	return domain.Account{
		ID:         randompkg.AccountID(),
		Name:       randompkg.AccountName(),
		Balance:    randompkg.MoneyAmountBetween(1_000, 10_000),
		DailyLimit: randompkg.MoneyAmountBetween(100, 1_000),
	}
}
